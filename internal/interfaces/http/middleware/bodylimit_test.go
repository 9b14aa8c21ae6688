package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func uploadRouter() *gin.Engine {
	router := gin.New()
	router.Use(BodyLimitWithConfig(BodyLimitConfig{
		MaxBytes: 64,
		Uploads: map[string]int64{
			"/api/submissions":          2 << 20,
			"/api/admin/schools/import": 1 << 20,
		},
	}))
	read := func(c *gin.Context) {
		n, err := io.Copy(io.Discard, c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "cut at %d", tooLarge.Limit)
			return
		}
		c.String(http.StatusOK, "%d", n)
	}
	router.POST("/api/posts", read)
	router.POST("/api/submissions", read)
	router.POST("/api/admin/schools/import", read)
	return router
}

func post(router http.Handler, path string, size int, streamed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(strings.Repeat("x", size)))
	if streamed {
		req.ContentLength = -1
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBodyLimit_JSONRoutes(t *testing.T) {
	router := uploadRouter()

	assert.Equal(t, http.StatusOK, post(router, "/api/posts", 64, false).Code)

	w := post(router, "/api/posts", 65, false)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_REQUEST_TOO_LARGE")
	assert.Contains(t, w.Body.String(), "Ukuran permintaan")

	w = post(router, "/api/posts", 500, true)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "cut at 64", w.Body.String())
}

func TestBodyLimit_UploadRoutes(t *testing.T) {
	router := uploadRouter()

	t.Run("submission file above the JSON cap is accepted", func(t *testing.T) {
		w := post(router, "/api/submissions", 2<<20, false)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("multipart overhead is allowed on top of the file cap", func(t *testing.T) {
		w := post(router, "/api/admin/schools/import", 1<<20+512, true)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("roster import beyond its cap", func(t *testing.T) {
		w := post(router, "/api/admin/schools/import", 2<<20+1, false)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "Ukuran berkas")
	})
}

func TestBodyLimit_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(BodyLimit(0))
	router.POST("/api/chat", func(c *gin.Context) {
		n, _ := io.Copy(io.Discard, c.Request.Body)
		c.String(http.StatusOK, "%d", n)
	})

	w := post(router, "/api/chat", 4096, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "4096", w.Body.String())
}
