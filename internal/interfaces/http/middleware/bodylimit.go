package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// multipartOverhead covers form boundaries and fields around an uploaded file
const multipartOverhead = 1 << 20

// BodyLimitConfig caps request bodies. Upload routes, keyed by gin route
// pattern, get their own file cap plus multipart overhead.
type BodyLimitConfig struct {
	MaxBytes int64
	Uploads  map[string]int64
}

// BodyLimit caps every request body at maxBytes
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return BodyLimitWithConfig(BodyLimitConfig{MaxBytes: maxBytes})
}

// BodyLimitWithConfig rejects oversized bodies up front when Content-Length
// is known and cuts off streamed bodies at the same cap.
func BodyLimitWithConfig(cfg BodyLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, message := cfg.MaxBytes, "Ukuran permintaan melebihi batas yang diizinkan."
		if fileCap, ok := cfg.Uploads[c.FullPath()]; ok {
			limit, message = fileCap+multipartOverhead, "Ukuran berkas melebihi batas yang diizinkan."
		}
		if limit <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}

		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error": gin.H{
					"code":       "ERR_REQUEST_TOO_LARGE",
					"message":    message,
					"request_id": getRequestID(c),
				},
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
