package handler

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appcontent "github.com/datadik/portal/internal/application/content"
	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupSubmissionRouter(svc *mockSubmissionService, mws ...gin.HandlerFunc) *gin.Engine {
	h := NewSubmissionHandler(svc)
	r := gin.New()
	r.Use(mws...)
	g := r.Group("/api/submissions")
	g.POST("", h.Upload)
	g.GET("", h.List)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/download", h.Download)
	return r
}

// multipartBody builds a form with an optional file part and text fields
func multipartBody(t *testing.T, fileName string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func sendMultipart(r http.Handler, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmissionHandler_Upload(t *testing.T) {
	orgID := uuid.New()
	actor := operatorPrincipal(orgID)

	t.Run("defaults category to umum", func(t *testing.T) {
		svc := new(mockSubmissionService)
		svc.On("MaxUploadSize").Return(int64(1 << 20))
		svc.On("Upload", mock.Anything, actor, mock.MatchedBy(func(in appcontent.UploadSubmissionInput) bool {
			data, _ := io.ReadAll(in.Body)
			return in.FileName == "rapor.pdf" &&
				in.Size == int64(len("%PDF-1.4")) &&
				string(data) == "%PDF-1.4" &&
				in.Category == content.SubmissionGeneral &&
				in.Description == "Rapor semester" &&
				in.OrgID == nil
		})).Return(&appcontent.SubmissionResponse{ID: uuid.New(), OrgID: orgID, Status: content.StatusPending}, nil)

		body, ct := multipartBody(t, "rapor.pdf", []byte("%PDF-1.4"), map[string]string{"description": "Rapor semester"})
		w := sendMultipart(setupSubmissionRouter(svc, withPrincipal(actor)), "/api/submissions", body, ct)

		assert.Equal(t, http.StatusCreated, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "pending", data["status"])
		svc.AssertExpectations(t)
	})

	t.Run("admin targets a school", func(t *testing.T) {
		admin := adminPrincipal()
		svc := new(mockSubmissionService)
		svc.On("MaxUploadSize").Return(int64(1 << 20))
		svc.On("Upload", mock.Anything, admin, mock.MatchedBy(func(in appcontent.UploadSubmissionInput) bool {
			return in.OrgID != nil && *in.OrgID == orgID && in.Category == content.SubmissionReport
		})).Return(&appcontent.SubmissionResponse{ID: uuid.New(), OrgID: orgID}, nil)

		body, ct := multipartBody(t, "laporan.xlsx", []byte("data"), map[string]string{
			"org_id":   orgID.String(),
			"category": "laporan",
		})
		w := sendMultipart(setupSubmissionRouter(svc, withPrincipal(admin)), "/api/submissions", body, ct)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		svc := new(mockSubmissionService)
		svc.On("MaxUploadSize").Return(int64(1 << 20))

		body, ct := multipartBody(t, "", nil, map[string]string{"description": "x"})
		w := sendMultipart(setupSubmissionRouter(svc, withPrincipal(actor)), "/api/submissions", body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("file over the limit", func(t *testing.T) {
		svc := new(mockSubmissionService)
		svc.On("MaxUploadSize").Return(int64(4))

		body, ct := multipartBody(t, "besar.pdf", []byte("0123456789"), nil)
		w := sendMultipart(setupSubmissionRouter(svc, withPrincipal(actor)), "/api/submissions", body, ct)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, dto.ErrCodeFileTooLarge, decodeResponse(t, w).Error.Code)
		svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown category", func(t *testing.T) {
		svc := new(mockSubmissionService)
		svc.On("MaxUploadSize").Return(int64(1 << 20))

		body, ct := multipartBody(t, "a.pdf", []byte("a"), map[string]string{"category": "rahasia"})
		w := sendMultipart(setupSubmissionRouter(svc, withPrincipal(actor)), "/api/submissions", body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad org id", func(t *testing.T) {
		svc := new(mockSubmissionService)
		svc.On("MaxUploadSize").Return(int64(1 << 20))

		body, ct := multipartBody(t, "a.pdf", []byte("a"), map[string]string{"org_id": "abc"})
		w := sendMultipart(setupSubmissionRouter(svc, withPrincipal(actor)), "/api/submissions", body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("requires login", func(t *testing.T) {
		svc := new(mockSubmissionService)
		body, ct := multipartBody(t, "a.pdf", []byte("a"), nil)
		w := sendMultipart(setupSubmissionRouter(svc), "/api/submissions", body, ct)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSubmissionHandler_List(t *testing.T) {
	actor := adminPrincipal()
	orgID := uuid.New()

	svc := new(mockSubmissionService)
	page := shared.NewPaginated([]appcontent.SubmissionResponse{{ID: uuid.New()}}, 1, 1, 20)
	svc.On("List", mock.Anything, actor, mock.MatchedBy(func(f content.SubmissionFilter) bool {
		return f.Status == content.StatusVerified && f.OrgID != nil && *f.OrgID == orgID &&
			f.OrderBy == "created_at" && f.OrderDir == "desc"
	})).Return(&page, nil)

	w := sendJSON(setupSubmissionRouter(svc, withPrincipal(actor)), http.MethodGet,
		"/api/submissions?status=verified&org_id="+orgID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)

	w = sendJSON(setupSubmissionRouter(svc, withPrincipal(actor)), http.MethodGet, "/api/submissions?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmissionHandler_UpdateStatus(t *testing.T) {
	actor := adminPrincipal()
	id := uuid.New()

	t.Run("verify", func(t *testing.T) {
		svc := new(mockSubmissionService)
		svc.On("UpdateStatus", mock.Anything, actor, id, content.StatusVerified).
			Return(&appcontent.SubmissionResponse{ID: id, Status: content.StatusVerified}, nil)

		w := sendJSON(setupSubmissionRouter(svc, withPrincipal(actor)), http.MethodPatch,
			"/api/submissions/"+id.String()+"/status", map[string]string{"status": "verified"})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("invalid status", func(t *testing.T) {
		svc := new(mockSubmissionService)
		w := sendJSON(setupSubmissionRouter(svc, withPrincipal(actor)), http.MethodPatch,
			"/api/submissions/"+id.String()+"/status", map[string]string{"status": "approved"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("operator denied", func(t *testing.T) {
		op := operatorPrincipal(uuid.New())
		svc := new(mockSubmissionService)
		svc.On("UpdateStatus", mock.Anything, op, id, content.StatusRejected).Return(nil, shared.ErrForbidden)

		w := sendJSON(setupSubmissionRouter(svc, withPrincipal(op)), http.MethodPatch,
			"/api/submissions/"+id.String()+"/status", map[string]string{"status": "rejected"})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestSubmissionHandler_DeleteAndDownload(t *testing.T) {
	actor := adminPrincipal()
	id := uuid.New()
	expires := time.Now().Add(15 * time.Minute)

	svc := new(mockSubmissionService)
	svc.On("Delete", mock.Anything, actor, id).Return(nil)
	svc.On("DownloadURL", mock.Anything, actor, id).Return(&appcontent.DownloadResponse{
		URL:       "https://storage.example.com/submissions/a.pdf?sig=1",
		FileName:  "a.pdf",
		ExpiresAt: expires,
	}, nil)

	r := setupSubmissionRouter(svc, withPrincipal(actor))

	w := sendJSON(r, http.MethodGet, "/api/submissions/"+id.String()+"/download", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "a.pdf", data["file_name"])

	w = sendJSON(r, http.MethodDelete, "/api/submissions/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	svc.AssertExpectations(t)
}
