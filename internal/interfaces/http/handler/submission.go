package handler

import (
	"context"
	"errors"
	"net/http"

	appcontent "github.com/datadik/portal/internal/application/content"
	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type submissionService interface {
	MaxUploadSize() int64
	Upload(ctx context.Context, actor identity.Principal, input appcontent.UploadSubmissionInput) (*appcontent.SubmissionResponse, error)
	List(ctx context.Context, actor identity.Principal, filter content.SubmissionFilter) (*shared.Paginated[appcontent.SubmissionResponse], error)
	UpdateStatus(ctx context.Context, actor identity.Principal, id uuid.UUID, status content.SubmissionStatus) (*appcontent.SubmissionResponse, error)
	Delete(ctx context.Context, actor identity.Principal, id uuid.UUID) error
	DownloadURL(ctx context.Context, actor identity.Principal, id uuid.UUID) (*appcontent.DownloadResponse, error)
}

// multipartOverhead leaves room for the form fields around the file part
const multipartOverhead = 1 << 20

// SubmissionListQuery represents the query of a submission listing
type SubmissionListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"q"`
	OrgID    string `form:"org_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=pending verified rejected"`
	Category string `form:"category" binding:"omitempty,oneof=umum laporan arsip pengajuan"`
}

// SubmissionHandler handles file submissions from schools
type SubmissionHandler struct {
	BaseHandler
	submissionService submissionService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissionService submissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// Upload godoc
// @Summary      Upload submission
// @Description  Operators submit for their own school; admins may pass org_id
// @Tags         submissions
// @Accept       multipart/form-data
// @Produce      json
// @Param        file        formData file   true  "File"
// @Param        description formData string false "Description"
// @Param        category    formData string false "umum, laporan, arsip or pengajuan"
// @Param        org_id      formData string false "Organization ID (admins only)"
// @Success      201 {object} dto.Response{data=appcontent.SubmissionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /submissions [post]
func (h *SubmissionHandler) Upload(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}

	maxSize := h.submissionService.MaxUploadSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.ErrorWithCode(c, dto.ErrCodeFileTooLarge, appcontent.ErrFileTooLarge.Message)
			return
		}
		h.BadRequest(c, "Berkas wajib diunggah")
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		h.ErrorWithCode(c, dto.ErrCodeFileTooLarge, appcontent.ErrFileTooLarge.Message)
		return
	}

	category := c.DefaultPostForm("category", string(content.SubmissionGeneral))
	if !content.SubmissionCategory(category).IsValid() {
		h.BadRequest(c, "Kategori tidak valid")
		return
	}

	input := appcontent.UploadSubmissionInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
		Description: c.PostForm("description"),
		Category:    content.SubmissionCategory(category),
	}
	if raw := c.PostForm("org_id"); raw != "" {
		orgID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "ID organisasi tidak valid")
			return
		}
		input.OrgID = &orgID
	}

	sub, err := h.submissionService.Upload(c.Request.Context(), actor, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sub)
}

// List godoc
// @Summary      List submissions
// @Description  Admins see every school; operators their own
// @Tags         submissions
// @Produce      json
// @Param        status    query string false "pending, verified or rejected"
// @Param        category  query string false "umum, laporan, arsip or pengajuan"
// @Param        org_id    query string false "Organization ID (admins only)"
// @Success      200 {object} dto.Response{data=[]appcontent.SubmissionResponse,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}
	var query SubmissionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Parameter tidak valid")
		return
	}

	filter := content.SubmissionFilter{
		Filter: shared.Filter{
			Page:     query.Page,
			PageSize: query.PageSize,
			Search:   query.Search,
			OrderBy:  "created_at",
			OrderDir: "desc",
		},
		Status:   content.SubmissionStatus(query.Status),
		Category: content.SubmissionCategory(query.Category),
	}
	if id, err := uuid.Parse(query.OrgID); err == nil {
		filter.OrgID = &id
	}

	result, err := h.submissionService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// UpdateStatus godoc
// @Summary      Review submission
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Param        id      path string                                 true "Submission ID"
// @Param        request body appcontent.UpdateSubmissionStatusInput true "Status"
// @Success      200 {object} dto.Response{data=appcontent.SubmissionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /submissions/{id}/status [patch]
func (h *SubmissionHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req appcontent.UpdateSubmissionStatusInput
	if !h.bindJSON(c, &req) {
		return
	}

	sub, err := h.submissionService.UpdateStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sub)
}

// Delete godoc
// @Summary      Delete submission
// @Description  Removes the stored file, then the record
// @Tags         submissions
// @Param        id path string true "Submission ID"
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /submissions/{id} [delete]
func (h *SubmissionHandler) Delete(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.submissionService.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Download godoc
// @Summary      Download link
// @Description  Returns a presigned URL for the stored file
// @Tags         submissions
// @Produce      json
// @Param        id path string true "Submission ID"
// @Success      200 {object} dto.Response{data=appcontent.DownloadResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /submissions/{id}/download [get]
func (h *SubmissionHandler) Download(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	link, err := h.submissionService.DownloadURL(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, link)
}
