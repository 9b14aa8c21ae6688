package handler

import (
	"context"

	appcontent "github.com/datadik/portal/internal/application/content"
	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type postService interface {
	ListPublished(ctx context.Context, filter content.PostFilter) (*shared.Paginated[appcontent.PostResponse], error)
	ListManaged(ctx context.Context, actor identity.Principal, filter content.PostFilter) (*shared.Paginated[appcontent.PostResponse], error)
	Get(ctx context.Context, actor *identity.Principal, id uuid.UUID) (*appcontent.PostResponse, error)
	Create(ctx context.Context, actor identity.Principal, input appcontent.CreatePostInput) (*appcontent.PostResponse, error)
	Update(ctx context.Context, actor identity.Principal, id uuid.UUID, input appcontent.UpdatePostInput) (*appcontent.PostResponse, error)
	Delete(ctx context.Context, actor identity.Principal, id uuid.UUID) error
}

// PostListQuery represents the query of a post listing
type PostListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"q"`
	OrgID    string `form:"org_id" binding:"omitempty,uuid"`
	Category string `form:"category" binding:"omitempty,oneof=berita agenda pengumuman"`
}

func (q PostListQuery) filter() content.PostFilter {
	f := content.PostFilter{
		Filter: shared.Filter{
			Page:     q.Page,
			PageSize: q.PageSize,
			Search:   q.Search,
			OrderBy:  "created_at",
			OrderDir: "desc",
		},
		Category: content.PostCategory(q.Category),
	}
	if id, err := uuid.Parse(q.OrgID); err == nil {
		f.OrgID = &id
	}
	return f
}

// PostHandler handles news, agenda and announcement posts
type PostHandler struct {
	BaseHandler
	postService postService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService postService) *PostHandler {
	return &PostHandler{postService: postService}
}

// List godoc
// @Summary      List published posts
// @Tags         posts
// @Produce      json
// @Param        org_id     query string false "Organization ID"
// @Param        category   query string false "berita, agenda or pengumuman"
// @Param        q          query string false "Search by title"
// @Param        page       query int    false "Page number" default(1)
// @Param        page_size  query int    false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]appcontent.PostResponse,meta=dto.Meta}
// @Router       /posts [get]
func (h *PostHandler) List(c *gin.Context) {
	var query PostListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Parameter tidak valid")
		return
	}

	result, err := h.postService.ListPublished(c.Request.Context(), query.filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListManaged godoc
// @Summary      List manageable posts
// @Description  Drafts included. Operators see their own school only.
// @Tags         posts
// @Produce      json
// @Success      200 {object} dto.Response{data=[]appcontent.PostResponse,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /posts/managed [get]
func (h *PostHandler) ListManaged(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}
	var query PostListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Parameter tidak valid")
		return
	}

	result, err := h.postService.ListManaged(c.Request.Context(), actor, query.filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get godoc
// @Summary      Get post
// @Description  Drafts are only visible to users who manage the organization
// @Tags         posts
// @Produce      json
// @Param        id path string true "Post ID"
// @Success      200 {object} dto.Response{data=appcontent.PostResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /posts/{id} [get]
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var actor *identity.Principal
	if p, ok := middleware.GetPrincipal(c); ok {
		actor = &p
	}

	post, err := h.postService.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, post)
}

// Create godoc
// @Summary      Create post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        request body appcontent.CreatePostInput true "Post"
// @Success      201 {object} dto.Response{data=appcontent.PostResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /posts [post]
func (h *PostHandler) Create(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}
	var req appcontent.CreatePostInput
	if !h.bindJSON(c, &req) {
		return
	}

	post, err := h.postService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, post)
}

// Update godoc
// @Summary      Update post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        id      path string                     true "Post ID"
// @Param        request body appcontent.UpdatePostInput true "Changes"
// @Success      200 {object} dto.Response{data=appcontent.PostResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /posts/{id} [patch]
func (h *PostHandler) Update(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req appcontent.UpdatePostInput
	if !h.bindJSON(c, &req) {
		return
	}

	post, err := h.postService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, post)
}

// Delete godoc
// @Summary      Delete post
// @Tags         posts
// @Param        id path string true "Post ID"
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /posts/{id} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.postService.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
