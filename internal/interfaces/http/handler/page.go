package handler

import (
	"context"

	"github.com/datadik/portal/internal/application/pages"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/gin-gonic/gin"
)

type pageService interface {
	Home(ctx context.Context) (*pages.HomePage, error)
	Site(ctx context.Context, slug, path string) (*pages.SitePage, error)
	Dashboard(ctx context.Context, actor identity.Principal) (*pages.DashboardPage, error)
	Login() *pages.LoginPage
}

// PageHandler serves the payloads behind the host-routed pages
type PageHandler struct {
	BaseHandler
	pages pageService
}

// NewPageHandler creates a new page handler
func NewPageHandler(svc pageService) *PageHandler {
	return &PageHandler{pages: svc}
}

// Home godoc
// @Summary      Landing page
// @Tags         pages
// @Produce      json
// @Success      200 {object} dto.Response{data=pages.HomePage}
// @Router       /home [get]
func (h *PageHandler) Home(c *gin.Context) {
	page, err := h.pages.Home(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// Site godoc
// @Summary      Tenant site
// @Description  Reached through a school subdomain rewrite
// @Tags         pages
// @Produce      json
// @Param        site path string true "Organization slug"
// @Param        path path string true "Page path"
// @Success      200 {object} dto.Response{data=pages.SitePage}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sites/{site}/{path} [get]
func (h *PageHandler) Site(c *gin.Context) {
	path := c.Param("path")
	if path == "" {
		path = "/"
	}

	page, err := h.pages.Site(c.Request.Context(), c.Param("site"), path)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// Dashboard godoc
// @Summary      Dashboard
// @Description  Operators get their school, admins the district summary
// @Tags         pages
// @Produce      json
// @Success      200 {object} dto.Response{data=pages.DashboardPage}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /dashboard [get]
func (h *PageHandler) Dashboard(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}

	page, err := h.pages.Dashboard(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// Login godoc
// @Summary      Login form
// @Tags         pages
// @Produce      json
// @Success      200 {object} dto.Response{data=pages.LoginPage}
// @Router       /login [get]
func (h *PageHandler) Login(c *gin.Context) {
	h.Success(c, h.pages.Login())
}
