package handler

import (
	"context"

	"github.com/datadik/portal/internal/application/dashboard"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/gin-gonic/gin"
)

type statsService interface {
	Stats(ctx context.Context, actor identity.Principal) (*dashboard.Stats, error)
}

// DashboardHandler serves the admin statistics
type DashboardHandler struct {
	BaseHandler
	statsService statsService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(statsService statsService) *DashboardHandler {
	return &DashboardHandler{statsService: statsService}
}

// Stats godoc
// @Summary      Dashboard statistics
// @Description  Totals, school distribution by level and six months of submission activity
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=dashboard.Stats}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}

	stats, err := h.statsService.Stats(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}
