package handler

import (
	"net/http"
	"testing"

	"github.com/datadik/portal/internal/application/dashboard"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupDashboardRouter(svc *mockStatsService, mws ...gin.HandlerFunc) *gin.Engine {
	h := NewDashboardHandler(svc)
	r := gin.New()
	r.Use(mws...)
	r.GET("/api/admin/stats", h.Stats)
	return r
}

func TestDashboardHandler_Stats(t *testing.T) {
	actor := adminPrincipal()

	t.Run("success", func(t *testing.T) {
		svc := new(mockStatsService)
		svc.On("Stats", mock.Anything, actor).Return(&dashboard.Stats{
			Totals: dashboard.Totals{Schools: 42, Users: 40, Submissions: 7, Posts: 12},
			Distribution: []dashboard.LevelCount{
				{Level: dashboard.LevelSD, Count: 30},
				{Level: dashboard.LevelSMP, Count: 12},
			},
			Activity: []dashboard.MonthlyActivity{{Month: "2026-10", Total: 7, Pending: 3, Verified: 4}},
		}, nil)

		w := sendJSON(setupDashboardRouter(svc, withPrincipal(actor)), http.MethodGet, "/api/admin/stats", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		totals := data["totals"].(map[string]any)
		assert.Equal(t, float64(42), totals["schools"])
		assert.Len(t, data["distribution"], 2)
		svc.AssertExpectations(t)
	})

	t.Run("operator forbidden", func(t *testing.T) {
		op := operatorPrincipal(uuid.New())
		svc := new(mockStatsService)
		svc.On("Stats", mock.Anything, op).Return(nil, shared.ErrForbidden)

		w := sendJSON(setupDashboardRouter(svc, withPrincipal(op)), http.MethodGet, "/api/admin/stats", nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("requires login", func(t *testing.T) {
		w := sendJSON(setupDashboardRouter(new(mockStatsService)), http.MethodGet, "/api/admin/stats", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
