package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/datadik/portal/internal/application/dashboard"
	"github.com/datadik/portal/internal/application/pages"
	"github.com/datadik/portal/internal/application/registry"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/infrastructure/auth"
	"github.com/datadik/portal/internal/interfaces/http/handler"
	"github.com/datadik/portal/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubStats struct{}

func (stubStats) Stats(context.Context, identity.Principal) (*dashboard.Stats, error) {
	return &dashboard.Stats{}, nil
}

type stubSync struct{}

func (stubSync) Run(context.Context) (*registry.SyncResult, error) {
	return &registry.SyncResult{Success: true}, nil
}

type stubPages struct{}

func (stubPages) Home(context.Context) (*pages.HomePage, error) { return &pages.HomePage{}, nil }

func (stubPages) Site(_ context.Context, slug, path string) (*pages.SitePage, error) {
	return &pages.SitePage{Path: path}, nil
}

func (stubPages) Dashboard(context.Context, identity.Principal) (*pages.DashboardPage, error) {
	return &pages.DashboardPage{}, nil
}

func (stubPages) Login() *pages.LoginPage { return &pages.LoginPage{} }

// fakeAuth trusts an X-Test-Role header in place of a signed token
func fakeAuth(c *gin.Context) {
	role := c.GetHeader("X-Test-Role")
	if role == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Set(middleware.JWTClaimsKey, &auth.Claims{UserID: uuid.NewString(), Role: role})
	c.Next()
}

func setupPortal(t *testing.T) *gin.Engine {
	t.Helper()
	engine := gin.New()
	r := NewRouter(engine)
	RegisterPortal(r, PortalHandlers{
		Registry:  handler.NewRegistryHandler(stubSync{}, nil, ""),
		Dashboard: handler.NewDashboardHandler(stubStats{}),
		Pages:     handler.NewPageHandler(stubPages{}),
		System:    handler.NewSystemHandler("", ""),
	}, PortalMiddleware{
		Auth:  fakeAuth,
		Admin: middleware.RequireAdmin(),
		LoginLimit: func(c *gin.Context) {
			c.Header("X-Login-Limit", "1")
			c.Next()
		},
	})
	r.Setup()
	return engine
}

func portalRequest(engine *gin.Engine, method, path, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRegisterPortal(t *testing.T) {
	engine := setupPortal(t)
	admin := string(identity.RoleDistrictAdmin)
	operator := string(identity.RoleOperator)

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		status int
	}{
		{"health at root", http.MethodGet, "/health", "", http.StatusOK},
		{"system ping", http.MethodGet, "/api/system/ping", "", http.StatusOK},
		{"sync via GET", http.MethodGet, "/api/sync/kemendikdasmen", "", http.StatusOK},
		{"sync via POST", http.MethodPost, "/api/sync/kemendikdasmen", "", http.StatusOK},
		{"stats need a session", http.MethodGet, "/api/admin/stats", "", http.StatusUnauthorized},
		{"stats deny operators", http.MethodGet, "/api/admin/stats", operator, http.StatusForbidden},
		{"stats for admins", http.MethodGet, "/api/admin/stats", admin, http.StatusOK},
		{"home is public", http.MethodGet, "/home", "", http.StatusOK},
		{"login page is public", http.MethodGet, "/login", "", http.StatusOK},
		{"tenant site", http.MethodGet, "/sites/sdn-1-cilebar/berita", "", http.StatusOK},
		{"dashboard needs a session", http.MethodGet, "/dashboard", "", http.StatusUnauthorized},
		{"dashboard for operators", http.MethodGet, "/dashboard", operator, http.StatusOK},
		{"unregistered handlers stay unrouted", http.MethodGet, "/api/posts", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := portalRequest(engine, tt.method, tt.path, tt.role)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRegisterPortal_NilMiddlewareSkipped(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	RegisterPortal(r, PortalHandlers{
		Registry: handler.NewRegistryHandler(stubSync{}, nil, ""),
	}, PortalMiddleware{})
	r.Setup()

	w := portalRequest(engine, http.MethodPost, "/api/sync/kemendikdasmen", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
