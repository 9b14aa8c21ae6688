package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/datadik/portal/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Pyroscope label keys
const (
	ProfilingLabelMethod = "method"
	ProfilingLabelRoute  = "route"
	ProfilingLabelArea   = "area"
	ProfilingLabelSite   = "site"
)

// Portal areas a route belongs to
const (
	AreaSite      = "site"
	AreaPages     = "pages"
	AreaAdmin     = "admin"
	AreaUnmatched = "unmatched"
)

// ProfilingConfig configures the profiling labels
type ProfilingConfig struct {
	Enabled bool
	// SkipRoutes are route patterns served without labels. Patterns are
	// used rather than paths so rewritten tenant requests match too.
	SkipRoutes []string
}

// DefaultProfilingConfig skips the health check, the keep-alive ping and
// the long-lived toast stream.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled: true,
		SkipRoutes: []string{
			"/health",
			"/api/system/ping",
			"/api/notifications/stream",
			"/swagger/*any",
		},
	}
}

// Profiling labels each request's CPU and allocation samples with its
// route, area and school site
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig is Profiling with a custom configuration
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipRoutes, c.FullPath()) {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context) map[string]string {
	route := c.FullPath()
	labels := map[string]string{
		ProfilingLabelMethod: c.Request.Method,
		ProfilingLabelRoute:  routePattern(c),
		ProfilingLabelArea:   routeArea(route),
	}
	if slug := getSite(c); slug != "" {
		labels[ProfilingLabelSite] = slug
	}
	return labels
}

// routeArea groups routes the way the portal is split:
//
//	/sites/:site/*path       -> site
//	/api/admin/users         -> admin
//	/api/posts/:id           -> posts
//	/home, /login, /dashboard -> pages
func routeArea(route string) string {
	if route == "" {
		return AreaUnmatched
	}
	if strings.HasPrefix(route, "/sites/") {
		return AreaSite
	}
	rest, ok := strings.CutPrefix(route, "/api/")
	if !ok {
		return AreaPages
	}
	area, _, _ := strings.Cut(rest, "/")
	if area == "" || strings.HasPrefix(area, ":") {
		return AreaUnmatched
	}
	return area
}
