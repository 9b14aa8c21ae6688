package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/datadik/portal/internal/domain/site"
	"github.com/datadik/portal/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TenantSlugKey is the gin context key holding the tenant slug of a rewritten request
const TenantSlugKey = "tenant_slug"

type hostRoutedKey struct{}

// SessionLookup reports whether a request carries a live session
type SessionLookup interface {
	HasSession(r *http.Request) bool
}

// HostRouterConfig holds configuration for the host router
type HostRouterConfig struct {
	// Resolver decides the route. Defaults to the built-in allow-list.
	Resolver *site.Resolver
	// Sessions answers the session gate. Nil means nobody is signed in.
	Sessions SessionLookup
	// Logger for middleware logging
	Logger *zap.Logger
}

// HostRouter maps subdomains to tenant sites and gates the dashboard.
// Rewrites re-dispatch the request through engine once; it should be the
// first middleware so the rest of the chain sees the rewritten path.
// The engine's trailing-slash and fixed-path redirects are turned off, since
// they answer before any middleware runs and every path must reach the resolver.
func HostRouter(engine *gin.Engine, cfg HostRouterConfig) gin.HandlerFunc {
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	if cfg.Resolver == nil {
		cfg.Resolver = site.NewResolver(nil, "")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if routed, _ := c.Request.Context().Value(hostRoutedKey{}).(bool); routed {
			if slug, ok := tenantFromPath(c.Request.URL.Path); ok {
				c.Set(TenantSlugKey, slug)
			}
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if site.IsIgnoredPath(path) {
			c.Next()
			return
		}

		hasSession := cfg.Sessions != nil && cfg.Sessions.HasSession(c.Request)
		route := cfg.Resolver.Resolve(site.Request{
			Host:       c.Request.Host,
			Path:       path,
			RawQuery:   c.Request.URL.RawQuery,
			HasSession: hasSession,
		})

		switch route.Kind {
		case site.RouteRedirect:
			c.Redirect(http.StatusTemporaryRedirect, route.Target)
			c.Abort()
		case site.RouteRewrite:
			cfg.Logger.Debug("Rewriting request",
				zap.String("host", c.Request.Host),
				zap.String("from", path),
				zap.String("to", route.Path),
			)

			ctx := context.WithValue(c.Request.Context(), hostRoutedKey{}, true)
			if route.Tenant != "" {
				ctx = logger.WithSite(ctx, route.Tenant)
			}
			c.Request = c.Request.WithContext(ctx)
			rawPath := ""
			if c.Request.URL.RawPath != "" && route.Tenant != "" {
				rawPath = site.SitesPrefix + route.Tenant + c.Request.URL.RawPath
			}
			c.Request.URL.Path = route.Path
			c.Request.URL.RawPath = rawPath
			c.Request.URL.RawQuery = route.RawQuery

			engine.HandleContext(c)
			c.Abort()
		default:
			c.Next()
		}
	}
}

// GetTenantSlug returns the tenant slug set by the host router
func GetTenantSlug(c *gin.Context) string {
	return c.GetString(TenantSlugKey)
}

func tenantFromPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, site.SitesPrefix)
	if !ok {
		return "", false
	}
	slug, _, _ := strings.Cut(rest, "/")
	return slug, slug != ""
}
