package middleware

import (
	"net/http"
	"slices"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when the role check fails (optional)
	OnDenied func(c *gin.Context, required []identity.Role)
}

// RequireRole creates middleware that lets only the listed roles through.
// It must run after the JWT middleware.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return RequireRoleWithConfig(RoleConfig{}, roles...)
}

// RequireAdmin restricts a route to district admins
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(identity.RoleDistrictAdmin)
}

// RequireRoleWithConfig creates role middleware with custom config
func RequireRoleWithConfig(cfg RoleConfig, roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":       "ERR_UNAUTHORIZED",
					"message":    "Silakan login terlebih dahulu.",
					"request_id": getRequestID(c),
				},
			})
			return
		}

		role := identity.Role(claims.Role)
		if !slices.Contains(roles, role) {
			handleRoleDenied(c, cfg, roles, role)
			return
		}
		c.Next()
	}
}

func handleRoleDenied(c *gin.Context, cfg RoleConfig, required []identity.Role, actual identity.Role) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, required)
		return
	}

	if cfg.Logger != nil {
		names := make([]string, len(required))
		for i, r := range required {
			names[i] = string(r)
		}
		cfg.Logger.Warn("Role denied",
			zap.String("user_id", GetJWTUserID(c)),
			zap.String("role", string(actual)),
			zap.Strings("required_roles", names),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":       "ERR_FORBIDDEN",
			"message":    "Anda tidak memiliki akses ke halaman ini.",
			"request_id": getRequestID(c),
		},
	})
}

// HasRole reports whether the authenticated caller has one of roles
func HasRole(c *gin.Context, roles ...identity.Role) bool {
	return slices.Contains(roles, identity.Role(GetJWTRole(c)))
}
