package middleware

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/datadik/portal/internal/domain/site"
	"github.com/gin-gonic/gin"
)

// SwaggerConfig gates the API docs served under /swagger on the root host
type SwaggerConfig struct {
	Enabled bool
	// RequireAuth admits signed-in district admins only
	RequireAuth bool
	// AllowedIPs holds addresses or CIDR prefixes; empty admits any address
	AllowedIPs []string
	// Resolver hides the docs on school subdomains when set
	Resolver *site.Resolver
}

// SwaggerProtection returns the handlers to put in front of the docs
// handler. authenticate runs only when RequireAuth is set. An AllowedIPs
// entry that is neither an address nor a prefix is an error.
func SwaggerProtection(cfg SwaggerConfig, authenticate gin.HandlerFunc) (gin.HandlersChain, error) {
	allowed, err := parseAllowList(cfg.AllowedIPs)
	if err != nil {
		return nil, err
	}

	chain := gin.HandlersChain{func(c *gin.Context) {
		if !cfg.Enabled || !onRootHost(c, cfg.Resolver) {
			docsError(c, http.StatusNotFound, "ERR_NOT_FOUND", "Dokumentasi API tidak tersedia.")
			return
		}
		if len(allowed) > 0 && !clientAllowed(c, allowed) {
			docsError(c, http.StatusForbidden, "ERR_FORBIDDEN", "Akses dokumentasi API dibatasi.")
			return
		}
		c.Next()
	}}
	if cfg.RequireAuth && authenticate != nil {
		chain = append(chain, authenticate, RequireAdmin())
	}
	return chain, nil
}

func parseAllowList(entries []string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("swagger allowed IP %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("swagger allowed IP %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func onRootHost(c *gin.Context, resolver *site.Resolver) bool {
	if resolver == nil {
		return true
	}
	_, root := resolver.TenantSlug(c.Request.Host)
	return root
}

func clientAllowed(c *gin.Context, allowed []netip.Prefix) bool {
	addr, err := netip.ParseAddr(c.ClientIP())
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range allowed {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func docsError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":       code,
			"message":    message,
			"request_id": getRequestID(c),
		},
	})
}
