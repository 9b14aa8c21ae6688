package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CORSConfig holds CORS middleware configuration.
// SiteRootHosts admits every tenant subdomain of the listed hosts, so
// school sites can call the API without each slug being configured.
type CORSConfig struct {
	AllowOrigins     []string
	SiteRootHosts    []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns the portal defaults. No origin is allowed until
// AllowOrigins or SiteRootHosts is filled in.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID", "Accept", "Origin", "Cache-Control", "Last-Event-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// CORS returns a middleware that handles CORS with default configuration
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

type originMatcher struct {
	wildcard bool
	exact    map[string]struct{}
	roots    []string
}

func newOriginMatcher(cfg CORSConfig) originMatcher {
	m := originMatcher{exact: make(map[string]struct{}, len(cfg.AllowOrigins))}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			m.wildcard = true
			continue
		}
		m.exact[strings.TrimSuffix(o, "/")] = struct{}{}
	}
	for _, h := range cfg.SiteRootHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			m.roots = append(m.roots, h)
		}
	}
	return m
}

// allow returns the Access-Control-Allow-Origin value for origin, or ""
func (m originMatcher) allow(origin string) string {
	if origin == "" {
		return ""
	}
	if m.wildcard {
		return "*"
	}
	if _, ok := m.exact[origin]; ok {
		return origin
	}
	if len(m.roots) == 0 {
		return ""
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	for _, root := range m.roots {
		if host == root || strings.HasSuffix(host, "."+root) {
			return origin
		}
	}
	return ""
}

// CORSWithConfig returns a CORS middleware with custom configuration.
// Preflight requests always end with 204; headers are only added for
// allowed origins.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	matcher := newOriginMatcher(cfg)
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	expose := strings.Join(cfg.ExposeHeaders, ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if allowed := matcher.allow(c.GetHeader("Origin")); allowed != "" {
			h.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				h.Add("Vary", "Origin")
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if expose != "" {
				h.Set("Access-Control-Expose-Headers", expose)
			}
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Request ID header and gin context key
const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
)

// RequestID adds a unique request ID to each request. Incoming IDs longer
// than MaxRequestIDLength are replaced.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > MaxRequestIDLength {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID returns the ID assigned by RequestID, or the raw header
func GetRequestID(c *gin.Context) string {
	return getRequestID(c)
}

// SecurityConfig holds the response security headers
type SecurityConfig struct {
	// HSTSMaxAge of zero leaves Strict-Transport-Security unset
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool

	// Extra CSP sources, e.g. the object storage endpoint serving logos
	ImgSources     []string
	ConnectSources []string
	// FrameAncestors empty means the portal may not be framed
	FrameAncestors []string

	PermissionsPolicy string
}

// DefaultSecurityConfig returns the defaults used outside production.
// Geolocation stays available to the portal itself for the school
// coordinate picker.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		PermissionsPolicy: "camera=(), microphone=(), payment=(), usb=(), geolocation=(self)",
	}
}

// ContentSecurityPolicy renders the CSP header value
func (s SecurityConfig) ContentSecurityPolicy() string {
	ancestors := "'none'"
	if len(s.FrameAncestors) > 0 {
		ancestors = strings.Join(s.FrameAncestors, " ")
	}
	directives := []string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		strings.Join(append([]string{"img-src 'self' data: https:"}, s.ImgSources...), " "),
		"font-src 'self' data:",
		strings.Join(append([]string{"connect-src 'self'"}, s.ConnectSources...), " "),
		"frame-ancestors " + ancestors,
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}

// Secure adds security headers to responses using default configuration
func Secure() gin.HandlerFunc {
	return SecureWithConfig(DefaultSecurityConfig())
}

// SecureWithConfig adds security headers to responses with custom configuration
func SecureWithConfig(cfg SecurityConfig) gin.HandlerFunc {
	csp := cfg.ContentSecurityPolicy()
	var hsts string
	if cfg.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(int(cfg.HSTSMaxAge.Seconds()))
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
	}
	frameOptions := "DENY"
	if len(cfg.FrameAncestors) > 0 {
		frameOptions = ""
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if frameOptions != "" {
			h.Set("X-Frame-Options", frameOptions)
		}
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", csp)
		if hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}
		if cfg.PermissionsPolicy != "" {
			h.Set("Permissions-Policy", cfg.PermissionsPolicy)
		}
		c.Next()
	}
}
