// Package middleware provides HTTP middleware for the portal.
package middleware

import (
	"net/http"

	"github.com/datadik/portal/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength is the maximum length for request IDs taken from headers.
const MaxRequestIDLength = 128

// Request attributes shared by spans, metrics and profiles
var (
	attrRequestID = attribute.Key("request_id")
	attrUserID    = attribute.Key("user_id")
	attrRole      = attribute.Key("user.role")
	attrOrgID     = attribute.Key("org_id")
	attrSite      = attribute.Key("site")
)

// TracingConfig configures the request span
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// TracingWithConfig opens one server span per request. Spans are named after
// the matched route, so every school page shares a name like
// "GET /sites/:site/berita" and is told apart by the site attribute.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanAttributes tags the request span with the request ID, the tenant site
// and the signed-in caller. Register it after the JWT middleware.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			span.SetAttributes(requestAttributes(c)...)
		}
		c.Next()
	}
}

func requestAttributes(c *gin.Context) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 5)
	add := func(key attribute.Key, value string) {
		if value != "" {
			attrs = append(attrs, key.String(value))
		}
	}
	add(attrRequestID, getRequestID(c))
	add(attrSite, getSite(c))
	add(attrOrgID, getOrgID(c))
	add(attrUserID, c.GetString(JWTUserIDKey))
	add(attrRole, c.GetString(JWTRoleKey))
	return attrs
}

// getRequestID prefers the ID chosen by RequestID and falls back to a
// truncated header.
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	id := c.GetHeader(RequestIDHeader)
	if len(id) > MaxRequestIDLength {
		return id[:MaxRequestIDLength]
	}
	return id
}

func getOrgID(c *gin.Context) string {
	return c.GetString(JWTOrgIDKey)
}

// getSite returns the tenant slug of a host-routed request. Gin drops
// context keys when the host router re-dispatches, so the request context
// is checked too.
func getSite(c *gin.Context) string {
	if slug := GetTenantSlug(c); slug != "" {
		return slug
	}
	return logger.GetSite(c.Request.Context())
}

// SpanErrorMarker marks the request span as failed for 4xx and 5xx answers.
// Register it after TracingWithConfig.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		span.SetStatus(codes.Error, spanErrorMessage(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}

func spanErrorMessage(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "Internal Server Error"
	case status == http.StatusTooManyRequests, status == http.StatusRequestEntityTooLarge:
		return http.StatusText(status)
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusNotFound:
		return http.StatusText(status)
	default:
		return "Client Error"
	}
}
