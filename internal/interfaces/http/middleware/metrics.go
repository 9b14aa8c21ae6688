package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/datadik/portal/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	attrMethod      = attribute.Key("http.method")
	attrRoute       = attribute.Key("http.route")
	attrStatusCode  = attribute.Key("http.status_code")
	attrStatusClass = attribute.Key("http.status_class")
)

// Latency buckets in seconds; SSR tenant pages sit in the 50ms-1s range
var httpDurationBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// HTTPMetricsConfig configures the request metrics
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	ServiceName   string
	Enabled       bool
}

type httpMetrics struct {
	requests *telemetry.Counter
	duration metric.Float64Histogram
	size     metric.Int64Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requests, err := telemetry.NewCounter(meter, "portal_http_requests_total",
		"HTTP requests by route, status and school site", "{request}")
	duration, derr := meter.Float64Histogram("portal_http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(httpDurationBuckets...))
	size, serr := meter.Int64Histogram("portal_http_response_size_bytes",
		metric.WithDescription("HTTP response body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(512, 4096, 32768, 262144, 2097152, 10485760))
	inFlight, ferr := meter.Int64UpDownCounter("portal_http_requests_in_flight",
		metric.WithDescription("HTTP requests being served"),
		metric.WithUnit("{request}"))
	if err := errors.Join(err, derr, serr, ferr); err != nil {
		return nil, err
	}
	return &httpMetrics{requests: requests, duration: duration, size: size, inFlight: inFlight}, nil
}

// HTTPMetrics records request counts, latency and response sizes. The
// request counter carries the tenant site and org so per-school traffic can
// be split; histograms stay keyed by route only.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"))
}

// HTTPMetricsWithMeter is HTTPMetrics on an existing meter
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.inFlight.Add(ctx, 1)
		defer m.inFlight.Add(ctx, -1)

		c.Next()

		status := c.Writer.Status()
		route := attribute.NewSet(attrMethod.String(c.Request.Method), attrRoute.String(routePattern(c)))
		routeAttrs := route.ToSlice()

		counted := append(routeAttrs, attrStatusCode.Int(status))
		if site := getSite(c); site != "" {
			counted = append(counted, attrSite.String(site))
		}
		if org := getOrgID(c); org != "" {
			counted = append(counted, attrOrgID.String(org))
		}
		m.requests.Inc(ctx, metric.WithAttributes(counted...))

		m.duration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(append(routeAttrs, attrStatusClass.String(statusClass(status)))...))
		if n := c.Writer.Size(); n > 0 {
			m.size.Record(ctx, int64(n), metric.WithAttributeSet(route))
		}
	}
}

// routePattern keeps cardinality bounded: "/sites/:site/berita", never the raw path
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}
