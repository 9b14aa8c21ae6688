package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func attrValue(set attribute.Set, key attribute.Key) string {
	v, ok := set.Value(key)
	if !ok {
		return ""
	}
	return v.Emit()
}

// meteredPortal puts the metrics middleware behind the host router the way
// the server does, so tenant requests are measured after the rewrite.
func meteredPortal(t *testing.T, signIn gin.HandlerFunc) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	mp, reader := setupTestMeter(t)

	engine := gin.New()
	engine.Use(HostRouter(engine, HostRouterConfig{}))
	if signIn != nil {
		engine.Use(signIn)
	}
	engine.Use(HTTPMetricsWithMeter(mp.Meter("http.server")))
	engine.GET("/home", func(c *gin.Context) { c.String(http.StatusOK, "beranda") })
	engine.GET("/sites/:site/berita", func(c *gin.Context) { c.String(http.StatusOK, "daftar berita") })
	engine.GET("/sites/:site/kontak", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	return engine, reader
}

func hit(engine *gin.Engine, host, target string) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Host = host
	engine.ServeHTTP(httptest.NewRecorder(), req)
}

func TestHTTPMetrics_TenantRequestsCountedPerSite(t *testing.T) {
	engine, reader := meteredPortal(t, nil)

	hit(engine, "sdn1.datadikcilebar.my.id", "/berita")
	hit(engine, "sdn1.datadikcilebar.my.id", "/berita?page=2")
	hit(engine, "smpn2.datadikcilebar.my.id", "/berita")
	hit(engine, "smpn2.datadikcilebar.my.id", "/kontak")
	hit(engine, "datadikcilebar.my.id", "/")

	m := collectMetric(t, reader, "portal_http_requests_total")
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	type key struct{ route, site, status string }
	got := make(map[key]int64)
	for _, dp := range sum.DataPoints {
		got[key{attrValue(dp.Attributes, attrRoute), attrValue(dp.Attributes, attrSite), attrValue(dp.Attributes, attrStatusCode)}] = dp.Value
	}

	assert.Equal(t, map[key]int64{
		{"/sites/:site/berita", "sdn1", "200"}:  2,
		{"/sites/:site/berita", "smpn2", "200"}: 1,
		{"/sites/:site/kontak", "smpn2", "404"}: 1,
		{"/home", "", "200"}:                    1,
	}, got)
}

func TestHTTPMetrics_HistogramsKeyedByRouteOnly(t *testing.T) {
	engine, reader := meteredPortal(t, nil)

	hit(engine, "sdn1.datadikcilebar.my.id", "/berita")
	hit(engine, "smpn2.datadikcilebar.my.id", "/berita")

	m := collectMetric(t, reader, "portal_http_request_duration_seconds")
	require.NotNil(t, m)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1, "sites must not fan out the latency histogram")
	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(2), dp.Count)
	assert.Equal(t, "/sites/:site/berita", attrValue(dp.Attributes, attrRoute))
	assert.Equal(t, "2xx", attrValue(dp.Attributes, attrStatusClass))
	_, hasSite := dp.Attributes.Value(attrSite)
	assert.False(t, hasSite)

	size := collectMetric(t, reader, "portal_http_response_size_bytes")
	require.NotNil(t, size)
	sizes, ok := size.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, sizes.DataPoints, 1)
	assert.Equal(t, int64(2*len("daftar berita")), sizes.DataPoints[0].Sum)
}

func TestHTTPMetrics_SignedInOrg(t *testing.T) {
	engine, reader := meteredPortal(t, func(c *gin.Context) {
		c.Set(JWTOrgIDKey, "org-sdn1")
		c.Next()
	})

	hit(engine, "sdn1.datadikcilebar.my.id", "/berita")

	m := collectMetric(t, reader, "portal_http_requests_total")
	require.NotNil(t, m)
	sum := m.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, "org-sdn1", attrValue(sum.DataPoints[0].Attributes, attrOrgID))
	assert.Equal(t, "sdn1", attrValue(sum.DataPoints[0].Attributes, attrSite))
}

func TestHTTPMetrics_InFlightReturnsToZero(t *testing.T) {
	engine, reader := meteredPortal(t, nil)

	hit(engine, "sdn1.datadikcilebar.my.id", "/berita")

	m := collectMetric(t, reader, "portal_http_requests_in_flight")
	require.NotNil(t, m)
	sum := m.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Zero(t, sum.DataPoints[0].Value)
}

func TestHTTPMetrics_UnmatchedRoute(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	m := collectMetric(t, reader, "portal_http_requests_total")
	require.NotNil(t, m)
	sum := m.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, "unmatched", attrValue(sum.DataPoints[0].Attributes, attrRoute))
}

func TestHTTPMetrics_Disabled(t *testing.T) {
	for _, cfg := range []HTTPMetricsConfig{{Enabled: false}, {Enabled: true}} {
		router := gin.New()
		router.Use(HTTPMetrics(cfg))
		router.GET("/home", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/home", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(http.StatusCreated))
	assert.Equal(t, "3xx", statusClass(http.StatusTemporaryRedirect))
	assert.Equal(t, "4xx", statusClass(http.StatusTooManyRequests))
	assert.Equal(t, "5xx", statusClass(http.StatusServiceUnavailable))
	assert.Equal(t, "other", statusClass(0))
}
