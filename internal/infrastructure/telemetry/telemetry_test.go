package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/datadik/portal/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	p, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "datadik-test"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.Tracer.IsEnabled())
	assert.False(t, p.Meter.IsEnabled())
	assert.False(t, p.Logs.IsEnabled())
	assert.False(t, p.Profiler.IsEnabled())
	assert.False(t, p.Tracer.SpanProfilesEnabled())
	require.NotNil(t, p.Metrics)

	p.Metrics.RecordSyncRecord(context.Background(), "Berhasil")
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.NoError(t, p.Profiler.Stop())
}

func TestNewProfiler_RequiresURL(t *testing.T) {
	_, err := NewProfiler(config.TelemetryConfig{ProfilingEnabled: true}, zap.NewNop())
	assert.Error(t, err)
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.5).Description(), "TraceIDRatioBased")
}

func collectCounters(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Sum[int64]{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				out[m.Name] = sum
			}
		}
	}
	return out
}

func TestPortalMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := NewPortalMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordSyncRecord(ctx, "Berhasil")
	m.RecordSyncRecord(ctx, "Berhasil")
	m.RecordSyncRecord(ctx, "Gagal")
	m.RecordLoginAttempt(ctx, LoginResultFailure)
	m.RecordNotificationPublished(ctx, "post")
	m.RecordEventDelivery(ctx, "post.published", "duplicate")

	counters := collectCounters(t, reader)

	synced := counters["sync_records_total"]
	require.Len(t, synced.DataPoints, 2)
	byStatus := map[string]int64{}
	for _, dp := range synced.DataPoints {
		v, _ := dp.Attributes.Value(AttrStatus)
		byStatus[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"Berhasil": 2, "Gagal": 1}, byStatus)

	login := counters["login_attempts_total"]
	require.Len(t, login.DataPoints, 1)
	assert.True(t, login.DataPoints[0].Attributes.HasValue(AttrResult))
	assert.Equal(t, int64(1), counters["notifications_published_total"].DataPoints[0].Value)

	deliveries := counters["event_deliveries_total"]
	require.Len(t, deliveries.DataPoints, 1)
	evt, _ := deliveries.DataPoints[0].Attributes.Value(AttrEvent)
	assert.Equal(t, "post.published", evt.AsString())
}

func TestPortalMetrics_NilSafe(t *testing.T) {
	var m *PortalMetrics
	assert.NotPanics(t, func() {
		m.RecordLoginAttempt(context.Background(), LoginResultSuccess)
	})

	_, err := NewPortalMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestRegisterDBPoolMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	stats := func() (sql.DBStats, error) {
		return sql.DBStats{OpenConnections: 5, InUse: 2, Idle: 3, WaitCount: 7}, nil
	}
	require.NoError(t, RegisterDBPoolMetrics(provider.Meter("test"), stats))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[int64]); ok && len(g.DataPoints) == 1 {
				got[m.Name] = g.DataPoints[0].Value
			}
		}
	}
	assert.Equal(t, map[string]int64{
		"db_pool_open_connections": 5,
		"db_pool_in_use":           2,
		"db_pool_idle":             3,
		"db_pool_wait_total":       7,
	}, got)

	assert.ErrorIs(t, RegisterDBPoolMetrics(nil, stats), ErrMeterNil)
}

func TestSpanHelpers(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer(TracerName).Start(context.Background(), "parent")
	assert.NotEmpty(t, GetTraceID(ctx))

	SetAttributes(span, SpanAttrNPSN, "20201010", SpanAttrProcessed, 3, 42, "ignored")
	AddEvent(span, "record_synced", SpanAttrSite, "sdn1")
	RecordError(span, errors.New("fetch failed"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spans[0].Attributes()
	assert.Contains(t, attrs, attribute.String(SpanAttrNPSN, "20201010"))
	assert.Contains(t, attrs, attribute.Int(SpanAttrProcessed, 3))
	assert.Len(t, spans[0].Events(), 2)

	assert.Empty(t, GetTraceID(context.Background()))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	logger := zap.New(core).With(zap.String("site", "sdn1"))
	logger.Info("dropped")
	logger.Warn("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Equal(t, "sdn1", logs.All()[0].ContextMap()["site"])
}

func TestLoggerProvider_DisabledCoreIsNop(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), config.TelemetryConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.Core(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
}

func TestWithProfilingLabels(t *testing.T) {
	called := 0
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called++ })
	WithProfilingLabels(context.Background(), map[string]string{"job": "REGISTRY_SYNC"}, func(context.Context) { called++ })
	assert.Equal(t, 2, called)
}

func TestRegisterDBTracing(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, RegisterDBTracing(db, config.TelemetryConfig{}, zap.NewNop()))
	assert.Nil(t, db.Callback().Query().Get("telemetry:after_query"))

	core, logs := observer.New(zapcore.WarnLevel)
	cfg := config.TelemetryConfig{Enabled: true, DBTraceEnabled: true, DBSlowQueryThresh: time.Nanosecond}
	require.NoError(t, RegisterDBTracing(db, cfg, zap.New(core)))
	assert.NotNil(t, db.Callback().Query().Get("telemetry:after_query"))

	var rows []map[string]any
	require.NoError(t, db.Table("sqlite_master").Find(&rows).Error)
	assert.GreaterOrEqual(t, logs.FilterMessage("Slow query").Len(), 1)
}
