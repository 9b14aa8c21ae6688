package telemetry

import (
	"context"
	"database/sql"
	"time"

	"github.com/datadik/portal/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	startTimeKey         = "telemetry:start_time"
	defaultSlowQueryTime = 200 * time.Millisecond
)

// RegisterDBTracing installs otelgorm spans plus a slow query marker on db
func RegisterDBTracing(db *gorm.DB, cfg config.TelemetryConfig, logger *zap.Logger) error {
	if !cfg.Enabled || !cfg.DBTraceEnabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
	if !cfg.DBLogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	thresh := cfg.DBSlowQueryThresh
	if thresh <= 0 {
		thresh = defaultSlowQueryTime
	}

	before := func(tx *gorm.DB) { tx.InstanceSet(startTimeKey, time.Now()) }
	after := func(tx *gorm.DB) { markSlowQuery(tx, thresh, logger) }

	cb := db.Callback()
	registrations := []struct {
		name string
		fn   func() error
	}{
		{"create", func() error {
			if err := cb.Create().Before("gorm:create").Register("telemetry:before_create", before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("telemetry:after_create", after)
		}},
		{"query", func() error {
			if err := cb.Query().Before("gorm:query").Register("telemetry:before_query", before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("telemetry:after_query", after)
		}},
		{"update", func() error {
			if err := cb.Update().Before("gorm:update").Register("telemetry:before_update", before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("telemetry:after_update", after)
		}},
		{"delete", func() error {
			if err := cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("telemetry:after_delete", after)
		}},
	}
	for _, r := range registrations {
		if err := r.fn(); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.DBLogFullSQL),
		zap.Duration("slow_query_threshold", thresh),
	)
	return nil
}

func markSlowQuery(tx *gorm.DB, thresh time.Duration, logger *zap.Logger) {
	v, ok := tx.InstanceGet(startTimeKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if elapsed < thresh {
		return
	}

	if tx.Statement != nil && tx.Statement.Context != nil {
		span := trace.SpanFromContext(tx.Statement.Context)
		if span.IsRecording() {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
			)
		}
	}
	table := ""
	if tx.Statement != nil {
		table = tx.Statement.Table
	}
	logger.Warn("Slow query",
		zap.String("table", table),
		zap.Duration("elapsed", elapsed),
	)
}

// RegisterDBPoolMetrics reports the connection pool read from stats on every
// collection
func RegisterDBPoolMetrics(meter metric.Meter, stats func() (sql.DBStats, error)) error {
	if meter == nil {
		return ErrMeterNil
	}
	type poolGauge struct {
		name string
		read func(sql.DBStats) int64
		g    metric.Int64ObservableGauge
	}
	gauges := []poolGauge{
		{name: "db_pool_open_connections", read: func(s sql.DBStats) int64 { return int64(s.OpenConnections) }},
		{name: "db_pool_in_use", read: func(s sql.DBStats) int64 { return int64(s.InUse) }},
		{name: "db_pool_idle", read: func(s sql.DBStats) int64 { return int64(s.Idle) }},
		{name: "db_pool_wait_total", read: func(s sql.DBStats) int64 { return s.WaitCount }},
	}
	instruments := make([]metric.Observable, 0, len(gauges))
	for i := range gauges {
		g, err := meter.Int64ObservableGauge(gauges[i].name, metric.WithUnit("{connection}"))
		if err != nil {
			return err
		}
		gauges[i].g = g
		instruments = append(instruments, g)
	}

	_, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s, err := stats()
		if err != nil {
			return err
		}
		for _, pg := range gauges {
			o.ObserveInt64(pg.g, pg.read(s))
		}
		return nil
	}, instruments...)
	return err
}
