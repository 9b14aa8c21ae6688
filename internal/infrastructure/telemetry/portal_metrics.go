package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when metrics are built without a meter
var ErrMeterNil = errors.New("meter cannot be nil")

// Metric attribute keys
var (
	AttrStatus = attribute.Key("status")
	AttrResult = attribute.Key("result")
	AttrKind   = attribute.Key("kind")
	AttrEvent  = attribute.Key("event_type")
)

// Login attempt results
const (
	LoginResultSuccess = "success"
	LoginResultFailure = "failure"
	LoginResultLocked  = "locked"
)

// PortalMetrics holds the application counters
type PortalMetrics struct {
	syncRecords          *Counter
	loginAttempts        *Counter
	notificationsPublish *Counter
	eventDeliveries      *Counter
}

// NewPortalMetrics registers the portal counters on meter
func NewPortalMetrics(meter metric.Meter) (*PortalMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	syncRecords, err := NewCounter(meter, "sync_records_total",
		"Registry records processed by sync, by outcome", "{record}")
	if err != nil {
		return nil, err
	}
	loginAttempts, err := NewCounter(meter, "login_attempts_total",
		"Operator and admin login attempts, by result", "{attempt}")
	if err != nil {
		return nil, err
	}
	published, err := NewCounter(meter, "notifications_published_total",
		"Toast notifications published to the hub", "{notification}")
	if err != nil {
		return nil, err
	}

	deliveries, err := NewCounter(meter, "event_deliveries_total",
		"Domain event deliveries to de-duplicated handlers, by result", "{delivery}")
	if err != nil {
		return nil, err
	}

	return &PortalMetrics{
		syncRecords:          syncRecords,
		loginAttempts:        loginAttempts,
		notificationsPublish: published,
		eventDeliveries:      deliveries,
	}, nil
}

// RecordSyncRecord counts one synced record with its outcome status
func (m *PortalMetrics) RecordSyncRecord(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.syncRecords.Inc(ctx, metric.WithAttributes(AttrStatus.String(status)))
}

// RecordLoginAttempt counts one login attempt
func (m *PortalMetrics) RecordLoginAttempt(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.loginAttempts.Inc(ctx, metric.WithAttributes(AttrResult.String(result)))
}

// RecordNotificationPublished counts one published notification
func (m *PortalMetrics) RecordNotificationPublished(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.notificationsPublish.Inc(ctx, metric.WithAttributes(AttrKind.String(kind)))
}

// RecordEventDelivery counts one delivery of eventType with its result
func (m *PortalMetrics) RecordEventDelivery(ctx context.Context, eventType, result string) {
	if m == nil {
		return
	}
	m.eventDeliveries.Inc(ctx, metric.WithAttributes(AttrEvent.String(eventType), AttrResult.String(result)))
}
