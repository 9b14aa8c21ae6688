package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Delivery results recorded per event
const (
	DeliveryProcessed = "processed"
	DeliveryDuplicate = "duplicate"
	DeliveryFailed    = "failed"
)

const defaultConsumer = "events"

// IdempotentHandler runs the wrapped handler at most once per event ID.
// Claims are namespaced by consumer, so two subscribers of post.published
// never swallow each other's delivery. A failed run releases its claim and
// the next redelivery tries again.
type IdempotentHandler struct {
	handler  shared.EventHandler
	store    shared.IdempotencyStore
	consumer string
	window   time.Duration
	metrics  *telemetry.PortalMetrics
	logger   *zap.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// DeliveryStats counts deliveries since the handler was built
type DeliveryStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// IdempotentOption configures an IdempotentHandler
type IdempotentOption func(*IdempotentHandler)

// WithConsumer names the claim namespace, e.g. "toast"
func WithConsumer(name string) IdempotentOption {
	return func(h *IdempotentHandler) {
		if name != "" {
			h.consumer = name
		}
	}
}

// WithDedupWindow sets how long a delivered event stays claimed
func WithDedupWindow(d time.Duration) IdempotentOption {
	return func(h *IdempotentHandler) {
		if d > 0 {
			h.window = d
		}
	}
}

// WithDeliveryMetrics counts deliveries on event_deliveries_total
func WithDeliveryMetrics(m *telemetry.PortalMetrics) IdempotentOption {
	return func(h *IdempotentHandler) {
		h.metrics = m
	}
}

// NewIdempotentHandler wraps handler with claims kept in store
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentOption) *IdempotentHandler {
	h := &IdempotentHandler{
		handler:  handler,
		store:    store,
		consumer: defaultConsumer,
		window:   shared.DefaultDedupWindow,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes forwards the wrapped handler's subscriptions
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle claims the event and runs the wrapped handler. When the store is
// unreachable the event is still handled; a double toast beats a lost one.
func (h *IdempotentHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	key := h.consumer + ":" + evt.EventID().String()
	fields := []zap.Field{
		zap.String("consumer", h.consumer),
		zap.String("event_id", evt.EventID().String()),
		zap.String("event_type", evt.EventType()),
	}

	claimed, err := h.store.MarkProcessed(ctx, key, h.window)
	switch {
	case err != nil:
		h.logger.Warn("Dedup store unavailable, delivering anyway", append(fields, zap.Error(err))...)
	case !claimed:
		h.duplicates.Add(1)
		h.metrics.RecordEventDelivery(ctx, evt.EventType(), DeliveryDuplicate)
		h.logger.Debug("Duplicate event skipped", fields...)
		return nil
	}

	if err := h.handler.Handle(ctx, evt); err != nil {
		h.failed.Add(1)
		h.metrics.RecordEventDelivery(ctx, evt.EventType(), DeliveryFailed)
		if claimed {
			if ferr := h.store.Forget(context.WithoutCancel(ctx), key); ferr != nil {
				h.logger.Warn("Failed to release event claim", append(fields, zap.Error(ferr))...)
			}
		}
		return err
	}

	h.processed.Add(1)
	h.metrics.RecordEventDelivery(ctx, evt.EventType(), DeliveryProcessed)
	return nil
}

// Stats returns a snapshot of the delivery counts
func (h *IdempotentHandler) Stats() DeliveryStats {
	return DeliveryStats{
		Processed: h.processed.Load(),
		Duplicate: h.duplicates.Load(),
		Failed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
