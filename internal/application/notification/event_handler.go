// Package notification turns domain events into dashboard toasts.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/registry"
	"github.com/datadik/portal/internal/domain/shared"
	notify "github.com/datadik/portal/internal/infrastructure/notification"
	"github.com/datadik/portal/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Dashboard pages the toasts link to
const (
	LinkPosts       = "/admin/kecamatan/posts"
	LinkSubmissions = "/admin/kecamatan/submissions"
	LinkSchools     = "/admin/kecamatan/schools"
)

// EventHandler publishes a toast for each post, submission and sync-run event
type EventHandler struct {
	publisher notify.Publisher
	ttl       time.Duration
	metrics   *telemetry.PortalMetrics
	logger    *zap.Logger
}

// EventHandlerOption configures an EventHandler
type EventHandlerOption func(*EventHandler)

// WithTTL overrides how long toasts stay visible
func WithTTL(ttl time.Duration) EventHandlerOption {
	return func(h *EventHandler) {
		h.ttl = ttl
	}
}

// WithMetrics counts published notifications
func WithMetrics(m *telemetry.PortalMetrics) EventHandlerOption {
	return func(h *EventHandler) {
		h.metrics = m
	}
}

// NewEventHandler creates a handler publishing to publisher
func NewEventHandler(publisher notify.Publisher, logger *zap.Logger, opts ...EventHandlerOption) *EventHandler {
	h := &EventHandler{
		publisher: publisher,
		ttl:       notify.DefaultTTL,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *EventHandler) EventTypes() []string {
	return []string{
		content.EventTypePostPublished,
		content.EventTypeSubmissionCreated,
		registry.EventTypeSyncFinished,
	}
}

// Handle maps the event to a notification and publishes it
func (h *EventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	n, err := h.toNotification(event)
	if err != nil {
		h.logger.Error("unexpected event type", zap.String("event_type", event.EventType()))
		return err
	}
	if err := h.publisher.Publish(ctx, n); err != nil {
		return fmt.Errorf("failed to publish %s notification: %w", n.Kind, err)
	}
	h.metrics.RecordNotificationPublished(ctx, string(n.Kind))
	h.logger.Debug("Notification published",
		zap.String("kind", string(n.Kind)),
		zap.String("event_id", event.EventID().String()))
	return nil
}

func (h *EventHandler) toNotification(event shared.DomainEvent) (notify.Notification, error) {
	switch e := event.(type) {
	case *content.PostPublishedEvent:
		return notify.New(notify.KindPost, "Berita Publik Baru",
			fmt.Sprintf("Berita %q baru saja diterbitkan.", e.Title),
			LinkPosts, h.ttl), nil
	case *content.SubmissionCreatedEvent:
		return notify.New(notify.KindSubmission, "File Masuk Baru",
			fmt.Sprintf("File baru %q telah diunggah.", e.FileName),
			LinkSubmissions, h.ttl), nil
	case *registry.SyncFinishedEvent:
		return notify.New(notify.KindSync, "Sinkronisasi Selesai",
			fmt.Sprintf("%d sekolah diproses: %d berhasil, %d gagal.", e.Processed, e.Successful, e.Failed),
			LinkSchools, h.ttl), nil
	default:
		return notify.Notification{}, fmt.Errorf("unexpected event type: %s", event.EventType())
	}
}

var _ shared.EventHandler = (*EventHandler)(nil)
