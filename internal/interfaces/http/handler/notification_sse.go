package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/datadik/portal/internal/domain/identity"
	notify "github.com/datadik/portal/internal/infrastructure/notification"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type notificationSource interface {
	Subscribe(ctx context.Context, filter notify.Filter) (*notify.Subscription, error)
}

// SSEMessage represents a message to be sent to SSE clients
type SSEMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
	ID    string `json:"id,omitempty"`
}

// NotificationSSEHandler streams toast notifications over Server-Sent Events
type NotificationSSEHandler struct {
	BaseHandler
	hub        notificationSource
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	heartbeat  time.Duration
	maxClients int
	clients    atomic.Int64
}

// NotificationSSEOption is a functional option for configuring the handler
type NotificationSSEOption func(*NotificationSSEHandler)

// WithSSELogger sets the logger for the handler
func WithSSELogger(logger *zap.Logger) NotificationSSEOption {
	return func(h *NotificationSSEHandler) {
		h.logger = logger
	}
}

// WithSSEHeartbeat sets the heartbeat interval
func WithSSEHeartbeat(interval time.Duration) NotificationSSEOption {
	return func(h *NotificationSSEHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithSSEMaxClients sets the maximum number of concurrent SSE clients
func WithSSEMaxClients(max int) NotificationSSEOption {
	return func(h *NotificationSSEHandler) {
		h.maxClients = max
	}
}

// NewNotificationSSEHandler creates a new SSE handler on top of the hub
func NewNotificationSSEHandler(hub notificationSource, opts ...NotificationSSEOption) *NotificationSSEHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &NotificationSSEHandler{
		hub:        hub,
		logger:     zap.NewNop(),
		ctx:        ctx,
		cancel:     cancel,
		heartbeat:  30 * time.Second,
		maxClients: 10000,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Stop disconnects every client. Streams opened afterwards end immediately.
func (h *NotificationSSEHandler) Stop() {
	h.cancel()
	h.logger.Info("Notification SSE handler stopped")
}

// GetClientCount returns the number of connected SSE clients
func (h *NotificationSSEHandler) GetClientCount() int {
	return int(h.clients.Load())
}

// Stream godoc
//
//	@Summary		Subscribe to notifications via SSE
//	@Description	Sends "connected" once, then "notification" events and a "heartbeat" every 30s
//	@Tags			notifications
//	@Produce		text/event-stream
//	@Success		200	{string}	string	"SSE stream"
//	@Failure		401	{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		503	{object}	dto.Response{error=dto.ErrorInfo}
//	@Security		BearerAuth
//	@Router			/notifications/stream [get]
func (h *NotificationSSEHandler) Stream(c *gin.Context) {
	actor, ok := h.principal(c)
	if !ok {
		return
	}

	if h.maxClients > 0 && h.GetClientCount() >= h.maxClients {
		h.ServiceUnavailable(c, "Jumlah koneksi notifikasi sudah maksimum")
		return
	}

	reqCtx := c.Request.Context()
	sub, err := h.hub.Subscribe(reqCtx, notificationFilter(actor))
	if err != nil {
		h.ServiceUnavailable(c, "Layanan notifikasi tidak tersedia")
		return
	}
	defer sub.Unsubscribe()

	h.clients.Add(1)
	defer h.clients.Add(-1)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	h.logger.Info("SSE client connected",
		zap.String("client_id", sub.ID),
		zap.String("user_id", actor.UserID.String()),
		zap.String("role", string(actor.Role)))

	h.sendEvent(c.Writer, SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"client_id":"%s","timestamp":%d}`, sub.ID, time.Now().Unix()),
	})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("SSE client disconnected", zap.String("client_id", sub.ID))
			return
		case <-h.ctx.Done():
			h.logger.Info("SSE handler stopped, disconnecting client", zap.String("client_id", sub.ID))
			return
		case <-ticker.C:
			h.sendEvent(c.Writer, SSEMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
			c.Writer.Flush()
		case n, ok := <-sub.C:
			if !ok {
				return
			}
			if n.Expired(time.Now()) {
				continue
			}
			data, err := json.Marshal(n)
			if err != nil {
				h.logger.Error("Failed to marshal notification", zap.Error(err))
				continue
			}
			h.sendEvent(c.Writer, SSEMessage{
				Event: "notification",
				Data:  string(data),
				ID:    n.ID,
			})
			c.Writer.Flush()
		}
	}
}

// notificationFilter limits operators to public post announcements; admins get everything
func notificationFilter(actor identity.Principal) notify.Filter {
	if actor.IsAdmin() {
		return nil
	}
	return notify.KindFilter(notify.KindPost)
}

// sendEvent writes an SSE event to the response writer
func (h *NotificationSSEHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}
