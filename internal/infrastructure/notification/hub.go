package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrHubClosed is returned by Subscribe after Close
var ErrHubClosed = errors.New("notification hub closed")

const defaultBufferSize = 16

// Publisher sends notifications to subscribers
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

// Subscription is one client's view of the hub
type Subscription struct {
	ID     string
	C      <-chan Notification
	ch     chan Notification
	filter Filter
	once   sync.Once
	hub    *Hub
	// stop detaches the context callback; guarded by hub.mu
	stop func() bool
}

// Unsubscribe removes the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Unsubscribe() {
	s.hub.remove(s)
}

// Hub is a process-local pub/sub for notifications
type Hub struct {
	mu         sync.RWMutex
	subs       map[string]*Subscription
	bufferSize int
	closed     bool
	logger     *zap.Logger

	published atomic.Int64
	dropped   atomic.Int64
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithBufferSize sets the per-subscriber channel capacity
func WithBufferSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithHubLogger sets the logger
func WithHubLogger(logger *zap.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHub creates an empty hub
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subs:       make(map[string]*Subscription),
		bufferSize: defaultBufferSize,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a subscriber. The subscription ends when ctx is done
// or Unsubscribe is called.
func (h *Hub) Subscribe(ctx context.Context, filter Filter) (*Subscription, error) {
	ch := make(chan Notification, h.bufferSize)
	sub := &Subscription{
		ID:     uuid.NewString(),
		C:      ch,
		ch:     ch,
		filter: filter,
		hub:    h,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.subs[sub.ID] = sub
	sub.stop = context.AfterFunc(ctx, sub.Unsubscribe)
	h.mu.Unlock()

	h.logger.Debug("Notification subscriber added", zap.String("subscription_id", sub.ID))
	return sub, nil
}

func (h *Hub) remove(sub *Subscription) {
	sub.once.Do(func() {
		h.mu.Lock()
		if sub.stop != nil {
			sub.stop()
		}
		delete(h.subs, sub.ID)
		close(sub.ch)
		h.mu.Unlock()
	})
}

// Publish delivers n to every matching subscriber. A subscriber whose buffer
// is full misses n.
func (h *Hub) Publish(_ context.Context, n Notification) error {
	h.Broadcast(n)
	return nil
}

// Broadcast is Publish without the context, used by relays
func (h *Hub) Broadcast(n Notification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subs {
		if sub.filter != nil && !sub.filter(n) {
			continue
		}
		select {
		case sub.ch <- n:
			delivered++
		default:
			h.dropped.Add(1)
			h.logger.Warn("Subscriber buffer full, dropping notification",
				zap.String("subscription_id", sub.ID),
				zap.String("notification_id", n.ID))
		}
	}
	h.published.Add(1)
	return delivered
}

// Count returns the number of active subscribers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// HubStats are counters since start
type HubStats struct {
	Subscribers int   `json:"subscribers"`
	Published   int64 `json:"published"`
	Dropped     int64 `json:"dropped"`
}

// Stats returns current counters
func (h *Hub) Stats() HubStats {
	return HubStats{
		Subscribers: h.Count(),
		Published:   h.published.Load(),
		Dropped:     h.dropped.Load(),
	}
}

// Close unsubscribes everyone and refuses new subscribers
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}

var _ Publisher = (*Hub)(nil)
