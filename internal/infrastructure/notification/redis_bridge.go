package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the Redis pub/sub channel shared by all instances
const DefaultChannel = "datadik:notifications"

// RedisBridge publishes notifications through Redis so every instance relays
// them to its own hub. Local delivery happens when the message comes back on
// the channel.
type RedisBridge struct {
	client  redis.UniversalClient
	hub     *Hub
	channel string
	logger  *zap.Logger

	initialInterval time.Duration
	maxInterval     time.Duration
}

// RedisBridgeOption configures a RedisBridge
type RedisBridgeOption func(*RedisBridge)

// WithChannel overrides the pub/sub channel
func WithChannel(channel string) RedisBridgeOption {
	return func(b *RedisBridge) {
		if channel != "" {
			b.channel = channel
		}
	}
}

// WithBridgeLogger sets the logger
func WithBridgeLogger(logger *zap.Logger) RedisBridgeOption {
	return func(b *RedisBridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithReconnectBackoff sets the reconnect interval bounds
func WithReconnectBackoff(initial, max time.Duration) RedisBridgeOption {
	return func(b *RedisBridge) {
		b.initialInterval = initial
		b.maxInterval = max
	}
}

// NewRedisBridge creates a bridge between client and hub
func NewRedisBridge(client redis.UniversalClient, hub *Hub, opts ...RedisBridgeOption) *RedisBridge {
	b := &RedisBridge{
		client:          client,
		hub:             hub,
		channel:         DefaultChannel,
		logger:          zap.NewNop(),
		initialInterval: 500 * time.Millisecond,
		maxInterval:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish sends n to Redis. When Redis rejects it, n is still delivered to
// the local hub.
func (b *RedisBridge) Publish(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("Redis publish failed, delivering locally",
			zap.String("channel", b.channel),
			zap.Error(err))
		b.hub.Broadcast(n)
		return nil
	}

	b.logger.Debug("Published notification",
		zap.String("notification_id", n.ID),
		zap.String("channel", b.channel))
	return nil
}

// Run relays channel messages into the hub until ctx is done. Lost
// subscriptions are re-established with exponential backoff.
func (b *RedisBridge) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.initialInterval
	bo.MaxInterval = b.maxInterval

	for {
		err := b.subscribe(ctx, bo)
		if ctx.Err() != nil {
			return nil
		}

		wait := bo.NextBackOff()
		b.logger.Warn("Notification subscription lost, reconnecting",
			zap.String("channel", b.channel),
			zap.Duration("retry_in", wait),
			zap.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (b *RedisBridge) subscribe(ctx context.Context, bo *backoff.ExponentialBackOff) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	bo.Reset()

	b.logger.Info("Subscribed to notification channel", zap.String("channel", b.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("notification channel closed")
			}
			var n Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				b.logger.Error("Failed to unmarshal notification",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}
			b.hub.Broadcast(n)
		}
	}
}

var _ Publisher = (*RedisBridge)(nil)
