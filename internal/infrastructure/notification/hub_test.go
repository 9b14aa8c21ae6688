package notification

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) Notification {
	t.Helper()
	select {
	case n, ok := <-sub.C:
		require.True(t, ok, "subscription closed")
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
	return Notification{}
}

func TestNew(t *testing.T) {
	n := New(KindPost, "Berita Publik Baru", "Judul", "/sites/sdn1/berita", 0)

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, DefaultTTL, n.ExpiresAt.Sub(n.CreatedAt))
	assert.False(t, n.Expired(n.CreatedAt))
	assert.True(t, n.Expired(n.CreatedAt.Add(DefaultTTL)))

	custom := New(KindSync, "Sinkronisasi Selesai", "", "", 10*time.Second)
	assert.Equal(t, 10*time.Second, custom.ExpiresAt.Sub(custom.CreatedAt))
}

func TestHub_PublishDeliversToAllSubscribers(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	a, err := hub.Subscribe(ctx, nil)
	require.NoError(t, err)
	b, err := hub.Subscribe(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Count())

	n := New(KindSubmission, "File Masuk Baru", "laporan.pdf", "", 0)
	require.NoError(t, hub.Publish(ctx, n))

	assert.Equal(t, n.ID, receive(t, a).ID)
	assert.Equal(t, n.ID, receive(t, b).ID)
}

func TestHub_Filter(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe(context.Background(), KindFilter(KindSync))
	require.NoError(t, err)

	assert.Equal(t, 0, hub.Broadcast(New(KindPost, "x", "", "", 0)))
	assert.Equal(t, 1, hub.Broadcast(New(KindSync, "y", "", "", 0)))

	assert.Equal(t, KindSync, receive(t, sub).Kind)
}

func TestHub_FullBufferDrops(t *testing.T) {
	hub := NewHub(WithBufferSize(1))
	sub, err := hub.Subscribe(context.Background(), nil)
	require.NoError(t, err)

	first := New(KindPost, "1", "", "", 0)
	assert.Equal(t, 1, hub.Broadcast(first))
	assert.Equal(t, 0, hub.Broadcast(New(KindPost, "2", "", "", 0)))

	assert.Equal(t, first.ID, receive(t, sub).ID)
	select {
	case <-sub.C:
		t.Fatal("dropped notification was delivered")
	default:
	}

	stats := hub.Stats()
	assert.Equal(t, int64(2), stats.Published)
	assert.Equal(t, int64(1), stats.Dropped)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe(context.Background(), nil)
	require.NoError(t, err)

	sub.Unsubscribe()
	sub.Unsubscribe()

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Count())
	assert.Equal(t, 0, hub.Broadcast(New(KindPost, "x", "", "", 0)))
}

func TestHub_UnsubscribeReleasesContextWatch(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	before := runtime.NumGoroutine()
	subs := make([]*Subscription, 0, 50)
	for i := 0; i < 50; i++ {
		sub, err := hub.Subscribe(ctx, nil)
		require.NoError(t, err)
		subs = append(subs, sub)
	}
	for _, sub := range subs {
		sub.Unsubscribe()
	}

	assert.Equal(t, 0, hub.Count())
	assert.LessOrEqual(t, runtime.NumGoroutine(), before)
	for _, sub := range subs {
		assert.False(t, sub.stop(), "context callback still registered")
	}

	// cancelling afterwards must not touch the already removed subscriptions
	cancel()
	assert.Equal(t, 0, hub.Count())
}

func TestHub_SubscribeWithDoneContext(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sub, err := hub.Subscribe(ctx, nil)
	require.NoError(t, err)

	select {
	case _, ok := <-sub.C:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription on a done context was not closed")
	}
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_ContextCancelUnsubscribes(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := hub.Subscribe(ctx, nil)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-sub.C:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe(context.Background(), nil)
	require.NoError(t, err)

	hub.Close()

	_, ok := <-sub.C
	assert.False(t, ok)

	_, err = hub.Subscribe(context.Background(), nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	hub := NewHub(WithBufferSize(4))
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		sub, err := hub.Subscribe(context.Background(), nil)
		require.NoError(t, err)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.Broadcast(New(KindPost, "x", "", "", 0))
			}
		}()
		go func() {
			defer wg.Done()
			sub.Unsubscribe()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.Count())
}
