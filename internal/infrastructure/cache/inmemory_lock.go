package cache

import (
	"context"
	"sync"
	"time"
)

type lease struct {
	token     uint64
	expiresAt time.Time
}

// InMemoryLocker implements Locker inside one process. It is used when
// Redis is not configured.
type InMemoryLocker struct {
	mu     sync.Mutex
	leases map[string]lease
	seq    uint64
}

// NewInMemoryLocker creates a new in-process locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{leases: make(map[string]lease)}
}

// TryLock acquires key for ttl. Expired leases are taken over.
func (l *InMemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (UnlockFunc, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if cur, held := l.leases[key]; held && now.Before(cur.expiresAt) {
		return nil, false, nil
	}

	l.seq++
	token := l.seq
	l.leases[key] = lease{token: token, expiresAt: now.Add(ttl)}

	unlock := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		cur, held := l.leases[key]
		if !held || cur.token != token {
			return ErrLockNotHeld
		}
		delete(l.leases, key)
		return nil
	}
	return unlock, true, nil
}

// Held reports whether key is currently leased
func (l *InMemoryLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, held := l.leases[key]
	return held && time.Now().Before(cur.expiresAt)
}

var _ Locker = (*InMemoryLocker)(nil)
