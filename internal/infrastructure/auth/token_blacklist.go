package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist invalidates session tokens before they expire. Logout
// revokes one token; a password change or account deactivation revokes
// every token the account holds.
type TokenBlacklist interface {
	// AddToBlacklist revokes a single token by JTI until ttl elapses
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// AddUserTokensToBlacklist revokes every token issued to the user so far
	AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error
	IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error)
}

// Revoke blacklists the token described by claims for its remaining lifetime
func Revoke(ctx context.Context, bl TokenBlacklist, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return ErrInvalidClaims
	}
	if ttl := claims.GetRemainingTTL(); ttl > 0 {
		return bl.AddToBlacklist(ctx, claims.ID, ttl)
	}
	return nil
}

// IsRevoked checks the token's JTI, then the account-wide mark
func IsRevoked(ctx context.Context, bl TokenBlacklist, claims *Claims) (bool, error) {
	revoked, err := bl.IsBlacklisted(ctx, claims.ID)
	if err != nil || revoked {
		return revoked, err
	}
	return bl.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
}

const blacklistKeyPrefix = "datadik:token:blacklist:"

// RedisTokenBlacklist shares revocations across portal instances
type RedisTokenBlacklist struct {
	client redis.UniversalClient
}

func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

// key is datadik:token:blacklist:jti:<id> or datadik:token:blacklist:user:<id>
func (b *RedisTokenBlacklist) key(kind, id string) string {
	return blacklistKeyPrefix + kind + ":" + id
}

func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.key("jti", jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token %s: %w", jti, err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.key("jti", jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token %s: %w", jti, err)
	}
	return n > 0, nil
}

// AddUserTokensToBlacklist records now as the account's cut-off. ttl should
// cover the longest-lived token, normally the refresh expiry.
func (b *RedisTokenBlacklist) AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.key("user", userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke sessions of %s: %w", userID, err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, b.key("user", userID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check revoked sessions of %s: %w", userID, err)
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse revocation time of %s: %w", userID, err)
	}
	return tokenIssuedAt.Unix() <= cutoff, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// revocation is a cut-off that stops mattering after expires
type revocation struct {
	at      time.Time
	expires time.Time
}

func (r revocation) live(now time.Time) bool {
	return now.Before(r.expires)
}

// InMemoryTokenBlacklist is used when Redis is disabled. Revocations are
// local to the process.
type InMemoryTokenBlacklist struct {
	mu    sync.Mutex
	jtis  map[string]revocation
	users map[string]revocation
}

func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtis:  make(map[string]revocation),
		users: make(map[string]revocation),
	}
}

func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	now := time.Now()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = revocation{at: now, expires: now.Add(ttl)}
	return nil
}

func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := b.lookup(b.jtis, jti)
	return ok, nil
}

// AddUserTokensToBlacklist records now as the account's cut-off. A
// non-positive ttl keeps it for the life of the process.
func (b *InMemoryTokenBlacklist) AddUserTokensToBlacklist(_ context.Context, userID string, ttl time.Duration) error {
	now := time.Now()
	expires := time.Unix(1<<62, 0)
	if ttl > 0 {
		expires = now.Add(ttl)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[userID] = revocation{at: now, expires: expires}
	return nil
}

func (b *InMemoryTokenBlacklist) IsUserTokenInvalidated(_ context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	r, ok := b.lookup(b.users, userID)
	return ok && !tokenIssuedAt.After(r.at), nil
}

// lookup returns a live entry and drops an expired one
func (b *InMemoryTokenBlacklist) lookup(entries map[string]revocation, id string) (revocation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := entries[id]
	if !ok {
		return revocation{}, false
	}
	if !r.live(time.Now()) {
		delete(entries, id)
		return revocation{}, false
	}
	return r, true
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
