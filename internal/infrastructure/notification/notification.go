// Package notification fans toast notifications out to connected browsers.
package notification

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a toast stays on screen
const DefaultTTL = 5 * time.Second

// Kind identifies what produced a notification
type Kind string

const (
	KindPost       Kind = "post"
	KindSubmission Kind = "submission"
	KindSync       Kind = "sync"
)

// Notification is a single toast message
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New creates a notification that expires ttl after now. A non-positive ttl
// falls back to DefaultTTL.
func New(kind Kind, title, message, link string, ttl time.Duration) Notification {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	return Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		Link:      link,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the toast should no longer be shown
func (n Notification) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// Filter selects which notifications a subscriber receives. A nil filter
// receives everything.
type Filter func(Notification) bool

// KindFilter accepts only the given kinds
func KindFilter(kinds ...Kind) Filter {
	set := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return func(n Notification) bool {
		_, ok := set[n.Kind]
		return ok
	}
}
