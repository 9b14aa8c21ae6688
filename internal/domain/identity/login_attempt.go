package identity

import (
	"time"

	"github.com/google/uuid"
)

// Brute-force guard parameters
const (
	MaxFailedAttempts = 5
	LockoutWindow     = 15 * time.Minute
)

// LoginAttempt records one login try for an NPSN
type LoginAttempt struct {
	ID           uuid.UUID
	NPSN         string
	IPAddress    string
	IsSuccessful bool
	CreatedAt    time.Time
}

// NewLoginAttempt creates an attempt record stamped now
func NewLoginAttempt(npsn, ip string, successful bool) *LoginAttempt {
	return &LoginAttempt{
		ID:           uuid.New(),
		NPSN:         npsn,
		IPAddress:    ip,
		IsSuccessful: successful,
		CreatedAt:    time.Now(),
	}
}
