package identity

import (
	"context"
	"time"

	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
)

// ProfileRepository persists profiles
type ProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Profile, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, p *Profile) error
	Save(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// LoginAttemptRepository stores the login audit trail
type LoginAttemptRepository interface {
	Create(ctx context.Context, attempt *LoginAttempt) error
	// CountFailedSince counts unsuccessful attempts for npsn created at or after since
	CountFailedSince(ctx context.Context, npsn string, since time.Time) (int64, error)
}

// VerificationCodeRepository stores contact verification codes
type VerificationCodeRepository interface {
	Create(ctx context.Context, code *VerificationCode) error
	// FindLatestActive returns the newest unverified, unexpired code matching all fields
	FindLatestActive(ctx context.Context, orgID uuid.UUID, channel organization.Channel, target, code string, now time.Time) (*VerificationCode, error)
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error
	// DeleteExpiredBefore removes codes that expired before cutoff and returns the count
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
