package identity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
)

// CodeTTL is how long a verification code stays valid
const CodeTTL = 5 * time.Minute

// ErrInvalidCode is returned when no unexpired code matches
var ErrInvalidCode = shared.NewDomainError("INVALID_CODE", "Kode verifikasi salah atau sudah kedaluwarsa.")

// VerificationCode is a short-lived one-time code for a contact channel
type VerificationCode struct {
	ID         uuid.UUID
	OrgID      uuid.UUID
	Type       organization.Channel
	Target     string
	Code       string
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	CreatedAt  time.Time
}

// NewVerificationCode creates a random 6-digit code expiring after CodeTTL
func NewVerificationCode(orgID uuid.UUID, channel organization.Channel, target string, now time.Time) (*VerificationCode, error) {
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Jenis verifikasi harus email atau whatsapp")
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, shared.NewDomainError("INVALID_TARGET", "Tujuan verifikasi harus diisi")
	}
	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}
	return &VerificationCode{
		ID:        uuid.New(),
		OrgID:     orgID,
		Type:      channel,
		Target:    target,
		Code:      code,
		ExpiresAt: now.Add(CodeTTL),
		CreatedAt: now,
	}, nil
}

// IsExpired reports whether the code is past its expiry at now
func (v *VerificationCode) IsExpired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// Verify consumes the code
func (v *VerificationCode) Verify(now time.Time) error {
	if v.VerifiedAt != nil || v.IsExpired(now) {
		return ErrInvalidCode
	}
	v.VerifiedAt = &now
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
