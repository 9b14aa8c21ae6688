package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"go.uber.org/zap"
)

// CodeSender delivers a verification code to its target
type CodeSender interface {
	Send(ctx context.Context, code *identity.VerificationCode) error
}

// LogCodeSender writes codes to the log instead of delivering them
type LogCodeSender struct {
	logger *zap.Logger
}

// NewLogCodeSender creates a sender backed by logger
func NewLogCodeSender(logger *zap.Logger) *LogCodeSender {
	return &LogCodeSender{logger: logger}
}

// Send logs the code
func (s *LogCodeSender) Send(_ context.Context, code *identity.VerificationCode) error {
	s.logger.Info("Verification code issued",
		zap.String("org_id", code.OrgID.String()),
		zap.String("type", string(code.Type)),
		zap.String("target", code.Target),
		zap.String("code", code.Code),
		zap.Time("expires_at", code.ExpiresAt))
	return nil
}

// VerificationService issues and confirms contact verification codes
type VerificationService struct {
	codes  identity.VerificationCodeRepository
	orgs   organization.OrganizationRepository
	sender CodeSender
	logger *zap.Logger
	now    func() time.Time
}

// NewVerificationService creates a verification service
func NewVerificationService(
	codes identity.VerificationCodeRepository,
	orgs organization.OrganizationRepository,
	sender CodeSender,
	logger *zap.Logger,
) *VerificationService {
	return &VerificationService{
		codes:  codes,
		orgs:   orgs,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// Request issues a new code for the organization's contact channel
func (s *VerificationService) Request(ctx context.Context, input RequestCodeInput) (*RequestCodeResult, error) {
	if s.codes == nil || s.orgs == nil {
		return nil, shared.ErrServiceUnavailable
	}
	if _, err := s.orgs.FindByID(ctx, input.OrgID); err != nil {
		return nil, err
	}

	code, err := identity.NewVerificationCode(input.OrgID, organization.Channel(strings.ToLower(input.Type)), input.Target, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.codes.Create(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to store verification code: %w", err)
	}
	if err := s.sender.Send(ctx, code); err != nil {
		s.logger.Error("Failed to deliver verification code",
			zap.String("org_id", input.OrgID.String()),
			zap.String("type", string(code.Type)),
			zap.Error(err))
		return nil, shared.ErrServiceUnavailable.WithMessage("Kode verifikasi gagal dikirim.").Wrap(err)
	}

	return &RequestCodeResult{
		Type:      string(code.Type),
		Target:    code.Target,
		ExpiresAt: code.ExpiresAt,
	}, nil
}

// Confirm consumes a matching code and marks the contact as verified
func (s *VerificationService) Confirm(ctx context.Context, input ConfirmCodeInput) (*organization.Organization, error) {
	if s.codes == nil || s.orgs == nil {
		return nil, shared.ErrServiceUnavailable
	}
	channel := organization.Channel(strings.ToLower(input.Type))
	target := strings.TrimSpace(input.Target)
	code := strings.TrimSpace(input.Code)
	if !channel.IsValid() || target == "" || code == "" {
		return nil, identity.ErrInvalidCode
	}

	now := s.now()
	vc, err := s.codes.FindLatestActive(ctx, input.OrgID, channel, target, code, now)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, identity.ErrInvalidCode
		}
		return nil, err
	}
	if err := vc.Verify(now); err != nil {
		return nil, err
	}
	if err := s.codes.MarkVerified(ctx, vc.ID, now); err != nil {
		return nil, err
	}

	org, err := s.orgs.FindByID(ctx, input.OrgID)
	if err != nil {
		return nil, err
	}
	org.MarkContactVerified(channel, target, now)
	if err := s.orgs.Save(ctx, org); err != nil {
		return nil, err
	}

	s.logger.Info("Contact verified",
		zap.String("org_id", input.OrgID.String()),
		zap.String("type", string(channel)))
	return org, nil
}

// ReapExpired deletes codes that expired before the cutoff
func (s *VerificationService) ReapExpired(ctx context.Context, before time.Time) (int64, error) {
	if s.codes == nil {
		return 0, nil
	}
	return s.codes.DeleteExpiredBefore(ctx, before)
}
