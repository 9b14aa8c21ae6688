package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/auth"
	"github.com/datadik/portal/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Login errors carry the messages shown on the login form
var (
	ErrLoginMissingFields = shared.NewDomainError("VALIDATION_ERROR", "NPSN dan password harus diisi.")
	ErrAuthUnavailable    = shared.ErrServiceUnavailable.WithMessage("Layanan autentikasi belum dikonfigurasi.")
	ErrAccountLocked      = shared.ErrTooManyAttempts.WithMessage("Akun terkunci sementara karena terlalu banyak percobaan. Silakan coba lagi dalam 15 menit.")
	ErrInvalidCredentials = shared.ErrUnauthorized.WithMessage("NPSN atau Password salah.")
	ErrSessionInvalid     = shared.ErrUnauthorized.WithMessage("Sesi tidak valid, silakan login kembali.")
)

// AuthServiceConfig contains the brute-force guard settings
type AuthServiceConfig struct {
	MaxFailedAttempts int           // Failed attempts allowed inside the window
	LockoutWindow     time.Duration // Sliding window the failures are counted in
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxFailedAttempts: identity.MaxFailedAttempts,
		LockoutWindow:     identity.LockoutWindow,
	}
}

// AuthService handles NPSN logins and session tokens
type AuthService struct {
	profiles   identity.ProfileRepository
	attempts   identity.LoginAttemptRepository
	schools    organization.SchoolDataRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	metrics    *telemetry.PortalMetrics
	config     AuthServiceConfig
	logger     *zap.Logger
	now        func() time.Time
}

// AuthServiceOption configures an AuthService
type AuthServiceOption func(*AuthService)

// WithAuthMetrics records login attempts on the portal counters
func WithAuthMetrics(m *telemetry.PortalMetrics) AuthServiceOption {
	return func(s *AuthService) {
		s.metrics = m
	}
}

// WithAuthClock overrides the time source
func WithAuthClock(now func() time.Time) AuthServiceOption {
	return func(s *AuthService) {
		s.now = now
	}
}

// NewAuthService creates a new authentication service
func NewAuthService(
	profiles identity.ProfileRepository,
	attempts identity.LoginAttemptRepository,
	schools organization.SchoolDataRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
	opts ...AuthServiceOption,
) *AuthService {
	if config.MaxFailedAttempts <= 0 {
		config.MaxFailedAttempts = identity.MaxFailedAttempts
	}
	if config.LockoutWindow <= 0 {
		config.LockoutWindow = identity.LockoutWindow
	}
	s := &AuthService{
		profiles:   profiles,
		attempts:   attempts,
		schools:    schools,
		jwtService: jwtService,
		blacklist:  blacklist,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) available() bool {
	return s != nil && s.profiles != nil && s.attempts != nil && s.jwtService != nil
}

// Login authenticates an operator by NPSN and password.
// Five failed attempts inside the window lock the NPSN without checking
// credentials. A success does not reset the counter.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	npsn := strings.TrimSpace(input.NPSN)
	if npsn == "" || input.Password == "" {
		return nil, ErrLoginMissingFields
	}
	if err := identity.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if !s.available() {
		return nil, ErrAuthUnavailable
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "login", telemetry.SpanAttrNPSN, npsn)
	defer span.End()

	now := s.now()
	failed, err := s.attempts.CountFailedSince(ctx, npsn, now.Add(-s.config.LockoutWindow))
	if err != nil {
		s.logger.Error("Failed to count login attempts", zap.String("npsn", npsn), zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Gagal memeriksa percobaan login").Wrap(err)
	}
	if failed >= int64(s.config.MaxFailedAttempts) {
		s.recordAttempt(ctx, npsn, input.IP, false)
		s.metrics.RecordLoginAttempt(ctx, telemetry.LoginResultLocked)
		s.logger.Warn("Login blocked by brute-force guard",
			zap.String("npsn", npsn),
			zap.Int64("failed_attempts", failed))
		return nil, ErrAccountLocked
	}

	profile, err := s.findLoginProfile(ctx, npsn)
	if err != nil {
		s.logger.Error("Failed to load profile", zap.String("npsn", npsn), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Gagal memuat pengguna").Wrap(err)
	}
	if profile == nil || !profile.VerifyPassword(input.Password) {
		s.recordAttempt(ctx, npsn, input.IP, false)
		s.metrics.RecordLoginAttempt(ctx, telemetry.LoginResultFailure)
		s.logger.Warn("Invalid login", zap.String("npsn", npsn), zap.String("ip", input.IP))
		return nil, ErrInvalidCredentials
	}

	s.recordAttempt(ctx, npsn, input.IP, true)
	s.metrics.RecordLoginAttempt(ctx, telemetry.LoginResultSuccess)

	orgID := s.resolveOrgID(ctx, profile)
	pair, err := s.issue(profile, orgID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in",
		zap.String("npsn", npsn),
		zap.String("user_id", profile.ID.String()))

	return &LoginResult{User: ToUserInfo(profile, orgID), Session: *pair}, nil
}

// Refresh exchanges a refresh token for a new pair. Role and org are reloaded
// and the old refresh token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if !s.available() {
		return nil, ErrAuthUnavailable
	}
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Debug("Refresh token rejected", zap.Error(err))
		return nil, ErrSessionInvalid
	}
	if s.blacklist != nil {
		revoked, err := auth.IsRevoked(ctx, s.blacklist, claims)
		if err != nil {
			s.logger.Error("Failed to check token blacklist", zap.Error(err))
			return nil, shared.ErrServiceUnavailable.Wrap(err)
		}
		if revoked {
			return nil, ErrSessionInvalid
		}
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, ErrSessionInvalid
	}
	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	orgID := s.resolveOrgID(ctx, profile)
	pair, err := s.issue(profile, orgID)
	if err != nil {
		return nil, err
	}
	if s.blacklist != nil {
		if err := auth.Revoke(ctx, s.blacklist, claims); err != nil {
			s.logger.Warn("Failed to revoke used refresh token", zap.Error(err))
		}
	}
	return &LoginResult{User: ToUserInfo(profile, orgID), Session: *pair}, nil
}

// Logout revokes the access token until it would have expired
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if s == nil || s.blacklist == nil || input.TokenJTI == "" {
		return nil
	}
	ttl := input.TokenExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, ttl); err != nil {
		s.logger.Error("Failed to blacklist token", zap.Error(err))
		return shared.ErrServiceUnavailable.Wrap(err)
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// CurrentUser returns the profile behind a session
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	if !s.available() {
		return nil, ErrAuthUnavailable
	}
	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(profile, s.resolveOrgID(ctx, profile))
	return &info, nil
}

// findLoginProfile looks up the operator identity for npsn and falls back to
// the district admin identity. A missing profile returns nil, nil.
func (s *AuthService) findLoginProfile(ctx context.Context, npsn string) (*identity.Profile, error) {
	for _, email := range []string{identity.OperatorEmail(npsn), identity.AdminEmail(npsn)} {
		p, err := s.profiles.FindByEmail(ctx, email)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func (s *AuthService) issue(profile *identity.Profile, orgID *uuid.UUID) (*Session, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: profile.ID,
		Role:   string(profile.Role),
		NPSN:   profile.NPSNValue(),
		OrgID:  orgID,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Gagal membuat sesi").Wrap(err)
	}
	return &Session{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}, nil
}

// resolveOrgID finds the school an operator belongs to through its NPSN
func (s *AuthService) resolveOrgID(ctx context.Context, profile *identity.Profile) *uuid.UUID {
	npsn := profile.NPSNValue()
	if npsn == "" || s.schools == nil {
		return nil
	}
	data, err := s.schools.FindByNPSN(ctx, npsn)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Failed to resolve organization for NPSN", zap.String("npsn", npsn), zap.Error(err))
		}
		return nil
	}
	orgID := data.OrgID
	return &orgID
}

func (s *AuthService) recordAttempt(ctx context.Context, npsn, ip string, ok bool) {
	if err := s.attempts.Create(ctx, identity.NewLoginAttempt(npsn, ip, ok)); err != nil {
		s.logger.Error("Failed to record login attempt",
			zap.String("npsn", npsn),
			zap.Bool("successful", ok),
			zap.Error(err))
	}
}
