package identity

import (
	"context"
	"errors"
	"time"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrDuplicateUser is returned when the synthesized email is taken
var ErrDuplicateUser = shared.ErrAlreadyExists.WithMessage("Pengguna dengan NPSN tersebut sudah terdaftar.")

// UserService provisions portal accounts for district admins
type UserService struct {
	profiles     identity.ProfileRepository
	blacklist    auth.TokenBlacklist
	revokeWindow time.Duration
	logger       *zap.Logger
}

// NewUserService creates a user service. revokeWindow is how long a deleted
// user's tokens stay blacklisted and should match the refresh token lifetime.
func NewUserService(profiles identity.ProfileRepository, blacklist auth.TokenBlacklist, revokeWindow time.Duration, logger *zap.Logger) *UserService {
	return &UserService{
		profiles:     profiles,
		blacklist:    blacklist,
		revokeWindow: revokeWindow,
		logger:       logger,
	}
}

// List returns a page of profiles
func (s *UserService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[UserInfo], error) {
	if s.profiles == nil {
		return nil, ErrAuthUnavailable
	}
	filter = filter.Normalize()
	profiles, total, err := s.profiles.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]UserInfo, 0, len(profiles))
	for i := range profiles {
		items = append(items, ToUserInfo(&profiles[i], nil))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Create provisions a profile
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserInfo, error) {
	if s.profiles == nil {
		return nil, ErrAuthUnavailable
	}
	profile, err := identity.NewProfile(input.FullName, input.Role, input.NPSN, input.Password)
	if err != nil {
		return nil, err
	}

	exists, err := s.profiles.ExistsByEmail(ctx, profile.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateUser
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("user_id", profile.ID.String()),
		zap.String("email", profile.Email),
		zap.String("role", string(profile.Role)))

	info := ToUserInfo(profile, nil)
	return &info, nil
}

// Update applies a partial update. The email follows role and NPSN.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserInfo, error) {
	if s.profiles == nil {
		return nil, ErrAuthUnavailable
	}
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldEmail := profile.Email

	if err := profile.Apply(identity.ProfileChanges{
		FullName: input.FullName,
		Role:     input.Role,
		NPSN:     input.NPSN,
		Password: input.Password,
	}); err != nil {
		return nil, err
	}

	if profile.Email != oldEmail {
		exists, err := s.profiles.ExistsByEmail(ctx, profile.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicateUser
		}
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}

	s.logger.Info("User updated", zap.String("user_id", id.String()))
	info := ToUserInfo(profile, nil)
	return &info, nil
}

// Delete removes the profile and invalidates its outstanding tokens
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if s.profiles == nil {
		return ErrAuthUnavailable
	}
	if err := s.profiles.Delete(ctx, id); err != nil {
		return err
	}
	if s.blacklist != nil && s.revokeWindow > 0 {
		if err := s.blacklist.AddUserTokensToBlacklist(ctx, id.String(), s.revokeWindow); err != nil {
			s.logger.Warn("Failed to invalidate deleted user's tokens", zap.String("user_id", id.String()), zap.Error(err))
		}
	}
	s.logger.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}
