package identity

import (
	"context"
	"time"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProfileRepository is a mock implementation of identity.ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Profile), args.Error(1)
}

func (m *MockProfileRepository) FindByEmail(ctx context.Context, email string) (*identity.Profile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Profile), args.Error(1)
}

func (m *MockProfileRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Profile, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]identity.Profile), args.Get(1).(int64), args.Error(2)
}

func (m *MockProfileRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProfileRepository) Create(ctx context.Context, p *identity.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProfileRepository) Save(ctx context.Context, p *identity.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockLoginAttemptRepository is a mock implementation of identity.LoginAttemptRepository
type MockLoginAttemptRepository struct {
	mock.Mock
}

func (m *MockLoginAttemptRepository) Create(ctx context.Context, attempt *identity.LoginAttempt) error {
	return m.Called(ctx, attempt).Error(0)
}

func (m *MockLoginAttemptRepository) CountFailedSince(ctx context.Context, npsn string, since time.Time) (int64, error) {
	args := m.Called(ctx, npsn, since)
	return args.Get(0).(int64), args.Error(1)
}

// MockSchoolDataRepository is a mock implementation of organization.SchoolDataRepository
type MockSchoolDataRepository struct {
	mock.Mock
}

func (m *MockSchoolDataRepository) FindByOrgID(ctx context.Context, orgID uuid.UUID) (*organization.SchoolData, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.SchoolData), args.Error(1)
}

func (m *MockSchoolDataRepository) FindByNPSN(ctx context.Context, npsn string) (*organization.SchoolData, error) {
	args := m.Called(ctx, npsn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.SchoolData), args.Error(1)
}

func (m *MockSchoolDataRepository) Upsert(ctx context.Context, data *organization.SchoolData) error {
	return m.Called(ctx, data).Error(0)
}

// MockVerificationCodeRepository is a mock implementation of identity.VerificationCodeRepository
type MockVerificationCodeRepository struct {
	mock.Mock
}

func (m *MockVerificationCodeRepository) Create(ctx context.Context, code *identity.VerificationCode) error {
	return m.Called(ctx, code).Error(0)
}

func (m *MockVerificationCodeRepository) FindLatestActive(ctx context.Context, orgID uuid.UUID, channel organization.Channel, target, code string, now time.Time) (*identity.VerificationCode, error) {
	args := m.Called(ctx, orgID, channel, target, code, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.VerificationCode), args.Error(1)
}

func (m *MockVerificationCodeRepository) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockVerificationCodeRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrganizationRepository is a mock implementation of organization.OrganizationRepository
type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) FindBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) FindByNameInsensitive(ctx context.Context, name string) (*organization.Organization, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) FindAll(ctx context.Context, filter organization.OrganizationFilter) ([]organization.Organization, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]organization.Organization), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrganizationRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrganizationRepository) CountByType(ctx context.Context, t organization.Type) (int64, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrganizationRepository) NamesByType(ctx context.Context, t organization.Type) ([]string, error) {
	args := m.Called(ctx, t)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockOrganizationRepository) Create(ctx context.Context, org *organization.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationRepository) Save(ctx context.Context, org *organization.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
