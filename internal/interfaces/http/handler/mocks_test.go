package handler

import (
	"context"
	"io"

	"github.com/datadik/portal/internal/application/assistant"
	appcontent "github.com/datadik/portal/internal/application/content"
	"github.com/datadik/portal/internal/application/dashboard"
	appidentity "github.com/datadik/portal/internal/application/identity"
	apporg "github.com/datadik/portal/internal/application/organization"
	"github.com/datadik/portal/internal/application/pages"
	"github.com/datadik/portal/internal/application/registry"
	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Login(ctx context.Context, input appidentity.LoginInput) (*appidentity.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.LoginResult), args.Error(1)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*appidentity.LoginResult, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.LoginResult), args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, input appidentity.LogoutInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*appidentity.UserInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.UserInfo), args.Error(1)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[appidentity.UserInfo], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appidentity.UserInfo]), args.Error(1)
}

func (m *mockUserService) Create(ctx context.Context, input appidentity.CreateUserInput) (*appidentity.UserInfo, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.UserInfo), args.Error(1)
}

func (m *mockUserService) Update(ctx context.Context, id uuid.UUID, input appidentity.UpdateUserInput) (*appidentity.UserInfo, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.UserInfo), args.Error(1)
}

func (m *mockUserService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockOrganizationService struct {
	mock.Mock
}

func (m *mockOrganizationService) List(ctx context.Context, filter organization.OrganizationFilter) (*shared.Paginated[apporg.OrganizationResponse], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[apporg.OrganizationResponse]), args.Error(1)
}

func (m *mockOrganizationService) Get(ctx context.Context, id uuid.UUID) (*apporg.OrganizationResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apporg.OrganizationResponse), args.Error(1)
}

func (m *mockOrganizationService) Create(ctx context.Context, input apporg.CreateOrganizationInput) (*apporg.OrganizationResponse, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apporg.OrganizationResponse), args.Error(1)
}

func (m *mockOrganizationService) Update(ctx context.Context, id uuid.UUID, input apporg.UpdateOrganizationInput) (*apporg.OrganizationResponse, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apporg.OrganizationResponse), args.Error(1)
}

func (m *mockOrganizationService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOrganizationService) GetSchoolData(ctx context.Context, orgID uuid.UUID) (*apporg.SchoolDataResponse, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apporg.SchoolDataResponse), args.Error(1)
}

func (m *mockOrganizationService) UpdateSchoolData(ctx context.Context, actor identity.Principal, orgID uuid.UUID, input apporg.UpdateSchoolDataInput) (*apporg.SchoolDataResponse, error) {
	args := m.Called(ctx, actor, orgID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apporg.SchoolDataResponse), args.Error(1)
}

type mockVerificationService struct {
	mock.Mock
}

func (m *mockVerificationService) Request(ctx context.Context, input appidentity.RequestCodeInput) (*appidentity.RequestCodeResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.RequestCodeResult), args.Error(1)
}

func (m *mockVerificationService) Confirm(ctx context.Context, input appidentity.ConfirmCodeInput) (*organization.Organization, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Organization), args.Error(1)
}

type mockPostService struct {
	mock.Mock
}

func (m *mockPostService) ListPublished(ctx context.Context, filter content.PostFilter) (*shared.Paginated[appcontent.PostResponse], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appcontent.PostResponse]), args.Error(1)
}

func (m *mockPostService) ListManaged(ctx context.Context, actor identity.Principal, filter content.PostFilter) (*shared.Paginated[appcontent.PostResponse], error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appcontent.PostResponse]), args.Error(1)
}

func (m *mockPostService) Get(ctx context.Context, actor *identity.Principal, id uuid.UUID) (*appcontent.PostResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcontent.PostResponse), args.Error(1)
}

func (m *mockPostService) Create(ctx context.Context, actor identity.Principal, input appcontent.CreatePostInput) (*appcontent.PostResponse, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcontent.PostResponse), args.Error(1)
}

func (m *mockPostService) Update(ctx context.Context, actor identity.Principal, id uuid.UUID, input appcontent.UpdatePostInput) (*appcontent.PostResponse, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcontent.PostResponse), args.Error(1)
}

func (m *mockPostService) Delete(ctx context.Context, actor identity.Principal, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

type mockSubmissionService struct {
	mock.Mock
}

func (m *mockSubmissionService) MaxUploadSize() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *mockSubmissionService) Upload(ctx context.Context, actor identity.Principal, input appcontent.UploadSubmissionInput) (*appcontent.SubmissionResponse, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcontent.SubmissionResponse), args.Error(1)
}

func (m *mockSubmissionService) List(ctx context.Context, actor identity.Principal, filter content.SubmissionFilter) (*shared.Paginated[appcontent.SubmissionResponse], error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appcontent.SubmissionResponse]), args.Error(1)
}

func (m *mockSubmissionService) UpdateStatus(ctx context.Context, actor identity.Principal, id uuid.UUID, status content.SubmissionStatus) (*appcontent.SubmissionResponse, error) {
	args := m.Called(ctx, actor, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcontent.SubmissionResponse), args.Error(1)
}

func (m *mockSubmissionService) Delete(ctx context.Context, actor identity.Principal, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *mockSubmissionService) DownloadURL(ctx context.Context, actor identity.Principal, id uuid.UUID) (*appcontent.DownloadResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcontent.DownloadResponse), args.Error(1)
}

type mockSyncRunner struct {
	mock.Mock
}

func (m *mockSyncRunner) Run(ctx context.Context) (*registry.SyncResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.SyncResult), args.Error(1)
}

type mockSchoolImporter struct {
	mock.Mock
}

func (m *mockSchoolImporter) Import(ctx context.Context, in io.Reader) (*registry.ImportResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.ImportResult), args.Error(1)
}

func (m *mockSchoolImporter) ImportWorkbook(ctx context.Context, in io.Reader, sheet string) (*registry.ImportResult, error) {
	args := m.Called(ctx, in, sheet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.ImportResult), args.Error(1)
}

type mockStatsService struct {
	mock.Mock
}

func (m *mockStatsService) Stats(ctx context.Context, actor identity.Principal) (*dashboard.Stats, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.Stats), args.Error(1)
}

type mockAssistantService struct {
	mock.Mock
}

func (m *mockAssistantService) Reply(ctx context.Context, message string) (*assistant.Reply, error) {
	args := m.Called(ctx, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assistant.Reply), args.Error(1)
}

type mockPageService struct {
	mock.Mock
}

func (m *mockPageService) Home(ctx context.Context) (*pages.HomePage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pages.HomePage), args.Error(1)
}

func (m *mockPageService) Site(ctx context.Context, slug, path string) (*pages.SitePage, error) {
	args := m.Called(ctx, slug, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pages.SitePage), args.Error(1)
}

func (m *mockPageService) Dashboard(ctx context.Context, actor identity.Principal) (*pages.DashboardPage, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pages.DashboardPage), args.Error(1)
}

func (m *mockPageService) Login() *pages.LoginPage {
	args := m.Called()
	return args.Get(0).(*pages.LoginPage)
}
