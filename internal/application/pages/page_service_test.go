package pages

import (
	"context"
	"testing"

	"github.com/datadik/portal/internal/application/dashboard"
	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/persistence"
	"github.com/datadik/portal/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pageFixture struct {
	svc     *Service
	orgs    *persistence.GormOrganizationRepository
	schools *persistence.GormSchoolDataRepository
	posts   *persistence.GormPostRepository
	subs    *persistence.GormSubmissionRepository
	users   *persistence.GormProfileRepository
	school  *organization.Organization
}

func newPageFixture(t *testing.T) *pageFixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	f := &pageFixture{
		orgs:    persistence.NewGormOrganizationRepository(db),
		schools: persistence.NewGormSchoolDataRepository(db),
		posts:   persistence.NewGormPostRepository(db),
		subs:    persistence.NewGormSubmissionRepository(db),
		users:   persistence.NewGormProfileRepository(db),
	}
	stats := dashboard.NewStatsService(f.orgs, f.users, f.posts, f.subs, zap.NewNop())
	f.svc = NewService(f.orgs, f.schools, f.posts, f.subs, f.users, stats, zap.NewNop())

	district, err := organization.NewOrganization("dinas-cilebar", "Korwil Pendidikan Cilebar", organization.TypeDistrict)
	require.NoError(t, err)
	require.NoError(t, f.orgs.Create(ctx, district))

	f.school, err = organization.NewOrganization("sdn-cilebar-1", "SDN Cilebar 1", organization.TypeSchool)
	require.NoError(t, err)
	require.NoError(t, f.orgs.Create(ctx, f.school))

	data := organization.NewSchoolData(f.school.ID)
	npsn := "20201010"
	data.NPSN = &npsn
	require.NoError(t, f.schools.Upsert(ctx, data))

	published, err := content.NewPost(f.school.ID, "Penerimaan Siswa Baru", "isi", content.CategoryAnnouncement)
	require.NoError(t, err)
	published.Publish()
	require.NoError(t, f.posts.Create(ctx, published))

	draft, err := content.NewPost(f.school.ID, "Draf Rapat", "isi", content.CategoryAgenda)
	require.NoError(t, err)
	require.NoError(t, f.posts.Create(ctx, draft))

	sub, err := content.NewSubmission(f.school.ID, nil, content.StoredFile{Key: "k1", URL: "u", Name: "rekap.pdf", Size: 3}, "", "")
	require.NoError(t, err)
	require.NoError(t, f.subs.Create(ctx, sub))
	return f
}

func TestService_Home(t *testing.T) {
	f := newPageFixture(t)

	page, err := f.svc.Home(context.Background())
	require.NoError(t, err)

	require.Len(t, page.Organizations[organization.TypeSchool], 1)
	require.Len(t, page.Organizations[organization.TypeDistrict], 1)
	assert.Empty(t, page.Organizations[organization.TypePartner])
	require.Len(t, page.LatestPosts, 1)
	assert.Equal(t, "Penerimaan Siswa Baru", page.LatestPosts[0].Title)
	assert.Equal(t, int64(1), page.Stats.Schools)
	assert.Equal(t, int64(2), page.Stats.Posts)
	assert.Equal(t, int64(1), page.Stats.Submissions)
}

func TestService_Site(t *testing.T) {
	f := newPageFixture(t)

	page, err := f.svc.Site(context.Background(), "sdn-cilebar-1", "/profil")
	require.NoError(t, err)
	assert.Equal(t, "/profil", page.Path)
	assert.Equal(t, f.school.ID, page.Organization.ID)
	require.NotNil(t, page.SchoolData)
	assert.Equal(t, "20201010", *page.SchoolData.NPSN)
	require.Len(t, page.Posts, 1)
	assert.True(t, page.Posts[0].IsPublished)

	page, err = f.svc.Site(context.Background(), "dinas-cilebar", "")
	require.NoError(t, err)
	assert.Equal(t, "/", page.Path)
	assert.Nil(t, page.SchoolData)

	_, err = f.svc.Site(context.Background(), "tidak-ada", "/")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_Dashboard(t *testing.T) {
	ctx := context.Background()
	f := newPageFixture(t)

	op, err := identity.NewProfile("Operator SDN 1", identity.RoleOperator, "20201010", "rahasia123")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(ctx, op))
	adm, err := identity.NewProfile("Admin Kecamatan", identity.RoleDistrictAdmin, "", "rahasia123")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(ctx, adm))

	t.Run("operator sees own school with drafts", func(t *testing.T) {
		orgID := f.school.ID
		page, err := f.svc.Dashboard(ctx, identity.Principal{UserID: op.ID, Role: identity.RoleOperator, NPSN: "20201010", OrgID: &orgID})
		require.NoError(t, err)
		require.NotNil(t, page.School)
		assert.Nil(t, page.Summary)
		assert.Len(t, page.School.Posts, 2)
		assert.Len(t, page.Submissions, 1)
		assert.Equal(t, &orgID, page.User.OrgID)
	})

	t.Run("operator without school", func(t *testing.T) {
		page, err := f.svc.Dashboard(ctx, identity.Principal{UserID: op.ID, Role: identity.RoleOperator})
		require.NoError(t, err)
		assert.Nil(t, page.School)
		assert.Empty(t, page.Submissions)
	})

	t.Run("admin sees district summary", func(t *testing.T) {
		page, err := f.svc.Dashboard(ctx, identity.Principal{UserID: adm.ID, Role: identity.RoleDistrictAdmin})
		require.NoError(t, err)
		require.NotNil(t, page.Summary)
		assert.Equal(t, int64(2), page.Summary.Users)
		assert.Nil(t, page.School)
		assert.Len(t, page.Submissions, 1)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.svc.Dashboard(ctx, identity.Principal{UserID: uuid.New(), Role: identity.RoleDistrictAdmin})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestService_Login(t *testing.T) {
	page := (&Service{}).Login()
	assert.Equal(t, "/api/auth/login", page.Action)
	require.Len(t, page.Fields, 2)
	assert.Equal(t, identity.MinPasswordLength, page.Fields[1].MinLength)
}
