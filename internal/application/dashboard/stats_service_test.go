package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassifyLevel(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"SDN Cilebar 1", LevelSD},
		{"sd negeri kertamukti", LevelSD},
		{"SMPN 1 Cilebar", LevelSMP},
		{"SMA PGRI Cilebar", LevelSMA},
		{"SMK Bina Karya", LevelSMK},
		{"PAUD Melati", LevelPAUD},
		{"TK Pertiwi", LevelPAUD},
		{"MI Al-Hidayah", LevelLainnya},
		{"", LevelLainnya},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLevel(tt.name))
		})
	}
}

type statsFixture struct {
	orgs        *testutil.MockOrganizationRepository
	profiles    *testutil.MockProfileRepository
	posts       *testutil.MockPostRepository
	submissions *testutil.MockSubmissionRepository
	svc         *StatsService
}

func newStatsFixture(now time.Time) *statsFixture {
	f := &statsFixture{
		orgs:        new(testutil.MockOrganizationRepository),
		profiles:    new(testutil.MockProfileRepository),
		posts:       new(testutil.MockPostRepository),
		submissions: new(testutil.MockSubmissionRepository),
	}
	f.svc = NewStatsService(f.orgs, f.profiles, f.posts, f.submissions, zap.NewNop()).
		WithClock(func() time.Time { return now })
	return f
}

func TestStatsService_Stats(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	f := newStatsFixture(now)
	since := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	f.orgs.On("CountByType", mock.Anything, organization.TypeSchool).Return(int64(4), nil)
	f.orgs.On("NamesByType", mock.Anything, organization.TypeSchool).
		Return([]string{"SDN Cilebar 1", "SDN Cilebar 2", "SMPN 1 Cilebar", "MI Nurul Huda"}, nil)
	f.profiles.On("Count", mock.Anything).Return(int64(12), nil)
	f.posts.On("Count", mock.Anything).Return(int64(7), nil)
	f.submissions.On("Count", mock.Anything).Return(int64(9), nil)
	f.submissions.On("CountByMonthAndStatus", mock.Anything, since).Return([]content.MonthlyStatusCount{
		{Month: "2025-10", Status: content.StatusVerified, Count: 2},
		{Month: "2026-03", Status: content.StatusPending, Count: 3},
		{Month: "2026-03", Status: content.StatusRejected, Count: 1},
		{Month: "2025-09", Status: content.StatusPending, Count: 5},
	}, nil)

	stats, err := f.svc.Stats(context.Background(), identity.Principal{UserID: uuid.New(), Role: identity.RoleDistrictAdmin})
	require.NoError(t, err)

	assert.Equal(t, Totals{Schools: 4, Users: 12, Submissions: 9, Posts: 7}, stats.Totals)
	assert.Equal(t, []LevelCount{
		{LevelSD, 2}, {LevelSMP, 1}, {LevelSMA, 0}, {LevelSMK, 0}, {LevelPAUD, 0}, {LevelLainnya, 1},
	}, stats.Distribution)

	require.Len(t, stats.Activity, ActivityMonths)
	months := make([]string, len(stats.Activity))
	for i, a := range stats.Activity {
		months[i] = a.Month
	}
	assert.Equal(t, []string{"2025-10", "2025-11", "2025-12", "2026-01", "2026-02", "2026-03"}, months)
	assert.Equal(t, MonthlyActivity{Month: "2025-10", Total: 2, Verified: 2}, stats.Activity[0])
	assert.Equal(t, MonthlyActivity{Month: "2026-03", Total: 4, Pending: 3, Rejected: 1}, stats.Activity[5])
	assert.Zero(t, stats.Activity[2].Total)
}

func TestStatsService_Stats_Forbidden(t *testing.T) {
	f := newStatsFixture(time.Now())
	orgID := uuid.New()
	_, err := f.svc.Stats(context.Background(), identity.Principal{Role: identity.RoleOperator, OrgID: &orgID})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	f.orgs.AssertNotCalled(t, "CountByType", mock.Anything, mock.Anything)
}

func TestStatsService_Stats_RepositoryError(t *testing.T) {
	f := newStatsFixture(time.Now())
	f.orgs.On("CountByType", mock.Anything, organization.TypeSchool).Return(int64(0), errors.New("db down"))

	_, err := f.svc.Stats(context.Background(), identity.Principal{Role: identity.RoleDistrictAdmin})
	assert.EqualError(t, err, "db down")
}
