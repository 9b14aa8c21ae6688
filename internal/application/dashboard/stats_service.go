// Package dashboard provides the district-wide counters shown to admins.
package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ActivityMonths is how many calendar months the activity series covers,
// the current one included
const ActivityMonths = 6

// School levels in classification order
const (
	LevelSD      = "SD"
	LevelSMP     = "SMP"
	LevelSMA     = "SMA"
	LevelSMK     = "SMK"
	LevelPAUD    = "PAUD/TK"
	LevelLainnya = "Lainnya"
)

var levelOrder = []string{LevelSD, LevelSMP, LevelSMA, LevelSMK, LevelPAUD, LevelLainnya}

// ClassifyLevel buckets a school by the first level marker found in its name.
// SD is checked before SMP, SMA and SMK; PAUD and TK share a bucket.
func ClassifyLevel(name string) string {
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "SD"):
		return LevelSD
	case strings.Contains(upper, "SMP"):
		return LevelSMP
	case strings.Contains(upper, "SMA"):
		return LevelSMA
	case strings.Contains(upper, "SMK"):
		return LevelSMK
	case strings.Contains(upper, "PAUD"), strings.Contains(upper, "TK"):
		return LevelPAUD
	default:
		return LevelLainnya
	}
}

// Totals are the headline counters
type Totals struct {
	Schools     int64 `json:"schools"`
	Users       int64 `json:"users"`
	Submissions int64 `json:"submissions"`
	Posts       int64 `json:"posts"`
}

// LevelCount is one slice of the school distribution
type LevelCount struct {
	Level string `json:"level"`
	Count int64  `json:"count"`
}

// MonthlyActivity counts the submissions uploaded in a month by status
type MonthlyActivity struct {
	Month    string `json:"month"`
	Total    int64  `json:"total"`
	Pending  int64  `json:"pending"`
	Verified int64  `json:"verified"`
	Rejected int64  `json:"rejected"`
}

// Stats is the admin dashboard payload
type Stats struct {
	Totals       Totals            `json:"totals"`
	Distribution []LevelCount      `json:"distribution"`
	Activity     []MonthlyActivity `json:"activity"`
}

// StatsService computes dashboard statistics
type StatsService struct {
	orgs        organization.OrganizationRepository
	profiles    identity.ProfileRepository
	posts       content.PostRepository
	submissions content.SubmissionRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewStatsService creates the service
func NewStatsService(
	orgs organization.OrganizationRepository,
	profiles identity.ProfileRepository,
	posts content.PostRepository,
	submissions content.SubmissionRepository,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		orgs:        orgs,
		profiles:    profiles,
		posts:       posts,
		submissions: submissions,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the time source
func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

// Totals returns the headline counters only
func (s *StatsService) Totals(ctx context.Context) (*Totals, error) {
	var t Totals
	var err error
	if t.Schools, err = s.orgs.CountByType(ctx, organization.TypeSchool); err != nil {
		return nil, err
	}
	if t.Users, err = s.profiles.Count(ctx); err != nil {
		return nil, err
	}
	if t.Submissions, err = s.submissions.Count(ctx); err != nil {
		return nil, err
	}
	if t.Posts, err = s.posts.Count(ctx); err != nil {
		return nil, err
	}
	return &t, nil
}

// Stats returns the totals, school distribution and activity series
func (s *StatsService) Stats(ctx context.Context, actor identity.Principal) (*Stats, error) {
	if !actor.IsAdmin() {
		return nil, shared.ErrForbidden.WithMessage("Hanya admin kecamatan yang dapat melihat statistik.")
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "dashboard", "stats")
	defer span.End()

	totals, err := s.Totals(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	distribution, err := s.distribution(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	activity, err := s.activity(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &Stats{Totals: *totals, Distribution: distribution, Activity: activity}, nil
}

func (s *StatsService) distribution(ctx context.Context) ([]LevelCount, error) {
	names, err := s.orgs.NamesByType(ctx, organization.TypeSchool)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(levelOrder))
	for _, name := range names {
		counts[ClassifyLevel(name)]++
	}
	out := make([]LevelCount, len(levelOrder))
	for i, level := range levelOrder {
		out[i] = LevelCount{Level: level, Count: counts[level]}
	}
	return out, nil
}

// activity returns one entry per month, oldest first, zero-filled
func (s *StatsService) activity(ctx context.Context) ([]MonthlyActivity, error) {
	now := s.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(ActivityMonths - 1), 0)

	rows, err := s.submissions.CountByMonthAndStatus(ctx, first)
	if err != nil {
		return nil, err
	}

	out := make([]MonthlyActivity, ActivityMonths)
	index := make(map[string]int, ActivityMonths)
	for i := range out {
		month := first.AddDate(0, i, 0).Format("2006-01")
		out[i].Month = month
		index[month] = i
	}
	for _, row := range rows {
		i, ok := index[row.Month]
		if !ok {
			continue
		}
		out[i].Total += row.Count
		switch row.Status {
		case content.StatusPending:
			out[i].Pending += row.Count
		case content.StatusVerified:
			out[i].Verified += row.Count
		case content.StatusRejected:
			out[i].Rejected += row.Count
		}
	}
	return out, nil
}
