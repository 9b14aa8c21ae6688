// Package pages assembles the JSON payloads behind the portal's server-side
// routes: the marketing home, tenant sites, the dashboard and the login form.
package pages

import (
	"context"
	"errors"

	appcontent "github.com/datadik/portal/internal/application/content"
	"github.com/datadik/portal/internal/application/dashboard"
	appidentity "github.com/datadik/portal/internal/application/identity"
	apporg "github.com/datadik/portal/internal/application/organization"
	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Page sizes
const (
	HomePostLimit      = 6
	SitePostLimit      = 6
	HomeOrgLimit       = 100
	DashboardListLimit = 20
)

// ErrSiteNotFound is returned for a tenant slug without an organization
var ErrSiteNotFound = shared.ErrNotFound.WithMessage("Situs tidak ditemukan")

// HomePage is the marketing landing payload
type HomePage struct {
	Organizations map[organization.Type][]apporg.OrganizationResponse `json:"organizations"`
	LatestPosts   []appcontent.PostResponse                           `json:"latest_posts"`
	Stats         dashboard.Totals                                    `json:"stats"`
}

// SitePage is a tenant site payload
type SitePage struct {
	Path         string                      `json:"path"`
	Organization apporg.OrganizationResponse `json:"organization"`
	SchoolData   *apporg.SchoolDataResponse  `json:"school_data"`
	Posts        []appcontent.PostResponse   `json:"posts"`
}

// DashboardPage is the signed-in payload. Operators get their school,
// admins the district summary.
type DashboardPage struct {
	User        appidentity.UserInfo            `json:"user"`
	Role        identity.Role                   `json:"role"`
	School      *SchoolSection                  `json:"school,omitempty"`
	Summary     *dashboard.Totals               `json:"summary,omitempty"`
	Submissions []appcontent.SubmissionResponse `json:"submissions"`
}

// SchoolSection is the operator's own school on the dashboard
type SchoolSection struct {
	Organization apporg.OrganizationResponse `json:"organization"`
	SchoolData   *apporg.SchoolDataResponse  `json:"school_data"`
	Posts        []appcontent.PostResponse   `json:"posts"`
}

// LoginField describes one input on the login form
type LoginField struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Type      string `json:"type"`
	MinLength int    `json:"min_length,omitempty"`
}

// LoginPage describes the login form
type LoginPage struct {
	Title    string       `json:"title"`
	Action   string       `json:"action"`
	Fields   []LoginField `json:"fields"`
	Redirect string       `json:"redirect"`
}

// Service builds page payloads
type Service struct {
	orgs        organization.OrganizationRepository
	schools     organization.SchoolDataRepository
	posts       content.PostRepository
	submissions content.SubmissionRepository
	profiles    identity.ProfileRepository
	stats       *dashboard.StatsService
	logger      *zap.Logger
}

// NewService creates the page service
func NewService(
	orgs organization.OrganizationRepository,
	schools organization.SchoolDataRepository,
	posts content.PostRepository,
	submissions content.SubmissionRepository,
	profiles identity.ProfileRepository,
	stats *dashboard.StatsService,
	logger *zap.Logger,
) *Service {
	return &Service{
		orgs:        orgs,
		schools:     schools,
		posts:       posts,
		submissions: submissions,
		profiles:    profiles,
		stats:       stats,
		logger:      logger,
	}
}

// Home returns organizations grouped by type, the latest published posts and the counters
func (s *Service) Home(ctx context.Context) (*HomePage, error) {
	page := &HomePage{Organizations: make(map[organization.Type][]apporg.OrganizationResponse)}
	for _, t := range []organization.Type{organization.TypeDistrict, organization.TypeSchool, organization.TypePartner} {
		orgs, _, err := s.orgs.FindAll(ctx, organization.OrganizationFilter{
			Filter: shared.Filter{Page: 1, PageSize: HomeOrgLimit, OrderBy: "name", OrderDir: "asc"},
			Type:   t,
		})
		if err != nil {
			return nil, err
		}
		page.Organizations[t] = apporg.ToOrganizationResponses(orgs)
	}

	posts, _, err := s.posts.FindAll(ctx, content.PostFilter{
		Filter:        shared.Filter{Page: 1, PageSize: HomePostLimit},
		PublishedOnly: true,
	})
	if err != nil {
		return nil, err
	}
	page.LatestPosts = appcontent.ToPostResponses(posts)

	totals, err := s.stats.Totals(ctx)
	if err != nil {
		return nil, err
	}
	page.Stats = *totals
	return page, nil
}

// Site returns the tenant page for slug. path is the sub-path under the site.
func (s *Service) Site(ctx context.Context, slug, path string) (*SitePage, error) {
	org, err := s.orgs.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	if path == "" {
		path = "/"
	}

	schoolData, err := s.schoolData(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	posts, err := s.orgPosts(ctx, org.ID, true, SitePostLimit)
	if err != nil {
		return nil, err
	}
	return &SitePage{
		Path:         path,
		Organization: apporg.ToOrganizationResponse(org),
		SchoolData:   schoolData,
		Posts:        posts,
	}, nil
}

// Dashboard returns the payload for the signed-in user
func (s *Service) Dashboard(ctx context.Context, actor identity.Principal) (*DashboardPage, error) {
	profile, err := s.profiles.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized.WithMessage("Sesi tidak valid, silakan login kembali.")
		}
		return nil, err
	}
	page := &DashboardPage{
		User: appidentity.ToUserInfo(profile, actor.OrgID),
		Role: actor.Role,
	}

	filter := content.SubmissionFilter{Filter: shared.Filter{Page: 1, PageSize: DashboardListLimit}}
	if actor.IsAdmin() {
		totals, err := s.stats.Totals(ctx)
		if err != nil {
			return nil, err
		}
		page.Summary = totals
	} else {
		if actor.OrgID == nil {
			page.Submissions = []appcontent.SubmissionResponse{}
			return page, nil
		}
		section, err := s.schoolSection(ctx, *actor.OrgID)
		if err != nil {
			return nil, err
		}
		page.School = section
		filter.OrgID = actor.OrgID
	}

	subs, _, err := s.submissions.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page.Submissions = appcontent.ToSubmissionResponses(subs)
	return page, nil
}

// Login describes the NPSN login form
func (s *Service) Login() *LoginPage {
	return &LoginPage{
		Title:  "Masuk ke Datadik Cilebar",
		Action: "/api/auth/login",
		Fields: []LoginField{
			{Name: "npsn", Label: "NPSN", Type: "text"},
			{Name: "password", Label: "Password", Type: "password", MinLength: identity.MinPasswordLength},
		},
		Redirect: "/dashboard",
	}
}

func (s *Service) schoolSection(ctx context.Context, orgID uuid.UUID) (*SchoolSection, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	schoolData, err := s.schoolData(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	posts, err := s.orgPosts(ctx, org.ID, false, DashboardListLimit)
	if err != nil {
		return nil, err
	}
	return &SchoolSection{
		Organization: apporg.ToOrganizationResponse(org),
		SchoolData:   schoolData,
		Posts:        posts,
	}, nil
}

func (s *Service) schoolData(ctx context.Context, orgID uuid.UUID) (*apporg.SchoolDataResponse, error) {
	data, err := s.schools.FindByOrgID(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	resp := apporg.ToSchoolDataResponse(data)
	return &resp, nil
}

func (s *Service) orgPosts(ctx context.Context, orgID uuid.UUID, publishedOnly bool, limit int) ([]appcontent.PostResponse, error) {
	posts, _, err := s.posts.FindAll(ctx, content.PostFilter{
		Filter:        shared.Filter{Page: 1, PageSize: limit},
		OrgID:         &orgID,
		PublishedOnly: publishedOnly,
	})
	if err != nil {
		return nil, err
	}
	return appcontent.ToPostResponses(posts), nil
}
