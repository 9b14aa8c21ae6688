// Package organization provides the use cases for organizations and their
// school extensions.
package organization

import (
	"context"
	"errors"
	"strings"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/event"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSlugTaken       = shared.ErrAlreadyExists.WithMessage("Slug sudah digunakan organisasi lain.")
	ErrNotSchoolEditor = shared.ErrForbidden.WithMessage("Anda tidak berhak mengubah data sekolah ini.")
)

// OrganizationService manages organizations and school data
type OrganizationService struct {
	orgs    organization.OrganizationRepository
	schools organization.SchoolDataRepository
	events  shared.EventPublisher
	logger  *zap.Logger
}

// NewOrganizationService creates the service. events may be nil.
func NewOrganizationService(
	orgs organization.OrganizationRepository,
	schools organization.SchoolDataRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *OrganizationService {
	return &OrganizationService{
		orgs:    orgs,
		schools: schools,
		events:  events,
		logger:  logger,
	}
}

// List returns a filtered page of organizations
func (s *OrganizationService) List(ctx context.Context, filter organization.OrganizationFilter) (*shared.Paginated[OrganizationResponse], error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Tipe organisasi tidak valid")
	}
	filter.Filter = filter.Filter.Normalize()
	orgs, total, err := s.orgs.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToOrganizationResponses(orgs), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns one organization
func (s *OrganizationService) Get(ctx context.Context, id uuid.UUID) (*OrganizationResponse, error) {
	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// GetBySlug returns the organization served under a subdomain
func (s *OrganizationService) GetBySlug(ctx context.Context, slug string) (*OrganizationResponse, error) {
	org, err := s.orgs.FindBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}
	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// Create adds an organization
func (s *OrganizationService) Create(ctx context.Context, input CreateOrganizationInput) (*OrganizationResponse, error) {
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = organization.Slugify(input.Name)
	}
	org, err := organization.NewOrganization(slug, input.Name, input.Type)
	if err != nil {
		return nil, err
	}
	org.SetBranding(input.LogoURL, input.FaviconURL, input.Address)
	if err := org.SetThemeColor(input.ThemeColor); err != nil {
		return nil, err
	}

	taken, err := s.orgs.ExistsBySlug(ctx, org.Slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlugTaken
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	if err := event.PublishRecorded(ctx, s.events, org); err != nil {
		s.logger.Warn("Failed to publish organization events", zap.Error(err))
	}

	s.logger.Info("Organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("slug", org.Slug),
		zap.String("type", string(org.Type)))

	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// Update applies a partial update
func (s *OrganizationService) Update(ctx context.Context, id uuid.UUID, input UpdateOrganizationInput) (*OrganizationResponse, error) {
	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := org.Rename(*input.Name); err != nil {
			return nil, err
		}
	}
	if input.Type != nil {
		if err := org.ChangeType(*input.Type); err != nil {
			return nil, err
		}
	}
	if input.ThemeColor != nil {
		if err := org.SetThemeColor(*input.ThemeColor); err != nil {
			return nil, err
		}
	}
	if input.Slug != nil && *input.Slug != org.Slug {
		if err := org.ChangeSlug(strings.TrimSpace(*input.Slug)); err != nil {
			return nil, err
		}
		taken, err := s.orgs.ExistsBySlug(ctx, org.Slug)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrSlugTaken
		}
	}
	org.SetBranding(input.LogoURL, input.FaviconURL, input.Address)

	if err := s.orgs.Save(ctx, org); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// Delete removes an organization together with its school data, posts and submissions
func (s *OrganizationService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.orgs.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Organization deleted", zap.String("org_id", id.String()))
	return nil
}

// GetSchoolData returns the school extension. An organization without one
// gets an empty extension.
func (s *OrganizationService) GetSchoolData(ctx context.Context, orgID uuid.UUID) (*SchoolDataResponse, error) {
	if _, err := s.orgs.FindByID(ctx, orgID); err != nil {
		return nil, err
	}
	data, err := s.schools.FindByOrgID(ctx, orgID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		data = organization.NewSchoolData(orgID)
	}
	resp := ToSchoolDataResponse(data)
	return &resp, nil
}

// UpdateSchoolData edits operator-owned stats and extras. Admins may edit any
// school; operators only the school whose NPSN they hold.
func (s *OrganizationService) UpdateSchoolData(ctx context.Context, actor identity.Principal, orgID uuid.UUID, input UpdateSchoolDataInput) (*SchoolDataResponse, error) {
	if _, err := s.orgs.FindByID(ctx, orgID); err != nil {
		return nil, err
	}
	data, err := s.schools.FindByOrgID(ctx, orgID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		data = nil
	}
	if !canEditSchool(actor, data) {
		return nil, ErrNotSchoolEditor
	}
	if data == nil {
		data = organization.NewSchoolData(orgID)
	}

	if err := data.ApplyProfileUpdate(input.Stats); err != nil {
		return nil, err
	}
	if len(input.Extras) > 0 {
		if err := data.MergeExtras(input.Extras); err != nil {
			return nil, err
		}
	}
	if err := s.schools.Upsert(ctx, data); err != nil {
		return nil, err
	}

	s.logger.Info("School data updated",
		zap.String("org_id", orgID.String()),
		zap.String("user_id", actor.UserID.String()))
	resp := ToSchoolDataResponse(data)
	return &resp, nil
}

func canEditSchool(actor identity.Principal, data *organization.SchoolData) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.Role != identity.RoleOperator || actor.NPSN == "" || data == nil || data.NPSN == nil {
		return false
	}
	return *data.NPSN == actor.NPSN
}
