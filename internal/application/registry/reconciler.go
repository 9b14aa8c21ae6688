// Package registry syncs schools from the national registry and from roster
// imports into organizations and their school data.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxSlugLength   = 63
	maxSlugAttempts = 50
)

// Reconciled is the outcome of matching one school to an organization
type Reconciled struct {
	Org     *organization.Organization
	Data    *organization.SchoolData
	Created bool
}

// Reconciler matches schools to organizations by name, creating a school
// organization when none exists, and merges fields into its school data.
type Reconciler struct {
	orgs    organization.OrganizationRepository
	schools organization.SchoolDataRepository
	logger  *zap.Logger
}

// NewReconciler creates a reconciler
func NewReconciler(orgs organization.OrganizationRepository, schools organization.SchoolDataRepository, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{orgs: orgs, schools: schools, logger: logger}
}

func (r *Reconciler) available() bool {
	return r != nil && r.orgs != nil && r.schools != nil
}

// Merge finds or creates the organization named name, loads its school data
// (or starts an empty one), lets apply modify it, and upserts it by org id.
func (r *Reconciler) Merge(ctx context.Context, name, npsn string, apply func(*organization.SchoolData) error) (*Reconciled, error) {
	org, created, err := r.ensureOrganization(ctx, name, npsn)
	if err != nil {
		return nil, err
	}

	data, err := r.schools.FindByOrgID(ctx, org.ID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("load school data: %w", err)
		}
		data = organization.NewSchoolData(org.ID)
	}
	if err := apply(data); err != nil {
		return nil, err
	}
	if err := r.schools.Upsert(ctx, data); err != nil {
		return nil, fmt.Errorf("upsert school data: %w", err)
	}
	return &Reconciled{Org: org, Data: data, Created: created}, nil
}

func (r *Reconciler) ensureOrganization(ctx context.Context, name, npsn string) (*organization.Organization, bool, error) {
	name = strings.TrimSpace(name)
	org, err := r.orgs.FindByNameInsensitive(ctx, name)
	if err == nil {
		return org, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, fmt.Errorf("find organization: %w", err)
	}

	slug, err := r.uniqueSlug(ctx, name, npsn)
	if err != nil {
		return nil, false, err
	}
	org, err = organization.NewOrganization(slug, name, organization.TypeSchool)
	if err != nil {
		return nil, false, err
	}
	if err := r.orgs.Create(ctx, org); err != nil {
		// Lost a race with a concurrent import or sync for the same school
		if errors.Is(err, shared.ErrAlreadyExists) {
			if existing, findErr := r.orgs.FindByNameInsensitive(ctx, name); findErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("create organization: %w", err)
	}

	r.logger.Info("Organization created from registry",
		zap.String("org_id", org.ID.String()),
		zap.String("slug", slug),
		zap.String("npsn", npsn))
	return org, true, nil
}

// uniqueSlug slugifies name and appends -2, -3, ... until the slug is free.
// Names that slugify to nothing fall back to sekolah-<npsn>.
func (r *Reconciler) uniqueSlug(ctx context.Context, name, npsn string) (string, error) {
	base := strings.Trim(truncate(organization.Slugify(name), maxSlugLength-4), "-")
	if base == "" {
		return fallbackSlug(npsn), nil
	}

	for i := 1; i <= maxSlugAttempts; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		taken, err := r.orgs.ExistsBySlug(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return fallbackSlug(npsn), nil
}

func fallbackSlug(npsn string) string {
	if npsn == "" {
		return "sekolah-" + uuid.NewString()[:8]
	}
	return "sekolah-" + npsn
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
