package organization

import (
	"context"

	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
)

// OrganizationFilter narrows organization listings
type OrganizationFilter struct {
	shared.Filter
	Type Type
}

// OrganizationRepository persists organizations
type OrganizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	FindBySlug(ctx context.Context, slug string) (*Organization, error)
	// FindByNameInsensitive matches the whole name, ignoring case
	FindByNameInsensitive(ctx context.Context, name string) (*Organization, error)
	FindAll(ctx context.Context, filter OrganizationFilter) ([]Organization, int64, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	CountByType(ctx context.Context, t Type) (int64, error)
	NamesByType(ctx context.Context, t Type) ([]string, error)
	Create(ctx context.Context, org *Organization) error
	Save(ctx context.Context, org *Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SchoolDataRepository persists school extensions
type SchoolDataRepository interface {
	FindByOrgID(ctx context.Context, orgID uuid.UUID) (*SchoolData, error)
	FindByNPSN(ctx context.Context, npsn string) (*SchoolData, error)
	// Upsert inserts or updates the row keyed by OrgID
	Upsert(ctx context.Context, data *SchoolData) error
}
