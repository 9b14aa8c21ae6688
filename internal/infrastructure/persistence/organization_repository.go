package persistence

import (
	"context"
	"strings"

	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrganizationRepository implements organization.OrganizationRepository using GORM
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewGormOrganizationRepository creates a new GormOrganizationRepository
func NewGormOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// FindByID finds an organization by its ID
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	var model models.OrganizationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds an organization by its subdomain slug
func (r *GormOrganizationRepository) FindBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	var model models.OrganizationModel
	if err := r.db.WithContext(ctx).
		Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByNameInsensitive matches the whole name ignoring case. The oldest
// organization wins when several share a name.
func (r *GormOrganizationRepository) FindByNameInsensitive(ctx context.Context, name string) (*organization.Organization, error) {
	var model models.OrganizationModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of organizations and the total match count
func (r *GormOrganizationRepository) FindAll(ctx context.Context, filter organization.OrganizationFilter) ([]organization.Organization, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrganizationModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orgModels []models.OrganizationModel
	if err := paginate(query, filter.Filter, OrganizationSortFields, "name").Find(&orgModels).Error; err != nil {
		return nil, 0, err
	}

	orgs := make([]organization.Organization, len(orgModels))
	for i := range orgModels {
		orgs[i] = *orgModels[i].ToDomain()
	}
	return orgs, total, nil
}

func (r *GormOrganizationRepository) applyFilter(query *gorm.DB, filter organization.OrganizationFilter) *gorm.DB {
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(slug) LIKE ?", pattern, pattern)
	}
	return query
}

// ExistsBySlug reports whether slug is taken
func (r *GormOrganizationRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrganizationModel{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByType counts organizations of one type
func (r *GormOrganizationRepository) CountByType(ctx context.Context, t organization.Type) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrganizationModel{}).
		Where("type = ?", t).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NamesByType returns the names of all organizations of one type
func (r *GormOrganizationRepository) NamesByType(ctx context.Context, t organization.Type) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).
		Model(&models.OrganizationModel{}).
		Where("type = ?", t).
		Order("name ASC").
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// Create inserts a new organization. A duplicate slug yields shared.ErrAlreadyExists.
func (r *GormOrganizationRepository) Create(ctx context.Context, org *organization.Organization) error {
	return translateError(r.db.WithContext(ctx).Create(models.OrganizationModelFromDomain(org)).Error)
}

// Save updates an existing organization
func (r *GormOrganizationRepository) Save(ctx context.Context, org *organization.Organization) error {
	return translateError(r.db.WithContext(ctx).Save(models.OrganizationModelFromDomain(org)).Error)
}

// Delete removes an organization; school data, posts, submissions and codes cascade
func (r *GormOrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.OrganizationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}
