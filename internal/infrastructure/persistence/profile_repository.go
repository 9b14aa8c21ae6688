package persistence

import (
	"context"
	"strings"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProfileRepository implements identity.ProfileRepository using GORM
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// FindByID finds a profile by its ID
func (r *GormProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Profile, error) {
	var model models.ProfileModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a profile by its login email
func (r *GormProfileRepository) FindByEmail(ctx context.Context, email string) (*identity.Profile, error) {
	var model models.ProfileModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of profiles and the total match count.
// Filters["role"] narrows by role.
func (r *GormProfileRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Profile, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProfileModel{})
	if role, ok := filter.Filters["role"]; ok && role != "" {
		query = query.Where("role = ?", role)
	}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR npsn LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profileModels []models.ProfileModel
	if err := paginate(query, filter, ProfileSortFields, "created_at").Find(&profileModels).Error; err != nil {
		return nil, 0, err
	}

	profiles := make([]identity.Profile, len(profileModels))
	for i := range profileModels {
		profiles[i] = *profileModels[i].ToDomain()
	}
	return profiles, total, nil
}

// ExistsByEmail reports whether email is taken
func (r *GormProfileRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProfileModel{}).
		Where("email = ?", strings.ToLower(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count counts all profiles
func (r *GormProfileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProfileModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new profile. A duplicate email yields shared.ErrAlreadyExists.
func (r *GormProfileRepository) Create(ctx context.Context, p *identity.Profile) error {
	var model models.ProfileModel
	model.FromDomain(p)
	return translateError(r.db.WithContext(ctx).Create(&model).Error)
}

// Save updates an existing profile
func (r *GormProfileRepository) Save(ctx context.Context, p *identity.Profile) error {
	var model models.ProfileModel
	model.FromDomain(p)
	return translateError(r.db.WithContext(ctx).Save(&model).Error)
}

// Delete removes a profile, which is also the login identity
func (r *GormProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProfileModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}
