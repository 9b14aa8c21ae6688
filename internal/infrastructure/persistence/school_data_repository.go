package persistence

import (
	"context"

	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSchoolDataRepository implements organization.SchoolDataRepository using GORM
type GormSchoolDataRepository struct {
	db *gorm.DB
}

// NewGormSchoolDataRepository creates a new GormSchoolDataRepository
func NewGormSchoolDataRepository(db *gorm.DB) *GormSchoolDataRepository {
	return &GormSchoolDataRepository{db: db}
}

// FindByOrgID loads the school extension of an organization
func (r *GormSchoolDataRepository) FindByOrgID(ctx context.Context, orgID uuid.UUID) (*organization.SchoolData, error) {
	var model models.SchoolDataModel
	if err := r.db.WithContext(ctx).First(&model, "org_id = ?", orgID).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByNPSN loads the school extension registered under npsn
func (r *GormSchoolDataRepository) FindByNPSN(ctx context.Context, npsn string) (*organization.SchoolData, error) {
	var model models.SchoolDataModel
	if err := r.db.WithContext(ctx).First(&model, "npsn = ?", npsn).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Upsert inserts the row or, when org_id already has one, overwrites every
// column except id and created_at.
func (r *GormSchoolDataRepository) Upsert(ctx context.Context, data *organization.SchoolData) error {
	var model models.SchoolDataModel
	if err := model.FromDomain(data); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "org_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"npsn", "address", "kelurahan", "status", "level", "lat", "lng",
				"student_count", "teacher_count", "class_count", "vision", "mission",
				"contact_email", "contact_phone", "last_sync", "extras", "updated_at",
			}),
		}).
		Create(&model).Error
}
