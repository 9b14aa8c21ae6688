package persistence

import (
	"context"
	"time"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLoginAttemptRepository implements identity.LoginAttemptRepository using GORM
type GormLoginAttemptRepository struct {
	db *gorm.DB
}

// NewGormLoginAttemptRepository creates a new GormLoginAttemptRepository
func NewGormLoginAttemptRepository(db *gorm.DB) *GormLoginAttemptRepository {
	return &GormLoginAttemptRepository{db: db}
}

// Create records one login attempt
func (r *GormLoginAttemptRepository) Create(ctx context.Context, attempt *identity.LoginAttempt) error {
	return r.db.WithContext(ctx).Create(models.LoginAttemptModelFromDomain(attempt)).Error
}

// CountFailedSince counts unsuccessful attempts for npsn at or after since
func (r *GormLoginAttemptRepository) CountFailedSince(ctx context.Context, npsn string, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LoginAttemptModel{}).
		Where("npsn = ? AND is_successful = ? AND created_at >= ?", npsn, false, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
