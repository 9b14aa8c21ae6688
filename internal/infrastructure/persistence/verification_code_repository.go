package persistence

import (
	"context"
	"time"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVerificationCodeRepository implements identity.VerificationCodeRepository using GORM
type GormVerificationCodeRepository struct {
	db *gorm.DB
}

// NewGormVerificationCodeRepository creates a new GormVerificationCodeRepository
func NewGormVerificationCodeRepository(db *gorm.DB) *GormVerificationCodeRepository {
	return &GormVerificationCodeRepository{db: db}
}

// Create stores a freshly issued code
func (r *GormVerificationCodeRepository) Create(ctx context.Context, code *identity.VerificationCode) error {
	return r.db.WithContext(ctx).Create(models.VerificationCodeModelFromDomain(code)).Error
}

// FindLatestActive returns the newest unverified code that matches every
// field and has not expired at now.
func (r *GormVerificationCodeRepository) FindLatestActive(
	ctx context.Context,
	orgID uuid.UUID,
	channel organization.Channel,
	target, code string,
	now time.Time,
) (*identity.VerificationCode, error) {
	var model models.VerificationCodeModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND type = ? AND target = ? AND code = ?", orgID, channel, target, code).
		Where("verified_at IS NULL AND expires_at > ?", now).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// MarkVerified stamps verified_at on a code that has not been used yet
func (r *GormVerificationCodeRepository) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.VerificationCodeModel{}).
		Where("id = ? AND verified_at IS NULL", id).
		Update("verified_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}

// DeleteExpiredBefore removes codes that expired before cutoff
func (r *GormVerificationCodeRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.VerificationCodeModel{})
	return result.RowsAffected, result.Error
}
