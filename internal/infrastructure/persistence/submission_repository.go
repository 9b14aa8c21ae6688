package persistence

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSubmissionRepository implements content.SubmissionRepository using GORM
type GormSubmissionRepository struct {
	db *gorm.DB
}

// NewGormSubmissionRepository creates a new GormSubmissionRepository
func NewGormSubmissionRepository(db *gorm.DB) *GormSubmissionRepository {
	return &GormSubmissionRepository{db: db}
}

// FindByID finds a submission by its ID
func (r *GormSubmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.Submission, error) {
	var model models.SubmissionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of submissions and the total match count
func (r *GormSubmissionRepository) FindAll(ctx context.Context, filter content.SubmissionFilter) ([]content.Submission, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SubmissionModel{})
	if filter.OrgID != nil {
		query = query.Where("org_id = ?", *filter.OrgID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("LOWER(file_name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subModels []models.SubmissionModel
	if err := paginate(query, filter.Filter, SubmissionSortFields, "created_at").Find(&subModels).Error; err != nil {
		return nil, 0, err
	}

	subs := make([]content.Submission, len(subModels))
	for i := range subModels {
		subs[i] = *subModels[i].ToDomain()
	}
	return subs, total, nil
}

// Count counts all submissions
func (r *GormSubmissionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SubmissionModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByMonthAndStatus groups submissions created at or after since by
// calendar month (YYYY-MM, UTC) and status. Grouping happens in Go so the
// query stays portable across postgres and sqlite.
func (r *GormSubmissionRepository) CountByMonthAndStatus(ctx context.Context, since time.Time) ([]content.MonthlyStatusCount, error) {
	var rows []struct {
		CreatedAt time.Time
		Status    content.SubmissionStatus
	}
	if err := r.db.WithContext(ctx).
		Model(&models.SubmissionModel{}).
		Select("created_at", "status").
		Where("created_at >= ?", since).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	type key struct {
		month  string
		status content.SubmissionStatus
	}
	counts := make(map[key]int64)
	for _, row := range rows {
		counts[key{row.CreatedAt.UTC().Format("2006-01"), row.Status}]++
	}

	result := make([]content.MonthlyStatusCount, 0, len(counts))
	for k, n := range counts {
		result = append(result, content.MonthlyStatusCount{Month: k.month, Status: k.status, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Month != result[j].Month {
			return result[i].Month < result[j].Month
		}
		return result[i].Status < result[j].Status
	})
	return result, nil
}

// Create inserts a new submission
func (r *GormSubmissionRepository) Create(ctx context.Context, s *content.Submission) error {
	var model models.SubmissionModel
	model.FromDomain(s)
	return translateError(r.db.WithContext(ctx).Create(&model).Error)
}

// Save updates an existing submission
func (r *GormSubmissionRepository) Save(ctx context.Context, s *content.Submission) error {
	var model models.SubmissionModel
	model.FromDomain(s)
	return translateError(r.db.WithContext(ctx).Save(&model).Error)
}

// Delete removes a submission row
func (r *GormSubmissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SubmissionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}
