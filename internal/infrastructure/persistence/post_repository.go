package persistence

import (
	"context"
	"strings"

	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPostRepository implements content.PostRepository using GORM
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a new GormPostRepository
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

// FindByID finds a post by its ID
func (r *GormPostRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.Post, error) {
	var model models.PostModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of posts and the total match count
func (r *GormPostRepository) FindAll(ctx context.Context, filter content.PostFilter) ([]content.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PostModel{})
	if filter.OrgID != nil {
		query = query.Where("org_id = ?", *filter.OrgID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if strings.TrimSpace(filter.Search) != "" {
		query = query.Where("LOWER(title) LIKE ?", searchPattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var postModels []models.PostModel
	if err := paginate(query, filter.Filter, PostSortFields, "created_at").Find(&postModels).Error; err != nil {
		return nil, 0, err
	}

	posts := make([]content.Post, len(postModels))
	for i := range postModels {
		posts[i] = *postModels[i].ToDomain()
	}
	return posts, total, nil
}

// Count counts all posts
func (r *GormPostRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PostModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new post
func (r *GormPostRepository) Create(ctx context.Context, post *content.Post) error {
	var model models.PostModel
	model.FromDomain(post)
	return translateError(r.db.WithContext(ctx).Create(&model).Error)
}

// Save updates an existing post
func (r *GormPostRepository) Save(ctx context.Context, post *content.Post) error {
	var model models.PostModel
	model.FromDomain(post)
	return translateError(r.db.WithContext(ctx).Save(&model).Error)
}

// Delete removes a post
func (r *GormPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PostModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	return nil
}
