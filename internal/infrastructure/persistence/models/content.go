package models

import (
	"github.com/datadik/portal/internal/domain/content"
	"github.com/google/uuid"
)

// PostModel is the persistence model for the Post aggregate.
type PostModel struct {
	BaseModel
	OrgID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	Title       string               `gorm:"type:varchar(255);not null"`
	Slug        string               `gorm:"type:varchar(255);not null"`
	Content     string               `gorm:"type:text"`
	Category    content.PostCategory `gorm:"type:varchar(20);not null;default:'berita';index"`
	ImageURL    *string              `gorm:"type:text"`
	IsPublished bool                 `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (PostModel) TableName() string {
	return "posts"
}

// ToDomain converts the persistence model to a domain Post.
func (m *PostModel) ToDomain() *content.Post {
	return &content.Post{
		BaseAggregateRoot: m.aggregateRoot(),
		OrgID:             m.OrgID,
		Title:             m.Title,
		Slug:              m.Slug,
		Content:           m.Content,
		Category:          m.Category,
		ImageURL:          m.ImageURL,
		IsPublished:       m.IsPublished,
	}
}

// FromDomain populates the model from a domain Post.
func (m *PostModel) FromDomain(p *content.Post) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.OrgID = p.OrgID
	m.Title = p.Title
	m.Slug = p.Slug
	m.Content = p.Content
	m.Category = p.Category
	m.ImageURL = p.ImageURL
	m.IsPublished = p.IsPublished
}

// SubmissionModel is the persistence model for the Submission aggregate.
type SubmissionModel struct {
	BaseModel
	OrgID       uuid.UUID                  `gorm:"type:uuid;not null;index"`
	UserID      *uuid.UUID                 `gorm:"type:uuid;index"`
	FileKey     string                     `gorm:"type:text;not null"`
	FileURL     string                     `gorm:"type:text;not null"`
	FileName    string                     `gorm:"type:varchar(255);not null"`
	FileType    string                     `gorm:"type:varchar(128)"`
	FileSize    int64                      `gorm:"not null;default:0"`
	Description string                     `gorm:"type:text"`
	Category    content.SubmissionCategory `gorm:"type:varchar(20);not null;default:'umum'"`
	Status      content.SubmissionStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
}

// TableName returns the table name for GORM
func (SubmissionModel) TableName() string {
	return "submissions"
}

// ToDomain converts the persistence model to a domain Submission.
func (m *SubmissionModel) ToDomain() *content.Submission {
	return &content.Submission{
		BaseAggregateRoot: m.aggregateRoot(),
		OrgID:             m.OrgID,
		UserID:            m.UserID,
		File: content.StoredFile{
			Key:  m.FileKey,
			URL:  m.FileURL,
			Name: m.FileName,
			Type: m.FileType,
			Size: m.FileSize,
		},
		Description: m.Description,
		Category:    m.Category,
		Status:      m.Status,
	}
}

// FromDomain populates the model from a domain Submission.
func (m *SubmissionModel) FromDomain(s *content.Submission) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.OrgID = s.OrgID
	m.UserID = s.UserID
	m.FileKey = s.File.Key
	m.FileURL = s.File.URL
	m.FileName = s.File.Name
	m.FileType = s.File.Type
	m.FileSize = s.File.Size
	m.Description = s.Description
	m.Category = s.Category
	m.Status = s.Status
}
