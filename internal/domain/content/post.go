// Package content holds posts published by organizations and files submitted
// by school operators.
package content

import (
	"strings"

	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
)

// PostCategory is the kind of post
type PostCategory string

const (
	CategoryNews         PostCategory = "berita"
	CategoryAgenda       PostCategory = "agenda"
	CategoryAnnouncement PostCategory = "pengumuman"
)

// IsValid reports whether c is a known post category
func (c PostCategory) IsValid() bool {
	switch c {
	case CategoryNews, CategoryAgenda, CategoryAnnouncement:
		return true
	}
	return false
}

// Post is a content item owned by one organization
type Post struct {
	shared.BaseAggregateRoot
	OrgID       uuid.UUID
	Title       string
	Slug        string
	Content     string
	Category    PostCategory
	ImageURL    *string
	IsPublished bool
}

// NewPost creates a post. The slug is derived from the title and is not unique.
func NewPost(orgID uuid.UUID, title, body string, category PostCategory) (*Post, error) {
	if orgID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORG", "Organisasi harus dipilih")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Judul harus diisi")
	}
	if category == "" {
		category = CategoryNews
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Kategori tidak valid")
	}
	return &Post{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrgID:             orgID,
		Title:             title,
		Slug:              organization.Slugify(title),
		Content:           body,
		Category:          category,
	}, nil
}

// Edit updates title, content and category
func (p *Post) Edit(title, body string, category PostCategory) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Judul harus diisi")
	}
	if !category.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY", "Kategori tidak valid")
	}
	p.Title = title
	p.Slug = organization.Slugify(title)
	p.Content = body
	p.Category = category
	p.Touch()
	return nil
}

// SetImage sets or clears the header image
func (p *Post) SetImage(url string) {
	url = strings.TrimSpace(url)
	if url == "" {
		p.ImageURL = nil
	} else {
		p.ImageURL = &url
	}
	p.Touch()
}

// Publish makes the post publicly readable
func (p *Post) Publish() {
	if p.IsPublished {
		return
	}
	p.IsPublished = true
	p.Touch()
	p.AddDomainEvent(NewPostPublishedEvent(p))
}

// Unpublish hides the post from the public site
func (p *Post) Unpublish() {
	p.IsPublished = false
	p.Touch()
}
