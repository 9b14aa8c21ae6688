package content

import (
	"io"
	"time"

	"github.com/datadik/portal/internal/domain/content"
	"github.com/google/uuid"
)

// PostResponse is the API view of a post
type PostResponse struct {
	ID          uuid.UUID            `json:"id"`
	OrgID       uuid.UUID            `json:"org_id"`
	Title       string               `json:"title"`
	Slug        string               `json:"slug"`
	Content     string               `json:"content"`
	Category    content.PostCategory `json:"category"`
	ImageURL    *string              `json:"image_url"`
	IsPublished bool                 `json:"is_published"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ToPostResponse converts a domain post
func ToPostResponse(p *content.Post) PostResponse {
	return PostResponse{
		ID:          p.ID,
		OrgID:       p.OrgID,
		Title:       p.Title,
		Slug:        p.Slug,
		Content:     p.Content,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToPostResponses converts a slice of posts
func ToPostResponses(posts []content.Post) []PostResponse {
	out := make([]PostResponse, len(posts))
	for i := range posts {
		out[i] = ToPostResponse(&posts[i])
	}
	return out
}

// CreatePostInput is the body of a new post
type CreatePostInput struct {
	OrgID       uuid.UUID            `json:"org_id" binding:"required"`
	Title       string               `json:"title" binding:"required,max=200"`
	Content     string               `json:"content"`
	Category    content.PostCategory `json:"category" binding:"omitempty,oneof=berita agenda pengumuman"`
	ImageURL    string               `json:"image_url" binding:"omitempty,url"`
	IsPublished bool                 `json:"is_published"`
}

// UpdatePostInput is a partial post update
type UpdatePostInput struct {
	Title       *string               `json:"title" binding:"omitempty,max=200"`
	Content     *string               `json:"content"`
	Category    *content.PostCategory `json:"category" binding:"omitempty,oneof=berita agenda pengumuman"`
	ImageURL    *string               `json:"image_url"`
	IsPublished *bool                 `json:"is_published"`
}

// SubmissionResponse is the API view of a submission
type SubmissionResponse struct {
	ID          uuid.UUID                  `json:"id"`
	OrgID       uuid.UUID                  `json:"org_id"`
	UserID      *uuid.UUID                 `json:"user_id"`
	FileURL     string                     `json:"file_url"`
	FileName    string                     `json:"file_name"`
	FileType    string                     `json:"file_type"`
	FileSize    int64                      `json:"file_size"`
	Description string                     `json:"description"`
	Category    content.SubmissionCategory `json:"category"`
	Status      content.SubmissionStatus   `json:"status"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

// ToSubmissionResponse converts a domain submission
func ToSubmissionResponse(s *content.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:          s.ID,
		OrgID:       s.OrgID,
		UserID:      s.UserID,
		FileURL:     s.File.URL,
		FileName:    s.File.Name,
		FileType:    s.File.Type,
		FileSize:    s.File.Size,
		Description: s.Description,
		Category:    s.Category,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ToSubmissionResponses converts a slice of submissions
func ToSubmissionResponses(subs []content.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, len(subs))
	for i := range subs {
		out[i] = ToSubmissionResponse(&subs[i])
	}
	return out
}

// UploadSubmissionInput carries a file received from a multipart form.
// OrgID is only honoured for admins; operators always submit for their own school.
type UploadSubmissionInput struct {
	OrgID       *uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	Description string
	Category    content.SubmissionCategory
}

// UpdateSubmissionStatusInput is the body of a review
type UpdateSubmissionStatusInput struct {
	Status content.SubmissionStatus `json:"status" binding:"required,oneof=pending verified rejected"`
}

// DownloadResponse is a time-limited link to a submitted file
type DownloadResponse struct {
	URL       string    `json:"url"`
	FileName  string    `json:"file_name"`
	ExpiresAt time.Time `json:"expires_at"`
}
