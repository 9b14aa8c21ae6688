package content

import (
	"context"
	"time"

	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
)

// PostFilter narrows post listings
type PostFilter struct {
	shared.Filter
	OrgID         *uuid.UUID
	Category      PostCategory
	PublishedOnly bool
}

// PostRepository persists posts
type PostRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Post, error)
	FindAll(ctx context.Context, filter PostFilter) ([]Post, int64, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, post *Post) error
	Save(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SubmissionFilter narrows submission listings
type SubmissionFilter struct {
	shared.Filter
	OrgID    *uuid.UUID
	Status   SubmissionStatus
	Category SubmissionCategory
}

// MonthlyStatusCount is the number of submissions with a status in a month
type MonthlyStatusCount struct {
	Month  string
	Status SubmissionStatus
	Count  int64
}

// SubmissionRepository persists submissions
type SubmissionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Submission, error)
	FindAll(ctx context.Context, filter SubmissionFilter) ([]Submission, int64, error)
	Count(ctx context.Context) (int64, error)
	// CountByMonthAndStatus groups submissions created at or after since
	CountByMonthAndStatus(ctx context.Context, since time.Time) ([]MonthlyStatusCount, error)
	Create(ctx context.Context, s *Submission) error
	Save(ctx context.Context, s *Submission) error
	Delete(ctx context.Context, id uuid.UUID) error
}
