package content

import (
	"github.com/datadik/portal/internal/domain/shared"
)

// Event types
const (
	EventTypePostPublished     = "post.published"
	EventTypeSubmissionCreated = "submission.created"

	AggregateTypePost       = "Post"
	AggregateTypeSubmission = "Submission"
)

// PostPublishedEvent is raised when a post becomes publicly visible
type PostPublishedEvent struct {
	shared.BaseDomainEvent
	Title    string       `json:"title"`
	Slug     string       `json:"slug"`
	Category PostCategory `json:"category"`
}

// NewPostPublishedEvent creates the event for p
func NewPostPublishedEvent(p *Post) *PostPublishedEvent {
	return &PostPublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePostPublished, AggregateTypePost, p.ID, p.OrgID),
		Title:           p.Title,
		Slug:            p.Slug,
		Category:        p.Category,
	}
}

// SubmissionCreatedEvent is raised when an operator uploads a file
type SubmissionCreatedEvent struct {
	shared.BaseDomainEvent
	FileName string             `json:"file_name"`
	Category SubmissionCategory `json:"category"`
}

// NewSubmissionCreatedEvent creates the event for s
func NewSubmissionCreatedEvent(s *Submission) *SubmissionCreatedEvent {
	return &SubmissionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubmissionCreated, AggregateTypeSubmission, s.ID, s.OrgID),
		FileName:        s.File.Name,
		Category:        s.Category,
	}
}

var (
	_ shared.DomainEvent = (*PostPublishedEvent)(nil)
	_ shared.DomainEvent = (*SubmissionCreatedEvent)(nil)
)
