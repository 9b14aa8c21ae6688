// Package content provides the use cases for posts and submitted files.
package content

import (
	"context"

	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/event"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotContentManager is returned when the caller may not manage the organization's content
var ErrNotContentManager = shared.ErrForbidden.WithMessage("Anda tidak berhak mengelola konten organisasi ini.")

// PostService manages organization posts
type PostService struct {
	posts  content.PostRepository
	orgs   organization.OrganizationRepository
	events shared.EventPublisher
	logger *zap.Logger
}

// NewPostService creates the service. events may be nil.
func NewPostService(posts content.PostRepository, orgs organization.OrganizationRepository, events shared.EventPublisher, logger *zap.Logger) *PostService {
	return &PostService{posts: posts, orgs: orgs, events: events, logger: logger}
}

// ListPublished returns published posts, newest first
func (s *PostService) ListPublished(ctx context.Context, filter content.PostFilter) (*shared.Paginated[PostResponse], error) {
	filter.PublishedOnly = true
	return s.list(ctx, filter)
}

// ListManaged returns every post the caller manages, drafts included.
// Operators only see their own school's posts.
func (s *PostService) ListManaged(ctx context.Context, actor identity.Principal, filter content.PostFilter) (*shared.Paginated[PostResponse], error) {
	if !actor.IsAdmin() {
		if actor.OrgID == nil {
			return nil, ErrNotContentManager
		}
		filter.OrgID = actor.OrgID
	}
	return s.list(ctx, filter)
}

func (s *PostService) list(ctx context.Context, filter content.PostFilter) (*shared.Paginated[PostResponse], error) {
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Kategori tidak valid")
	}
	filter.Filter = filter.Filter.Normalize()
	posts, total, err := s.posts.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToPostResponses(posts), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns a post. Drafts are only visible to their managers; actor may
// be nil for anonymous readers.
func (s *PostService) Get(ctx context.Context, actor *identity.Principal, id uuid.UUID) (*PostResponse, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished && (actor == nil || !actor.CanManageOrg(post.OrgID)) {
		return nil, shared.ErrNotFound
	}
	resp := ToPostResponse(post)
	return &resp, nil
}

// Create adds a post to an organization
func (s *PostService) Create(ctx context.Context, actor identity.Principal, input CreatePostInput) (*PostResponse, error) {
	if !actor.CanManageOrg(input.OrgID) {
		return nil, ErrNotContentManager
	}
	if _, err := s.orgs.FindByID(ctx, input.OrgID); err != nil {
		return nil, err
	}

	post, err := content.NewPost(input.OrgID, input.Title, input.Content, input.Category)
	if err != nil {
		return nil, err
	}
	if input.ImageURL != "" {
		post.SetImage(input.ImageURL)
	}
	if input.IsPublished {
		post.Publish()
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, post)

	s.logger.Info("Post created",
		zap.String("post_id", post.ID.String()),
		zap.String("org_id", post.OrgID.String()),
		zap.Bool("published", post.IsPublished))
	resp := ToPostResponse(post)
	return &resp, nil
}

// Update applies a partial update. Publishing a draft announces it.
func (s *PostService) Update(ctx context.Context, actor identity.Principal, id uuid.UUID, input UpdatePostInput) (*PostResponse, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageOrg(post.OrgID) {
		return nil, ErrNotContentManager
	}

	title, body, category := post.Title, post.Content, post.Category
	if input.Title != nil {
		title = *input.Title
	}
	if input.Content != nil {
		body = *input.Content
	}
	if input.Category != nil {
		category = *input.Category
	}
	if err := post.Edit(title, body, category); err != nil {
		return nil, err
	}
	if input.ImageURL != nil {
		post.SetImage(*input.ImageURL)
	}
	if input.IsPublished != nil {
		if *input.IsPublished {
			post.Publish()
		} else {
			post.Unpublish()
		}
	}

	if err := s.posts.Save(ctx, post); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, post)
	resp := ToPostResponse(post)
	return &resp, nil
}

// Delete removes a post
func (s *PostService) Delete(ctx context.Context, actor identity.Principal, id uuid.UUID) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManageOrg(post.OrgID) {
		return ErrNotContentManager
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Post deleted", zap.String("post_id", id.String()))
	return nil
}

func (s *PostService) publishEvents(ctx context.Context, post *content.Post) {
	if err := event.PublishRecorded(ctx, s.events, post); err != nil {
		s.logger.Warn("Failed to publish post events",
			zap.String("post_id", post.ID.String()),
			zap.Error(err))
	}
}
