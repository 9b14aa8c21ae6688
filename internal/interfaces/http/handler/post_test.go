package handler

import (
	"net/http"
	"testing"

	appcontent "github.com/datadik/portal/internal/application/content"
	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupPostRouter(svc *mockPostService, mws ...gin.HandlerFunc) *gin.Engine {
	h := NewPostHandler(svc)
	r := gin.New()
	r.Use(mws...)
	g := r.Group("/api/posts")
	g.GET("", h.List)
	g.GET("/managed", h.ListManaged)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return r
}

func TestPostListQuery_Filter(t *testing.T) {
	orgID := uuid.New()
	q := PostListQuery{Page: 2, PageSize: 5, Search: "upacara", OrgID: orgID.String(), Category: "agenda"}

	f := q.filter()

	assert.Equal(t, 2, f.Page)
	assert.Equal(t, 5, f.PageSize)
	assert.Equal(t, "upacara", f.Search)
	assert.Equal(t, "created_at", f.OrderBy)
	assert.Equal(t, "desc", f.OrderDir)
	assert.Equal(t, content.CategoryAgenda, f.Category)
	if assert.NotNil(t, f.OrgID) {
		assert.Equal(t, orgID, *f.OrgID)
	}

	assert.Nil(t, PostListQuery{}.filter().OrgID)
}

func TestPostHandler_List(t *testing.T) {
	t.Run("published only", func(t *testing.T) {
		svc := new(mockPostService)
		page := shared.NewPaginated([]appcontent.PostResponse{{ID: uuid.New(), Title: "Upacara", IsPublished: true}}, 1, 1, 20)
		svc.On("ListPublished", mock.Anything, mock.MatchedBy(func(f content.PostFilter) bool {
			return f.Category == content.CategoryNews
		})).Return(&page, nil)

		w := sendJSON(setupPostRouter(svc), http.MethodGet, "/api/posts?category=berita", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeResponse(t, w).Data, 1)
		svc.AssertExpectations(t)
	})

	t.Run("invalid category", func(t *testing.T) {
		svc := new(mockPostService)
		w := sendJSON(setupPostRouter(svc), http.MethodGet, "/api/posts?category=gosip", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPostHandler_ListManaged(t *testing.T) {
	orgID := uuid.New()
	actor := operatorPrincipal(orgID)

	svc := new(mockPostService)
	page := shared.NewPaginated([]appcontent.PostResponse{{ID: uuid.New(), OrgID: orgID}}, 1, 1, 20)
	svc.On("ListManaged", mock.Anything, actor, mock.Anything).Return(&page, nil)

	w := sendJSON(setupPostRouter(svc, withPrincipal(actor)), http.MethodGet, "/api/posts/managed", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = sendJSON(setupPostRouter(new(mockPostService)), http.MethodGet, "/api/posts/managed", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostHandler_Get(t *testing.T) {
	id := uuid.New()

	t.Run("anonymous", func(t *testing.T) {
		svc := new(mockPostService)
		svc.On("Get", mock.Anything, (*identity.Principal)(nil), id).Return(&appcontent.PostResponse{ID: id}, nil)

		w := sendJSON(setupPostRouter(svc), http.MethodGet, "/api/posts/"+id.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("signed in passes the principal", func(t *testing.T) {
		actor := adminPrincipal()
		svc := new(mockPostService)
		svc.On("Get", mock.Anything, mock.MatchedBy(func(p *identity.Principal) bool {
			return p != nil && p.UserID == actor.UserID
		}), id).Return(&appcontent.PostResponse{ID: id}, nil)

		w := sendJSON(setupPostRouter(svc, withPrincipal(actor)), http.MethodGet, "/api/posts/"+id.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("draft hidden", func(t *testing.T) {
		svc := new(mockPostService)
		svc.On("Get", mock.Anything, mock.Anything, id).Return(nil, shared.ErrNotFound)

		w := sendJSON(setupPostRouter(svc), http.MethodGet, "/api/posts/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPostHandler_Create(t *testing.T) {
	orgID := uuid.New()
	actor := operatorPrincipal(orgID)

	t.Run("success", func(t *testing.T) {
		svc := new(mockPostService)
		svc.On("Create", mock.Anything, actor, appcontent.CreatePostInput{
			OrgID:       orgID,
			Title:       "Penerimaan Siswa Baru",
			Content:     "Pendaftaran dibuka",
			Category:    content.CategoryAnnouncement,
			IsPublished: true,
		}).Return(&appcontent.PostResponse{ID: uuid.New(), OrgID: orgID}, nil)

		w := sendJSON(setupPostRouter(svc, withPrincipal(actor)), http.MethodPost, "/api/posts", map[string]any{
			"org_id":       orgID,
			"title":        "Penerimaan Siswa Baru",
			"content":      "Pendaftaran dibuka",
			"category":     "pengumuman",
			"is_published": true,
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("missing title", func(t *testing.T) {
		svc := new(mockPostService)
		w := sendJSON(setupPostRouter(svc, withPrincipal(actor)), http.MethodPost, "/api/posts", map[string]any{
			"org_id": orgID,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("other school", func(t *testing.T) {
		svc := new(mockPostService)
		svc.On("Create", mock.Anything, actor, mock.Anything).Return(nil, shared.ErrForbidden)

		w := sendJSON(setupPostRouter(svc, withPrincipal(actor)), http.MethodPost, "/api/posts", map[string]any{
			"org_id": uuid.New(),
			"title":  "Berita",
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestPostHandler_UpdateAndDelete(t *testing.T) {
	actor := adminPrincipal()
	id := uuid.New()

	svc := new(mockPostService)
	svc.On("Update", mock.Anything, actor, id, mock.MatchedBy(func(in appcontent.UpdatePostInput) bool {
		return in.IsPublished != nil && !*in.IsPublished && in.Title == nil
	})).Return(&appcontent.PostResponse{ID: id}, nil)
	svc.On("Delete", mock.Anything, actor, id).Return(nil)

	r := setupPostRouter(svc, withPrincipal(actor))

	w := sendJSON(r, http.MethodPatch, "/api/posts/"+id.String(), map[string]any{"is_published": false})
	assert.Equal(t, http.StatusOK, w.Code)

	w = sendJSON(r, http.MethodDelete, "/api/posts/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	svc.AssertExpectations(t)
}
