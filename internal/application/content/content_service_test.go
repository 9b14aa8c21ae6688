package content

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/persistence"
	"github.com/datadik/portal/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	deleted   []string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	return "https://files.test/" + key, nil
}

func (m *memStorage) GenerateDownloadURL(_ context.Context, key, fileName string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://files.test/" + key + "?dl=" + fileName, time.Now().Add(expiresIn), nil
}

func (m *memStorage) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

func (m *memStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func admin() identity.Principal {
	return identity.Principal{UserID: uuid.New(), Role: identity.RoleDistrictAdmin}
}

func operatorOf(orgID uuid.UUID) identity.Principal {
	return identity.Principal{UserID: uuid.New(), Role: identity.RoleOperator, NPSN: "20201010", OrgID: &orgID}
}

func TestPostService_Flow(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	orgs := persistence.NewGormOrganizationRepository(db)
	pub := &recordingPublisher{}
	svc := NewPostService(persistence.NewGormPostRepository(db), orgs, pub, zap.NewNop())

	org, err := organization.NewOrganization("sdn-1", "SDN 1", organization.TypeSchool)
	require.NoError(t, err)
	require.NoError(t, orgs.Create(ctx, org))
	other := uuid.New()

	t.Run("operator of another school is forbidden", func(t *testing.T) {
		_, err := svc.Create(ctx, operatorOf(other), CreatePostInput{OrgID: org.ID, Title: "Halo"})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	draft, err := svc.Create(ctx, operatorOf(org.ID), CreatePostInput{OrgID: org.ID, Title: "Rapat Komite"})
	require.NoError(t, err)
	assert.False(t, draft.IsPublished)
	assert.Equal(t, "rapat-komite", draft.Slug)
	assert.Empty(t, pub.events)

	t.Run("draft is hidden from anonymous readers", func(t *testing.T) {
		_, err := svc.Get(ctx, nil, draft.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		a := admin()
		got, err := svc.Get(ctx, &a, draft.ID)
		require.NoError(t, err)
		assert.Equal(t, draft.ID, got.ID)
	})

	published, err := svc.Create(ctx, admin(), CreatePostInput{
		OrgID: org.ID, Title: "Juara Lomba", Category: content.CategoryNews, IsPublished: true,
	})
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.Equal(t, content.EventTypePostPublished, pub.events[0].EventType())
	assert.Equal(t, org.ID, pub.events[0].OrgID())

	page, err := svc.ListPublished(ctx, content.PostFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, published.ID, page.Items[0].ID)

	managed, err := svc.ListManaged(ctx, operatorOf(org.ID), content.PostFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	assert.Len(t, managed.Items, 2)

	publish := true
	title := "Rapat Komite Sekolah"
	updated, err := svc.Update(ctx, operatorOf(org.ID), draft.ID, UpdatePostInput{Title: &title, IsPublished: &publish})
	require.NoError(t, err)
	assert.True(t, updated.IsPublished)
	assert.Equal(t, "rapat-komite-sekolah", updated.Slug)
	assert.Len(t, pub.events, 2)

	_, err = svc.Update(ctx, operatorOf(org.ID), draft.ID, UpdatePostInput{IsPublished: &publish})
	require.NoError(t, err)
	assert.Len(t, pub.events, 2, "republishing does not announce again")

	assert.ErrorIs(t, svc.Delete(ctx, operatorOf(other), draft.ID), shared.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, operatorOf(org.ID), draft.ID))
	_, err = svc.Get(ctx, nil, draft.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPostService_CreateForUnknownOrg(t *testing.T) {
	orgs := new(testutil.MockOrganizationRepository)
	posts := new(testutil.MockPostRepository)
	svc := NewPostService(posts, orgs, nil, zap.NewNop())

	orgID := uuid.New()
	orgs.On("FindByID", mock.Anything, orgID).Return(nil, shared.ErrNotFound)

	_, err := svc.Create(context.Background(), admin(), CreatePostInput{OrgID: orgID, Title: "X"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	posts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func newSubmissionService(t *testing.T, store ObjectStorage) (*SubmissionService, *recordingPublisher) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	pub := &recordingPublisher{}
	svc := NewSubmissionService(persistence.NewGormSubmissionRepository(db), store, pub,
		SubmissionServiceConfig{MaxUploadSize: 1 << 10}, zap.NewNop())
	return svc, pub
}

func TestSubmissionService_Upload(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	body := "laporan bulanan"

	t.Run("operator uploads for own school", func(t *testing.T) {
		store := newMemStorage()
		svc, pub := newSubmissionService(t, store)

		other := uuid.New()
		resp, err := svc.Upload(ctx, operatorOf(orgID), UploadSubmissionInput{
			OrgID:       &other,
			FileName:    "../Laporan Mei.PDF",
			ContentType: "application/pdf",
			Size:        int64(len(body)),
			Body:        strings.NewReader(body),
			Category:    content.SubmissionReport,
		})
		require.NoError(t, err)

		assert.Equal(t, orgID, resp.OrgID)
		assert.Equal(t, "Laporan Mei.PDF", resp.FileName)
		assert.Equal(t, content.StatusPending, resp.Status)
		assert.True(t, strings.HasPrefix(resp.FileURL, "https://files.test/submissions/"+orgID.String()+"/"))
		assert.True(t, strings.HasSuffix(resp.FileURL, ".pdf"))
		assert.Len(t, store.objects, 1)
		require.Len(t, pub.events, 1)
		assert.Equal(t, content.EventTypeSubmissionCreated, pub.events[0].EventType())
	})

	t.Run("file over the limit is rejected before storing", func(t *testing.T) {
		store := newMemStorage()
		svc, _ := newSubmissionService(t, store)

		big := bytes.Repeat([]byte("x"), 2<<10)
		_, err := svc.Upload(ctx, operatorOf(orgID), UploadSubmissionInput{
			FileName: "besar.zip", Size: int64(len(big)), Body: bytes.NewReader(big),
		})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "FILE_TOO_LARGE", de.Code)
		assert.Empty(t, store.objects)
	})

	t.Run("admin must choose an organization", func(t *testing.T) {
		svc, _ := newSubmissionService(t, newMemStorage())
		_, err := svc.Upload(ctx, admin(), UploadSubmissionInput{FileName: "a.pdf", Size: 1, Body: strings.NewReader("a")})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("operator without school is forbidden", func(t *testing.T) {
		svc, _ := newSubmissionService(t, newMemStorage())
		op := identity.Principal{UserID: uuid.New(), Role: identity.RoleOperator}
		_, err := svc.Upload(ctx, op, UploadSubmissionInput{FileName: "a.pdf", Size: 1, Body: strings.NewReader("a")})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("storage disabled", func(t *testing.T) {
		svc, _ := newSubmissionService(t, nil)
		_, err := svc.Upload(ctx, operatorOf(orgID), UploadSubmissionInput{FileName: "a.pdf", Size: 1, Body: strings.NewReader("a")})
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})

	t.Run("upload failure stores nothing", func(t *testing.T) {
		store := newMemStorage()
		store.uploadErr = errors.New("bucket gone")
		svc, pub := newSubmissionService(t, store)
		_, err := svc.Upload(ctx, operatorOf(orgID), UploadSubmissionInput{FileName: "a.pdf", Size: 1, Body: strings.NewReader("a")})
		require.Error(t, err)
		assert.Empty(t, pub.events)
	})
}

func TestSubmissionService_RowFailureRemovesObject(t *testing.T) {
	store := newMemStorage()
	repo := new(testutil.MockSubmissionRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
	svc := NewSubmissionService(repo, store, nil, SubmissionServiceConfig{}, zap.NewNop())

	orgID := uuid.New()
	_, err := svc.Upload(context.Background(), operatorOf(orgID), UploadSubmissionInput{
		FileName: "a.pdf", Size: 1, Body: strings.NewReader("a"),
	})
	require.Error(t, err)
	assert.Empty(t, store.objects)
	assert.Len(t, store.deleted, 1)
}

func TestSubmissionService_ReviewDownloadDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	svc, _ := newSubmissionService(t, store)

	orgID := uuid.New()
	op := operatorOf(orgID)
	sub, err := svc.Upload(ctx, op, UploadSubmissionInput{FileName: "rekap.xlsx", Size: 3, Body: strings.NewReader("abc")})
	require.NoError(t, err)
	_, err = svc.Upload(ctx, operatorOf(uuid.New()), UploadSubmissionInput{FileName: "lain.pdf", Size: 3, Body: strings.NewReader("abc")})
	require.NoError(t, err)

	t.Run("operators see only their school", func(t *testing.T) {
		page, err := svc.List(ctx, op, content.SubmissionFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, sub.ID, page.Items[0].ID)

		all, err := svc.List(ctx, admin(), content.SubmissionFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Len(t, all.Items, 2)
	})

	t.Run("only admins review", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, op, sub.ID, content.StatusVerified)
		assert.ErrorIs(t, err, shared.ErrForbidden)

		_, err = svc.UpdateStatus(ctx, admin(), sub.ID, "approved")
		assert.Error(t, err)

		reviewed, err := svc.UpdateStatus(ctx, admin(), sub.ID, content.StatusVerified)
		require.NoError(t, err)
		assert.Equal(t, content.StatusVerified, reviewed.Status)
	})

	t.Run("download link keeps the file name", func(t *testing.T) {
		dl, err := svc.DownloadURL(ctx, op, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, "rekap.xlsx", dl.FileName)
		assert.Contains(t, dl.URL, "dl=rekap.xlsx")
		assert.True(t, dl.ExpiresAt.After(time.Now()))

		_, err = svc.DownloadURL(ctx, operatorOf(uuid.New()), sub.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("delete removes object then row", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, admin(), sub.ID))
		assert.Len(t, store.deleted, 1)
		assert.Len(t, store.objects, 1)
		_, err := svc.DownloadURL(ctx, op, sub.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
