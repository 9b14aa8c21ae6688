package content

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/datadik/portal/internal/domain/content"
	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/event"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Submission errors
var (
	ErrFileTooLarge       = shared.NewDomainError("FILE_TOO_LARGE", "Ukuran berkas melebihi batas")
	ErrEmptyFile          = shared.NewDomainError("INVALID_FILE", "Berkas kosong")
	ErrNoSchool           = shared.ErrForbidden.WithMessage("Akun Anda belum terhubung dengan sekolah.")
	ErrStorageUnavailable = shared.ErrServiceUnavailable.WithMessage("Penyimpanan berkas belum dikonfigurasi")
	ErrAdminOnly          = shared.ErrForbidden.WithMessage("Hanya admin kecamatan yang dapat melakukan ini.")
)

// SubmissionServiceConfig holds upload limits
type SubmissionServiceConfig struct {
	MaxUploadSize     int64
	DownloadURLExpiry time.Duration
}

// DefaultSubmissionServiceConfig returns the default limits
func DefaultSubmissionServiceConfig() SubmissionServiceConfig {
	return SubmissionServiceConfig{
		MaxUploadSize:     10 << 20,
		DownloadURLExpiry: 15 * time.Minute,
	}
}

// SubmissionService handles files sent from schools to the district
type SubmissionService struct {
	submissions content.SubmissionRepository
	storage     ObjectStorage
	events      shared.EventPublisher
	config      SubmissionServiceConfig
	logger      *zap.Logger
}

// NewSubmissionService creates the service. A nil storage rejects uploads
// and downloads with ErrStorageUnavailable.
func NewSubmissionService(
	submissions content.SubmissionRepository,
	storage ObjectStorage,
	events shared.EventPublisher,
	config SubmissionServiceConfig,
	logger *zap.Logger,
) *SubmissionService {
	defaults := DefaultSubmissionServiceConfig()
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = defaults.MaxUploadSize
	}
	if config.DownloadURLExpiry <= 0 {
		config.DownloadURLExpiry = defaults.DownloadURLExpiry
	}
	return &SubmissionService{
		submissions: submissions,
		storage:     storage,
		events:      events,
		config:      config,
		logger:      logger,
	}
}

// MaxUploadSize is the largest accepted file in bytes
func (s *SubmissionService) MaxUploadSize() int64 {
	return s.config.MaxUploadSize
}

// Upload stores the file and records a pending submission. The stored
// object is removed again when the row cannot be written.
func (s *SubmissionService) Upload(ctx context.Context, actor identity.Principal, input UploadSubmissionInput) (*SubmissionResponse, error) {
	orgID, err := submissionOrg(actor, input.OrgID)
	if err != nil {
		return nil, err
	}
	if input.Size <= 0 || input.Body == nil {
		return nil, ErrEmptyFile
	}
	if input.Size > s.config.MaxUploadSize {
		return nil, ErrFileTooLarge.WithMessage(
			fmt.Sprintf("Ukuran berkas melebihi batas %d MB", s.config.MaxUploadSize>>20))
	}
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	name := filepath.Base(strings.TrimSpace(input.FileName))
	if name == "." || name == "/" || name == "" {
		return nil, ErrEmptyFile.WithMessage("Nama berkas tidak valid")
	}
	key := storageKey(orgID, name)
	url, err := s.storage.Upload(ctx, key, input.Body, input.Size, input.ContentType)
	if err != nil {
		s.logger.Error("Failed to store submission file", zap.String("key", key), zap.Error(err))
		return nil, shared.NewDomainError("UPLOAD_FAILED", "Gagal mengunggah berkas").Wrap(err)
	}

	userID := actor.UserID
	sub, err := content.NewSubmission(orgID, &userID, content.StoredFile{
		Key:  key,
		URL:  url,
		Name: name,
		Type: input.ContentType,
		Size: input.Size,
	}, input.Description, input.Category)
	if err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}
	if err := event.PublishRecorded(ctx, s.events, sub); err != nil {
		s.logger.Warn("Failed to publish submission events", zap.Error(err))
	}

	s.logger.Info("Submission uploaded",
		zap.String("submission_id", sub.ID.String()),
		zap.String("org_id", orgID.String()),
		zap.Int64("size", input.Size))
	resp := ToSubmissionResponse(sub)
	return &resp, nil
}

// List returns submissions. Admins see all of them; operators their own school's.
func (s *SubmissionService) List(ctx context.Context, actor identity.Principal, filter content.SubmissionFilter) (*shared.Paginated[SubmissionResponse], error) {
	if !actor.IsAdmin() {
		if actor.OrgID == nil {
			return nil, ErrNoSchool
		}
		filter.OrgID = actor.OrgID
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Status tidak valid")
	}
	filter.Filter = filter.Filter.Normalize()
	subs, total, err := s.submissions.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToSubmissionResponses(subs), total, filter.Page, filter.PageSize)
	return &page, nil
}

// UpdateStatus records the admin's review
func (s *SubmissionService) UpdateStatus(ctx context.Context, actor identity.Principal, id uuid.UUID, status content.SubmissionStatus) (*SubmissionResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	sub, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sub.Review(status); err != nil {
		return nil, err
	}
	if err := s.submissions.Save(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("Submission reviewed",
		zap.String("submission_id", id.String()),
		zap.String("status", string(status)))
	resp := ToSubmissionResponse(sub)
	return &resp, nil
}

// Delete removes the stored object, then the row. A missing object does not
// block deleting the row.
func (s *SubmissionService) Delete(ctx context.Context, actor identity.Principal, id uuid.UUID) error {
	sub, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManageOrg(sub.OrgID) {
		return ErrNotContentManager
	}
	s.removeObject(ctx, sub.File.Key)
	if err := s.submissions.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Submission deleted", zap.String("submission_id", id.String()))
	return nil
}

// DownloadURL returns a presigned link that downloads the file under its original name
func (s *SubmissionService) DownloadURL(ctx context.Context, actor identity.Principal, id uuid.UUID) (*DownloadResponse, error) {
	sub, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageOrg(sub.OrgID) {
		return nil, ErrNotContentManager
	}
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, sub.File.Key, sub.File.Name, s.config.DownloadURLExpiry)
	if err != nil {
		return nil, shared.NewDomainError("DOWNLOAD_FAILED", "Gagal membuat tautan unduhan").Wrap(err)
	}
	return &DownloadResponse{URL: url, FileName: sub.File.Name, ExpiresAt: expiresAt}, nil
}

func (s *SubmissionService) removeObject(ctx context.Context, key string) {
	if s.storage == nil || key == "" {
		return
	}
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		s.logger.Warn("Failed to delete submission file",
			zap.String("key", key),
			zap.Error(err))
	}
}

func submissionOrg(actor identity.Principal, requested *uuid.UUID) (uuid.UUID, error) {
	if actor.IsAdmin() {
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, shared.ErrInvalidInput.WithMessage("Organisasi harus dipilih")
		}
		return *requested, nil
	}
	if actor.OrgID == nil {
		return uuid.Nil, ErrNoSchool
	}
	return *actor.OrgID, nil
}

// storageKey formats submissions/{orgID}/{uuid}{ext}
func storageKey(orgID uuid.UUID, fileName string) string {
	return fmt.Sprintf("submissions/%s/%s%s", orgID, uuid.NewString(), strings.ToLower(filepath.Ext(fileName)))
}
