package registry

import (
	"context"
	"errors"
	"time"

	"github.com/datadik/portal/internal/domain/organization"
	domain "github.com/datadik/portal/internal/domain/registry"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/cache"
	"github.com/datadik/portal/internal/infrastructure/event"
	registryinfra "github.com/datadik/portal/internal/infrastructure/registry"
	"github.com/datadik/portal/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SyncLockKey serializes sync runs across instances
const SyncLockKey = "sync:kemendikdasmen:lock"

// Per-record outcomes
const (
	ItemStatusSuccess = "success"
	ItemStatusError   = "error"
)

// Sync errors. Their messages are returned to the caller as-is.
var (
	ErrNoSchoolsFound   = shared.NewDomainError("SYNC_EMPTY", "Tidak ada data sekolah ditemukan dari sumber")
	ErrSyncUnavailable  = shared.ErrServiceUnavailable.WithMessage("Database belum dikonfigurasi")
	ErrSyncInProgress   = shared.ErrConflict.WithMessage("Sinkronisasi sedang berjalan")
	ErrSyncLockFailed   = shared.NewDomainError("SYNC_LOCK_FAILED", "Gagal mengambil kunci sinkronisasi")
	ErrSyncInvalidInput = shared.ErrInvalidInput.WithMessage("Konfigurasi sinkronisasi tidak valid")
)

// SyncConfig holds the registry endpoints and pacing
type SyncConfig struct {
	ListingURLs      []string
	DetailURL        string
	ListingTimeout   time.Duration
	DetailTimeout    time.Duration
	DetailRatePerSec float64 // 0 disables pacing
	LockTTL          time.Duration
}

// SyncItem is the outcome for one registry record
type SyncItem struct {
	Name    string   `json:"name"`
	NPSN    string   `json:"npsn"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
}

// SyncResult is the body returned by a successful run
type SyncResult struct {
	Success    bool       `json:"success"`
	Processed  int        `json:"processed"`
	Successful int        `json:"successful"`
	Failed     int        `json:"failed"`
	Data       []SyncItem `json:"data"`
}

// SyncService pulls the school listing and per-school coordinates from the
// registry and reconciles every record into the portal.
type SyncService struct {
	fetcher    domain.Fetcher
	reconciler *Reconciler
	locker     cache.Locker
	limiter    *rate.Limiter
	events     shared.EventPublisher
	metrics    *telemetry.PortalMetrics
	config     SyncConfig
	logger     *zap.Logger
	now        func() time.Time
}

// SyncServiceOption configures a SyncService
type SyncServiceOption func(*SyncService)

// WithSyncMetrics counts records on the portal counters
func WithSyncMetrics(m *telemetry.PortalMetrics) SyncServiceOption {
	return func(s *SyncService) {
		s.metrics = m
	}
}

// WithSyncClock overrides the time source
func WithSyncClock(now func() time.Time) SyncServiceOption {
	return func(s *SyncService) {
		s.now = now
	}
}

// WithLocker sets the lock that serializes runs
func WithLocker(l cache.Locker) SyncServiceOption {
	return func(s *SyncService) {
		s.locker = l
	}
}

// NewSyncService creates the sync service. A nil reconciler or fetcher makes
// every run fail with ErrSyncUnavailable. Without a locker runs are
// serialized inside this process only.
func NewSyncService(
	fetcher domain.Fetcher,
	reconciler *Reconciler,
	events shared.EventPublisher,
	config SyncConfig,
	logger *zap.Logger,
	opts ...SyncServiceOption,
) *SyncService {
	if config.ListingTimeout <= 0 {
		config.ListingTimeout = 30 * time.Second
	}
	if config.DetailTimeout <= 0 {
		config.DetailTimeout = 15 * time.Second
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SyncService{
		fetcher:    fetcher,
		reconciler: reconciler,
		events:     events,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
	if config.DetailRatePerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.DetailRatePerSec), 1)
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locker == nil {
		s.locker = cache.NewInMemoryLocker()
	}
	return s
}

func (s *SyncService) available() bool {
	return s != nil && s.fetcher != nil && s.reconciler.available()
}

// Run performs one full sync. Records are processed in listing order, one
// at a time. A failing listing URL is skipped and a failing record becomes
// an error entry; neither aborts the run. Cancelling ctx stops between
// records and reports what was done so far.
func (s *SyncService) Run(ctx context.Context) (*SyncResult, error) {
	if !s.available() {
		return nil, ErrSyncUnavailable
	}
	if len(s.config.ListingURLs) == 0 || s.config.DetailURL == "" {
		return nil, ErrSyncInvalidInput
	}

	unlock, ok, err := s.locker.TryLock(ctx, SyncLockKey, s.config.LockTTL)
	if err != nil {
		s.logger.Error("Failed to acquire sync lock", zap.Error(err))
		return nil, ErrSyncLockFailed.Wrap(err)
	}
	if !ok {
		return nil, ErrSyncInProgress
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release sync lock", zap.Error(err))
		}
	}()

	ctx, span := telemetry.StartServiceSpan(ctx, "registry_sync", "run")
	defer span.End()

	started := s.now()
	records := s.collect(ctx)
	if len(records) == 0 {
		telemetry.RecordError(span, ErrNoSchoolsFound)
		s.logger.Warn("Registry sync found no schools",
			zap.Strings("listing_urls", s.config.ListingURLs))
		return nil, ErrNoSchoolsFound
	}

	result := &SyncResult{
		Success:   true,
		Processed: len(records),
		Data:      make([]SyncItem, 0, len(records)),
	}
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		item := s.syncRecord(ctx, rec)
		if item == nil {
			break
		}
		result.Data = append(result.Data, *item)
		if item.Status == ItemStatusSuccess {
			result.Successful++
		} else {
			result.Failed++
		}
	}
	if len(result.Data) < len(records) {
		s.logger.Warn("Registry sync cancelled",
			zap.Int("collected", len(records)),
			zap.Int("processed", len(result.Data)))
		result.Processed = len(result.Data)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrProcessed, result.Processed,
		telemetry.SpanAttrSuccessful, result.Successful,
		telemetry.SpanAttrFailed, result.Failed)

	summary := domain.NewSyncFinishedEvent(uuid.New(), result.Processed, result.Successful, result.Failed)
	if s.events != nil {
		if err := s.events.Publish(context.WithoutCancel(ctx), summary); err != nil {
			s.logger.Warn("Failed to publish sync summary", zap.Error(err))
		}
	}

	s.logger.Info("Registry sync finished",
		zap.Int("processed", result.Processed),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", s.now().Sub(started)))
	return result, nil
}

// RunScheduled is the scheduler entry point. A run already in progress
// elsewhere is not an error.
func (s *SyncService) RunScheduled(ctx context.Context) error {
	_, err := s.Run(ctx)
	if errors.Is(err, ErrSyncInProgress) {
		s.logger.Info("Skipping scheduled sync, another run holds the lock")
		return nil
	}
	return err
}

// collect fetches every listing URL in order. Failures are logged and skipped.
func (s *SyncService) collect(ctx context.Context) []domain.SchoolRecord {
	var records []domain.SchoolRecord
	for _, url := range s.config.ListingURLs {
		if ctx.Err() != nil {
			break
		}
		html, err := s.fetcher.Fetch(ctx, url, s.config.ListingTimeout)
		if err != nil {
			s.logger.Warn("Failed to fetch registry listing", zap.String("url", url), zap.Error(err))
			continue
		}
		page, err := registryinfra.ParseListing(html)
		if err != nil {
			s.logger.Warn("Failed to parse registry listing", zap.String("url", url), zap.Error(err))
			continue
		}
		s.logger.Debug("Registry listing fetched", zap.String("url", url), zap.Int("records", len(page)))
		records = append(records, page...)
	}
	return records
}

// syncRecord fetches coordinates and reconciles one record. It returns nil
// when ctx was cancelled before the record was attempted.
func (s *SyncService) syncRecord(ctx context.Context, rec domain.SchoolRecord) *SyncItem {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil
		}
	}

	item := &SyncItem{Name: rec.Name, NPSN: rec.NPSN}
	fail := func(err error) *SyncItem {
		item.Status = ItemStatusError
		item.Message = err.Error()
		s.metrics.RecordSyncRecord(ctx, ItemStatusError)
		s.logger.Warn("Failed to sync school",
			zap.String("npsn", rec.NPSN),
			zap.String("name", rec.Name),
			zap.Error(err))
		return item
	}

	html, err := s.fetcher.Fetch(ctx, s.config.DetailURL+rec.NPSN, s.config.DetailTimeout)
	if err != nil {
		return fail(err)
	}
	coords, err := registryinfra.ParseCoordinates(html)
	if err != nil {
		return fail(err)
	}
	item.Lat, item.Lng = coords.Lat, coords.Lng

	now := s.now()
	res, err := s.reconciler.Merge(ctx, rec.Name, rec.NPSN, func(d *organization.SchoolData) error {
		d.ApplyRegistryUpdate(organization.RegistryUpdate{
			NPSN:      rec.NPSN,
			Address:   rec.Address,
			Kelurahan: rec.Kelurahan,
			Status:    rec.Status,
			Lat:       coords.Lat,
			Lng:       coords.Lng,
		}, now)
		return nil
	})
	if err != nil {
		return fail(err)
	}

	if err := event.PublishRecorded(ctx, s.events, res.Org); err != nil {
		s.logger.Warn("Failed to publish organization events", zap.Error(err))
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, domain.NewSchoolSyncedEvent(res.Org.ID, rec, res.Created)); err != nil {
			s.logger.Warn("Failed to publish school synced event", zap.Error(err))
		}
	}

	item.Status = ItemStatusSuccess
	s.metrics.RecordSyncRecord(ctx, ItemStatusSuccess)
	return item
}

