package registry

import (
	"context"
	"io"
	"strings"

	"github.com/datadik/portal/internal/domain/organization"
	"github.com/datadik/portal/internal/domain/shared"
	"github.com/datadik/portal/internal/infrastructure/csvimport"
	"github.com/datadik/portal/internal/infrastructure/event"
	"go.uber.org/zap"
)

// ErrImportUnavailable is returned when there is no database to import into
var ErrImportUnavailable = shared.ErrServiceUnavailable.WithMessage("Database belum dikonfigurasi")

// ImportResult summarizes a roster import
type ImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	CreatedRows  int                  `json:"created_rows"`
	UpdatedRows  int                  `json:"updated_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
	CreatedSlugs []string             `json:"created_slugs,omitempty"`
}

// ImportService loads school rosters exported from spreadsheets
type ImportService struct {
	reconciler *Reconciler
	reader     *csvimport.SchoolReader
	events     shared.EventPublisher
	logger     *zap.Logger
}

// NewImportService creates an import service
func NewImportService(reconciler *Reconciler, events shared.EventPublisher, logger *zap.Logger, opts ...csvimport.SchoolReaderOption) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		reconciler: reconciler,
		reader:     csvimport.NewSchoolReader(opts...),
		events:     events,
		logger:     logger,
	}
}

// Import reads a CSV roster and reconciles every valid row the same way the
// registry sync does. Invalid rows and rows that fail to save are reported
// and skipped. File-level problems fail the whole import. When ctx ends
// mid-import the rows handled so far are returned along with ctx's error.
func (s *ImportService) Import(ctx context.Context, in io.Reader) (*ImportResult, error) {
	if s == nil || !s.reconciler.available() {
		return nil, ErrImportUnavailable
	}

	rows, errs, err := s.reader.Read(in)
	if err != nil {
		return nil, shared.ErrInvalidInput.WithMessage("File CSV tidak valid: " + err.Error()).Wrap(err)
	}
	return s.importRows(ctx, rows, errs)
}

// ImportWorkbook is Import for an .xlsx workbook. An empty sheet name
// selects the first sheet.
func (s *ImportService) ImportWorkbook(ctx context.Context, in io.Reader, sheet string) (*ImportResult, error) {
	if s == nil || !s.reconciler.available() {
		return nil, ErrImportUnavailable
	}

	rows, errs, err := s.reader.ReadWorkbook(in, sheet)
	if err != nil {
		return nil, shared.ErrInvalidInput.WithMessage("File Excel tidak valid: " + err.Error()).Wrap(err)
	}
	return s.importRows(ctx, rows, errs)
}

func (s *ImportService) importRows(ctx context.Context, rows []csvimport.SchoolRow, errs *csvimport.ErrorCollection) (*ImportResult, error) {
	failedRows := make(map[int]struct{})
	for _, e := range errs.Errors() {
		failedRows[e.Row] = struct{}{}
	}
	result := &ImportResult{TotalRows: len(rows) + len(failedRows)}

	finish := func() {
		result.ErrorRows = len(failedRows)
		result.Errors = errs.Errors()
		result.IsTruncated = errs.IsTruncated()
		result.TotalErrors = errs.TotalCount()
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			finish()
			s.logger.Warn("School roster import interrupted",
				zap.Int("created", result.CreatedRows),
				zap.Int("updated", result.UpdatedRows),
				zap.Int("remaining", result.TotalRows-result.CreatedRows-result.UpdatedRows-result.ErrorRows),
				zap.Error(err))
			return result, err
		}
		res, err := s.reconciler.Merge(ctx, row.Name, row.NPSN, func(d *organization.SchoolData) error {
			return applyRosterRow(d, row)
		})
		if err != nil {
			errs.Add(csvimport.RowError{
				Row:     row.Line,
				Code:    csvimport.ErrCodeReconcile,
				Message: err.Error(),
				Value:   row.Name,
			})
			failedRows[row.Line] = struct{}{}
			s.logger.Warn("Failed to import school row",
				zap.Int("row", row.Line),
				zap.String("name", row.Name),
				zap.Error(err))
			continue
		}
		if res.Created {
			result.CreatedRows++
			result.CreatedSlugs = append(result.CreatedSlugs, res.Org.Slug)
		} else {
			result.UpdatedRows++
		}
		if err := event.PublishRecorded(ctx, s.events, res.Org); err != nil {
			s.logger.Warn("Failed to publish organization events", zap.Error(err))
		}
	}

	finish()
	s.logger.Info("School roster imported",
		zap.Int("created", result.CreatedRows),
		zap.Int("updated", result.UpdatedRows),
		zap.Int("errors", result.ErrorRows))
	return result, nil
}

func applyRosterRow(d *organization.SchoolData, row csvimport.SchoolRow) error {
	d.MergeRegistryFields(organization.RegistryUpdate{
		NPSN:    row.NPSN,
		Address: row.Address,
		Status:  row.Status,
		Lat:     row.Lat,
		Lng:     row.Lng,
	})

	update := organization.ProfileUpdate{
		StudentCount: row.StudentCount,
		TeacherCount: row.TeacherCount,
		ClassCount:   row.ClassCount,
	}
	if level := strings.TrimSpace(row.Level); level != "" {
		update.Level = &level
	}
	if email := strings.TrimSpace(row.Email); email != "" {
		update.ContactEmail = &email
	}
	if wa := strings.TrimSpace(row.Whatsapp); wa != "" {
		update.ContactPhone = &wa
	}
	return d.ApplyProfileUpdate(update)
}
