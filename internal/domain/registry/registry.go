// Package registry describes schools as listed by the national school registry.
package registry

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
)

var npsnPattern = regexp.MustCompile(`^\d+$`)

// SchoolRecord is one row of a registry listing page
type SchoolRecord struct {
	NPSN      string `json:"npsn"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Kelurahan string `json:"kelurahan"`
	Status    string `json:"status"`
}

// Valid reports whether the record has a name and an all-digit NPSN
func (r SchoolRecord) Valid() bool {
	return r.NPSN != "" && r.Name != "" && npsnPattern.MatchString(r.NPSN)
}

// Coordinates are the optional map position of a school
type Coordinates struct {
	Lat *float64
	Lng *float64
}

// Fetcher retrieves registry pages as HTML
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// FetchError reports an unsuccessful HTTP response
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Event types
const (
	EventTypeSchoolSynced = "registry.school_synced"
	EventTypeSyncFinished = "registry.sync_finished"
	AggregateTypeSchool   = "SchoolData"
	AggregateTypeSyncRun  = "SyncRun"
)

// SchoolSyncedEvent is raised for each record reconciled by a sync run
type SchoolSyncedEvent struct {
	shared.BaseDomainEvent
	NPSN    string `json:"npsn"`
	Name    string `json:"name"`
	Created bool   `json:"created"`
}

// NewSchoolSyncedEvent creates the event for the organization orgID
func NewSchoolSyncedEvent(orgID uuid.UUID, rec SchoolRecord, created bool) *SchoolSyncedEvent {
	return &SchoolSyncedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSchoolSynced, AggregateTypeSchool, orgID, orgID),
		NPSN:            rec.NPSN,
		Name:            strings.TrimSpace(rec.Name),
		Created:         created,
	}
}

var _ shared.DomainEvent = (*SchoolSyncedEvent)(nil)

// SyncFinishedEvent summarizes one completed sync run
type SyncFinishedEvent struct {
	shared.BaseDomainEvent
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// NewSyncFinishedEvent creates the summary event for the run runID. Runs
// span every organization, so the event carries no organization.
func NewSyncFinishedEvent(runID uuid.UUID, processed, successful, failed int) *SyncFinishedEvent {
	return &SyncFinishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSyncFinished, AggregateTypeSyncRun, runID, uuid.Nil),
		Processed:       processed,
		Successful:      successful,
		Failed:          failed,
	}
}

var _ shared.DomainEvent = (*SyncFinishedEvent)(nil)
