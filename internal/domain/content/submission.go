package content

import (
	"strings"

	"github.com/datadik/portal/internal/domain/shared"
	"github.com/google/uuid"
)

// SubmissionCategory classifies submitted files
type SubmissionCategory string

const (
	SubmissionGeneral  SubmissionCategory = "umum"
	SubmissionReport   SubmissionCategory = "laporan"
	SubmissionArchive  SubmissionCategory = "arsip"
	SubmissionProposal SubmissionCategory = "pengajuan"
)

// IsValid reports whether c is a known submission category
func (c SubmissionCategory) IsValid() bool {
	switch c {
	case SubmissionGeneral, SubmissionReport, SubmissionArchive, SubmissionProposal:
		return true
	}
	return false
}

// SubmissionStatus is the review state of a submission
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusVerified SubmissionStatus = "verified"
	StatusRejected SubmissionStatus = "rejected"
)

// IsValid reports whether s is a known review status
func (s SubmissionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// StoredFile describes an uploaded object
type StoredFile struct {
	Key  string
	URL  string
	Name string
	Type string
	Size int64
}

// Submission is a file handed from a school operator to the district admin
type Submission struct {
	shared.BaseAggregateRoot
	OrgID       uuid.UUID
	UserID      *uuid.UUID
	File        StoredFile
	Description string
	Category    SubmissionCategory
	Status      SubmissionStatus
}

// NewSubmission creates a pending submission
func NewSubmission(orgID uuid.UUID, userID *uuid.UUID, file StoredFile, description string, category SubmissionCategory) (*Submission, error) {
	if orgID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORG", "Organisasi harus dipilih")
	}
	if file.Key == "" || strings.TrimSpace(file.Name) == "" {
		return nil, shared.NewDomainError("INVALID_FILE", "Berkas harus diunggah")
	}
	if category == "" {
		category = SubmissionGeneral
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Kategori tidak valid")
	}
	s := &Submission{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrgID:             orgID,
		UserID:            userID,
		File:              file,
		Description:       strings.TrimSpace(description),
		Category:          category,
		Status:            StatusPending,
	}
	s.AddDomainEvent(NewSubmissionCreatedEvent(s))
	return s, nil
}

// Review moves the submission to a new review status
func (s *Submission) Review(status SubmissionStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Status tidak valid")
	}
	s.Status = status
	s.Touch()
	return nil
}
