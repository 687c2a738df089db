package domain

import (
	"time"

	"github.com/google/uuid"
)

// UploadType selects which column dictionary and duplicate key an ingested
// file is processed with.
type UploadType string

const (
	UploadTypeRetrospective UploadType = "retrospective"
	UploadTypeProspective   UploadType = "prospective"
)

// Valid reports whether the upload type is one of the known values.
func (t UploadType) Valid() bool {
	return t == UploadTypeRetrospective || t == UploadTypeProspective
}

// UploadStatus is set exactly once when a batch is finalized and never
// reverted afterwards.
type UploadStatus string

const (
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

// Upload is one ingested file together with its versioning and outcome
// metadata. At most one upload per (organization, type) is active at a time;
// version numbers are strictly increasing within that scope.
type Upload struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID uuid.UUID    `json:"organization_id"`
	UploadedBy     uuid.UUID    `json:"uploaded_by"`
	UploadType     UploadType   `json:"upload_type"`
	Filename       string       `json:"filename"`
	FileHash       string       `json:"file_hash"`
	VersionNumber  int          `json:"version_number"`
	RowCount       int          `json:"row_count"`
	ValidRowCount  int          `json:"valid_row_count"`
	DuplicateCount int          `json:"duplicate_count"`
	Status         UploadStatus `json:"status"`
	ErrorMessage   string       `json:"error_message,omitempty"`
	IsActive       bool         `json:"is_active"`
	UploadedAt     time.Time    `json:"uploaded_at"`
	CreatedAt      time.Time    `json:"created_at"`
}

// NewUpload creates an upload record in the processing state. Counts,
// status, and version are filled in by the ingestion pipeline before the
// record is persisted.
func NewUpload(organizationID, uploadedBy uuid.UUID, uploadType UploadType, filename, fileHash string) Upload {
	now := time.Now().UTC()
	return Upload{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		UploadedBy:     uploadedBy,
		UploadType:     uploadType,
		Filename:       filename,
		FileHash:       fileHash,
		VersionNumber:  1,
		Status:         UploadStatusProcessing,
		IsActive:       true,
		UploadedAt:     now,
		CreatedAt:      now,
	}
}

// Fail marks the upload as failed with a human-readable message. Failed
// uploads are never active.
func (u Upload) Fail(message string) Upload {
	u.Status = UploadStatusFailed
	u.ErrorMessage = message
	u.IsActive = false
	return u
}
