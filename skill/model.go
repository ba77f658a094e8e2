package skill

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrDocumentNotFound is returned when a skill document is not found.
	ErrDocumentNotFound = errors.New("skill document not found")

	// ErrInvalidJobID is returned when job_id is not set.
	ErrInvalidJobID = errors.New("job_id is required")

	// ErrInvalidScriptName is returned when script_name is empty.
	ErrInvalidScriptName = errors.New("script_name is required")

	// ErrInvalidStoragePath is returned when a stored document has no path.
	ErrInvalidStoragePath = errors.New("storage_path is required")

	// ErrInvalidDocumentStatus is returned when the status is invalid.
	ErrInvalidDocumentStatus = errors.New("invalid document status")
)

// DocumentStatus tracks a document through rendering and upload.
type DocumentStatus string

const (
	DocumentPending DocumentStatus = "pending"
	DocumentStored  DocumentStatus = "stored"
	DocumentFailed  DocumentStatus = "failed"
)

// IsValid checks if the document status is valid.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentPending, DocumentStored, DocumentFailed:
		return true
	}
	return false
}

// Document is one rendered script of a bundle, persisted so a caller
// can list and fetch the skills an exploration job produced. The script
// body itself lives in blob storage at StoragePath.
type Document struct {
	ID            uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	JobID         uuid.UUID      `json:"job_id" gorm:"type:char(36);not null;index:idx_skill_documents_job_id"`
	AppName       string         `json:"app_name" gorm:"type:varchar(255);not null"`
	ScriptName    string         `json:"script_name" gorm:"type:varchar(255);not null"`
	StoragePath   string         `json:"storage_path" gorm:"type:varchar(512)"`
	StepCount     int            `json:"step_count" gorm:"not null"`
	LandmarkCount int            `json:"landmark_count" gorm:"not null"`
	Status        DocumentStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Description   *string        `json:"description,omitempty" gorm:"type:text"`
	ErrorMessage  *string        `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating a new document
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Validate checks if the document has valid required fields.
func (d *Document) Validate() error {
	if d.JobID == uuid.Nil {
		return ErrInvalidJobID
	}
	if d.ScriptName == "" {
		return ErrInvalidScriptName
	}
	if !d.Status.IsValid() {
		return ErrInvalidDocumentStatus
	}
	// StoragePath is only required once the document has been uploaded.
	if d.Status == DocumentStored && d.StoragePath == "" {
		return ErrInvalidStoragePath
	}
	return nil
}

// NewDocument builds a pending document row for one script of a bundle.
func NewDocument(jobID uuid.UUID, bundle *Bundle, script Script) *Document {
	landmarks := 0
	for _, s := range script.Steps {
		if s.Landmark != "" {
			landmarks++
		}
	}
	return &Document{
		JobID:         jobID,
		AppName:       bundle.AppName,
		ScriptName:    script.Name,
		StepCount:     len(script.Steps),
		LandmarkCount: landmarks,
		Status:        DocumentPending,
	}
}
