package skill

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the interface for skill document persistence.
type Store interface {
	// Create creates a new document record.
	Create(ctx context.Context, doc *Document) error

	// GetByID retrieves a document by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)

	// ListByJob retrieves all documents produced by a job.
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*Document, error)

	// Update updates a document with setter functions.
	Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error

	// Delete deletes a document by its ID.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UpdateSetter mutates a document during an update.
type UpdateSetter func(*Document) error
