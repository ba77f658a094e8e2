package skill

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
)

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new MySQL-backed skill document store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new document in the database.
func (s *MySQLStore) Create(ctx context.Context, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		s.logger.Error(ctx, "failed to create skill document", map[string]interface{}{
			"error":       err.Error(),
			"script_name": doc.ScriptName,
		})
		return err
	}

	s.logger.Info(ctx, "skill document created", map[string]interface{}{
		"document_id": doc.ID.String(),
		"job_id":      doc.JobID.String(),
		"script_name": doc.ScriptName,
	})

	return nil
}

// GetByID retrieves a document by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&doc).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		s.logger.Error(ctx, "failed to get skill document by ID", map[string]interface{}{
			"error":       err.Error(),
			"document_id": id.String(),
		})
		return nil, err
	}

	return &doc, nil
}

// ListByJob retrieves all documents produced by a job, oldest first.
func (s *MySQLStore) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*Document, error) {
	var docs []*Document
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&docs).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list skill documents by job", map[string]interface{}{
			"error":  err.Error(),
			"job_id": jobID.String(),
		})
		return nil, err
	}

	return docs, nil
}

// Update updates a document with the given setters.
func (s *MySQLStore) Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error {
	doc, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, setter := range setters {
		if err := setter(doc); err != nil {
			return err
		}
	}

	if err := doc.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Save(doc).Error; err != nil {
		s.logger.Error(ctx, "failed to update skill document", map[string]interface{}{
			"error":       err.Error(),
			"document_id": id.String(),
		})
		return err
	}

	return nil
}

// Delete deletes a document by its ID.
func (s *MySQLStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&Document{}, "id = ?", id)
	if result.Error != nil {
		s.logger.Error(ctx, "failed to delete skill document", map[string]interface{}{
			"error":       result.Error.Error(),
			"document_id": id.String(),
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDocumentNotFound
	}

	s.logger.Info(ctx, "skill document deleted", map[string]interface{}{
		"document_id": id.String(),
	})

	return nil
}
