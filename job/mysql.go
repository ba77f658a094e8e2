package job

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
)

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new MySQL-backed job store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new job in the database.
func (s *MySQLStore) Create(ctx context.Context, j *ExplorationJob) error {
	if err := j.Validate(); err != nil {
		return err
	}

	if j.Status == "" {
		j.Status = StatusCreated
	}

	if err := s.db.WithContext(ctx).Create(j).Error; err != nil {
		s.logger.Error(ctx, "failed to create job", map[string]interface{}{
			"error":    err.Error(),
			"app_name": j.AppName,
		})
		return err
	}

	s.logger.Info(ctx, "job created", map[string]interface{}{
		"job_id":   j.ID.String(),
		"app_name": j.AppName,
		"category": string(j.Category),
	})

	return nil
}

// GetByID retrieves a job by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*ExplorationJob, error) {
	var j ExplorationJob
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&j).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error(ctx, "failed to get job by ID", map[string]interface{}{
			"error":  err.Error(),
			"job_id": id.String(),
		})
		return nil, err
	}

	return &j, nil
}

// Update updates a job with the given setters.
func (s *MySQLStore) Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error {
	j, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, setter := range setters {
		if err := setter(j); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Save(j).Error; err != nil {
		s.logger.Error(ctx, "failed to update job", map[string]interface{}{
			"error":  err.Error(),
			"job_id": id.String(),
		})
		return err
	}

	s.logger.Info(ctx, "job updated", map[string]interface{}{
		"job_id": id.String(),
	})

	return nil
}

// List retrieves a paginated list of jobs, newest first.
func (s *MySQLStore) List(ctx context.Context, limit, offset int) ([]*ExplorationJob, error) {
	var jobs []*ExplorationJob
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list jobs", map[string]interface{}{
			"error":  err.Error(),
			"limit":  limit,
			"offset": offset,
		})
		return nil, err
	}

	return jobs, nil
}

// ListByStatus retrieves a paginated list of jobs filtered by status.
func (s *MySQLStore) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*ExplorationJob, error) {
	var jobs []*ExplorationJob
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list jobs by status", map[string]interface{}{
			"error":  err.Error(),
			"status": string(status),
			"limit":  limit,
			"offset": offset,
		})
		return nil, err
	}

	return jobs, nil
}

// CountByStatus returns the total count of jobs in a given status.
func (s *MySQLStore) CountByStatus(ctx context.Context, status Status) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&ExplorationJob{}).
		Where("status = ?", status).
		Count(&count).Error

	if err != nil {
		s.logger.Error(ctx, "failed to count jobs by status", map[string]interface{}{
			"error":  err.Error(),
			"status": string(status),
		})
		return 0, err
	}

	return int(count), nil
}

// ClaimNextCreated atomically picks the oldest created job and marks it
// running. Returns ErrJobNotFound when the queue is empty. The row lock
// keeps two workers from claiming the same job.
func (s *MySQLStore) ClaimNextCreated(ctx context.Context) (*ExplorationJob, error) {
	var claimed *ExplorationJob
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("status = ?", StatusCreated).Order("created_at ASC")
		// sqlite, used in tests, has no row locks.
		if tx.Dialector.Name() == "mysql" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var j ExplorationJob
		err := q.First(&j).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return err
		}

		if err := j.Start(); err != nil {
			return err
		}
		if err := tx.Save(&j).Error; err != nil {
			return err
		}

		claimed = &j
		return nil
	})

	if err != nil {
		if !errors.Is(err, ErrJobNotFound) {
			s.logger.Error(ctx, "failed to claim job", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, err
	}

	s.logger.Info(ctx, "job claimed", map[string]interface{}{
		"job_id":   claimed.ID.String(),
		"app_name": claimed.AppName,
	})

	return claimed, nil
}

// Start marks a job as running.
func (s *MySQLStore) Start(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var j ExplorationJob
		if err := tx.WithContext(ctx).Where("id = ?", id).First(&j).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return err
		}

		if err := j.Start(); err != nil {
			return err
		}

		return tx.WithContext(ctx).Save(&j).Error
	})

	if err != nil {
		if !errors.Is(err, ErrJobNotFound) && !errors.Is(err, ErrJobAlreadyStarted) {
			s.logger.Error(ctx, "failed to start job", map[string]interface{}{
				"error":  err.Error(),
				"job_id": id.String(),
			})
		}
		return err
	}

	s.logger.Info(ctx, "job started", map[string]interface{}{
		"job_id": id.String(),
	})

	return nil
}

// Complete marks a job as finished with the given status and result.
func (s *MySQLStore) Complete(ctx context.Context, id uuid.UUID, status Status, result JSONMap) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var j ExplorationJob
		if err := tx.WithContext(ctx).Where("id = ?", id).First(&j).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return err
		}

		if err := j.Complete(status, result); err != nil {
			return err
		}

		return tx.WithContext(ctx).Save(&j).Error
	})

	if err != nil {
		if !errors.Is(err, ErrJobNotFound) && !errors.Is(err, ErrJobNotRunning) {
			s.logger.Error(ctx, "failed to complete job", map[string]interface{}{
				"error":  err.Error(),
				"job_id": id.String(),
				"status": string(status),
			})
		}
		return err
	}

	s.logger.Info(ctx, "job completed", map[string]interface{}{
		"job_id": id.String(),
		"status": string(status),
	})

	return nil
}
