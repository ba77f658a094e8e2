package job

import (
	"context"

	"github.com/google/uuid"
)

type Store interface {
	Create(ctx context.Context, job *ExplorationJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*ExplorationJob, error)
	Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error
	List(ctx context.Context, limit, offset int) ([]*ExplorationJob, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*ExplorationJob, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
	ClaimNextCreated(ctx context.Context) (*ExplorationJob, error)
	Start(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, status Status, result JSONMap) error
}

type UpdateSetter func(*ExplorationJob) error
