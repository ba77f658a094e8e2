package runner

import (
	"context"
	"errors"
	"time"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/job"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
)

// WorkerPool manages a pool of goroutines that process exploration jobs
// from the database. Workers are notified via a channel when new jobs
// are created and atomically claim them, so two workers never run the
// same job. A slow poll catches jobs enqueued while no notification was
// delivered.
type WorkerPool struct {
	Work         chan struct{}
	maxWorkers   int
	pollInterval time.Duration
	jobStore     job.Store
	pipeline     *Pipeline
	logger       logger.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(maxWorkers int, jobStore job.Store, pipeline *Pipeline, log logger.Logger) *WorkerPool {
	if log == nil {
		log = logger.Nop()
	}
	return &WorkerPool{
		Work:         make(chan struct{}, maxWorkers),
		maxWorkers:   maxWorkers,
		pollInterval: 30 * time.Second,
		jobStore:     jobStore,
		pipeline:     pipeline,
		logger:       log,
	}
}

// Notify wakes a worker without blocking; a dropped notification is
// fine, the poll picks the job up.
func (p *WorkerPool) Notify() {
	select {
	case p.Work <- struct{}{}:
	default:
	}
}

// Start spawns worker goroutines that listen for job notifications.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info(ctx, "starting worker pool", map[string]interface{}{
		"max_workers": p.maxWorkers,
	})
	for i := 0; i < p.maxWorkers; i++ {
		go p.worker(ctx, i)
	}
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	p.logger.Info(ctx, "worker started", map[string]interface{}{
		"worker_id": id,
	})
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.Work:
			p.drain(ctx, id)
		case <-ticker.C:
			p.drain(ctx, id)
		case <-ctx.Done():
			p.logger.Info(ctx, "worker stopping", map[string]interface{}{
				"worker_id": id,
			})
			return
		}
	}
}

// drain claims and runs created jobs until the queue is empty.
func (p *WorkerPool) drain(ctx context.Context, id int) {
	for {
		j, err := p.jobStore.ClaimNextCreated(ctx)
		if err != nil {
			if !errors.Is(err, job.ErrJobNotFound) {
				p.logger.Error(ctx, "worker failed to claim job", map[string]interface{}{
					"worker_id": id,
					"error":     err.Error(),
				})
			}
			return
		}
		p.logger.Info(ctx, "worker processing job", map[string]interface{}{
			"worker_id": id,
			"job_id":    j.ID.String(),
		})
		p.pipeline.RunAfterClaim(ctx, j.ID)
	}
}
