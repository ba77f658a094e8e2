// Package runner executes exploration jobs end to end: claim a job,
// build a device, walk the app with the explorer, persist the compiled
// skill bundle. The backend's worker pool and the CLI's one-shot mode
// both go through the same pipeline.
package runner

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/device"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/exploration"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/explorer"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/fingerprint"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/job"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/skill"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/storage"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/strategy"
)

// DeviceFactory builds the device a job runs against. The pipeline does
// not know whether that is a simulator fixture or a real screen.
type DeviceFactory func(ctx context.Context, j *job.ExplorationJob) (device.Device, error)

// BundleAnnotator produces a prose description of a compiled bundle.
// Satisfied by skill.Annotator; optional on the pipeline.
type BundleAnnotator interface {
	Annotate(ctx context.Context, bundle *skill.Bundle) (string, error)
}

// Pipeline orchestrates one exploration job from claim to bundle.
type Pipeline struct {
	jobStore   job.Store
	skillStore skill.Store
	storage    storage.BlobStorage
	devices    DeviceFactory
	annotator  BundleAnnotator
	logger     logger.Logger
}

// NewPipeline creates a new exploration pipeline.
func NewPipeline(
	jobStore job.Store,
	skillStore skill.Store,
	blobStorage storage.BlobStorage,
	devices DeviceFactory,
	log logger.Logger,
) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		jobStore:   jobStore,
		skillStore: skillStore,
		storage:    blobStorage,
		devices:    devices,
		logger:     log,
	}
}

// SetAnnotator attaches an annotator; stored documents then carry a
// model-written description. Call before Run.
func (p *Pipeline) SetAnnotator(a BundleAnnotator) {
	p.annotator = a
}

// Run marks a created job as running and executes it. Used by the CLI's
// one-shot mode; workers claim atomically and call RunAfterClaim.
func (p *Pipeline) Run(ctx context.Context, jobID uuid.UUID) {
	if err := p.jobStore.Start(ctx, jobID); err != nil {
		p.failJob(ctx, jobID, fmt.Sprintf("failed to start job: %v", err))
		return
	}
	p.RunAfterClaim(ctx, jobID)
}

// RunAfterClaim executes a job that is already marked running.
func (p *Pipeline) RunAfterClaim(ctx context.Context, jobID uuid.UUID) {
	p.logger.Info(ctx, "starting exploration pipeline", map[string]interface{}{
		"job_id": jobID.String(),
	})

	j, err := p.jobStore.GetByID(ctx, jobID)
	if err != nil {
		p.failJob(ctx, jobID, fmt.Sprintf("failed to fetch job: %v", err))
		return
	}

	budget := j.Budget()

	// The explorer enforces the time budget itself; the outer timeout
	// only guards against a device call that never returns.
	ctx, cancel := context.WithTimeout(ctx, budget.MaxDuration+time.Minute)
	defer cancel()

	dev, err := p.devices(ctx, j)
	if err != nil {
		p.failJob(ctx, jobID, fmt.Sprintf("failed to build device: %v", err))
		return
	}

	eng := fingerprint.NewEngine()
	strat, err := strategy.New(j.Category, eng, budget)
	if err != nil {
		p.failJob(ctx, jobID, fmt.Sprintf("failed to build strategy: %v", err))
		return
	}

	session := exploration.NewSession(eng, p.logger)
	if err := session.Start(j.AppName, j.Goals()); err != nil {
		p.failJob(ctx, jobID, fmt.Sprintf("failed to start session: %v", err))
		return
	}

	if err := dev.Perform(ctx, exploration.ActionLaunch, j.AppName); err != nil {
		p.failJob(ctx, jobID, fmt.Sprintf("failed to launch app: %v", err))
		return
	}
	snap, err := dev.Observe(ctx)
	if err != nil {
		p.failJob(ctx, jobID, fmt.Sprintf("failed to observe start screen: %v", err))
		return
	}
	if _, err := session.Capture(exploration.CaptureInput{
		Elements:      snap.Elements,
		Hints:         snap.Hints,
		Detections:    snap.Detections,
		ScreenshotRef: snap.ImageRef,
	}); err != nil {
		p.failJob(ctx, jobID, fmt.Sprintf("failed to capture start screen: %v", err))
		return
	}

	exp, err := explorer.New(explorer.Config{
		Session:    session,
		Strategy:   strat,
		Perception: dev,
		Execution:  dev,
		Budget:     budget,
		Logger:     p.logger,
	})
	if err != nil {
		p.failJob(ctx, jobID, fmt.Sprintf("failed to build explorer: %v", err))
		return
	}
	if err := exp.MarkStarted(); err != nil {
		p.failJob(ctx, jobID, fmt.Sprintf("failed to start explorer: %v", err))
		return
	}

	bundle, stuck, err := p.walk(ctx, exp)
	if err != nil {
		p.failJob(ctx, jobID, fmt.Sprintf("exploration failed: %v", err))
		return
	}

	stats := exp.Stats()
	stored, failed := p.storeBundle(ctx, j, bundle)

	result := job.JSONMap{
		"screens":          stats.Nodes,
		"actions":          stats.Actions,
		"scripts":          len(bundle.Scripts),
		"documents_stored": stored,
		"stuck":            stuck,
	}
	status := job.StatusSuccess
	if failed > 0 && stored == 0 {
		status = job.StatusFailed
		result["error"] = "no skill document could be stored"
	}

	if err := p.jobStore.Complete(ctx, jobID, status, result); err != nil {
		p.logger.Error(ctx, "failed to complete job", map[string]interface{}{
			"error":  err.Error(),
			"job_id": jobID.String(),
		})
		return
	}

	p.logger.Info(ctx, "exploration pipeline completed", map[string]interface{}{
		"job_id":  jobID.String(),
		"status":  string(status),
		"screens": stats.Nodes,
		"scripts": len(bundle.Scripts),
	})
}

// walk steps the explorer until it finishes or pauses. A stuck run is
// concluded early and still yields a partial bundle.
func (p *Pipeline) walk(ctx context.Context, exp *explorer.Explorer) (*skill.Bundle, bool, error) {
	// Each screen costs at most its action budget plus scrolls plus one
	// backtrack, so this cap is never the thing that ends a healthy run.
	maxSteps := 1000
	for i := 0; i < maxSteps; i++ {
		out, err := exp.Step(ctx)
		if err != nil {
			return nil, false, err
		}
		switch out.Kind {
		case explorer.OutcomeFinished:
			return out.Bundle, false, nil
		case explorer.OutcomePaused:
			p.logger.Warn(ctx, "exploration paused, concluding early", map[string]interface{}{
				"reason": out.PauseReason,
			})
			bundle, err := exp.Conclude()
			if err != nil {
				return nil, true, err
			}
			return bundle, true, nil
		}
	}

	bundle, err := exp.Conclude()
	if err != nil {
		return nil, false, err
	}
	return bundle, false, nil
}

// storeBundle renders each script to Markdown, saves it to blob storage
// and records a skill document row. Returns stored and failed counts.
func (p *Pipeline) storeBundle(ctx context.Context, j *job.ExplorationJob, bundle *skill.Bundle) (int, int) {
	var description *string
	if p.annotator != nil && len(bundle.Scripts) > 0 {
		desc, err := p.annotator.Annotate(ctx, bundle)
		if err != nil {
			// Annotation is best effort; the documents stand without it.
			p.logger.Warn(ctx, "failed to annotate bundle", map[string]interface{}{
				"error":  err.Error(),
				"job_id": j.ID.String(),
			})
		} else {
			description = &desc
		}
	}

	var stored, failed int
	for _, script := range bundle.Scripts {
		doc := skill.NewDocument(j.ID, bundle, script)
		doc.Description = description
		path := fmt.Sprintf("skills/%s/%s.md", j.ID, fileSlug(script.Name))

		if err := p.storage.Save(ctx, path, strings.NewReader(script.Markdown())); err != nil {
			p.logger.Error(ctx, "failed to store script", map[string]interface{}{
				"error":  err.Error(),
				"job_id": j.ID.String(),
				"script": script.Name,
			})
			doc.Status = skill.DocumentFailed
			msg := err.Error()
			doc.ErrorMessage = &msg
			failed++
		} else {
			doc.Status = skill.DocumentStored
			doc.StoragePath = path
			stored++
		}

		if err := p.skillStore.Create(ctx, doc); err != nil {
			p.logger.Error(ctx, "failed to record skill document", map[string]interface{}{
				"error":  err.Error(),
				"job_id": j.ID.String(),
				"script": script.Name,
			})
		}
	}
	return stored, failed
}

// failJob marks a job as failed with the given reason.
func (p *Pipeline) failJob(ctx context.Context, jobID uuid.UUID, reason string) {
	p.logger.Error(ctx, "exploration pipeline failed", map[string]interface{}{
		"job_id": jobID.String(),
		"reason": reason,
	})

	if err := p.jobStore.Complete(ctx, jobID, job.StatusFailed, job.JSONMap{
		"error": reason,
	}); err != nil {
		// The job may never have started; set the status directly.
		if err2 := p.jobStore.Update(ctx, jobID, job.SetStatus(job.StatusFailed), job.SetResult(job.JSONMap{
			"error": reason,
		})); err2 != nil {
			p.logger.Error(ctx, "failed to mark job as failed", map[string]interface{}{
				"error":  err2.Error(),
				"job_id": jobID.String(),
			})
		}
	}
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// fileSlug turns a script name into a safe storage file name.
func fileSlug(name string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "script"
	}
	return slug
}
