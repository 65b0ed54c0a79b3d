// Package pipeline drives a claimed job through script generation, per-scene
// asset rendering and assembly, recording every transition on the job.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"reelgen/internal/domain"
	"reelgen/internal/metrics"
)

const failWriteTimeout = 5 * time.Second

// Assembler turns a fully rendered job into a stored artifact.
type Assembler interface {
	Assemble(ctx context.Context, job *domain.VideoJob) (string, error)
}

type Orchestrator struct {
	jobs      domain.JobStore
	script    *ScriptStage
	assets    *AssetStage
	assembler Assembler
	logger    zerolog.Logger
}

func NewOrchestrator(jobs domain.JobStore, script *ScriptStage, assets *AssetStage, assembler Assembler, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{jobs: jobs, script: script, assets: assets, assembler: assembler, logger: logger}
}

// Process claims the job and runs it to a terminal state. A job someone else
// already claimed is skipped without error, which makes duplicate deliveries
// harmless. The returned error is only set when the claim itself could not be
// attempted, so the caller may redeliver.
func (o *Orchestrator) Process(ctx context.Context, jobID string) error {
	job, err := o.jobs.Claim(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyClaimed) {
			o.logger.Debug().Str("job_id", jobID).Msg("pipeline: job already claimed, skipping")
			return nil
		}
		return fmt.Errorf("claim job %s: %w", jobID, err)
	}
	log := o.logger.With().Str("job_id", job.ID).Logger()
	log.Info().Msg("pipeline: job claimed")

	if serr := o.run(ctx, job, log); serr != nil {
		o.fail(ctx, job.ID, serr, log)
		return nil
	}
	metrics.JobFinished(string(domain.JobStatusComplete), "")
	log.Info().Str("artifact_ref", job.ArtifactRef).Msg("pipeline: job complete")
	return nil
}

func (o *Orchestrator) run(ctx context.Context, job *domain.VideoJob, log zerolog.Logger) *StageError {
	started := time.Now()
	script, err := o.script.Generate(ctx, job.Prompt, job.Locale)
	if err != nil {
		return o.stageFailed(domain.StageScripting, err, started)
	}
	if err := o.jobs.SaveScript(ctx, job.ID, script.Scenes, script.Usage); err != nil {
		return o.stageFailed(domain.StageScripting, err, started)
	}
	metrics.ObserveStage(string(domain.StageScripting), "ok", started)
	job.Scenes, job.Usage, job.Status = script.Scenes, script.Usage, domain.JobStatusRendering
	log.Info().Int("scenes", len(script.Scenes)).Msg("pipeline: script saved")

	started = time.Now()
	scenes, err := o.assets.Render(ctx, job.ID, job.Scenes)
	if err != nil {
		return o.stageFailed(domain.StageRendering, err, started)
	}
	if err := o.jobs.SaveAssets(ctx, job.ID, scenes); err != nil {
		return o.stageFailed(domain.StageRendering, err, started)
	}
	metrics.ObserveStage(string(domain.StageRendering), "ok", started)
	job.Scenes, job.Status = scenes, domain.JobStatusAssembling
	log.Info().Msg("pipeline: assets saved")

	started = time.Now()
	ref, err := o.assembler.Assemble(ctx, job)
	if err != nil {
		return o.stageFailed(domain.StageAssembling, err, started)
	}
	if err := o.jobs.Complete(ctx, job.ID, ref); err != nil {
		return o.stageFailed(domain.StageAssembling, err, started)
	}
	metrics.ObserveStage(string(domain.StageAssembling), "ok", started)
	job.ArtifactRef, job.Status = ref, domain.JobStatusComplete
	return nil
}

// stageFailed normalises any error raised while a stage was current.
func (o *Orchestrator) stageFailed(stage domain.Stage, err error, started time.Time) *StageError {
	var serr *StageError
	if !errors.As(err, &serr) {
		serr = &StageError{Stage: stage, Kind: kindOf(err), Attempts: 1, Err: err}
	}
	metrics.ObserveStage(string(stage), string(serr.Kind), started)
	return serr
}

// fail records the failure even when ctx was cancelled by shutdown, so the job
// never stays in an intermediate status.
func (o *Orchestrator) fail(ctx context.Context, jobID string, serr *StageError, log zerolog.Logger) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failWriteTimeout)
	defer cancel()

	failure := serr.Failure()
	if err := o.jobs.Fail(fctx, jobID, failure); err != nil {
		log.Error().Err(err).Str("stage", string(failure.Stage)).Msg("pipeline: could not record failure")
		return
	}
	metrics.JobFinished(string(domain.JobStatusFailed), string(failure.Kind))
	log.Warn().
		Str("stage", string(failure.Stage)).
		Str("kind", string(failure.Kind)).
		Int("attempts", serr.Attempts).
		Str("reason", failure.Reason).
		Msg("pipeline: job failed")
}
