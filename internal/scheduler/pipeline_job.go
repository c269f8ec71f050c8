package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/avaldes/gainers/internal/pipeline"
	"github.com/avaldes/gainers/pkg/config"
	"github.com/avaldes/gainers/pkg/logger"
)

// PipelineJob runs the full pipeline on a schedule. Each run writes its
// artifacts into a fresh subdirectory of the configured output directory
// so consecutive runs never clobber each other.
type PipelineJob struct {
	runner *pipeline.Runner
	cfg    *config.Config
	log    *logger.Logger
}

// NewPipelineJob creates the scheduled pipeline job.
func NewPipelineJob(runner *pipeline.Runner, cfg *config.Config, log *logger.Logger) *PipelineJob {
	return &PipelineJob{
		runner: runner,
		cfg:    cfg,
		log:    log.WithField("job", "pipeline"),
	}
}

// Name returns the job name.
func (j *PipelineJob) Name() string { return "pipeline" }

// Schedule returns the configured cron expression.
func (j *PipelineJob) Schedule() string { return j.cfg.Schedule.Spec }

// Run executes one pipeline run into a timestamped subdirectory.
func (j *PipelineJob) Run(ctx context.Context) error {
	dir := filepath.Join(
		j.cfg.OutputDir,
		fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8]),
	)

	res, err := j.runner.RunInto(ctx, dir)
	if err != nil {
		return fmt.Errorf("scheduled pipeline run: %w", err)
	}

	j.log.WithFields(map[string]interface{}{
		"run_id":    res.RunID,
		"selected":  len(res.Selection.Records),
		"artifacts": len(res.Artifacts),
		"dir":       dir,
	}).Info("Scheduled run finished")
	return nil
}
