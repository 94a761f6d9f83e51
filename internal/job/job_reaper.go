package job

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/akshardoc/akshardoc/internal/filestore"
	"github.com/akshardoc/akshardoc/internal/model"
	"github.com/akshardoc/akshardoc/internal/pkg/logutil"
	"github.com/akshardoc/akshardoc/internal/repo"
)

// JobReaper fails jobs whose workers died without reporting and purges
// finished jobs, with their stored outputs, past the retention window.
type JobReaper struct {
	jobs      *repo.JobRepo
	store     filestore.Store
	stall     time.Duration
	retention time.Duration
}

func NewJobReaper(jobs *repo.JobRepo, store filestore.Store, stall, retention time.Duration) *JobReaper {
	return &JobReaper{jobs: jobs, store: store, stall: stall, retention: retention}
}

func (j *JobReaper) Name() string {
	return "job_reaper"
}

func (j *JobReaper) Run(ctx context.Context) error {
	if j.jobs == nil {
		return nil
	}
	if err := j.failStalled(ctx); err != nil {
		return err
	}
	return j.purgeFinished(ctx)
}

func (j *JobReaper) failStalled(ctx context.Context) error {
	stall := j.stall
	if stall <= 0 {
		stall = time.Hour
	}
	cutoff := time.Now().Add(-stall).Unix()
	stalled, err := j.jobs.ListStalledRunning(ctx, cutoff)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for _, job := range stalled {
		if err := j.jobs.Fail(ctx, job.ID, "abandoned: no progress", time.Now().Unix()); err != nil {
			logger.Warn("fail stalled job", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		logger.Info("stalled job failed", zap.String("job_id", job.ID))
	}
	return nil
}

func (j *JobReaper) purgeFinished(ctx context.Context) error {
	retention := j.retention
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	cutoff := time.Now().Add(-retention).Unix()
	finished, err := j.jobs.ListFinishedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for _, job := range finished {
		if job.Status == model.JobStatusDone && job.OutputKey != "" && j.store != nil {
			if err := j.store.Delete(ctx, job.OutputKey); err != nil {
				logger.Warn("delete job output", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
		}
		if err := j.jobs.Delete(ctx, job.ID); err != nil {
			logger.Warn("delete job record", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	return nil
}
