// Package cron runs schedule jobs on robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	robfig "github.com/robfig/cron/v3"

	"shareit/internal/app/schedule"
)

const defaultJobTimeout = time.Minute

// Scheduler skips a run while the previous run of the same job is still going.
type Scheduler struct {
	cron       *robfig.Cron
	ctx        context.Context
	jobTimeout time.Duration
	logger     *slog.Logger
}

// New binds jobs to ctx: cancelling it cancels running jobs.
func New(ctx context.Context, jobTimeout time.Duration, logger *slog.Logger) *Scheduler {
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:       robfig.New(robfig.WithLocation(time.UTC)),
		ctx:        ctx,
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

func (s *Scheduler) Every(spec, name string, job schedule.Job) error {
	wrapped := robfig.NewChain(robfig.SkipIfStillRunning(robfig.DiscardLogger)).Then(robfig.FuncJob(func() {
		s.run(name, job)
	}))
	_, err := s.cron.AddJob(spec, wrapped)
	return err
}

func (s *Scheduler) run(name string, job schedule.Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.jobTimeout)
	defer cancel()
	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", name, "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("scheduled job finished", "job", name, "duration", time.Since(start))
}

func (s *Scheduler) Start() { s.cron.Start() }

func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

var _ schedule.Scheduler = (*Scheduler)(nil)
