package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs a job right away, then every interval and whenever Trigger is
// called. Runs happen on the goroutine that called Run, so they never overlap.
type Scheduler struct {
	name     string
	interval time.Duration
	job      func(ctx context.Context)
	trigger  chan struct{}
	log      *zap.Logger
}

func New(name string, interval time.Duration, job func(ctx context.Context), log *zap.Logger) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		job:      job,
		trigger:  make(chan struct{}, 1),
		log:      log.With(zap.String("job_name", name)),
	}
}

// Trigger asks for an extra run. Requests made while one is already pending are
// merged; the return value reports whether this call queued a run.
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("starting job", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx, "startup")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("job stopped by context")
			return nil
		case <-ticker.C:
			s.runOnce(ctx, "interval")
		case <-s.trigger:
			s.runOnce(ctx, "trigger")
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	s.job(ctx)
	s.log.Debug("job finished", zap.String("reason", reason), zap.Duration("took", time.Since(start)))
}
