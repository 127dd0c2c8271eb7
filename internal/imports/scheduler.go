package imports

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler triggers all vendor imports on a fixed interval. Manual
// triggers use the same runner and therefore the same per-vendor run
// locks.
type Scheduler struct {
	runner   *Runner
	interval time.Duration
	logger   *zap.Logger

	stop chan struct{}
	done chan struct{}
}

func NewScheduler(runner *Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the scheduling loop until Stop is called or the context
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		defer close(s.done)
		s.logger.Info("Import scheduler started",
			zap.Duration("interval", s.interval),
		)
		for {
			select {
			case <-ticker.C:
				s.runner.RunAll(ctx)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()
}

// TriggerAll starts a manual run of all vendor imports asynchronously.
func (s *Scheduler) TriggerAll(ctx context.Context) {
	go s.runner.RunAll(ctx)
}

// Stop terminates the scheduling loop.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
	s.logger.Info("Import scheduler stopped")
}
