package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/snowcastio/snowcast/internal/observability"
)

// CycleRunner runs one full dataset update.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// Scheduler triggers the update pipeline once at startup and then on a fixed
// interval. An in-flight guard skips (never queues) a tick that fires while
// the previous cycle is still running. No cycle error or panic ever escapes
// the scheduler boundary.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    CycleRunner
	interval  time.Duration
	inFlight  atomic.Bool
	metrics   *observability.Metrics
	logger    *slog.Logger
}

func New(runner CycleRunner, interval time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		interval:  interval,
		metrics:   metrics,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the periodic job, with an immediate first run, and starts
// the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).StartImmediately().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future ticks.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) runOnce() {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("previous update cycle still running, skipping this tick")
		s.metrics.CyclesTotal.WithLabelValues("skipped").Inc()
		return
	}
	defer s.inFlight.Store(false)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("update cycle panicked", "panic", r)
			s.metrics.CyclesTotal.WithLabelValues("error").Inc()
		}
	}()

	if err := s.runner.RunCycle(context.Background()); err != nil {
		s.logger.Error("update cycle failed", "error", err)
		s.metrics.CyclesTotal.WithLabelValues("error").Inc()
		return
	}
	s.metrics.CyclesTotal.WithLabelValues("success").Inc()
}
