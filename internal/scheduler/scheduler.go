// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Pruner evicts expired tasks
type Pruner interface {
	PruneTasks(now time.Time) int
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	pruner    Pruner
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a new scheduler instance
func New(pruner Pruner, interval time.Duration, logger *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		pruner:    pruner,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the task registry pruning and runs the scheduler in the background
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("prune interval must be positive, got %s", s.interval)
	}

	// The first run waits a full interval: there is nothing to evict at startup
	if _, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.pruneTasks); err != nil {
		return fmt.Errorf("schedule task pruning: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("Scheduler started", zap.Duration("prune_interval", s.interval))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) pruneTasks() {
	evicted := s.pruner.PruneTasks(time.Now())
	if evicted > 0 {
		s.logger.Debug("Scheduled prune evicted tasks", zap.Int("evicted", evicted))
	}
}
