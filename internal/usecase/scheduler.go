package usecase

import (
	"context"
	"log/slog"
	"time"

	"NoticeBoard/internal/ports"
)

// Scheduler wires the ticking driver with the archive sweep.
type Scheduler struct {
	driver  ports.Scheduler
	sweeper *ArchiveSweeper
	logger  *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring sweep.
func NewScheduler(driver ports.Scheduler, sweeper *ArchiveSweeper, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, sweeper: sweeper, logger: logger}
}

// Start registers the sweep with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.sweeper == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.sweeper.Sweep(ctx); err != nil && s.logger != nil {
			s.logger.Error("archive sweep failed", "error", err, "trigger", trigger)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
