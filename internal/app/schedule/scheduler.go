// Package schedule describes recurring background jobs of the booking engine.
package schedule

import (
	"context"
	"log/slog"

	bookingapp "shareit/internal/app/handlers/booking"
)

// Job is one run of a recurring task.
type Job func(ctx context.Context) error

type Scheduler interface {
	// Every registers job under name on a cron spec such as "@every 5m".
	Every(spec, name string, job Job) error
	Start()
	// Stop prevents new runs and returns a context done once running jobs finish.
	Stop() context.Context
}

type Sweeper interface {
	Sweep(ctx context.Context, cmd bookingapp.SweepCommand) (*bookingapp.SweepResult, error)
}

// SweepJob cancels every expired pending booking.
func SweepJob(s Sweeper, logger *slog.Logger) Job {
	return func(ctx context.Context) error {
		result, err := s.Sweep(ctx, bookingapp.SweepCommand{})
		if err != nil {
			return err
		}
		if logger != nil && result.Failed > 0 {
			logger.Warn("sweep left bookings behind", "failed", result.Failed)
		}
		return nil
	}
}
