package logging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// midnight fires at local midnight every day.
const midnight = "0 0 * * *"

// Rotator rebinds a DailyFile at local midnight.
// Writes already rebind lazily; the job makes sure a quiet night still gets a new file.
type Rotator struct {
	file   *DailyFile
	cron   *cron.Cron
	logger *slog.Logger
}

// NewRotator schedules the midnight rebind. Nothing runs until Start.
func NewRotator(file *DailyFile, logger *slog.Logger) (*Rotator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Rotator{
		file:   file,
		cron:   cron.New(cron.WithLocation(time.Local)),
		logger: logger,
	}
	if _, err := r.cron.AddFunc(midnight, r.rotate); err != nil {
		return nil, fmt.Errorf("failed to schedule log rotation: %w", err)
	}
	return r, nil
}

// Start binds today's file and starts the scheduler.
func (r *Rotator) Start() error {
	if err := r.file.BindToToday(); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop stops scheduling, waits for a running job up to ctx, and closes the file.
func (r *Rotator) Stop(ctx context.Context) error {
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return r.file.Close()
}

func (r *Rotator) rotate() {
	prev := r.file.Date()
	if err := r.file.BindToToday(); err != nil {
		r.logger.Error("Failed to rotate log file", "error", err)
		return
	}
	if prev != r.file.Date() {
		r.logger.Info("Rotated log file", "from", prev, "to", r.file.Date())
	}
}
