// Package reminder runs the reminder tick on a cron schedule for the lifetime of the process.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/classroom-booking/internal/booking"
)

// DefaultSchedule runs a tick once a minute.
const DefaultSchedule = "@every 1m"

// Ticker evaluates and emits the reminders due now.
type Ticker interface {
	RunTick(ctx context.Context) ([]booking.Notification, error)
}

// Scheduler invokes a Ticker on a cron schedule. A tick that is still running when the next
// one is due causes that next one to be skipped.
type Scheduler struct {
	cron    *cron.Cron
	ticker  Ticker
	timeout time.Duration
	logger  *slog.Logger
}

// Options configures a Scheduler. Zero values use the defaults.
type Options struct {
	Schedule string
	Location *time.Location
	Timeout  time.Duration
	Logger   *slog.Logger
}

// New builds a Scheduler. It fails when the schedule cannot be parsed.
func New(ticker Ticker, opts Options) (*Scheduler, error) {
	if ticker == nil {
		return nil, fmt.Errorf("reminder: ticker is required")
	}
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cronLogger := slogAdapter{logger: opts.Logger.With("component", "reminder")}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(opts.Location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		ticker:  ticker,
		timeout: opts.Timeout,
		logger:  opts.Logger.With("component", "reminder", "schedule", opts.Schedule),
	}

	if _, err := s.cron.AddFunc(opts.Schedule, s.tick); err != nil {
		return nil, fmt.Errorf("reminder: parse schedule %q: %w", opts.Schedule, err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is done, then waits for a running tick to end.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("reminder scheduler started")

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("reminder scheduler stopped")
	return nil
}

// tick runs one evaluation. Errors are logged; the schedule keeps running.
func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	created, err := s.ticker.RunTick(ctx)
	if err != nil {
		s.logger.Error("reminder tick failed", "error", err, "created", len(created))
		return
	}
	if len(created) > 0 {
		s.logger.Debug("reminder tick completed", "created", len(created))
	}
}

// slogAdapter satisfies cron.Logger on top of slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
