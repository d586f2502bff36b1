package tasks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/personalmind/core"
)

const DefaultReminderInterval = time.Hour

var ErrServiceRequired = errors.New("task service required")

// Notifier receives each upcoming task found by a Reminder check.
type Notifier func(ctx context.Context, task *core.Task)

// ReminderOption configures a Reminder.
type ReminderOption func(*Reminder)

// WithInterval sets how often the Reminder checks.
func WithInterval(d time.Duration) ReminderOption {
	return func(r *Reminder) {
		r.interval = d
	}
}

// WithWindow sets how far ahead a task counts as upcoming.
func WithWindow(d time.Duration) ReminderOption {
	return func(r *Reminder) {
		r.window = d
	}
}

// WithNotifier replaces the default logging notifier.
func WithNotifier(n Notifier) ReminderOption {
	return func(r *Reminder) {
		r.notify = n
	}
}

// WithReminderLogger sets the logger.
func WithReminderLogger(logger *slog.Logger) ReminderOption {
	return func(r *Reminder) {
		r.logger = logger.With("component", "reminder")
	}
}

// Reminder periodically reports tasks whose deadline is near.
type Reminder struct {
	service  *Service
	interval time.Duration
	window   time.Duration
	notify   Notifier
	logger   *slog.Logger
}

// NewReminder creates a Reminder that checks hourly for tasks due within a day.
func NewReminder(service *Service, opts ...ReminderOption) (*Reminder, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}
	r := &Reminder{
		service:  service,
		interval: DefaultReminderInterval,
		window:   DefaultUpcomingWindow,
		logger:   slog.Default().With("component", "reminder"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.notify == nil {
		r.notify = r.logTask
	}
	return r, nil
}

// Run checks immediately, then once per interval, until ctx is done.
func (r *Reminder) Run(ctx context.Context) error {
	r.logger.Info("task reminder started", "interval", r.interval, "window", r.window)
	r.Check(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Check(ctx)
		}
	}
}

// Check notifies every upcoming task once and returns how many there were.
// A failed lookup is logged and reported as zero.
func (r *Reminder) Check(ctx context.Context) int {
	upcoming, err := r.service.Upcoming(ctx, r.window)
	if err != nil {
		r.logger.Error("failed to load upcoming tasks", "err", err)
		return 0
	}
	for _, task := range upcoming {
		r.notify(ctx, task)
	}
	return len(upcoming)
}

func (r *Reminder) logTask(_ context.Context, task *core.Task) {
	r.logger.Info("task due soon", "task_id", task.Id, "title", task.Title, "due", task.DueDate.Local().Format("2006-01-02 15:04"))
}
