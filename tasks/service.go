package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/storage"
)

const DefaultUpcomingWindow = 24 * time.Hour

var ErrRepositoryRequired = errors.New("task repository required")

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger.With("component", "tasks")
	}
}

// WithServiceClock sets the source of "now" for Upcoming.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// Service manages stored tasks.
type Service struct {
	repo   storage.TaskRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(repo storage.TaskRepository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	s := &Service{
		repo:   repo,
		now:    time.Now,
		logger: slog.Default().With("component", "tasks"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Save persists newly extracted tasks.
func (s *Service) Save(ctx context.Context, tasks []*core.Task) ([]*core.Task, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	return s.repo.AddTasks(ctx, tasks...)
}

// List returns all tasks.
func (s *Service) List(ctx context.Context) ([]*core.Task, error) {
	return s.repo.ListTasks(ctx)
}

// ForDocument returns the tasks extracted from one document.
func (s *Service) ForDocument(ctx context.Context, documentID core.ID) ([]*core.Task, error) {
	return s.repo.GetTasksByDocument(ctx, documentID)
}

// UpdateStatus sets a task's status.
func (s *Service) UpdateStatus(ctx context.Context, id core.ID, status core.TaskStatus) (*core.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidStatus, status)
	}
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status == status {
		return task, nil
	}
	task.Status = status
	updated, err := s.repo.UpdateTask(ctx, task)
	if err != nil {
		return nil, err
	}
	s.logger.Info("task status changed", "task_id", id, "status", status)
	return updated, nil
}

// Upcoming returns pending tasks due within [now, now+window], soonest first.
func (s *Service) Upcoming(ctx context.Context, window time.Duration) ([]*core.Task, error) {
	now := s.now()
	due, err := s.repo.GetTasksDueBetween(ctx, now, now.Add(window))
	if err != nil {
		return nil, err
	}
	pending := due[:0]
	for _, task := range due {
		if task.Status == core.TaskStatusPending {
			pending = append(pending, task)
		}
	}
	return pending, nil
}
