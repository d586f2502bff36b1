package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/storage"
	"github.com/poiesic/personalmind/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	s, err := NewService(stores.Tasks, WithServiceClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return s
}

func task(title string, due *time.Time, status core.TaskStatus) *core.Task {
	return &core.Task{Title: title, DueDate: due, Status: status, DocumentId: 1}
}

func at(d time.Duration) *time.Time {
	t := fixedNow.Add(d)
	return &t
}

func TestNewService_RequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestService_SaveAndList(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, saved)

	saved, err = s.Save(ctx, []*core.Task{
		task("one", nil, core.TaskStatusPending),
		task("two", nil, core.TaskStatusPending),
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	owned, err := s.ForDocument(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}

func TestService_UpdateStatus(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, []*core.Task{task("one", nil, core.TaskStatusPending)})
	require.NoError(t, err)
	id := saved[0].Id

	updated, err := s.UpdateStatus(ctx, id, core.TaskStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusCompleted, updated.Status)

	_, err = s.UpdateStatus(ctx, id, "archived")
	assert.ErrorIs(t, err, core.ErrInvalidStatus)

	_, err = s.UpdateStatus(ctx, 9999, core.TaskStatusPending)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_Upcoming(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Save(ctx, []*core.Task{
		task("overdue", at(-time.Hour), core.TaskStatusPending),
		task("later today", at(5*time.Hour), core.TaskStatusPending),
		task("soon", at(time.Hour), core.TaskStatusPending),
		task("done already", at(2*time.Hour), core.TaskStatusCompleted),
		task("next week", at(7*24*time.Hour), core.TaskStatusPending),
		task("undated", nil, core.TaskStatusPending),
	})
	require.NoError(t, err)

	upcoming, err := s.Upcoming(ctx, DefaultUpcomingWindow)
	require.NoError(t, err)

	var titles []string
	for _, task := range upcoming {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"soon", "later today"}, titles)
}

func TestReminder_Check(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Save(ctx, []*core.Task{
		task("soon", at(time.Hour), core.TaskStatusPending),
		task("far", at(72*time.Hour), core.TaskStatusPending),
	})
	require.NoError(t, err)

	var notified []string
	r, err := NewReminder(s, WithWindow(2*time.Hour), WithNotifier(func(_ context.Context, task *core.Task) {
		notified = append(notified, task.Title)
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, r.Check(ctx))
	assert.Equal(t, []string{"soon"}, notified)
}

func TestReminder_RunStopsOnCancel(t *testing.T) {
	s := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := s.Save(ctx, []*core.Task{task("soon", at(time.Hour), core.TaskStatusPending)})
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		count int
	)
	r, err := NewReminder(s,
		WithInterval(10*time.Millisecond),
		WithNotifier(func(_ context.Context, _ *core.Task) {
			mu.Lock()
			defer mu.Unlock()
			count++
			if count == 3 {
				cancel()
			}
		}),
	)
	require.NoError(t, err)

	err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, count, 3)
}

func TestNewReminder_RequiresService(t *testing.T) {
	_, err := NewReminder(nil)
	assert.ErrorIs(t, err, ErrServiceRequired)
}
