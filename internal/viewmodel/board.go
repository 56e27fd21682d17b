// Package viewmodel holds the in-memory task collection consumed by the
// presentation layer, merging fetches, optimistic mutations and push events.
package viewmodel

import (
	"context"
	"sync"

	"taskclient/internal/logger"
	"taskclient/internal/models"
	"taskclient/internal/realtime"
	"taskclient/internal/services"

	"go.uber.org/zap"
)

// Board is the task view model. Reconciliation is replace-by-id with
// last-write-wins: an optimistic local write racing a push event for the same
// id resolves to whichever applied last, with no conflict detection.
type Board struct {
	svc *services.TaskService

	mu     sync.RWMutex
	tasks  []models.Task
	filter services.TaskFilter
}

func NewBoard(svc *services.TaskService) *Board {
	return &Board{svc: svc}
}

// Refresh re-fetches with the current filter and replaces the collection
// wholesale.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.RLock()
	filter := b.filter
	b.mu.RUnlock()

	tasks, err := b.svc.List(ctx, filter)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.tasks = tasks
	b.mu.Unlock()
	return nil
}

// SetFilter changes the filter and re-fetches.
func (b *Board) SetFilter(ctx context.Context, filter services.TaskFilter) error {
	b.mu.Lock()
	b.filter = filter
	b.mu.Unlock()
	return b.Refresh(ctx)
}

func (b *Board) Filter() services.TaskFilter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

// Tasks returns a copy of the current collection in display order.
func (b *Board) Tasks() []models.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// Buckets groups the collection into the kanban columns.
func (b *Board) Buckets() map[models.TaskStatus][]models.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	buckets := map[models.TaskStatus][]models.Task{
		models.StatusTodo:       nil,
		models.StatusInProgress: nil,
		models.StatusDone:       nil,
	}
	for _, t := range b.tasks {
		buckets[t.Status] = append(buckets[t.Status], t)
	}
	return buckets
}

// Apply reconciles one push event into the collection. Created prepends if
// the id is absent, updated replaces the matching entry, deleted removes it.
// Notifications are not board state and are ignored here.
func (b *Board) Apply(ev realtime.Event) {
	if ev.Kind != realtime.KindTask {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch ev.Action {
	case models.ActionCreated:
		if ev.Task == nil || b.indexOf(ev.Task.ID) >= 0 {
			return
		}
		b.tasks = append([]models.Task{*ev.Task}, b.tasks...)
	case models.ActionUpdated:
		if ev.Task == nil {
			return
		}
		if i := b.indexOf(ev.Task.ID); i >= 0 {
			b.tasks[i] = *ev.Task
		}
	case models.ActionDeleted:
		if i := b.indexOf(ev.TaskID); i >= 0 {
			b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
		}
	}
}

// Create issues the create call and applies the authoritative response
// immediately as the optimistic echo.
func (b *Board) Create(ctx context.Context, req models.TaskCreate) (*models.Task, error) {
	task, err := b.svc.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	if b.indexOf(task.ID) < 0 {
		b.tasks = append([]models.Task{*task}, b.tasks...)
	}
	b.mu.Unlock()
	return task, nil
}

func (b *Board) Update(ctx context.Context, id int64, req models.TaskUpdate) (*models.Task, error) {
	task, err := b.svc.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	if i := b.indexOf(task.ID); i >= 0 {
		b.tasks[i] = *task
	}
	b.mu.Unlock()
	return task, nil
}

func (b *Board) Delete(ctx context.Context, id int64) error {
	if err := b.svc.Delete(ctx, id); err != nil {
		return err
	}
	b.mu.Lock()
	if i := b.indexOf(id); i >= 0 {
		b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
	}
	b.mu.Unlock()
	return nil
}

// MoveStatus is the drag-and-drop operation: update the status server-side
// and reconcile with the response.
func (b *Board) MoveStatus(ctx context.Context, id int64, status models.TaskStatus) (*models.Task, error) {
	task, err := b.Update(ctx, id, models.TaskUpdate{Status: status})
	if err != nil {
		return nil, err
	}
	logger.Debug("board: task moved",
		zap.Int64("task_id", id), zap.String("status", string(status)))
	return task, nil
}

// indexOf is called with the lock held.
func (b *Board) indexOf(id int64) int {
	for i, t := range b.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
