package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/codetier/taskhub/internal/domain/task"
	"github.com/google/uuid"
)

type TasksRepo struct {
	mu    sync.RWMutex
	items map[string]task.Task
}

func NewTasksRepo() *TasksRepo {
	return &TasksRepo{
		items: make(map[string]task.Task),
	}
}

func (r *TasksRepo) Create(ctx context.Context, userID string, req task.CreateTaskRequest) (task.Task, error) {
	t := task.NewFromCreateRequest(userID, req)

	t.ID = uuid.NewString()

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	r.mu.Lock()
	r.items[t.ID] = t
	r.mu.Unlock()

	return t, nil
}

func (r *TasksRepo) ListByOwner(ctx context.Context, userID string) ([]task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]task.Task, 0)

	for _, t := range r.items {
		if t.UserID == userID {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}

		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

// Update applies the ownership-coupled predicate under a single lock,
// matching the atomic match-and-mutate of the postgres repo.
func (r *TasksRepo) Update(ctx context.Context, userID, taskID string, req task.UpdateTaskRequest) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[taskID]

	if !ok || t.UserID != userID {
		return task.Task{}, task.ErrNotFound
	}

	if req.Title != nil {
		t.Title = *req.Title
	}

	if req.Description != nil {
		t.Description = *req.Description
	}

	if req.Status != nil {
		t.Status = *req.Status
	}

	if req.Type != nil {
		t.Type = *req.Type
	}

	t.UpdatedAt = time.Now().UTC()

	r.items[taskID] = t

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, userID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[taskID]

	if !ok || t.UserID != userID {
		return task.ErrNotFound
	}

	delete(r.items, taskID)

	return nil
}
