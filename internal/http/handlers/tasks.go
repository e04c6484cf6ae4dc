package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/codetier/taskhub/internal/config"
	"github.com/codetier/taskhub/internal/domain/task"
	"github.com/codetier/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskStore interface {
	Create(ctx context.Context, userID string, req task.CreateTaskRequest) (task.Task, error)
	ListByOwner(ctx context.Context, userID string) ([]task.Task, error)
	Update(ctx context.Context, userID, taskID string, req task.UpdateTaskRequest) (task.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
}

// TaskListCache is optional; a nil cache means every list hits the store.
type TaskListCache interface {
	GetList(ctx context.Context, userID string) ([]task.Task, bool)
	SetList(ctx context.Context, userID string, tasks []task.Task)
	Invalidate(ctx context.Context, userID string)
}

type TasksHandler struct {
	store TaskStore
	cache TaskListCache
}

func NewTasksHandler(store TaskStore) *TasksHandler {
	return &TasksHandler{store: store}
}

func NewTasksHandlerWithCache(store TaskStore, cache TaskListCache) *TasksHandler {
	return &TasksHandler{store: store, cache: cache}
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	t, err := h.store.Create(cctx, userID, req)

	if err != nil {
		slog.ErrorContext(ctx.Request.Context(), "create task failed", "err", err)
		RespondInternal(ctx, "Could not create task")
		return
	}

	h.invalidate(cctx, userID)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    t,
	})
}

func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if h.cache != nil {
		if tasks, hit := h.cache.GetList(cctx, userID); hit {
			RespondJSONWithETag(ctx, http.StatusOK, tasks)
			return
		}
	}

	tasks, err := h.store.ListByOwner(cctx, userID)

	if err != nil {
		slog.ErrorContext(ctx.Request.Context(), "list tasks failed", "err", err)
		RespondInternal(ctx, "Could not list tasks")
		return
	}

	if h.cache != nil {
		h.cache.SetList(cctx, userID, tasks)
	}

	RespondJSONWithETag(ctx, http.StatusOK, tasks)
}

func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	taskID := ctx.Param("id")

	if uuid.Validate(taskID) != nil {
		RespondBadRequest(ctx, "task id must be a valid UUID", nil)
		return
	}

	var req task.UpdateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	t, err := h.store.Update(cctx, userID, taskID, req)

	if err != nil {
		// A task owned by someone else reads the same as a missing one.
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found or unauthorized")
			return
		}

		slog.ErrorContext(ctx.Request.Context(), "update task failed", "err", err)
		RespondInternal(ctx, "Could not update task")
		return
	}

	h.invalidate(cctx, userID)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully",
		"task":    t,
	})
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	taskID := ctx.Param("id")

	if uuid.Validate(taskID) != nil {
		RespondBadRequest(ctx, "task id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.store.Delete(cctx, userID, taskID)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found or unauthorized")
			return
		}

		slog.ErrorContext(ctx.Request.Context(), "delete task failed", "err", err)
		RespondInternal(ctx, "Could not delete task")
		return
	}

	h.invalidate(cctx, userID)

	// confirmation only, never the deleted payload
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

func (h *TasksHandler) invalidate(ctx context.Context, userID string) {
	if h.cache != nil {
		h.cache.Invalidate(ctx, userID)
	}
}
