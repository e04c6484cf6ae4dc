package task

import (
	"errors"
	"time"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"

	TypeEasy   = "easy"
	TypeMedium = "medium"
	TypeHard   = "hard"
)

type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ErrNotFound deliberately covers both "no such task" and "task owned by
// someone else" so the API never leaks existence of other users' data.
var ErrNotFound = errors.New("task not found or unauthorized")

// Defaults apply only when a field is omitted entirely; an explicit
// unknown status/type is a binding error, never silently replaced.
type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Status      string `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Type        string `json:"type" binding:"omitempty,oneof=easy medium hard"`
}

// Partial update: nil fields keep their stored value.
type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Status      *string `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Type        *string `json:"type" binding:"omitempty,oneof=easy medium hard"`
}

// NewFromCreateRequest fills in defaults for omitted fields. IDs and
// timestamps are assigned by the repository.
func NewFromCreateRequest(userID string, req CreateTaskRequest) Task {
	t := Task{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Type:        req.Type,
	}

	if t.Status == "" {
		t.Status = StatusPending
	}

	if t.Type == "" {
		t.Type = TypeMedium
	}

	return t
}
