package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/codetier/taskhub/internal/domain/task"
	"github.com/codetier/taskhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TasksRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, metrics *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, metrics: metrics}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.metrics == nil {
		return fn()
	}

	return r.metrics.ObserveDB(op, fn)
}

func (r *TasksRepo) Create(ctx context.Context, userID string, req task.CreateTaskRequest) (task.Task, error) {
	t := task.NewFromCreateRequest(userID, req)

	t.ID = uuid.NewString()

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	err := r.observe("tasks.create", func() error {
		_, execErr := r.pool.Exec(
			ctx,
			`INSERT INTO tasks (id, user_id, title, description, status, type, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			t.ID, t.UserID, t.Title, t.Description, t.Status, t.Type, t.CreatedAt, t.UpdatedAt,
		)
		return execErr
	})

	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) ListByOwner(ctx context.Context, userID string) ([]task.Task, error) {
	out := make([]task.Task, 0)

	err := r.observe("tasks.list", func() error {
		rows, queryErr := r.pool.Query(
			ctx,
			`SELECT id, user_id, title, description, status, type, created_at, updated_at
			 FROM tasks
			 WHERE user_id = $1
			 ORDER BY created_at ASC, id ASC`,
			userID,
		)

		if queryErr != nil {
			return queryErr
		}

		defer rows.Close()

		for rows.Next() {
			var t task.Task

			scanErr := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Type, &t.CreatedAt, &t.UpdatedAt)

			if scanErr != nil {
				return scanErr
			}

			out = append(out, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// Update mutates only when both the id and the owner match, in a single
// statement. A task owned by someone else is indistinguishable from one
// that does not exist.
func (r *TasksRepo) Update(ctx context.Context, userID, taskID string, req task.UpdateTaskRequest) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.update", func() error {
		return r.pool.QueryRow(
			ctx,
			`UPDATE tasks
				SET title = COALESCE($3, title),
						description = COALESCE($4, description),
						status = COALESCE($5, status),
						type = COALESCE($6, type),
						updated_at = NOW()
			 WHERE id = $1 AND user_id = $2
			 RETURNING id, user_id, title, description, status, type, created_at, updated_at`,
			taskID,
			userID,
			req.Title,
			req.Description,
			req.Status,
			req.Type,
		).Scan(
			&t.ID,
			&t.UserID,
			&t.Title,
			&t.Description,
			&t.Status,
			&t.Type,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}

		return task.Task{}, err
	}

	return t, nil
}

// Delete uses the same ownership-coupled predicate as Update.
func (r *TasksRepo) Delete(ctx context.Context, userID, taskID string) error {
	var affected int64

	err := r.observe("tasks.delete", func() error {
		tag, execErr := r.pool.Exec(
			ctx,
			`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
			taskID,
			userID,
		)

		if execErr != nil {
			return execErr
		}

		affected = tag.RowsAffected()

		return nil
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return task.ErrNotFound
	}

	return nil
}
