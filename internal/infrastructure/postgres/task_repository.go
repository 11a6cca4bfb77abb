package postgres

import (
	"context"
	"errors"

	domain "todolist/backend/internal/domain/project"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskRepository persists tasks and subtasks in PostgreSQL.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository constructs a repository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

var _ domain.TaskRepository = (*TaskRepository)(nil)

const selectTask = `
SELECT id, project_id, parent_id, title, done, created_at, updated_at
FROM tasks
`

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
INSERT INTO tasks (id, project_id, parent_id, title, done, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.ProjectID,
		task.ParentID,
		task.Title,
		task.Done,
		task.CreatedAt,
		task.UpdatedAt,
	)
	return err
}

// GetByID fetches a task by id.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	task, err := scanTask(r.pool.QueryRow(ctx, selectTask+"WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// ListByProject returns the top-level tasks of a project.
func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	return r.list(ctx, selectTask+"WHERE project_id = $1 AND parent_id IS NULL ORDER BY created_at ASC, id ASC", projectID)
}

// ListByParent returns the subtasks of a task.
func (r *TaskRepository) ListByParent(ctx context.Context, parentID string) ([]*domain.Task, error) {
	return r.list(ctx, selectTask+"WHERE parent_id = $1 ORDER BY created_at ASC, id ASC", parentID)
}

// Update writes task changes to the database.
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	const query = `
UPDATE tasks
SET title = $2,
    done = $3,
    updated_at = $4
WHERE id = $1
`
	tag, err := r.pool.Exec(ctx, query, task.ID, task.Title, task.Done, task.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Delete removes a task; subtasks cascade through the parent_id foreign key.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) list(ctx context.Context, query string, arg string) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.ParentID,
		&t.Title,
		&t.Done,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
