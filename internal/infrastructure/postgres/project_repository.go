package postgres

import (
	"context"
	"errors"

	domain "todolist/backend/internal/domain/project"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProjectRepository persists projects in PostgreSQL.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository constructs a repository.
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

var _ domain.Repository = (*ProjectRepository)(nil)

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	const query = `
INSERT INTO projects (id, owner_id, title, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := r.pool.Exec(ctx, query,
		project.ID,
		project.OwnerID,
		project.Title,
		project.Description,
		project.CreatedAt,
		project.UpdatedAt,
	)
	return err
}

// GetByID fetches a project by id.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	const query = `
SELECT id, owner_id, title, description, created_at, updated_at
FROM projects WHERE id = $1
`
	project, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// ListByOwner returns the projects of one owner, oldest first.
func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Project, error) {
	const query = `
SELECT id, owner_id, title, description, created_at, updated_at
FROM projects
WHERE owner_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []*domain.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// Update writes project changes to the database.
func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	const query = `
UPDATE projects
SET title = $2,
    description = $3,
    updated_at = $4
WHERE id = $1
`
	tag, err := r.pool.Exec(ctx, query,
		project.ID,
		project.Title,
		project.Description,
		project.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

// Delete removes a project and, through the foreign key, its tasks.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
