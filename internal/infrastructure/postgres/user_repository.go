package postgres

import (
	"context"
	"errors"
	"time"

	domain "todolist/backend/internal/domain/auth"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository persists users and their roles in PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ domain.UserRepository = (*UserRepository)(nil)

const selectUser = `
SELECT u.id, u.username, u.password_hash, u.created_at, u.updated_at,
       COALESCE(array_agg(r.role ORDER BY r.role) FILTER (WHERE r.role IS NOT NULL), '{}') AS roles
FROM users u
LEFT JOIN user_roles r ON r.user_id = u.id
`

// Create inserts a new user record together with its roles.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
INSERT INTO users (id, username, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
`
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query,
			user.ID,
			user.Username,
			user.PasswordHash,
			user.CreatedAt,
			user.UpdatedAt,
		); err != nil {
			return err
		}
		return insertRoles(ctx, tx, user.ID, user.Roles)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateUser
		}
		return err
	}
	return nil
}

// GetByUsername fetches a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, selectUser+"WHERE u.username = $1 GROUP BY u.id", username)
	return scanUserRow(row)
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, selectUser+"WHERE u.id = $1 GROUP BY u.id", id)
	return scanUserRow(row)
}

// List returns users filtered by the provided criteria, oldest first.
func (r *UserRepository) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	query := selectUser
	var args []any
	if filter.Role != "" {
		query += "WHERE EXISTS (SELECT 1 FROM user_roles f WHERE f.user_id = u.id AND f.role = $1) "
		args = append(args, string(filter.Role))
	}
	query += "GROUP BY u.id ORDER BY u.created_at ASC, u.username ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateRoles replaces the role set of a user.
func (r *UserRepository) UpdateRoles(ctx context.Context, id string, roles []domain.RoleName, updatedAt time.Time) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `UPDATE users SET updated_at = $2 WHERE id = $1`, id, updatedAt)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
			return err
		}
		return insertRoles(ctx, tx, id, roles)
	})
}

// UpdatePassword updates the stored password hash for a user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `
UPDATE users
SET password_hash = $2, updated_at = $3
WHERE id = $1
`
	ct, err := r.pool.Exec(ctx, query, id, passwordHash, updatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete removes a user by id. Roles and owned projects cascade.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func insertRoles(ctx context.Context, tx pgx.Tx, userID string, roles []domain.RoleName) error {
	batch := &pgx.Batch{}
	for _, role := range roles {
		batch.Queue(`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, string(role))
	}
	if batch.Len() == 0 {
		return nil
	}
	return tx.SendBatch(ctx, batch).Close()
}

func scanUserRow(row pgx.Row) (*domain.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u     domain.User
		roles []string
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
		&roles,
	)
	if err != nil {
		return nil, err
	}
	u.Roles = make([]domain.RoleName, 0, len(roles))
	for _, role := range roles {
		u.Roles = append(u.Roles, domain.RoleName(role))
	}
	return &u, nil
}
