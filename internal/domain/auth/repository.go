package auth

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for auth users.
type UserRepository interface {
	// Create stores a new user. A taken username yields ErrDuplicateUser.
	Create(ctx context.Context, user *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, filter UserFilter) ([]*User, error)
	UpdateRoles(ctx context.Context, id string, roles []RoleName, updatedAt time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// UserFilter allows narrowing user queries.
type UserFilter struct {
	Role RoleName
}
