// Package memory provides process-local repositories used when no database is configured.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	domain "todolist/backend/internal/domain/auth"
)

// UserRepository keeps users in a map guarded by a mutex.
type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byUsername map[string]string
	// onDelete is invoked with the user id after a successful delete.
	onDelete func(id string)
}

// NewUserRepository constructs an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]string),
	}
}

var _ domain.UserRepository = (*UserRepository)(nil)

// Create stores a copy of user.
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[user.Username]; taken {
		return domain.ErrDuplicateUser
	}
	r.byID[user.ID] = cloneUser(user)
	r.byUsername[user.Username] = user.ID
	return nil
}

// GetByUsername fetches a user by username.
func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(r.byID[id]), nil
}

// GetByID fetches a user by id.
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

// List returns users matching filter, oldest first.
func (r *UserRepository) List(_ context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.byID))
	for _, user := range r.byID {
		if filter.Role != "" && !user.HasRole(filter.Role) {
			continue
		}
		users = append(users, cloneUser(user))
	}
	slices.SortFunc(users, func(a, b *domain.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Username, b.Username)
	})
	return users, nil
}

// UpdateRoles replaces the role set of a user.
func (r *UserRepository) UpdateRoles(_ context.Context, id string, roles []domain.RoleName, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Roles = slices.Clone(roles)
	user.UpdatedAt = updatedAt
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(_ context.Context, id, passwordHash string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = updatedAt
	return nil
}

// Delete removes a user by id.
func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	user, ok := r.byID[id]
	if ok {
		delete(r.byID, id)
		delete(r.byUsername, user.Username)
	}
	onDelete := r.onDelete
	r.mu.Unlock()

	if !ok {
		return domain.ErrUserNotFound
	}
	if onDelete != nil {
		onDelete(id)
	}
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Roles = slices.Clone(u.Roles)
	return &c
}
