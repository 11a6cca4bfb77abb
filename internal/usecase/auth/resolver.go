package auth

import (
	"context"
	"slices"

	domain "todolist/backend/internal/domain/auth"
)

// UserFinder is the lookup the resolver needs from storage.
type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// IdentityResolver maps a username to its current principal.
type IdentityResolver struct {
	users UserFinder
}

// NewIdentityResolver constructs a resolver backed by users.
func NewIdentityResolver(users UserFinder) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve loads the user and returns its principal. Lookup errors, including
// domain.ErrUserNotFound, are returned unchanged.
func (r *IdentityResolver) Resolve(ctx context.Context, username string) (domain.Principal, error) {
	user, err := r.users.GetByUsername(ctx, username)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{
		Username: user.Username,
		Roles:    slices.Clone(user.Roles),
	}, nil
}
