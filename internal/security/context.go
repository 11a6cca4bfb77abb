package security

import (
	"context"

	domain "todolist/backend/internal/domain/auth"
)

type principalContextKey struct{}

// WithPrincipal stores the authenticated principal on the context for downstream handlers.
func WithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext retrieves the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(domain.Principal)
	return principal, ok
}
