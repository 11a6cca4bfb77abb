package security

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domain "todolist/backend/internal/domain/auth"
)

const bearerPrefix = "Bearer "

// Authenticator turns an access token into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (domain.Principal, error)
}

// Gate returns middleware that installs the principal of a valid bearer access token
// into the request context. It never rejects a request: requests without a usable
// token continue anonymously and the authorization policy decides what to do.
func Gate(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidToken) {
					logger.Debug("bearer token not accepted", "path", r.URL.Path)
				} else {
					logger.Warn("resolving principal failed", "path", r.URL.Path, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// BearerToken extracts the token following the "Bearer " prefix of the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
