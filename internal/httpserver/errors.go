package httpserver

import (
	"errors"
	"net/http"

	authdomain "todolist/backend/internal/domain/auth"
	projectdomain "todolist/backend/internal/domain/project"
)

// errorStatus maps a domain error to its HTTP status and the message shown to callers.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, authdomain.ErrDuplicateUser):
		return http.StatusUnprocessableEntity, "User with such username is already registered"
	case errors.Is(err, authdomain.ErrUnknownUser):
		return http.StatusUnauthorized, "Incorrect username"
	case errors.Is(err, authdomain.ErrBadCredentials):
		return http.StatusUnauthorized, "Incorrect password"
	case errors.Is(err, authdomain.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "Invalid refresh token"
	case errors.Is(err, authdomain.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, authdomain.ErrPasswordMismatch):
		return http.StatusNotAcceptable, "New password is not equal to confirmation"
	case errors.Is(err, authdomain.ErrIncorrectPassword):
		return http.StatusNotAcceptable, "Incorrect old password"
	case errors.Is(err, authdomain.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, authdomain.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, errMalformedBody.Error()
	case errors.Is(err, authdomain.ErrValidation),
		errors.Is(err, projectdomain.ErrValidation),
		errors.Is(err, authdomain.ErrInvalidRole):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, projectdomain.ErrProjectNotFound),
		errors.Is(err, projectdomain.ErrTaskNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeDomainError renders err as an error body. It doubles as the policy's deny function.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	switch {
	case status >= http.StatusInternalServerError:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	case errors.Is(err, errMalformedBody):
		s.logger.Debug("malformed request body", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, message)
}
