package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// MaxPasswordLength is the longest password in bytes that bcrypt accepts.
const MaxPasswordLength = 72

var (
	// ErrDuplicateUser signals a registration for a username that is already taken.
	ErrDuplicateUser = errors.New("username already registered")
	// ErrUnknownUser indicates a login attempt for a username that does not exist.
	ErrUnknownUser = errors.New("unknown username")
	// ErrBadCredentials indicates a login attempt with a wrong password.
	ErrBadCredentials = errors.New("incorrect password")
	// ErrInvalidToken covers malformed, tampered, wrong-secret and expired tokens alike.
	ErrInvalidToken = errors.New("token invalid or expired")
	// ErrInvalidRefreshToken is ErrInvalidToken raised while exchanging a refresh token.
	ErrInvalidRefreshToken = fmt.Errorf("refresh %w", ErrInvalidToken)
	// ErrPasswordMismatch indicates the new password and its confirmation differ.
	ErrPasswordMismatch = errors.New("new password does not match confirmation")
	// ErrIncorrectPassword indicates the supplied current password is wrong.
	ErrIncorrectPassword = errors.New("current password does not match")
	// ErrUnauthorized means a protected route was reached without an authenticated principal.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden means the principal lacks the role a route requires.
	ErrForbidden = errors.New("insufficient privileges")
	// ErrUserNotFound indicates missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole indicates the provided role is not supported.
	ErrInvalidRole = errors.New("invalid role")
	// ErrValidation marks caller input that failed validation.
	ErrValidation = errors.New("validation failed")
)

// RoleName identifies the privileges assigned to a user.
type RoleName string

const (
	// RoleUser is granted to every registered user.
	RoleUser RoleName = "USER"
	// RoleAdmin grants access to administrative routes.
	RoleAdmin RoleName = "ADMIN"
)

// ParseRole converts raw input into a RoleName.
func ParseRole(raw string) (RoleName, error) {
	switch role := RoleName(raw); role {
	case RoleUser, RoleAdmin:
		return role, nil
	default:
		return "", ErrInvalidRole
	}
}

// User models the authentication entity persisted in storage.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Roles        []RoleName `json:"roles"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// HasRole reports whether the user currently holds role.
func (u *User) HasRole(role RoleName) bool {
	return slices.Contains(u.Roles, role)
}

// Credentials captures raw credential input for login.
type Credentials struct {
	Username string
	Password string
}

// Principal is the authenticated identity attached to a single request.
type Principal struct {
	Username string     `json:"username"`
	Roles    []RoleName `json:"roles"`
}

// HasRole reports whether the principal holds role.
func (p Principal) HasRole(role RoleName) bool {
	return slices.Contains(p.Roles, role)
}

// RoleStrings renders the role set as plain strings, the form embedded in tokens.
func RoleStrings(roles []RoleName) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

// NormalizeRoles validates, de-duplicates and sorts a role list.
func NormalizeRoles(raw []string) ([]RoleName, error) {
	roles := make([]RoleName, 0, len(raw))
	for _, r := range raw {
		role, err := ParseRole(r)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(roles, role) {
			roles = append(roles, role)
		}
	}
	slices.Sort(roles)
	return roles, nil
}
