package auth

import domain "todolist/backend/internal/domain/auth"

// TokenManager abstracts token issuance and verification for both token classes.
type TokenManager interface {
	GenerateAccessToken(username string, roles []domain.RoleName) (string, error)
	GenerateRefreshToken(username string) (string, error)
	ValidateAccessToken(token string) bool
	ValidateRefreshToken(token string) bool
	// UsernameFromAccessToken returns the subject without re-checking expiry.
	UsernameFromAccessToken(token string) (string, error)
	UsernameFromRefreshToken(token string) (string, error)
}

// PasswordHasher hashes and compares passwords with a slow, salted algorithm.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Matches(plaintext, digest string) bool
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	Username     string `json:"username,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
