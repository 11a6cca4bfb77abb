package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domain "todolist/backend/internal/domain/auth"

	"github.com/google/uuid"
)

// PasswordChangedMessage is returned after a successful password change.
const PasswordChangedMessage = "Password was successfully changed"

// Service coordinates authentication workflows between domain and infrastructure.
type Service struct {
	users    domain.UserRepository
	tokens   TokenManager
	hasher   PasswordHasher
	resolver *IdentityResolver
	nowFunc  func() time.Time
	logger   *slog.Logger
}

// NewService constructs an auth service.
func NewService(users domain.UserRepository, tokens TokenManager, hasher PasswordHasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		resolver: NewIdentityResolver(users),
		nowFunc:  time.Now,
		logger:   logger,
	}
}

// Resolver exposes the identity resolver shared with the authentication gate.
func (s *Service) Resolver() *IdentityResolver {
	return s.resolver
}

// Register creates a new user holding the USER role. No tokens are issued.
func (s *Service) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if err := checkPassword(password, "password"); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.nowFunc().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hashed,
		Roles:        []domain.RoleName{domain.RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Uniqueness is enforced by storage and surfaces as domain.ErrDuplicateUser.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return sanitizeUser(user), nil
}

// Login checks credentials and issues a fresh access and refresh token pair.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (*TokenPair, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" {
		return nil, domain.ErrUnknownUser
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnknownUser
		}
		return nil, err
	}

	if !s.hasher.Matches(creds.Password, user.PasswordHash) {
		s.logger.Info("login rejected", "username", username, "reason", "bad credentials")
		return nil, domain.ErrBadCredentials
	}

	principal := domain.Principal{Username: user.Username, Roles: user.Roles}
	pair, err := s.issuePair(principal)
	if err != nil {
		return nil, err
	}
	pair.Username = principal.Username
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair reflecting the user's current roles.
// Refresh tokens are not rotated: the same token may be used until it expires.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if !s.tokens.ValidateRefreshToken(refreshToken) {
		return nil, domain.ErrInvalidRefreshToken
	}

	username, err := s.tokens.UsernameFromRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidRefreshToken
	}

	principal, err := s.resolver.Resolve(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidRefreshToken
		}
		return nil, err
	}

	return s.issuePair(principal)
}

// Authenticate validates an access token and resolves its principal.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (domain.Principal, error) {
	if !s.tokens.ValidateAccessToken(accessToken) {
		return domain.Principal{}, domain.ErrInvalidToken
	}
	username, err := s.tokens.UsernameFromAccessToken(accessToken)
	if err != nil {
		return domain.Principal{}, domain.ErrInvalidToken
	}
	return s.resolver.Resolve(ctx, username)
}

// ChangePassword replaces the password of the access token's subject.
// The token is validated again here rather than trusting an earlier check.
func (s *Service) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword, confirmation string) (string, error) {
	if newPassword != confirmation {
		return "", domain.ErrPasswordMismatch
	}
	if err := checkPassword(newPassword, "new password"); err != nil {
		return "", err
	}

	if !s.tokens.ValidateAccessToken(accessToken) {
		return "", domain.ErrInvalidToken
	}
	username, err := s.tokens.UsernameFromAccessToken(accessToken)
	if err != nil {
		return "", domain.ErrInvalidToken
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidToken
		}
		return "", err
	}

	if !s.hasher.Matches(oldPassword, user.PasswordHash) {
		return "", domain.ErrIncorrectPassword
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashed, s.nowFunc().UTC()); err != nil {
		return "", err
	}

	s.logger.Info("password changed", "user_id", user.ID)
	return PasswordChangedMessage, nil
}

func (s *Service) issuePair(principal domain.Principal) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(principal.Username, principal.Roles)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(principal.Username)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// checkPassword rejects blank passwords and those bcrypt cannot hash.
func checkPassword(password, field string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrValidation, field)
	}
	if len(password) > domain.MaxPasswordLength {
		return fmt.Errorf("%w: %s must be at most %d bytes", domain.ErrValidation, field, domain.MaxPasswordLength)
	}
	return nil
}

func sanitizeUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	copy := *u
	copy.PasswordHash = ""
	return &copy
}
