package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	domain "todolist/backend/internal/domain/auth"
)

// Service provides user management use cases for administrative workflows.
type Service struct {
	repo    domain.UserRepository
	nowFunc func() time.Time
	logger  *slog.Logger
}

// NewService constructs a user service around the provided repository.
func NewService(repo domain.UserRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		nowFunc: time.Now,
		logger:  logger,
	}
}

// Filter captures supported filters for listing users.
type Filter struct {
	Role string
}

// List returns users matching the supplied filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*domain.User, error) {
	domainFilter := domain.UserFilter{}
	if trimmed := strings.TrimSpace(filter.Role); trimmed != "" {
		role, err := domain.ParseRole(strings.ToUpper(trimmed))
		if err != nil {
			return nil, err
		}
		domainFilter.Role = role
	}

	users, err := s.repo.List(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	return sanitizeUsers(users), nil
}

// Get retrieves a single user by its identifier.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// SetRoles replaces the role set of a user. The change shows up in tokens
// issued from the next login or refresh onwards.
func (s *Service) SetRoles(ctx context.Context, id string, rawRoles []string) (*domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if len(rawRoles) == 0 {
		return nil, fmt.Errorf("%w: at least one role is required", domain.ErrValidation)
	}
	upper := make([]string, 0, len(rawRoles))
	for _, r := range rawRoles {
		upper = append(upper, strings.ToUpper(strings.TrimSpace(r)))
	}
	roles, err := domain.NormalizeRoles(upper)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRoles(ctx, id, roles, s.nowFunc().UTC()); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user roles replaced", "user_id", id, "roles", domain.RoleStrings(roles))
	return sanitizeUser(user), nil
}

// Delete removes the target user.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", "user_id", id)
	return nil
}

// EnsureAdmin grants ADMIN to an existing user. It is a no-op when username
// is empty, unknown or already an administrator.
func (s *Service) EnsureAdmin(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("bootstrap admin not registered yet", "username", username)
			return nil
		}
		return err
	}
	if user.HasRole(domain.RoleAdmin) {
		return nil
	}

	roles := append(slices.Clone(user.Roles), domain.RoleAdmin)
	slices.Sort(roles)
	if err := s.repo.UpdateRoles(ctx, user.ID, roles, s.nowFunc().UTC()); err != nil {
		return err
	}
	s.logger.Info("bootstrap admin granted", "username", username)
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

func sanitizeUsers(items []*domain.User) []*domain.User {
	out := make([]*domain.User, 0, len(items))
	for _, item := range items {
		out = append(out, sanitizeUser(item))
	}
	return out
}
