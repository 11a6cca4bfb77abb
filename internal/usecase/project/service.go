package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	authdomain "todolist/backend/internal/domain/auth"
	domain "todolist/backend/internal/domain/project"

	"github.com/google/uuid"
)

// OwnerFinder resolves the account behind an authenticated username.
type OwnerFinder interface {
	GetByUsername(ctx context.Context, username string) (*authdomain.User, error)
}

// Service encapsulates project, task and subtask use cases.
// Every operation is scoped to the projects owned by the calling user; other
// users' projects are reported as not found.
type Service struct {
	owners   OwnerFinder
	projects domain.Repository
	tasks    domain.TaskRepository
	nowFunc  func() time.Time
	logger   *slog.Logger
}

// NewService constructs a project service.
func NewService(owners OwnerFinder, projects domain.Repository, tasks domain.TaskRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		owners:   owners,
		projects: projects,
		tasks:    tasks,
		nowFunc:  time.Now,
		logger:   logger,
	}
}

// CreateProjectInput contains the payload required for project creation.
type CreateProjectInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateProjectInput encapsulates partial project updates.
type UpdateProjectInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// CreateTaskInput contains the payload for task and subtask creation.
type CreateTaskInput struct {
	Title string `json:"title"`
}

// UpdateTaskInput encapsulates partial task updates.
type UpdateTaskInput struct {
	Title *string `json:"title"`
	Done  *bool   `json:"done"`
}

// CreateProject stores a new project owned by username.
func (s *Service) CreateProject(ctx context.Context, username string, input CreateProjectInput) (*domain.Project, error) {
	ownerID, err := s.ownerID(ctx, username)
	if err != nil {
		return nil, err
	}
	title, err := requireTitle(input.Title)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc().UTC()
	project := &domain.Project{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Debug("project created", "project_id", project.ID, "owner_id", ownerID)
	return project, nil
}

// ListProjects returns the caller's projects.
func (s *Service) ListProjects(ctx context.Context, username string) ([]*domain.Project, error) {
	ownerID, err := s.ownerID(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.projects.ListByOwner(ctx, ownerID)
}

// GetProject fetches one of the caller's projects.
func (s *Service) GetProject(ctx context.Context, username, id string) (*domain.Project, error) {
	return s.ownedProject(ctx, username, id)
}

// UpdateProject applies partial updates to one of the caller's projects.
func (s *Service) UpdateProject(ctx context.Context, username, id string, input UpdateProjectInput) (*domain.Project, error) {
	project, err := s.ownedProject(ctx, username, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title, err := requireTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		input.Title = &title
	}

	project.Update(input.Title, input.Description, s.nowFunc().UTC())
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject removes one of the caller's projects with all of its tasks.
func (s *Service) DeleteProject(ctx context.Context, username, id string) error {
	project, err := s.ownedProject(ctx, username, id)
	if err != nil {
		return err
	}
	return s.projects.Delete(ctx, project.ID)
}

// CreateTask adds a top-level task to a project.
func (s *Service) CreateTask(ctx context.Context, username, projectID string, input CreateTaskInput) (*domain.Task, error) {
	project, err := s.ownedProject(ctx, username, projectID)
	if err != nil {
		return nil, err
	}
	return s.createTask(ctx, project.ID, nil, input)
}

// ListTasks returns the top-level tasks of a project.
func (s *Service) ListTasks(ctx context.Context, username, projectID string) ([]*domain.Task, error) {
	project, err := s.ownedProject(ctx, username, projectID)
	if err != nil {
		return nil, err
	}
	return s.tasks.ListByProject(ctx, project.ID)
}

// GetTask fetches a task or subtask of a project.
func (s *Service) GetTask(ctx context.Context, username, projectID, taskID string) (*domain.Task, error) {
	return s.ownedTask(ctx, username, projectID, taskID)
}

// UpdateTask applies partial updates to a task or subtask.
func (s *Service) UpdateTask(ctx context.Context, username, projectID, taskID string, input UpdateTaskInput) (*domain.Task, error) {
	task, err := s.ownedTask(ctx, username, projectID, taskID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title, err := requireTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		input.Title = &title
	}

	task.Update(input.Title, input.Done, s.nowFunc().UTC())
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task together with its subtasks.
func (s *Service) DeleteTask(ctx context.Context, username, projectID, taskID string) error {
	task, err := s.ownedTask(ctx, username, projectID, taskID)
	if err != nil {
		return err
	}
	return s.tasks.Delete(ctx, task.ID)
}

// CreateSubtask adds a subtask below a top-level task. Subtasks cannot be nested further.
func (s *Service) CreateSubtask(ctx context.Context, username, projectID, taskID string, input CreateTaskInput) (*domain.Task, error) {
	parent, err := s.ownedTask(ctx, username, projectID, taskID)
	if err != nil {
		return nil, err
	}
	if parent.IsSubtask() {
		return nil, fmt.Errorf("%w: subtasks cannot have subtasks", domain.ErrValidation)
	}
	return s.createTask(ctx, parent.ProjectID, &parent.ID, input)
}

// ListSubtasks returns the subtasks of a task.
func (s *Service) ListSubtasks(ctx context.Context, username, projectID, taskID string) ([]*domain.Task, error) {
	parent, err := s.ownedTask(ctx, username, projectID, taskID)
	if err != nil {
		return nil, err
	}
	return s.tasks.ListByParent(ctx, parent.ID)
}

func (s *Service) createTask(ctx context.Context, projectID string, parentID *string, input CreateTaskInput) (*domain.Task, error) {
	title, err := requireTitle(input.Title)
	if err != nil {
		return nil, err
	}
	now := s.nowFunc().UTC()
	task := &domain.Task{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		ParentID:  parentID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) ownerID(ctx context.Context, username string) (string, error) {
	owner, err := s.owners.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, authdomain.ErrUserNotFound) {
			return "", authdomain.ErrUnauthorized
		}
		return "", err
	}
	return owner.ID, nil
}

func (s *Service) ownedProject(ctx context.Context, username, id string) (*domain.Project, error) {
	ownerID, err := s.ownerID(ctx, username)
	if err != nil {
		return nil, err
	}
	project, err := s.projects.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if project.OwnerID != ownerID {
		return nil, domain.ErrProjectNotFound
	}
	return project, nil
}

func (s *Service) ownedTask(ctx context.Context, username, projectID, taskID string) (*domain.Task, error) {
	project, err := s.ownedProject(ctx, username, projectID)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, strings.TrimSpace(taskID))
	if err != nil {
		return nil, err
	}
	if task.ProjectID != project.ID {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func requireTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	return title, nil
}
