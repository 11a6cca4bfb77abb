package project

import "context"

// Repository defines persistence behaviours for projects.
type Repository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Project, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id string) error
}

// TaskRepository defines persistence behaviours for tasks and subtasks.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	// ListByProject returns the top-level tasks of a project.
	ListByProject(ctx context.Context, projectID string) ([]*Task, error)
	ListByParent(ctx context.Context, parentID string) ([]*Task, error)
	Update(ctx context.Context, task *Task) error
	// Delete removes a task together with its subtasks.
	Delete(ctx context.Context, id string) error
}
