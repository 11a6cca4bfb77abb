package project

import (
	"errors"
	"time"
)

var (
	// ErrProjectNotFound indicates a project could not be located for the caller.
	ErrProjectNotFound = errors.New("project not found")
	// ErrTaskNotFound indicates a task could not be located within its project.
	ErrTaskNotFound = errors.New("task not found")
	// ErrValidation marks project or task input that failed validation.
	ErrValidation = errors.New("validation failed")
)

// Project groups the tasks of a single owner.
type Project struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Update applies optional field changes to the project.
func (p *Project) Update(title, description *string, now time.Time) {
	if title != nil {
		p.Title = *title
	}
	if description != nil {
		p.Description = *description
	}
	p.UpdatedAt = now
}

// Task is a to-do item. A task with a ParentID is a subtask of that task.
type Task struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	ParentID  *string   `json:"parentId,omitempty"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsSubtask reports whether the task hangs off another task.
func (t *Task) IsSubtask() bool {
	return t.ParentID != nil
}

// Update applies optional field changes to the task.
func (t *Task) Update(title *string, done *bool, now time.Time) {
	if title != nil {
		t.Title = *title
	}
	if done != nil {
		t.Done = *done
	}
	t.UpdatedAt = now
}
