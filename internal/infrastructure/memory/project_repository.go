package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	domain "todolist/backend/internal/domain/project"
)

// Store holds projects and tasks together so deletes can cascade.
type Store struct {
	mu       sync.RWMutex
	projects map[string]*domain.Project
	tasks    map[string]*domain.Task
}

// NewStore constructs an empty project and task store.
func NewStore() *Store {
	return &Store{
		projects: make(map[string]*domain.Project),
		tasks:    make(map[string]*domain.Task),
	}
}

// Projects returns the project repository view of the store.
func (s *Store) Projects() *ProjectRepository { return &ProjectRepository{s: s} }

// Tasks returns the task repository view of the store.
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{s: s} }

// CascadeUsers removes owned projects whenever users deletes a user.
func (s *Store) CascadeUsers(users *UserRepository) {
	users.mu.Lock()
	defer users.mu.Unlock()
	users.onDelete = s.deleteOwner
}

func (s *Store) deleteOwner(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.projects {
		if p.OwnerID == ownerID {
			s.deleteProjectLocked(id)
		}
	}
}

func (s *Store) deleteProjectLocked(id string) {
	delete(s.projects, id)
	for taskID, t := range s.tasks {
		if t.ProjectID == id {
			delete(s.tasks, taskID)
		}
	}
}

// ProjectRepository implements project persistence over a Store.
type ProjectRepository struct {
	s *Store
}

var _ domain.Repository = (*ProjectRepository)(nil)

// Create stores a copy of project.
func (r *ProjectRepository) Create(_ context.Context, project *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *project
	r.s.projects[project.ID] = &c
	return nil
}

// GetByID fetches a project by id.
func (r *ProjectRepository) GetByID(_ context.Context, id string) (*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	c := *p
	return &c, nil
}

// ListByOwner returns the projects of one owner, oldest first.
func (r *ProjectRepository) ListByOwner(_ context.Context, ownerID string) ([]*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Project{}
	for _, p := range r.s.projects {
		if p.OwnerID == ownerID {
			c := *p
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Project) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Update replaces the stored project.
func (r *ProjectRepository) Update(_ context.Context, project *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[project.ID]; !ok {
		return domain.ErrProjectNotFound
	}
	c := *project
	r.s.projects[project.ID] = &c
	return nil
}

// Delete removes a project with all of its tasks.
func (r *ProjectRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return domain.ErrProjectNotFound
	}
	r.s.deleteProjectLocked(id)
	return nil
}

// TaskRepository implements task persistence over a Store.
type TaskRepository struct {
	s *Store
}

var _ domain.TaskRepository = (*TaskRepository)(nil)

// Create stores a copy of task.
func (r *TaskRepository) Create(_ context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tasks[task.ID] = cloneTask(task)
	return nil
}

// GetByID fetches a task by id.
func (r *TaskRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

// ListByProject returns the top-level tasks of a project.
func (r *TaskRepository) ListByProject(_ context.Context, projectID string) ([]*domain.Task, error) {
	return r.filter(func(t *domain.Task) bool {
		return t.ProjectID == projectID && t.ParentID == nil
	}), nil
}

// ListByParent returns the subtasks of a task.
func (r *TaskRepository) ListByParent(_ context.Context, parentID string) ([]*domain.Task, error) {
	return r.filter(func(t *domain.Task) bool {
		return t.ParentID != nil && *t.ParentID == parentID
	}), nil
}

// Update replaces the stored task.
func (r *TaskRepository) Update(_ context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	r.s.tasks[task.ID] = cloneTask(task)
	return nil
}

// Delete removes a task and its subtasks.
func (r *TaskRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.s.tasks, id)
	for taskID, t := range r.s.tasks {
		if t.ParentID != nil && *t.ParentID == id {
			delete(r.s.tasks, taskID)
		}
	}
	return nil
}

func (r *TaskRepository) filter(keep func(*domain.Task) bool) []*domain.Task {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Task{}
	for _, t := range r.s.tasks {
		if keep(t) {
			out = append(out, cloneTask(t))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	if t.ParentID != nil {
		parent := *t.ParentID
		c.ParentID = &parent
	}
	return &c
}
