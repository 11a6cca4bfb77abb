package httpserver

import (
	"net/http"

	projectusecase "todolist/backend/internal/usecase/project"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principal(w, r)
	if !ok {
		return
	}
	items, err := s.services.Projects.ListProjects(r.Context(), principal.Username)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principal(w, r)
	if !ok {
		return
	}
	var payload projectusecase.CreateProjectInput
	if err := decodeJSON(r, &payload); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	item, err := s.services.Projects.CreateProject(r.Context(), principal.Username, payload)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principal(w, r)
	if !ok {
		return
	}
	item, err := s.services.Projects.GetProject(r.Context(), principal.Username, chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principal(w, r)
	if !ok {
		return
	}
	var payload projectusecase.UpdateProjectInput
	if err := decodeJSON(r, &payload); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	item, err := s.services.Projects.UpdateProject(r.Context(), principal.Username, chi.URLParam(r, "projectID"), payload)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principal(w, r)
	if !ok {
		return
	}
	if err := s.services.Projects.DeleteProject(r.Context(), principal.Username, chi.URLParam(r, "projectID")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principal(w, r)
	if !ok {
		return
	}
	items, err := s.services.Projects.ListTasks(r.Context(), principal.Username, chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principal(w, r)
	if !ok {
		return
	}
	var payload projectusecase.CreateTaskInput
	if err := decodeJSON(r, &payload); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	item, err := s.services.Projects.CreateTask(r.Context(), principal.Username, chi.URLParam(r, "projectID"), payload)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principal(w, r)
	if !ok {
		return
	}
	item, err := s.services.Projects.GetTask(r.Context(), principal.Username,
		chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principal(w, r)
	if !ok {
		return
	}
	var payload projectusecase.UpdateTaskInput
	if err := decodeJSON(r, &payload); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	item, err := s.services.Projects.UpdateTask(r.Context(), principal.Username,
		chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"), payload)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principal(w, r)
	if !ok {
		return
	}
	err := s.services.Projects.DeleteTask(r.Context(), principal.Username,
		chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSubtasks(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principal(w, r)
	if !ok {
		return
	}
	items, err := s.services.Projects.ListSubtasks(r.Context(), principal.Username,
		chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleCreateSubtask(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principal(w, r)
	if !ok {
		return
	}
	var payload projectusecase.CreateTaskInput
	if err := decodeJSON(r, &payload); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	item, err := s.services.Projects.CreateSubtask(r.Context(), principal.Username,
		chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"), payload)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}
