package httpserver

import (
	"net/http"

	userusecase "todolist/backend/internal/usecase/user"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.services.Users.List(r.Context(), userusecase.Filter{
		Role: r.URL.Query().Get("role"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.services.Users.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleAdminSetRoles(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Roles []string `json:"roles"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	user, err := s.services.Users.SetRoles(r.Context(), chi.URLParam(r, "userID"), payload.Roles)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Users.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
