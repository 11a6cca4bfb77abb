package httpserver

import (
	"net/http"

	authdomain "todolist/backend/internal/domain/auth"
	"todolist/backend/internal/security"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.services.Ready != nil {
		if err := s.services.Ready(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHello(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "Hello world!")
}

func (s *Server) handleHelloAuthenticated(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "Hello Authenticated!")
}

func (s *Server) handleAdminInfo(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "Info Only For Admin!!")
}

type registrationResponse struct {
	ID       string                `json:"id"`
	Username string                `json:"username"`
	Roles    []authdomain.RoleName `json:"roles"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	user, err := s.services.Auth.Register(r.Context(), payload.Username, payload.Password)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registrationResponse{
		ID:       user.ID,
		Username: user.Username,
		Roles:    user.Roles,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	pair, err := s.services.Auth.Login(r.Context(), authdomain.Credentials{
		Username: payload.Username,
		Password: payload.Password,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	pair, err := s.services.Auth.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	token, ok := security.BearerToken(r)
	if !ok {
		s.writeDomainError(w, r, authdomain.ErrUnauthorized)
		return
	}

	var payload struct {
		OldPassword             string `json:"oldPassword"`
		NewPassword             string `json:"newPassword"`
		NewPasswordConfirmation string `json:"newPasswordConfirmation"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	message, err := s.services.Auth.ChangePassword(r.Context(), token,
		payload.OldPassword, payload.NewPassword, payload.NewPasswordConfirmation)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, messageResponse{Message: message})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, principal)
}

// principal returns the ambient principal or writes 401.
func (s *Server) principal(w http.ResponseWriter, r *http.Request) (authdomain.Principal, bool) {
	principal, ok := security.PrincipalFromContext(r.Context())
	if !ok {
		s.writeDomainError(w, r, authdomain.ErrUnauthorized)
		return authdomain.Principal{}, false
	}
	return principal, true
}
