package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"todolist/backend/internal/config"
	authdomain "todolist/backend/internal/domain/auth"
	"todolist/backend/internal/httpserver"
	"todolist/backend/internal/infrastructure/memory"
	"todolist/backend/internal/infrastructure/password"
	"todolist/backend/internal/infrastructure/token"
	"todolist/backend/internal/platform/telemetry"
	authusecase "todolist/backend/internal/usecase/auth"
	projectusecase "todolist/backend/internal/usecase/project"
	userusecase "todolist/backend/internal/usecase/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	handler http.Handler
	users   *userusecase.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := telemetry.Discard()

	tokens, err := token.NewJWTManager(token.Settings{
		AccessSecret:  "http-test-access-secret-at-least-32-bytes",
		AccessExpiry:  time.Minute,
		RefreshSecret: "http-test-refresh-secret-at-least-32-bytes",
		RefreshExpiry: time.Hour,
	}, token.WithLogger(logger))
	require.NoError(t, err)

	userRepo := memory.NewUserRepository()
	store := memory.NewStore()
	store.CascadeUsers(userRepo)

	services := httpserver.Services{
		Auth:     authusecase.NewService(userRepo, tokens, password.NewBcrypt(bcrypt.MinCost), logger),
		Users:    userusecase.NewService(userRepo, logger),
		Projects: projectusecase.NewService(userRepo, store.Projects(), store.Tasks(), logger),
	}
	srv, err := httpserver.NewServer(config.HTTPConfig{Port: "0", AllowedOrigins: []string{"*"}}, services, logger)
	require.NoError(t, err)
	return &testServer{handler: srv.Handler(), users: services.Users}
}

func (s *testServer) do(t *testing.T, method, path, accessToken string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

type loginBody struct {
	Username     string `json:"username"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *testServer) registerAndLogin(t *testing.T, username, pw string) loginBody {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v0/auth/registration", "", map[string]string{"username": username, "password": pw})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return s.login(t, username, pw)
}

func (s *testServer) login(t *testing.T, username, pw string) loginBody {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v0/auth/login", "", map[string]string{"username": username, "password": pw})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[loginBody](t, w)
}

func TestRegistration(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v0/auth/registration", "", map[string]string{"username": "alice", "password": "pw1"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, []any{"USER"}, body["roles"])
	assert.NotEmpty(t, body["id"])
	assert.NotContains(t, body, "passwordHash")
	assert.NotContains(t, body, "accessToken")

	w = s.do(t, http.MethodPost, "/api/v0/auth/registration", "", map[string]string{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, errorBody{StatusCode: 422, Message: "User with such username is already registered"}, decode[errorBody](t, w))
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, "alice", "pw1")

	w := s.do(t, http.MethodPost, "/api/v0/auth/login", "", map[string]string{"username": "bob", "password": "pw1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Incorrect username", decode[errorBody](t, w).Message)

	w = s.do(t, http.MethodPost, "/api/v0/auth/login", "", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Incorrect password", decode[errorBody](t, w).Message)
}

func TestAccessControl(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerAndLogin(t, "alice", "pw1")
	assert.Equal(t, "alice", alice.Username)

	w := s.do(t, http.MethodGet, "/api/v0/admin", alice.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, errorBody{StatusCode: 403, Message: "Forbidden"}, decode[errorBody](t, w))

	w = s.do(t, http.MethodGet, "/api/v0/hello", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello world!", w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v0/hello", "invalidToken", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v0/helloAuthenticated", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errorBody{StatusCode: 401, Message: "Unauthorized"}, decode[errorBody](t, w))

	w = s.do(t, http.MethodGet, "/api/v0/helloAuthenticated", "invalidToken", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/v0/helloAuthenticated", alice.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/v0/helloAuthenticated", alice.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello Authenticated!", w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v0/users/me", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode[map[string]any](t, w)["username"])

	w = s.do(t, http.MethodGet, "/api/v0/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAfterRoleGrant(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, "root", "pw")
	bob := s.registerAndLogin(t, "bob", "pw")

	require.NoError(t, s.users.EnsureAdmin(context.Background(), "root"))
	root := s.login(t, "root", "pw")

	w := s.do(t, http.MethodGet, "/api/v0/admin", root.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Info Only For Admin!!", w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v0/admin/users?role=USER", root.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	}](t, w)
	require.Len(t, listed.Users, 2)
	assert.NotContains(t, w.Body.String(), "password")

	var bobID string
	for _, u := range listed.Users {
		if u.Username == "bob" {
			bobID = u.ID
		}
	}
	require.NotEmpty(t, bobID)

	w = s.do(t, http.MethodPut, "/api/v0/admin/users/"+bobID+"/roles", bob.AccessToken, map[string]any{"roles": []string{"ADMIN"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/api/v0/admin/users/"+bobID+"/roles", root.AccessToken, map[string]any{"roles": []string{"GUEST"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/v0/admin/users/"+bobID+"/roles", root.AccessToken, map[string]any{"roles": []string{"USER", "ADMIN"}})
	require.Equal(t, http.StatusOK, w.Code)

	// Roles in an already-issued access token are not consulted; the resolver reloads them.
	w = s.do(t, http.MethodGet, "/api/v0/admin", bob.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v0/admin/users/"+bobID, root.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/v0/admin/users/"+bobID, root.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v0/helloAuthenticated", bob.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerAndLogin(t, "alice", "pw1")

	w := s.do(t, http.MethodPost, "/api/v0/auth/refresh", "", map[string]string{"refreshToken": "invalidToken"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errorBody{StatusCode: 401, Message: "Invalid refresh token"}, decode[errorBody](t, w))

	w = s.do(t, http.MethodPost, "/api/v0/auth/refresh", "", map[string]string{"refreshToken": alice.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid refresh token", decode[errorBody](t, w).Message)

	w = s.do(t, http.MethodPost, "/api/v0/auth/refresh", "", map[string]string{"refreshToken": alice.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	pair := decode[map[string]any](t, w)
	assert.NotContains(t, pair, "username")
	access, _ := pair["accessToken"].(string)
	require.NotEmpty(t, access)
	assert.NotEmpty(t, pair["refreshToken"])

	w = s.do(t, http.MethodGet, "/api/v0/helloAuthenticated", access, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChangePasswordEndpoint(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerAndLogin(t, "alice", "pw1")

	w := s.do(t, http.MethodPatch, "/api/v0/auth/change-password", "", map[string]string{
		"oldPassword": "pw1", "newPassword": "pw2", "newPasswordConfirmation": "pw2",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPatch, "/api/v0/auth/change-password", alice.AccessToken, map[string]string{
		"oldPassword": "pw1", "newPassword": "pw2", "newPasswordConfirmation": "pw3",
	})
	assert.Equal(t, http.StatusNotAcceptable, w.Code)
	assert.Equal(t, "New password is not equal to confirmation", decode[errorBody](t, w).Message)

	w = s.do(t, http.MethodPatch, "/api/v0/auth/change-password", alice.AccessToken, map[string]string{
		"oldPassword": "wrong", "newPassword": "pw2", "newPasswordConfirmation": "pw2",
	})
	assert.Equal(t, http.StatusNotAcceptable, w.Code)
	assert.Equal(t, "Incorrect old password", decode[errorBody](t, w).Message)

	w = s.do(t, http.MethodPatch, "/api/v0/auth/change-password", alice.AccessToken, map[string]string{
		"oldPassword": "pw1", "newPassword": "pw2", "newPasswordConfirmation": "pw2",
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, authusecase.PasswordChangedMessage, decode[map[string]string](t, w)["message"])

	s.login(t, "alice", "pw2")

	long := strings.Repeat("x", authdomain.MaxPasswordLength+1)
	w = s.do(t, http.MethodPatch, "/api/v0/auth/change-password", alice.AccessToken, map[string]string{
		"oldPassword": "pw2", "newPassword": long, "newPasswordConfirmation": long,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	s.login(t, "alice", "pw2")
}

func TestRegistration_PasswordTooLong(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v0/auth/registration", "", map[string]string{
		"username": "alice", "password": strings.Repeat("x", authdomain.MaxPasswordLength+1),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	body := decode[errorBody](t, w)
	assert.Equal(t, 400, body.StatusCode)
	assert.Contains(t, body.Message, "at most 72 bytes")

	w = s.do(t, http.MethodPost, "/api/v0/auth/login", "", map[string]string{"username": "alice", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProjectEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerAndLogin(t, "alice", "pw")
	bob := s.registerAndLogin(t, "bob", "pw")

	w := s.do(t, http.MethodPost, "/api/v0/projects", alice.AccessToken, map[string]string{"title": "Home"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	projectID := decode[map[string]any](t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/v0/projects", alice.AccessToken, map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v0/projects/"+projectID, bob.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v0/projects/"+projectID+"/tasks", alice.AccessToken, map[string]string{"title": "Clean"})
	require.Equal(t, http.StatusCreated, w.Code)
	taskID := decode[map[string]any](t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/v0/projects/"+projectID+"/tasks/"+taskID+"/subtasks", alice.AccessToken, map[string]string{"title": "Kitchen"})
	require.Equal(t, http.StatusCreated, w.Code)
	subID := decode[map[string]any](t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/v0/projects/"+projectID+"/tasks/"+subID+"/subtasks", alice.AccessToken, map[string]string{"title": "Sink"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/api/v0/projects/"+projectID+"/tasks/"+subID, alice.AccessToken, map[string]bool{"done": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["done"])

	w = s.do(t, http.MethodGet, "/api/v0/projects/"+projectID+"/tasks/"+taskID+"/subtasks", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	subs := decode[struct {
		Items []map[string]any `json:"items"`
	}](t, w)
	require.Len(t, subs.Items, 1)

	w = s.do(t, http.MethodGet, "/api/v0/projects", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v0/projects/"+projectID, alice.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/v0/projects/"+projectID+"/tasks", alice.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)

	for name, body := range map[string]string{
		"truncated":  "{",
		"wrong type": `{"username": 42, "password": "pw"}`,
		"empty":      "",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v0/auth/login", bytes.NewBufferString(body))
			w := httptest.NewRecorder()
			s.handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, errorBody{StatusCode: 400, Message: "invalid JSON payload"}, decode[errorBody](t, w))
		})
	}
}
