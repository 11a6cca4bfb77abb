package security_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	domain "todolist/backend/internal/domain/auth"
	"todolist/backend/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultPolicy(t *testing.T) *security.Policy {
	t.Helper()
	policy, err := security.NewPolicy(security.DefaultRules()...)
	require.NoError(t, err)
	return policy
}

func TestPolicy_Requirements(t *testing.T) {
	policy := newDefaultPolicy(t)

	cases := []struct {
		method string
		path   string
		want   security.Requirement
	}{
		{http.MethodGet, "/health", security.Public},
		{http.MethodGet, "/api/v0/hello", security.Public},
		{http.MethodPost, "/api/v0/auth/registration", security.Public},
		{http.MethodPost, "/api/v0/auth/login", security.Public},
		{http.MethodPost, "/api/v0/auth/refresh", security.Public},
		{http.MethodGet, "/api/v0/admin", security.Admin},
		{http.MethodGet, "/api/v0/admin/users", security.Admin},
		{http.MethodPut, "/api/v0/admin/users/42/roles", security.Admin},
		{http.MethodPatch, "/api/v0/auth/change-password", security.Authenticated},
		{http.MethodGet, "/api/v0/auth/login", security.Authenticated},
		{http.MethodGet, "/api/v0/projects", security.Authenticated},
		{http.MethodGet, "/unknown", security.Authenticated},
		{http.MethodGet, "/api/v0/hello/../admin", security.Admin},
		{http.MethodGet, "//api/v0/hello", security.Public},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, policy.Requirement(tc.method, tc.path))
		})
	}
}

func TestPolicy_FirstMatchWins(t *testing.T) {
	policy, err := security.NewPolicy(
		security.Rule{Pattern: "/api/v0/admin/public", Requirement: security.Public},
		security.Rule{Pattern: "/api/v0/admin/**", Requirement: security.Admin},
	)
	require.NoError(t, err)

	assert.Equal(t, security.Public, policy.Requirement(http.MethodGet, "/api/v0/admin/public"))
	assert.Equal(t, security.Admin, policy.Requirement(http.MethodGet, "/api/v0/admin/other"))
}

func TestNewPolicy_RejectsBadPattern(t *testing.T) {
	_, err := security.NewPolicy(security.Rule{Pattern: "/api/[", Requirement: security.Public})
	assert.Error(t, err)
}

func TestPolicy_Check(t *testing.T) {
	policy := newDefaultPolicy(t)
	user := &domain.Principal{Username: "alice", Roles: []domain.RoleName{domain.RoleUser}}
	admin := &domain.Principal{Username: "root", Roles: []domain.RoleName{domain.RoleUser, domain.RoleAdmin}}

	assert.NoError(t, policy.Check(http.MethodGet, "/api/v0/hello", nil))
	assert.NoError(t, policy.Check(http.MethodGet, "/api/v0/hello", user))

	assert.ErrorIs(t, policy.Check(http.MethodGet, "/api/v0/projects", nil), domain.ErrUnauthorized)
	assert.NoError(t, policy.Check(http.MethodGet, "/api/v0/projects", user))

	assert.ErrorIs(t, policy.Check(http.MethodGet, "/api/v0/admin", nil), domain.ErrUnauthorized)
	assert.ErrorIs(t, policy.Check(http.MethodGet, "/api/v0/admin", user), domain.ErrForbidden)
	assert.NoError(t, policy.Check(http.MethodGet, "/api/v0/admin", admin))
}

func TestPolicy_EnforceHandsDenialToDenyFunc(t *testing.T) {
	policy := newDefaultPolicy(t)

	var denied error
	deny := func(w http.ResponseWriter, r *http.Request, err error) {
		denied = err
		w.WriteHeader(http.StatusTeapot)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
	}
	handler := policy.Enforce(deny, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v0/admin", nil)
	req = req.WithContext(security.WithPrincipal(req.Context(), domain.Principal{
		Username: "alice",
		Roles:    []domain.RoleName{domain.RoleUser},
	}))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.ErrorIs(t, denied, domain.ErrForbidden)
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestPolicy_EnforceAllowsPublicForAnonymous(t *testing.T) {
	policy := newDefaultPolicy(t)

	handler := policy.Enforce(func(http.ResponseWriter, *http.Request, error) {
		t.Fatal("deny should not be called")
	}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v0/hello", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
