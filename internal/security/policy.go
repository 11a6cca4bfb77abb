package security

import (
	"fmt"
	"log/slog"
	"net/http"
	"path"

	domain "todolist/backend/internal/domain/auth"

	"github.com/bmatcuk/doublestar/v4"
)

// Requirement is the principal state a route demands.
type Requirement int

const (
	// Authenticated requires any principal. It is the default for unmatched routes.
	Authenticated Requirement = iota
	// Public admits anonymous callers.
	Public
	// Admin requires a principal holding the ADMIN role.
	Admin
)

func (r Requirement) String() string {
	switch r {
	case Public:
		return "public"
	case Admin:
		return "role:" + string(domain.RoleAdmin)
	default:
		return "authenticated"
	}
}

// Rule maps a method and doublestar path pattern to a requirement.
// An empty Method matches every method.
type Rule struct {
	Method      string
	Pattern     string
	Requirement Requirement
}

// DefaultRules is the route table of the API. The first matching rule wins.
func DefaultRules() []Rule {
	return []Rule{
		{Method: http.MethodGet, Pattern: "/health", Requirement: Public},
		{Method: http.MethodGet, Pattern: "/api/v0/hello", Requirement: Public},
		{Method: http.MethodPost, Pattern: "/api/v0/auth/registration", Requirement: Public},
		{Method: http.MethodPost, Pattern: "/api/v0/auth/login", Requirement: Public},
		{Method: http.MethodPost, Pattern: "/api/v0/auth/refresh", Requirement: Public},
		{Method: http.MethodGet, Pattern: "/api/v0/admin", Requirement: Admin},
		{Pattern: "/api/v0/admin/**", Requirement: Admin},
	}
}

// Policy is an ordered, immutable route table consulted after authentication.
type Policy struct {
	rules []Rule
}

// NewPolicy validates the rule patterns and builds a policy.
func NewPolicy(rules ...Rule) (*Policy, error) {
	for _, rule := range rules {
		if !doublestar.ValidatePattern(rule.Pattern) {
			return nil, fmt.Errorf("invalid route pattern %q", rule.Pattern)
		}
	}
	return &Policy{rules: append([]Rule(nil), rules...)}, nil
}

// Requirement returns the requirement of the first rule matching method and path.
func (p *Policy) Requirement(method, urlPath string) Requirement {
	cleaned := path.Clean("/" + urlPath)
	for _, rule := range p.rules {
		if rule.Method != "" && rule.Method != method {
			continue
		}
		if ok, err := doublestar.Match(rule.Pattern, cleaned); err == nil && ok {
			return rule.Requirement
		}
	}
	return Authenticated
}

// Check decides whether principal may call method on path. A nil principal is anonymous.
// It returns domain.ErrUnauthorized or domain.ErrForbidden on denial.
func (p *Policy) Check(method, urlPath string, principal *domain.Principal) error {
	switch p.Requirement(method, urlPath) {
	case Public:
		return nil
	case Admin:
		if principal == nil {
			return domain.ErrUnauthorized
		}
		if !principal.HasRole(domain.RoleAdmin) {
			return domain.ErrForbidden
		}
		return nil
	default:
		if principal == nil {
			return domain.ErrUnauthorized
		}
		return nil
	}
}

// DenyFunc renders a policy denial.
type DenyFunc func(w http.ResponseWriter, r *http.Request, err error)

// Enforce returns middleware that consults the policy with the principal installed by Gate.
// Denials are handed to deny; the policy itself writes nothing.
func (p *Policy) Enforce(deny DenyFunc, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var principal *domain.Principal
			if pr, ok := PrincipalFromContext(r.Context()); ok {
				principal = &pr
			}

			if err := p.Check(r.Method, r.URL.Path, principal); err != nil {
				username := ""
				if principal != nil {
					username = principal.Username
				}
				logger.Info("access denied",
					"method", r.Method,
					"path", r.URL.Path,
					"username", username,
					"reason", err.Error(),
				)
				deny(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
