package token

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	domain "todolist/backend/internal/domain/auth"
	usecase "todolist/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the HS256 key size in bytes.
const MinSecretLength = 32

// ErrWeakSecret is returned when a signing secret is shorter than MinSecretLength.
var ErrWeakSecret = errors.New("signing secret must be at least 32 bytes")

// Settings holds the secrets and lifetimes of both token classes.
type Settings struct {
	AccessSecret  string
	AccessExpiry  time.Duration
	RefreshSecret string
	RefreshExpiry time.Duration
}

// JWTManager issues and validates access and refresh tokens.
// Each class is signed with its own secret, so a token never validates as the other class.
type JWTManager struct {
	accessSecret  []byte
	accessExpiry  time.Duration
	refreshSecret []byte
	refreshExpiry time.Duration
	nowFunc       func() time.Time
	logger        *slog.Logger
}

// Option customises a JWTManager.
type Option func(*JWTManager)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *JWTManager) {
		m.nowFunc = now
	}
}

// WithLogger sets the logger used to record why tokens were rejected.
func WithLogger(logger *slog.Logger) Option {
	return func(m *JWTManager) {
		m.logger = logger
	}
}

// NewJWTManager constructs a manager from the provided settings.
func NewJWTManager(settings Settings, opts ...Option) (*JWTManager, error) {
	if len(settings.AccessSecret) < MinSecretLength || len(settings.RefreshSecret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if settings.AccessExpiry <= 0 || settings.RefreshExpiry <= 0 {
		return nil, errors.New("token expiry must be positive")
	}

	m := &JWTManager{
		accessSecret:  []byte(settings.AccessSecret),
		accessExpiry:  settings.AccessExpiry,
		refreshSecret: []byte(settings.RefreshSecret),
		refreshExpiry: settings.RefreshExpiry,
		nowFunc:       time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Ensure JWTManager implements the TokenManager interface.
var _ usecase.TokenManager = (*JWTManager)(nil)

// Claims represents token claims.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Issue creates a signed HS256 token for subject that expires after expiry.
// Roles are embedded only when non-empty.
func (m *JWTManager) Issue(subject string, roles []string, expiry time.Duration, secret []byte) (string, error) {
	now := m.nowFunc()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// GenerateAccessToken issues a short-lived token carrying the username and roles.
func (m *JWTManager) GenerateAccessToken(username string, roles []domain.RoleName) (string, error) {
	return m.Issue(username, domain.RoleStrings(roles), m.accessExpiry, m.accessSecret)
}

// GenerateRefreshToken issues a long-lived token carrying only the username.
func (m *JWTManager) GenerateRefreshToken(username string) (string, error) {
	return m.Issue(username, nil, m.refreshExpiry, m.refreshSecret)
}

// Validate reports whether token carries a valid signature for secret and has not expired.
// Malformed input is reported as invalid rather than as an error.
func (m *JWTManager) Validate(tokenString string, secret []byte) bool {
	_, err := m.parse(tokenString, secret, jwt.WithExpirationRequired(), jwt.WithTimeFunc(m.nowFunc))
	if err == nil {
		return true
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		m.logger.Debug("token rejected", "reason", "expired")
	} else {
		m.logger.Debug("token rejected", "reason", "invalid", "error", err)
	}
	return false
}

// ValidateAccessToken validates token against the access secret.
func (m *JWTManager) ValidateAccessToken(tokenString string) bool {
	return m.Validate(tokenString, m.accessSecret)
}

// ValidateRefreshToken validates token against the refresh secret.
func (m *JWTManager) ValidateRefreshToken(tokenString string) bool {
	return m.Validate(tokenString, m.refreshSecret)
}

// UsernameFromToken verifies the signature and returns the subject without checking expiry.
func (m *JWTManager) UsernameFromToken(tokenString string, secret []byte) (string, error) {
	claims, err := m.parse(tokenString, secret, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	return claims.Subject, nil
}

// UsernameFromAccessToken returns the subject of an access token.
func (m *JWTManager) UsernameFromAccessToken(tokenString string) (string, error) {
	return m.UsernameFromToken(tokenString, m.accessSecret)
}

// UsernameFromRefreshToken returns the subject of a refresh token.
func (m *JWTManager) UsernameFromRefreshToken(tokenString string) (string, error) {
	return m.UsernameFromToken(tokenString, m.refreshSecret)
}

func (m *JWTManager) parse(tokenString string, secret []byte, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
	)
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
