package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces every environment override, e.g. TODO_HTTP_PORT -> http.port.
const EnvPrefix = "TODO_"

// MinSecretLength mirrors the HS256 key size enforced by the token manager.
const MinSecretLength = 32

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config centralises runtime configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Database DatabaseConfig `koanf:"database"`
	Storage  StorageConfig  `koanf:"storage"`
	Log      LogConfig      `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
}

type HTTPConfig struct {
	Port           string        `koanf:"port"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
}

type DatabaseConfig struct {
	URL      string `koanf:"url"`
	MaxConns int32  `koanf:"max_conns"`
}

type StorageConfig struct {
	Driver string `koanf:"driver"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type AuthConfig struct {
	Access         TokenConfig `koanf:"access"`
	Refresh        TokenConfig `koanf:"refresh"`
	BcryptCost     int         `koanf:"bcrypt_cost"`
	BootstrapAdmin string      `koanf:"bootstrap_admin"`
}

// TokenConfig describes one token class.
type TokenConfig struct {
	Secret       string `koanf:"secret"`
	ExpirationMs int64  `koanf:"expiration_ms"`
}

// Expiry returns the configured lifetime.
func (t TokenConfig) Expiry() time.Duration {
	return time.Duration(t.ExpirationMs) * time.Millisecond
}

// Addr returns the listen address derived from the port.
func (h HTTPConfig) Addr() string {
	if strings.Contains(h.Port, ":") {
		return h.Port
	}
	return ":" + h.Port
}

var defaults = map[string]any{
	"http.port":                  "8080",
	"http.read_timeout":          15 * time.Second,
	"http.write_timeout":         15 * time.Second,
	"http.idle_timeout":          60 * time.Second,
	"http.allowed_origins":       []string{"*"},
	"database.max_conns":         10,
	"storage.driver":             DriverPostgres,
	"log.level":                  "info",
	"log.format":                 "json",
	"auth.access.expiration_ms":  300000,
	"auth.refresh.expiration_ms": 86400000,
	"auth.bcrypt_cost":           12,
}

// envKeys maps TODO_* variable names onto keys that themselves contain underscores.
var envKeys = func() map[string]string {
	keys := []string{
		"http.port", "http.read_timeout", "http.write_timeout", "http.idle_timeout", "http.allowed_origins",
		"database.url", "database.max_conns", "storage.driver", "log.level", "log.format",
		"auth.access.secret", "auth.access.expiration_ms", "auth.refresh.secret", "auth.refresh.expiration_ms",
		"auth.bcrypt_cost", "auth.bootstrap_admin",
	}
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		out[EnvPrefix+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}
	return out
}()

// Load reads configuration from defaults, optional YAML files, a .env file and
// environment variables, in increasing order of precedence.
func Load(configPaths ...string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	for _, path := range configPaths {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	// Hosting platforms commonly inject these without a prefix.
	fallbacks := map[string]any{}
	if port := os.Getenv("PORT"); port != "" {
		fallbacks["http.port"] = port
	}
	if url := resolveDatabaseURL(); url != "" {
		fallbacks["database.url"] = url
	}
	if len(fallbacks) > 0 {
		if err := k.Load(confmap.Provider(fallbacks, "."), nil); err != nil {
			return Config{}, fmt.Errorf("loading fallbacks: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.HTTP.AllowedOrigins = splitCSV(cfg.HTTP.AllowedOrigins)
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database configuration missing: provide TODO_DATABASE_URL or DATABASE_URL")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	if c.Auth.Access.Secret == "" || c.Auth.Refresh.Secret == "" {
		return errors.New("TODO_AUTH_ACCESS_SECRET and TODO_AUTH_REFRESH_SECRET are required")
	}
	if len(c.Auth.Access.Secret) < MinSecretLength || len(c.Auth.Refresh.Secret) < MinSecretLength {
		return fmt.Errorf("token secrets must be at least %d bytes", MinSecretLength)
	}
	if c.Auth.Access.Secret == c.Auth.Refresh.Secret {
		return errors.New("access and refresh secrets must differ")
	}
	if c.Auth.Access.ExpirationMs <= 0 || c.Auth.Refresh.ExpirationMs <= 0 {
		return errors.New("token expirations must be positive")
	}
	return nil
}

func envKey(name string) string {
	if key, ok := envKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "_", ".")
}

func splitCSV(values []string) []string {
	parts := []string{}
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
	}
	if len(parts) == 0 {
		return []string{"*"}
	}
	return parts
}

func resolveDatabaseURL() string {
	for _, key := range []string{"DATABASE_URL", "POSTGRES_URL", "PGURL"} {
		if coerced := coerceDatabaseURL(os.Getenv(key)); coerced != "" {
			return coerced
		}
	}
	if path := os.Getenv("DATABASE_URL_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return coerceDatabaseURL(string(data))
		}
	}
	return ""
}

func coerceDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "postgresql://"):
		return "postgres://" + strings.TrimPrefix(raw, "postgresql://")
	case strings.HasPrefix(raw, "postgres://"):
		return raw
	default:
		return ""
	}
}
