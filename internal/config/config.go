package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultJWTSecret is only acceptable outside production.
	DefaultJWTSecret = "dev-secret"

	EnvProduction = "production"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Risk      RiskConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	ProxyHeader           string
	CORSOrigins           string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	TokenTTLMinutes int
	BcryptCost      int
	CookieSecure    bool
	CookieSameSite  string
}

// RateLimitConfig defines per-role request ceilings for the rate governor.
type RateLimitConfig struct {
	Backend       string
	WindowSeconds int
	GuestLimit    int
	UserLimit     int
	AdminLimit    int
	MaxKeys       int
}

// RiskConfig points at the external bot/shield classifier.
type RiskConfig struct {
	ClassifierURL    string
	TimeoutMillis    int
	FailOpen         bool
	BlocklistEnabled bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "acquisitions"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			ProxyHeader:           os.Getenv("APP_PROXY_HEADER"),
			CORSOrigins:           getEnv("APP_CORS_ORIGINS", "*"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("AUTH_JWT_SECRET", DefaultJWTSecret),
			JWTIssuer:       getEnv("AUTH_JWT_ISSUER", "acquisitions"),
			TokenTTLMinutes: getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 24*60),
			BcryptCost:      getEnvAsInt("AUTH_BCRYPT_COST", 10),
			CookieSecure:    getEnvAsBool("AUTH_COOKIE_SECURE", env == EnvProduction),
			CookieSameSite:  getEnv("AUTH_COOKIE_SAMESITE", "Strict"),
		},
		RateLimit: RateLimitConfig{
			Backend:       strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			GuestLimit:    getEnvAsInt("RATE_LIMIT_GUEST", 5),
			UserLimit:     getEnvAsInt("RATE_LIMIT_USER", 10),
			AdminLimit:    getEnvAsInt("RATE_LIMIT_ADMIN", 20),
			MaxKeys:       getEnvAsInt("RATE_LIMIT_MAX_KEYS", 10000),
		},
		Risk: RiskConfig{
			ClassifierURL:    os.Getenv("RISK_CLASSIFIER_URL"),
			TimeoutMillis:    getEnvAsInt("RISK_CLASSIFIER_TIMEOUT_MS", 500),
			FailOpen:         getEnvAsBool("RISK_FAIL_OPEN", true),
			BlocklistEnabled: getEnvAsBool("RISK_BLOCKLIST_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("AUTH_JWT_SECRET must not be empty")
	}
	if c.App.Env == EnvProduction && c.Auth.JWTSecret == DefaultJWTSecret {
		return errors.New("AUTH_JWT_SECRET must be set in production")
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		return fmt.Errorf("invalid AUTH_TOKEN_TTL_MINUTES: %d", c.Auth.TokenTTLMinutes)
	}
	switch strings.ToLower(c.Auth.CookieSameSite) {
	case "strict", "lax":
	default:
		return fmt.Errorf("invalid AUTH_COOKIE_SAMESITE: %q", c.Auth.CookieSameSite)
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if !c.Redis.Enabled {
			return errors.New("RATE_LIMIT_BACKEND=redis requires REDIS_ENABLED")
		}
	default:
		return fmt.Errorf("invalid RATE_LIMIT_BACKEND: %q", c.RateLimit.Backend)
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_WINDOW_SECONDS: %d", c.RateLimit.WindowSeconds)
	}
	for name, limit := range map[string]int{
		"RATE_LIMIT_GUEST": c.RateLimit.GuestLimit,
		"RATE_LIMIT_USER":  c.RateLimit.UserLimit,
		"RATE_LIMIT_ADMIN": c.RateLimit.AdminLimit,
	} {
		if limit <= 0 {
			return fmt.Errorf("invalid %s: %d", name, limit)
		}
	}
	if c.Risk.BlocklistEnabled && !c.Redis.Enabled {
		return errors.New("RISK_BLOCKLIST_ENABLED requires REDIS_ENABLED")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs in production mode.
func (a AppConfig) IsProduction() bool {
	return a.Env == EnvProduction
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the lifetime of issued session tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// Window returns the rolling interval of the rate governor.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// Timeout returns the classifier call budget.
func (r RiskConfig) Timeout() time.Duration {
	if r.TimeoutMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(r.TimeoutMillis) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
