// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for CORS and cookie scoping.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds session and password settings.
	Auth AuthConfig

	// Coach holds generative-language provider settings.
	Coach CoachConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so container
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "kindmind").
	User string

	// Password is the MariaDB password (default: "kindmind").
	Password string

	// Name is the database name (default: "kindmind").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// SessionTTL is how long student sessions last before expiring.
	SessionTTL time.Duration

	// TeacherTTL is how long a teacher unlock lasts. Kept short because
	// the teacher credential is a single shared secret.
	TeacherTTL time.Duration

	// DefaultStudentPassword is what a teacher-initiated reset sets a
	// student's password to.
	DefaultStudentPassword string

	// DefaultTeacherPassword seeds the teacher credential on first use.
	DefaultTeacherPassword string
}

// CoachConfig holds generative-language provider settings.
type CoachConfig struct {
	// BaseURL is the provider API root (default: Google Generative Language API).
	BaseURL string

	// Model is the model identifier used for all generation calls.
	Model string

	// APIKey optionally seeds the provider credential from the environment.
	// A key stored by a teacher through the API takes precedence.
	APIKey string

	// Timeout bounds every provider round-trip.
	Timeout time.Duration

	// MaxTurns is the number of user/coach exchanges before a conversation
	// is closed and summarized.
	MaxTurns int

	// DraftTTL is how long an in-flight (unfinished) conversation survives
	// without activity before it is discarded.
	DraftTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "kindmind"),
			Password:        getEnv("DB_PASSWORD", "kindmind"),
			Name:            getEnv("DB_NAME", "kindmind"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SessionTTL:             getEnvDuration("SESSION_TTL", 720*time.Hour),
			TeacherTTL:             getEnvDuration("TEACHER_TTL", 2*time.Hour),
			DefaultStudentPassword: getEnv("DEFAULT_STUDENT_PASSWORD", "password123"),
			DefaultTeacherPassword: getEnv("DEFAULT_TEACHER_PASSWORD", "teacher123"),
		},

		Coach: CoachConfig{
			BaseURL:  getEnv("COACH_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:    getEnv("COACH_MODEL", "gemini-2.0-flash"),
			APIKey:   getEnv("COACH_API_KEY", ""),
			Timeout:  getEnvDuration("COACH_TIMEOUT", 30*time.Second),
			MaxTurns: getEnvInt("COACH_MAX_TURNS", 5),
			DraftTTL: getEnvDuration("COACH_DRAFT_TTL", 2*time.Hour),
		},
	}

	if cfg.Coach.MaxTurns < 1 {
		return nil, fmt.Errorf("COACH_MAX_TURNS must be at least 1")
	}

	// The shipped defaults are fine for a classroom pilot but not for a
	// public deployment. Refuse to start in production with them.
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Auth.DefaultTeacherPassword == "teacher123" {
			return nil, fmt.Errorf("DEFAULT_TEACHER_PASSWORD must be changed in production")
		}
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
