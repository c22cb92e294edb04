// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Query    QueryConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	CORS     CORSConfig
	Logging  LoggingConfig
	Archive  ArchiveConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on. PORT is honoured for PaaS deployments.
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"4000"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig selects where sales records live.
type StoreConfig struct {
	// Backend is one of: memory, file, postgres, sqlite (default: memory)
	Backend string `env:"STORE_BACKEND" default:"memory"`

	// FilePath is the JSON document used by the file backend.
	FilePath string `env:"STORE_FILE_PATH" default:"data/sales.json"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `env:"STORE_SQLITE_PATH" default:"data/sales.db"`

	// SeedFile is an optional CSV imported at startup when the store is empty.
	SeedFile string `env:"STORE_SEED_FILE"`
}

// DatabaseConfig holds PostgreSQL connection settings for the postgres backend.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required for the postgres backend.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// UploadConfig holds CSV import settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxJSONSize caps the body of the JSON import endpoint (default: 10MB)
	MaxJSONSize int64 `env:"UPLOAD_MAX_JSON_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel CSV imports (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// BatchSize is the number of records appended per store call (default: 1000)
	BatchSize int `env:"UPLOAD_BATCH_SIZE" default:"1000"`

	// Timeout bounds a single import, parse and append included (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m"`
}

// QueryConfig holds paging limits for the query endpoints.
type QueryConfig struct {
	DefaultPageSize int `env:"QUERY_DEFAULT_PAGE_SIZE" default:"10"`

	// MaxPageSize caps pageSize from clients (default: 500)
	MaxPageSize int `env:"QUERY_MAX_PAGE_SIZE" default:"500"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// UploadLimit is requests per minute for import endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" default:"*"`
	AllowedMethods []string      `env:"CORS_ALLOWED_METHODS" default:"GET,POST,OPTIONS"`
	AllowedHeaders []string      `env:"CORS_ALLOWED_HEADERS" default:"Accept,Content-Type,X-Request-Id"`
	MaxAge         time.Duration `env:"CORS_MAX_AGE" default:"5m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ArchiveConfig selects where raw uploaded CSV files are kept.
type ArchiveConfig struct {
	// Type is one of: none, local, s3 (default: none)
	Type string `env:"ARCHIVE_TYPE" default:"none"`

	LocalDir string `env:"ARCHIVE_LOCAL_DIR" default:"data/uploads"`

	S3Bucket       string `env:"ARCHIVE_S3_BUCKET"`
	S3Region       string `env:"ARCHIVE_S3_REGION" envAlt:"AWS_REGION" default:"us-east-1"`
	S3Endpoint     string `env:"ARCHIVE_S3_ENDPOINT"`
	S3AccessKey    string `env:"ARCHIVE_S3_ACCESS_KEY"`
	S3SecretKey    string `env:"ARCHIVE_S3_SECRET_KEY"`
	S3Prefix       string `env:"ARCHIVE_S3_PREFIX" default:"uploads/"`
	S3UsePathStyle bool   `env:"ARCHIVE_S3_USE_PATH_STYLE" default:"true"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Archive types.
const (
	ArchiveNone  = "none"
	ArchiveLocal = "local"
	ArchiveS3    = "s3"
)
