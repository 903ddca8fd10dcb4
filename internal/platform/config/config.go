package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config captures everything cmd/server needs to wire the service. Values come
// from the environment so main stays lean.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string
	LogLevel      slog.Level

	// DocumentRoot is the filesystem root for document storage; temp uploads
	// live under DocumentRoot/temp, promoted files under per-entity folders.
	DocumentRoot string
	// DocumentURLBase prefixes every derived document URL.
	DocumentURLBase string

	// DispatchQueueSize bounds the in-memory audit signal queue.
	DispatchQueueSize int

	// DefaultPageSize is the audit reader's page size when the request does
	// not specify one.
	DefaultPageSize int

	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables, applying development
// defaults for anything unset.
func FromEnv() Config {
	cfg := Config{
		Addr:              envOr("HRCORE_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("HRCORE_DATABASE_URL"),
		RedisURL:          os.Getenv("HRCORE_REDIS_URL"),
		JWTSigningKey:     envOr("HRCORE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		DocumentRoot:      envOr("HRCORE_DOCUMENT_ROOT", "var/documents"),
		DocumentURLBase:   envOr("HRCORE_DOCUMENT_URL_BASE", "http://localhost:8080/files"),
		DispatchQueueSize: envIntOr("HRCORE_DISPATCH_QUEUE_SIZE", 1024),
		DefaultPageSize:   envIntOr("HRCORE_DEFAULT_PAGE_SIZE", 10),
		ShutdownTimeout:   10 * time.Second,
	}

	switch os.Getenv("HRCORE_LOG_LEVEL") {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
