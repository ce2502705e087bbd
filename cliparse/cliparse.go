// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
)

type Config struct {
	Port           int
	DatabaseURL    string
	DatabaseType   string
	MaxOpenConns   int
	ConnectRetries int
	RedisAddr      string
	IdempotencyTTL time.Duration
	LogLevel       string
	LogFormat      string
}

// EnvFiles are loaded in order by LoadEnvFiles. Earlier files win.
var EnvFiles = []string{".env.local", ".env"}

// LoadEnvFiles loads any of EnvFiles that exist. Variables already present
// in the environment are never overridden.
func LoadEnvFiles() error {
	for _, name := range EnvFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// ParseFlags validates flags and falls back to environment variables
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("quickly-validate", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.IntVar(&cfg.MaxOpenConns, "max-open-conns", 0, "Maximum open database connections")
	fs.IntVar(&cfg.ConnectRetries, "connect-retries", -1, "Database connect retries at startup")
	fs.StringVar(&cfg.RedisAddr, "redis", "", "Redis address for submission dedup (optional)")
	fs.DurationVar(&cfg.IdempotencyTTL, "idempotency-ttl", 0, "How long a submission token stays claimed")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", 3318)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = InferDatabaseType(cfg.DatabaseURL)
	}
	cfg.DatabaseType = strings.ToLower(cfg.DatabaseType)
	if cfg.DatabaseType != DatabasePostgres && cfg.DatabaseType != DatabaseSQLite {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.MaxOpenConns == 0 {
		n, err := envInt("DB_MAX_OPEN_CONNS", 10)
		if err != nil {
			return Config{}, err
		}
		cfg.MaxOpenConns = n
	}
	if cfg.ConnectRetries < 0 {
		n, err := envInt("DB_CONNECT_RETRIES", 5)
		if err != nil {
			return Config{}, err
		}
		cfg.ConnectRetries = n
	}

	if cfg.RedisAddr == "" {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	}
	if cfg.IdempotencyTTL == 0 {
		cfg.IdempotencyTTL = 10 * time.Minute
		if s := os.Getenv("IDEMPOTENCY_TTL"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil || d <= 0 {
				return Config{}, errors.New("invalid IDEMPOTENCY_TTL env variable")
			}
			cfg.IdempotencyTTL = d
		}
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = envString("LOG_LEVEL", "info")
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = envString("LOG_FORMAT", "text")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	return cfg, nil
}

// InferDatabaseType picks postgres for postgres:// URLs and sqlite otherwise
func InferDatabaseType(databaseURL string) string {
	lower := strings.ToLower(databaseURL)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DatabasePostgres
	}
	return DatabaseSQLite
}

// ParseLogLevel maps a level name to a slog.Level
func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", level)
	}
	return l, nil
}

// NewLogger builds the process logger described by cfg
func NewLogger(cfg Config) *slog.Logger {
	level, err := ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func envInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", name)
	}
	return n, nil
}

func envString(name, def string) string {
	if s := os.Getenv(name); s != "" {
		return s
	}
	return def
}
