// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/quickly-validate/cliparse"
)

var ErrInvalidDatabaseURL = errors.New("invalid database URL")

// ValidateURL checks that a connection string is usable for the dialect.
// Postgres URLs must name a user, a host and a database.
func ValidateURL(d Dialect, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidDatabaseURL)
	}
	if d != Postgres {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDatabaseURL, err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("%w: scheme must be postgres", ErrInvalidDatabaseURL)
	}
	if u.User == nil || u.User.Username() == "" {
		return fmt.Errorf("%w: missing user", ErrInvalidDatabaseURL)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidDatabaseURL)
	}
	if strings.Trim(u.Path, "/") == "" {
		return fmt.Errorf("%w: missing database name", ErrInvalidDatabaseURL)
	}
	return nil
}

// Open connects to the configured database and verifies the connection,
// retrying with exponential backoff up to cfg.ConnectRetries times.
func Open(ctx context.Context, cfg cliparse.Config) (*sqlx.DB, Dialect, error) {
	d, err := ParseDialect(cfg.DatabaseType)
	if err != nil {
		return nil, "", err
	}
	if err := ValidateURL(d, cfg.DatabaseURL); err != nil {
		return nil, "", err
	}

	conn, err := sqlx.Open(d.DriverName(), cfg.DatabaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("database open failed: %w", err)
	}

	if d == SQLite {
		// one writer; also keeps :memory: databases on a single connection
		conn.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			conn.SetMaxOpenConns(cfg.MaxOpenConns)
			conn.SetMaxIdleConns(cfg.MaxOpenConns)
		}
		conn.SetConnMaxIdleTime(5 * time.Minute)
	}

	retries := cfg.ConnectRetries
	if retries < 0 {
		retries = 0
	}
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(retries)),
		ctx,
	)
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := conn.PingContext(ctx); err != nil {
			slog.Warn("database ping failed", "attempt", attempt, "error", err)
			return err
		}
		return nil
	}, bo)
	if err != nil {
		conn.Close()
		return nil, "", fmt.Errorf("database ping failed: %w", err)
	}

	return conn, d, nil
}
