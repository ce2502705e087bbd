// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/quickly-validate/models"
)

// Migration is one versioned schema step.
// A BestEffort migration that fails is logged and left unrecorded so the
// next startup tries it again; it never aborts initialization.
type Migration struct {
	Version    int
	Name       string
	BestEffort bool
	Apply      func(ctx context.Context, tx *sqlx.Tx, d Dialect) error
}

const versionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Migrations is the ordered schema history of the validations table.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create validations table",
		Apply: func(ctx context.Context, tx *sqlx.Tx, d Dialect) error {
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS validations (
				    %s,
				    captured_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				    code TEXT NOT NULL
				)`, d.idColumn()))
			return err
		},
	},
	{
		Version:    2,
		Name:       "add device_id column",
		BestEffort: true,
		Apply: func(ctx context.Context, tx *sqlx.Tx, d Dialect) error {
			exists, err := columnExists(ctx, tx, d, "validations", "device_id")
			if err != nil || exists {
				return err
			}
			_, err = tx.ExecContext(ctx, fmt.Sprintf(`
				ALTER TABLE validations ADD COLUMN device_id TEXT NOT NULL DEFAULT '%s'`, models.LegacyDeviceID))
			return err
		},
	},
	{
		Version: 3,
		Name:    "add submission_id column",
		Apply: func(ctx context.Context, tx *sqlx.Tx, d Dialect) error {
			exists, err := columnExists(ctx, tx, d, "validations", "submission_id")
			if err != nil {
				return err
			}
			if !exists {
				if _, err := tx.ExecContext(ctx, `ALTER TABLE validations ADD COLUMN submission_id TEXT`); err != nil {
					return err
				}
			}
			_, err = tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS uq_validations_submission_id
				ON validations(submission_id)`)
			return err
		},
	},
	{
		Version:    4,
		Name:       "unique code per device",
		BestEffort: true,
		Apply: func(ctx context.Context, tx *sqlx.Tx, d Dialect) error {
			_, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS uq_validations_code_device
				ON validations(code, device_id)`)
			return err
		},
	},
}

// Migrate applies every migration not yet recorded in schema_version.
// Safe to call multiple times.
func Migrate(ctx context.Context, conn *sqlx.DB, d Dialect) error {
	return migrate(ctx, conn, d, Migrations)
}

func migrate(ctx context.Context, conn *sqlx.DB, d Dialect, migrations []Migration) error {
	if _, err := conn.ExecContext(ctx, versionTable); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	applied, err := CurrentVersions(ctx, conn)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		err := applyOne(ctx, conn, d, m)
		if err != nil && m.BestEffort {
			slog.Warn("best-effort migration skipped",
				"version", m.Version,
				"name", m.Name,
				"error", err,
			)
			continue
		}
		if err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}

		slog.Info("migration applied", "version", m.Version, "name", m.Name)
	}

	return nil
}

// CurrentVersions returns the set of migration versions already applied.
func CurrentVersions(ctx context.Context, conn *sqlx.DB) (map[int]bool, error) {
	var versions []int
	if err := conn.SelectContext(ctx, &versions, `SELECT version FROM schema_version`); err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}

	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

func applyOne(ctx context.Context, conn *sqlx.DB, d Dialect, m Migration) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.Apply(ctx, tx, d); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO schema_version (version, name) VALUES (?, ?)`),
		m.Version, m.Name)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func columnExists(ctx context.Context, tx *sqlx.Tx, d Dialect, table, column string) (bool, error) {
	var n int
	if err := tx.GetContext(ctx, &n, d.columnExistsQuery(), table, column); err != nil {
		return false, fmt.Errorf("failed to probe %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}
