// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and manages the validations schema.

# Connecting

Open validates the connection string, opens an sqlx pool for the configured
dialect and pings it with exponential backoff:

	conn, dialect, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

A missing or malformed DATABASE_URL fails with ErrInvalidDatabaseURL before
any connection attempt.

# Migrations

Migrate applies the versioned steps in Migrations and records each one in
schema_version. Safe to call multiple times.

  - 1: create validations (id, captured_at, code)
  - 2: add device_id, backfilled with 'legacy' (best effort)
  - 3: add submission_id with a unique index
  - 4: unique (code, device_id) (best effort)

Best-effort steps that fail are logged and retried on the next startup.

# Dialects

Postgres (lib/pq) and SQLite (modernc.org/sqlite) are supported. Dialect
hides id column DDL, column probing and unique-violation detection.
*/
package db
