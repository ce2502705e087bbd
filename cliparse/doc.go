// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

LoadEnvFiles reads .env.local and .env (missing files are skipped, existing
environment variables win). ParseFlags then returns a Config:

	if err := cliparse.LoadEnvFiles(); err != nil {
		return err
	}
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

	-p                PORT               Server port (default 3318)
	-d                DATABASE_URL       Postgres URL or SQLite path (required)
	-t                DATABASE_TYPE      postgres or sqlite (inferred from -d)
	-redis            REDIS_ADDR         Submission guard address (optional)
	-idempotency-ttl  IDEMPOTENCY_TTL    Guard key lifetime (default 10m)
	-max-open-conns   DB_MAX_OPEN_CONNS  Pool size for postgres (default 10)
	-connect-retries  DB_CONNECT_RETRIES Startup ping retries (default 5)
	-log-level        LOG_LEVEL          debug, info, warn or error
	-log-format       LOG_FORMAT         text or json

CLI flags take precedence over environment variables.

# Logging

NewLogger builds the slog.Logger main installs as the default.
*/
package cliparse
