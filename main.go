// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/quickly-validate/cliparse"
	"github.com/danielhkuo/quickly-validate/db"
	"github.com/danielhkuo/quickly-validate/idempotency"
	"github.com/danielhkuo/quickly-validate/router"
	"github.com/danielhkuo/quickly-validate/store"
)

func main() {
	var err error

	if err := cliparse.LoadEnvFiles(); err != nil {
		slog.Error("Error loading env files", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cliparse.NewLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	dbConn, dialect, err := db.Open(ctx, cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err, "type", cfg.DatabaseType)
		os.Exit(1)
	}

	st := store.New(dbConn, dialect)
	defer st.Close()

	// Apply migrations before accepting traffic
	if err := st.Init(ctx); err != nil {
		slog.Error("schema migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", dialect)

	var guard idempotency.Guard = idempotency.NopGuard{}
	if cfg.RedisAddr != "" {
		rg, err := idempotency.NewRedisGuard(ctx, cfg.RedisAddr, cfg.IdempotencyTTL)
		if err != nil {
			// submission_id uniqueness still dedups replays
			slog.Warn("redis unavailable, submission guard disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer rg.Close()
			guard = rg
			slog.Info("Submission guard enabled", "addr", cfg.RedisAddr, "ttl", cfg.IdempotencyTTL)
		}
	}

	// Create server
	server := http.Server{
		Handler:           router.NewRouter(st, guard),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C or SIGTERM
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
