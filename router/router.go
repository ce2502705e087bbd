// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-validate/handlers"
	"github.com/danielhkuo/quickly-validate/idempotency"
	"github.com/danielhkuo/quickly-validate/middleware"
)

const Banner = "quickly-validate API v1"

// Store is everything the routes need from persistence.
type Store interface {
	handlers.ValidationStore
	Ping(ctx context.Context) error
}

func NewRouter(st Store, guard idempotency.Guard) http.Handler {
	mux := http.NewServeMux()

	validationHandler := handlers.NewValidationHandler(st, guard)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			slog.Warn("health check failed", "error", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Validations
	mux.HandleFunc("POST /validations", middleware.WithLogging(validationHandler.Submit))
	mux.HandleFunc("GET /validations", middleware.WithLogging(validationHandler.Count))

	// Administrative clear; GET only explains how to use it
	mux.HandleFunc("POST /validations/clear", middleware.WithLogging(validationHandler.Clear))
	mux.HandleFunc("GET /validations/clear", middleware.WithLogging(validationHandler.ClearInfo))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(Banner))
	})

	return middleware.CORS(mux)
}
