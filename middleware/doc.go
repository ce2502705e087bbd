// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP helpers shared by the handlers.

  - WithLogging: logs method, path, status, client IP and duration via slog
  - CORS: reflects the request origin and allows the Idempotency-Key header
  - JSONResponse, ErrorResponse, ErrorWithDetails: JSON writers
  - ParseJSONBody: decodes a bounded request body
  - GetClientIP: X-Forwarded-For, then X-Real-IP, then RemoteAddr
*/
package middleware
