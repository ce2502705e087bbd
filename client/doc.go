// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package client is a small HTTP client for the validation endpoints.
// Non-2xx responses are returned as *APIError.
package client
