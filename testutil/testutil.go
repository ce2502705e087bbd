// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-validate/cliparse"
	"github.com/danielhkuo/quickly-validate/db"
	"github.com/danielhkuo/quickly-validate/store"
)

// TestDBURL keeps every test database in memory and private to one store
const TestDBURL = ":memory:"

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseURL:    TestDBURL,
		DatabaseType:   cliparse.DatabaseSQLite,
		MaxOpenConns:   1,
		ConnectRetries: 0,
		IdempotencyTTL: 10 * time.Minute,
		LogLevel:       "error",
		LogFormat:      "text",
	}
}

// SetupTestStore opens a fresh, fully migrated store. It is closed when the test ends.
func SetupTestStore(t *testing.T) *store.Store {
	t.Helper()

	ctx := context.Background()
	conn, dialect, err := db.Open(ctx, GetTestConfig())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	s := store.New(conn, dialect)
	if err := s.Init(ctx); err != nil {
		conn.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	case string:
		req = httptest.NewRequest(method, path, bytes.NewBufferString(b))
		req.Header.Set("Content-Type", "application/json")
	default:
		jsonBody, _ := json.Marshal(b)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
