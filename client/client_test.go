// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-validate/idempotency"
	"github.com/danielhkuo/quickly-validate/middleware"
	"github.com/danielhkuo/quickly-validate/router"
	"github.com/danielhkuo/quickly-validate/testutil"
)

func newTestServer(t *testing.T) *Client {
	t.Helper()
	st := testutil.SetupTestStore(t)
	srv := httptest.NewServer(router.NewRouter(st, idempotency.NopGuard{}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithHTTPClient(srv.Client()))
}

func TestClient_EndToEnd(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	resp, err := c.Submit(ctx, "Asamblea de circuito", "device_1", uuid.NewString())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, resp.Duplicate)

	resp, err = c.Submit(ctx, "Asamblea de circuito", "device_1", uuid.NewString())
	require.NoError(t, err)
	assert.True(t, resp.Duplicate)

	total, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	deleted, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	total, err = c.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestClient_RetrySameToken(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)
	token := uuid.NewString()

	_, err := c.Submit(ctx, "code", "device_1", token)
	require.NoError(t, err)

	resp, err := c.Submit(ctx, "code", "device_1", token)
	require.NoError(t, err)
	assert.True(t, resp.Duplicate)
}

func TestClient_ValidationError(t *testing.T) {
	c := newTestServer(t)

	_, err := c.Submit(context.Background(), "", "device_1", "")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "required")
}

func TestClient_ServerErrorDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.ErrorWithDetails(w, http.StatusInternalServerError, "internal server error", "store unavailable")
	}))
	defer srv.Close()

	_, err := New(srv.URL).Count(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "internal server error", apiErr.Message)
	assert.Equal(t, "store unavailable", apiErr.Details)
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Clear(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}
