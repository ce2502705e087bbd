// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package idempotency

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-validate/ids"
)

func TestNopGuard(t *testing.T) {
	ctx := context.Background()
	var g Guard = NopGuard{}

	for i := 0; i < 3; i++ {
		state, err := g.Claim(ctx, "same-key")
		require.NoError(t, err)
		assert.Equal(t, Claimed, state)
	}
	assert.NoError(t, g.Complete(ctx, "same-key"))
	assert.NoError(t, g.Release(ctx, "same-key"))
}

func TestParseState(t *testing.T) {
	assert.Equal(t, Done, parseState(valDone))
	assert.Equal(t, Pending, parseState(valPending))
	// values written before states existed were unix timestamps
	assert.Equal(t, Pending, parseState("1735689600"))
	assert.Equal(t, "done", Done.String())
}

func TestRetry(t *testing.T) {
	calls := 0
	err := retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retry(context.Background(), func() error {
		calls++
		return errors.New("down")
	})
	assert.Error(t, err)
	assert.Equal(t, maxRetries+1, calls)
}

func TestRedisGuard(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	g, err := NewRedisGuard(ctx, addr, time.Minute)
	require.NoError(t, err)
	defer g.Close()

	key := ids.NewSubmissionToken()

	state, err := g.Claim(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, Claimed, state, "first claim should win")

	// owner has not stored anything yet
	state, err = g.Claim(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, Pending, state)

	require.NoError(t, g.Complete(ctx, key))
	state, err = g.Claim(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, Done, state)

	require.NoError(t, g.Release(ctx, key))
	state, err = g.Claim(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, Claimed, state, "claim after release should win")

	require.NoError(t, g.Release(ctx, key))
}

func TestNewRedisGuard_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisGuard(ctx, "127.0.0.1:1", time.Minute)
	assert.Error(t, err)
}
