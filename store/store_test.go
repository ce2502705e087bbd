// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-validate/cliparse"
	"github.com/danielhkuo/quickly-validate/db"
	"github.com/danielhkuo/quickly-validate/models"
)

const testCode = "Asamblea de circuito"

func setupStore(t *testing.T) *Store {
	t.Helper()

	conn, dialect, err := db.Open(context.Background(), cliparse.Config{
		DatabaseURL:  ":memory:",
		DatabaseType: cliparse.DatabaseSQLite,
	})
	require.NoError(t, err)

	s := New(conn, dialect)
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr(s string) *string { return &s }

func TestStore_InitIdempotent(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	assert.False(t, s.Ready())
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx))
	assert.True(t, s.Ready())
}

func TestStore_LazyInit(t *testing.T) {
	s := setupStore(t)

	total, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.True(t, s.Ready())
}

func TestStore_Scenario(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	res, err := s.Insert(ctx, models.Validation{Code: testCode, DeviceID: "device_1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, res.Outcome)
	assert.NotZero(t, res.ID)
	assertCount(t, s, 1)

	res, err = s.Insert(ctx, models.Validation{Code: testCode, DeviceID: "device_1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.Zero(t, res.ID)
	assertCount(t, s, 1)

	res, err = s.Insert(ctx, models.Validation{Code: testCode, DeviceID: "device_2"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, res.Outcome)
	assertCount(t, s, 2)

	deleted, err := s.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assertCount(t, s, 0)
}

func TestStore_FreshPairsIncrementByOne(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	pairs := []struct{ code, device string }{
		{testCode, "device_a"},
		{testCode, "device_b"},
		{"Otro código", "device_a"},
		{"Otro código", "device_b"},
	}

	for i, p := range pairs {
		before, err := s.Count(ctx)
		require.NoError(t, err)

		_, err = s.Insert(ctx, models.Validation{Code: p.code, DeviceID: p.device})
		require.NoError(t, err, "pair %d", i)

		assertCount(t, s, before+1)
	}
}

func TestStore_IDsIncrease(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	first, err := s.Insert(ctx, models.Validation{Code: testCode, DeviceID: "device_1"})
	require.NoError(t, err)
	second, err := s.Insert(ctx, models.Validation{Code: testCode, DeviceID: "device_2"})
	require.NoError(t, err)

	assert.Greater(t, second.ID, first.ID)
}

func TestStore_SubmissionTokenReplay(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	token := ptr("5c1b9b5e-4d6c-4d8e-9a3e-0c9e0b3c2a11")

	res, err := s.Insert(ctx, models.Validation{Code: testCode, DeviceID: "device_1", SubmissionID: token})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, res.Outcome)

	// Same token with a different pair is still a replay of the first request
	res, err = s.Insert(ctx, models.Validation{Code: testCode, DeviceID: "device_2", SubmissionID: token})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assertCount(t, s, 1)

	// Requests without tokens never collide on submission_id
	_, err = s.Insert(ctx, models.Validation{Code: testCode, DeviceID: "device_3"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, models.Validation{Code: testCode, DeviceID: "device_4"})
	require.NoError(t, err)
	assertCount(t, s, 3)
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	token := ptr("0b6f1d5e-8a3c-4b1e-9f22-6c7d8e9fa0b1")
	res, err := s.Insert(ctx, models.Validation{Code: testCode, DeviceID: "device_1", SubmissionID: token})
	require.NoError(t, err)

	v, err := s.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, v.ID)
	assert.Equal(t, testCode, v.Code)
	assert.Equal(t, "device_1", v.DeviceID)
	require.NotNil(t, v.SubmissionID)
	assert.Equal(t, *token, *v.SubmissionID)
	assert.False(t, v.CapturedAt.IsZero())

	_, err = s.Get(ctx, res.ID+100)
	assert.Error(t, err)
}

func TestStore_DeleteAllOnEmpty(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	deleted, err := s.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assertCount(t, s, 0)
}

func TestStore_ConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	require.NoError(t, s.Init(ctx))

	const workers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Insert(ctx, models.Validation{Code: testCode, DeviceID: "device_1"})
			if !assert.NoError(t, err) {
				return
			}
			if res.Outcome == OutcomeInserted {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
	assertCount(t, s, 1)
}

func TestStore_ClosedIsError(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Close())

	_, err := s.Insert(ctx, models.Validation{Code: testCode, DeviceID: "device_1"})
	assert.Error(t, err)

	assert.ErrorIs(t, s.Ping(ctx), ErrUnavailable)
}

func assertCount(t *testing.T, s *Store, want int64) {
	t.Helper()
	total, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, total)
}
