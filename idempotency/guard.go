// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// ClaimState is the result of claiming a submission token.
type ClaimState int

const (
	// Claimed means the caller now owns the token and must Complete or Release it.
	Claimed ClaimState = iota
	// Pending means another request owns the token and has not finished.
	Pending
	// Done means a request with this token already stored its record.
	Done
)

func (c ClaimState) String() string {
	switch c {
	case Claimed:
		return "claimed"
	case Pending:
		return "pending"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("ClaimState(%d)", int(c))
	}
}

// Guard claims submission tokens so that a replayed request can be
// answered without touching the store. Only Done may be reported as a duplicate.
type Guard interface {
	Claim(ctx context.Context, key string) (ClaimState, error)
	// Complete marks the token as stored.
	Complete(ctx context.Context, key string) error
	// Release gives up a claim, typically after the guarded operation failed.
	Release(ctx context.Context, key string) error
}

// NopGuard claims every key. Used when no Redis is configured.
type NopGuard struct{}

func (NopGuard) Claim(context.Context, string) (ClaimState, error) { return Claimed, nil }
func (NopGuard) Complete(context.Context, string) error            { return nil }
func (NopGuard) Release(context.Context, string) error             { return nil }

const (
	keyPrefix  = "quickly-validate:submission:"
	valPending = "pending"
	valDone    = "done"
	maxRetries = 2
	retryWait  = 50 * time.Millisecond
)

// RedisGuard stores claims as expiring keys.
type RedisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisGuard connects to addr and verifies the connection.
func NewRedisGuard(ctx context.Context, addr string, ttl time.Duration) (*RedisGuard, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisGuard{rdb: rdb, ttl: ttl}, nil
}

// Claim sets the key to pending if absent. When the key exists its value
// decides between Pending and Done; a lost SETNX reply therefore reads back
// as Pending, never as a duplicate.
func (g *RedisGuard) Claim(ctx context.Context, key string) (ClaimState, error) {
	state := Pending
	err := retry(ctx, func() error {
		ok, err := g.rdb.SetNX(ctx, keyPrefix+key, valPending, g.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			state = Claimed
			return nil
		}

		val, err := g.rdb.Get(ctx, keyPrefix+key).Result()
		if errors.Is(err, redis.Nil) {
			// released between the two calls; try again
			return errors.New("submission token released during claim")
		}
		if err != nil {
			return err
		}
		state = parseState(val)
		return nil
	})
	if err != nil {
		return Pending, fmt.Errorf("claim submission token: %w", err)
	}
	return state, nil
}

// Complete marks the key as done, keeping the claim TTL.
func (g *RedisGuard) Complete(ctx context.Context, key string) error {
	err := retry(ctx, func() error {
		return g.rdb.Set(ctx, keyPrefix+key, valDone, g.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("complete submission token: %w", err)
	}
	return nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	err := retry(ctx, func() error {
		return g.rdb.Del(ctx, keyPrefix+key).Err()
	})
	if err != nil {
		return fmt.Errorf("release submission token: %w", err)
	}
	return nil
}

func (g *RedisGuard) Close() error {
	return g.rdb.Close()
}

func parseState(val string) ClaimState {
	if val == valDone {
		return Done
	}
	return Pending
}

func retry(ctx context.Context, op func() error) error {
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryWait), maxRetries),
		ctx,
	)
	return backoff.Retry(op, bo)
}
