// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/quickly-validate/db"
	"github.com/danielhkuo/quickly-validate/models"
)

// ErrUnavailable wraps failures to reach or initialize the database.
var ErrUnavailable = errors.New("store unavailable")

// Outcome is the result of an insert attempt
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeDuplicate
)

func (o Outcome) String() string {
	if o == OutcomeDuplicate {
		return "duplicate"
	}
	return "inserted"
}

type InsertResult struct {
	Outcome Outcome
	ID      int64 // zero for duplicates
}

// Store persists validation records. The schema is migrated on the first
// call to Init (explicit or lazy) and the readiness is cached per instance.
type Store struct {
	db      *sqlx.DB
	dialect db.Dialect

	mu    sync.Mutex
	ready bool
}

func New(conn *sqlx.DB, dialect db.Dialect) *Store {
	return &Store{db: conn, dialect: dialect}
}

// Init migrates the schema once. Safe to call multiple times; a failed
// attempt is retried on the next call.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}
	if err := db.Migrate(ctx, s.db, s.dialect); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.ready = true
	return nil
}

// Ready reports whether Init has completed successfully.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Insert records a validation. A row rejected by the (code, device_id) or
// submission_id unique constraint yields OutcomeDuplicate, not an error.
func (s *Store) Insert(ctx context.Context, v models.Validation) (InsertResult, error) {
	if err := s.Init(ctx); err != nil {
		return InsertResult{}, err
	}

	var id int64
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(`
		INSERT INTO validations (code, device_id, submission_id)
		VALUES (?, ?, ?)
		RETURNING id
	`), v.Code, v.DeviceID, v.SubmissionID).Scan(&id)

	if s.dialect.IsUniqueViolation(err) {
		slog.Debug("duplicate validation", "code", v.Code, "device_id", v.DeviceID)
		return InsertResult{Outcome: OutcomeDuplicate}, nil
	}
	if err != nil {
		return InsertResult{}, fmt.Errorf("failed to insert validation: %w", err)
	}

	return InsertResult{Outcome: OutcomeInserted, ID: id}, nil
}

// Get returns a single validation by id.
func (s *Store) Get(ctx context.Context, id int64) (models.Validation, error) {
	if err := s.Init(ctx); err != nil {
		return models.Validation{}, err
	}

	var v models.Validation
	err := s.db.GetContext(ctx, &v, s.db.Rebind(`
		SELECT id, captured_at, code, device_id, submission_id
		FROM validations
		WHERE id = ?
	`), id)
	if err != nil {
		return models.Validation{}, fmt.Errorf("failed to get validation %d: %w", id, err)
	}
	return v, nil
}

// Count returns the total number of validations.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if err := s.Init(ctx); err != nil {
		return 0, err
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM validations`); err != nil {
		return 0, fmt.Errorf("failed to count validations: %w", err)
	}
	return total, nil
}

// DeleteAll removes every validation and returns the number of rows removed.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	if err := s.Init(ctx); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM validations`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete validations: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		// the rows are gone; the count is informational
		slog.Warn("rows affected unavailable", "error", err)
		return 0, nil
	}
	return n, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
