package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: pgerrcode.SerializationFailure}, want: true},
		{name: "deadlock", err: fmt.Errorf("commit tx: %w", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, want: false},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "commit serialization failure", err: &commitError{err: &pgconn.PgError{Code: pgerrcode.SerializationFailure}}, want: true},
		{name: "commit connection reset", err: &commitError{err: errors.New("read tcp: connection reset by peer")}, want: false},
		{name: "commit broken pipe", err: fmt.Errorf("create order: %w", &commitError{err: errors.New("write: broken pipe")}), want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "domain error", err: ErrTransactionNotFound, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}

func TestWithRetry_RetriesUntilSuccess(t *testing.T) {
	r := &PostgresRepository{retryDelays: []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}}

	calls := 0
	err := r.withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_Bounded(t *testing.T) {
	r := &PostgresRepository{retryDelays: []time.Duration{time.Millisecond, time.Millisecond}}

	calls := 0
	err := r.withRetry(context.Background(), func() error {
		calls++
		return &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_NoRetryForDomainErrors(t *testing.T) {
	r := &PostgresRepository{retryDelays: []time.Duration{time.Millisecond}}

	calls := 0
	err := r.withRetry(context.Background(), func() error {
		calls++
		return ErrUserNotFound
	})

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_StopsOnContextCancel(t *testing.T) {
	r := &PostgresRepository{retryDelays: []time.Duration{time.Hour}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.withRetry(ctx, func() error {
		return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithRetry_NoRetryAfterUncertainCommit(t *testing.T) {
	r := &PostgresRepository{retryDelays: []time.Duration{time.Millisecond, time.Millisecond}}

	calls := 0
	err := r.withRetry(context.Background(), func() error {
		calls++
		return &commitError{err: errors.New("read tcp 10.0.0.1:5432: connection reset by peer")}
	})

	var ce *commitError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, calls)
}
