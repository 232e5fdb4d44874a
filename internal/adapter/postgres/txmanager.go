package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

const defaultTxAttempts = 3

// TxManager runs callbacks in serializable transactions. The banned worker
// check-then-insert on CCCD relies on this: two concurrent creates for the
// same CCCD cannot both see "not found". A callback whose transaction fails
// with a serialization failure or deadlock is run again from scratch, so it
// must not have side effects outside the database.
type TxManager struct {
	pool        *pgxpool.Pool
	opts        pgx.TxOptions
	maxAttempts int
}

// NewTxManager creates a TxManager over pool.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{
		pool:        pool,
		opts:        pgx.TxOptions{IsoLevel: pgx.Serializable},
		maxAttempts: defaultTxAttempts,
	}
}

// RunInTx executes fn within a transaction whose handle travels in the
// context passed to fn (see QuerierFromCtx). A nested call joins the outer
// transaction. fn's error rolls back and is returned as is; a panic rolls
// back and is re-raised.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromCtx(ctx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		err = m.runOnce(ctx, fn)
		if err == nil || !retryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return &mappedError{
		ref:      fmt.Sprintf("transaction gave up after %d attempts", m.maxAttempts),
		sentinel: domain.ErrConflict,
		cause:    err,
	}
}

func (m *TxManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.pool.BeginTx(ctx, m.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback: %w (after: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// retryable reports whether err is a serialization failure or a deadlock.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
