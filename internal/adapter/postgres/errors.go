package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// pgCodeErrors maps SQLSTATE codes to the domain error they surface as.
var pgCodeErrors = map[string]error{
	"23505": domain.ErrAlreadyExists, // unique_violation
	"23503": domain.ErrNotFound,      // foreign_key_violation
	"23502": domain.ErrValidation,    // not_null_violation
	"23514": domain.ErrValidation,    // check_violation
	"22P02": domain.ErrValidation,    // invalid_text_representation
	"22023": domain.ErrValidation,    // invalid_parameter_value, e.g. a non-object jsonb patch
	"40001": domain.ErrConflict,      // serialization_failure
	"40P01": domain.ErrConflict,      // deadlock_detected
	"55P03": domain.ErrConflict,      // lock_not_available
}

// MapError converts a pgx error on document collection/key into a domain
// error. Mapped errors still wrap the original so TxManager can inspect the
// SQLSTATE. Context errors are only annotated.
func MapError(err error, collection, key string) error {
	if err == nil {
		return nil
	}

	ref := collection + "/" + key

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", ref, err)
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", ref, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if mapped, ok := pgCodeErrors[pgErr.Code]; ok {
			return &mappedError{ref: ref, sentinel: mapped, cause: err}
		}
	}

	return fmt.Errorf("%s: %w", ref, err)
}

// mappedError reads as "ref: sentinel" so server messages stay out of API
// responses, but unwraps to both the sentinel and the pg error.
type mappedError struct {
	ref      string
	sentinel error
	cause    error
}

func (e *mappedError) Error() string { return e.ref + ": " + e.sentinel.Error() }
func (e *mappedError) Unwrap() []error { return []error{e.sentinel, e.cause} }
