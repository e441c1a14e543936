package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/upb/task-tracker/repositories"
)

// PostgreSQL error codes (class 23, integrity constraint violation)
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// classifyError maps driver errors to repository errors. Unrecognised errors
// are returned unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repositories.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return &repositories.ConstraintError{
				Kind:       repositories.ConstraintUnique,
				Constraint: pqErr.Constraint,
				Err:        err,
			}
		case pqForeignKeyViolation:
			return &repositories.ConstraintError{
				Kind:       repositories.ConstraintForeignKey,
				Constraint: pqErr.Constraint,
				Err:        err,
			}
		}
	}

	return err
}

// requireAffected turns a write that touched no rows into ErrNotFound
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
