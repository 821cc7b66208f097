package apperrors

import (
	"errors"

	"github.com/lib/pq"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// WrapDBError converts well-known postgres error codes into the taxonomy.
// Everything else passes through untouched.
func WrapDBError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case pgUniqueViolation:
		return NewConflict("value already registered: %s", pqErr.Constraint)
	case pgForeignKeyViolation:
		return NewConflict("value is referenced by other resources: %s", pqErr.Constraint)
	default:
		return err
	}
}

func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	return false
}
