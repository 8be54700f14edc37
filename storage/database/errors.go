package database

import (
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/coding7860/sparkminds-backend/core"
)

// Postgres SQLSTATE codes
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

var (
	errDuplicate         = errors.New("Duplicate field value entered")
	errReferenceNotFound = errors.New("Referenced record not found")
)

func sqlState(err error) (code, constraint string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// ClassifyError turns constraint violations reported by either driver into validation errors.
// Other errors are wrapped with msg.
func ClassifyError(err error, msg string) error {
	if err == nil {
		return nil
	}
	switch code, constraint := sqlState(err); code {
	case codeUniqueViolation:
		return core.NewValidationError(errDuplicate, core.FieldError{Field: constraint, Error: errDuplicate.Error()})
	case codeForeignKeyViolation:
		return core.NewValidationError(errReferenceNotFound, core.FieldError{Field: constraint, Error: errReferenceNotFound.Error()})
	}
	return errors.Wrap(err, msg)
}
