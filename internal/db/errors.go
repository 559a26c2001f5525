package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClass buckets Postgres failures by how a caller may react to them.
type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

// SQLSTATE codes the service reacts to.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
	CodeSerialization       = "40001"
	CodeDeadlock            = "40P01"
	CodeLockNotAvailable    = "55P03"
)

// ClassifyError maps err to an ErrorClass using its SQLSTATE.
func ClassifyError(err error) ErrorClass {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ErrorClassPermanent
	}
	switch pgErr.Code {
	case CodeSerialization:
		return ErrorClassSerialization
	case CodeDeadlock:
		return ErrorClassDeadlock
	case CodeLockNotAvailable:
		return ErrorClassTransient
	}
	return ErrorClassPermanent
}

// IsRetryable reports whether resubmitting the same request could succeed.
func IsRetryable(err error) bool {
	return ClassifyError(err) != ErrorClassPermanent
}

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool {
	return hasCode(err, CodeUniqueViolation, "")
}

// IsConstraintViolation reports whether err is a check violation of the named constraint.
func IsConstraintViolation(err error, constraint string) bool {
	return hasCode(err, CodeCheckViolation, constraint)
}

// IsNotFound reports whether err is pgx.ErrNoRows.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func hasCode(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
