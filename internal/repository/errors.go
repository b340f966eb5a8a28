package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Errors shared by every store implementation.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrLoginExists      = errors.New("login already exists")
	ErrTokenExists      = errors.New("token already exists")
	ErrStatusNotFound   = errors.New("status not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrVersionConflict  = errors.New("document version conflict")
)

// DocumentFilter restricts which documents a listing returns.
// An empty ViewerID means an anonymous caller.
type DocumentFilter struct {
	ViewerID string
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	// PostgreSQL error code 23505 is unique_violation
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// constraintName returns the violated constraint, if any.
func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
