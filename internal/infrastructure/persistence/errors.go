package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the Postgres error code for unique constraint violations
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique violation on the
// named constraint. Count-based number generators can hand the same number to
// two concurrent transactions; the losing insert trips the unique index and
// gets reported here so callers can map it to a retryable conflict.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraint
	}
	return false
}
