package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate reports a write rejected by a unique index.
var ErrDuplicate = errors.New("duplicate")

const uniqueViolation = "23505"

// duplicateOr maps a unique violation to ErrDuplicate and returns other errors
// unchanged.
func duplicateOr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
