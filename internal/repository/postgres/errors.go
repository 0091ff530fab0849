package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// isPgUndefinedTable checks if error is a missing relation (42P01),
// i.e. the seed has not been run for this environment.
func isPgUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return false
}

// isPgInvalidDatetime checks for a rejected date literal (22007, 22008).
// The reconciler makes this unreachable for well-formed saves.
func isPgInvalidDatetime(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "22007" || pgErr.Code == "22008"
	}
	return false
}
