package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsForeignKeyViolation reports whether err is a PostgreSQL foreign key
// violation (SQLSTATE 23503). Works through wrapped error chains.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23503"
	}

	return false
}
