package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/quantumlife/lifedesk/internal/core"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// expectOne maps "no rows affected" to notFound.
func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// uniqueViolation maps a UNIQUE or PRIMARY KEY conflict to
// core.ErrDuplicateRecord. Both drivers report the same SQLite message.
func uniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", core.ErrDuplicateRecord, err)
	}
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// dateValue formats a day for a TEXT date column; nil stays NULL.
func dateValue(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(core.DateLayout), Valid: true}
}

// parseDateColumn reads a TEXT date column. NULL or unparseable values yield
// a zero time so callers can treat the record as malformed.
func parseDateColumn(v sql.NullString) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	t, err := core.ParseDate(v.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
