package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// querier abstracts *sql.DB and *sql.Tx so row helpers work inside and
// outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const dateLayout = "2006-01-02"

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.Format(dateLayout)
}

func nullableBool(value *bool) any {
	if value == nil {
		return nil
	}
	return boolToInt(*value)
}

func nullableID(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func boolFromNull(value sql.NullInt64) *bool {
	if !value.Valid {
		return nil
	}
	b := value.Int64 != 0
	return &b
}

func idFromNull(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	id := value.Int64
	return &id
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func timeFromNull(value sql.NullString) *time.Time {
	if !value.Valid || value.String == "" {
		return nil
	}
	if t, err := parseTimeString(value.String); err == nil {
		return &t
	}
	return nil
}

func dateFromNull(value sql.NullString) *time.Time {
	if !value.Valid || value.String == "" {
		return nil
	}
	if t, err := time.Parse(dateLayout, value.String); err == nil {
		return &t
	}
	return nil
}
