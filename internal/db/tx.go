// Package db holds small helpers shared by the sqlite-backed stores.
package db

import (
	"context"
	"database/sql"
	"time"
)

// WithTx executes fn within a transaction bound to ctx.
// It handles Begin, Rollback on error, and Commit on success.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Millis stores a duration as integer milliseconds.
func Millis(d time.Duration) int64 {
	return d.Milliseconds()
}

// OptionalMillis returns d as milliseconds, or nil (SQL NULL) when !ok.
func OptionalMillis(d time.Duration, ok bool) any {
	if !ok {
		return nil
	}
	return d.Milliseconds()
}

// NullDuration converts a nullable millisecond column back to a duration.
// The bool is false for NULL.
func NullDuration(n sql.NullInt64) (time.Duration, bool) {
	if !n.Valid {
		return 0, false
	}
	return time.Duration(n.Int64) * time.Millisecond, true
}

// UnixMillis stores a timestamp as milliseconds since the epoch.
func UnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// NullTime converts a nullable epoch-millisecond column to a time.
// It returns the zero time for NULL.
func NullTime(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.UnixMilli(n.Int64)
}

// NullStringValue returns the string value or empty string if not valid.
func NullStringValue(n sql.NullString) string {
	if !n.Valid {
		return ""
	}
	return n.String
}
