package models

import (
	"database/sql"
	"time"
)

// LogEntry is an audit record. UserID is nullable because audit rows outlive
// deleted users (ON DELETE SET NULL).
type LogEntry struct {
	ID          int64
	UserID      sql.NullInt64
	Description string
	Timestamp   time.Time
}
