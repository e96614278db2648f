package models

import "time"

type AuthKey struct {
	ID        int64
	Token     string
	IsUsed    bool
	CreatedAt time.Time
}
