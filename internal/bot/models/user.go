package models

import "time"

type User struct {
	ID           int64
	UserID       int64
	DisplayName  string
	RegisteredAt time.Time
	IsAuthorized bool
}
