package models

import (
	"time"
)

// Account represents an attendee's coin balance
type Account struct {
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
