package models

import (
	"time"
)

// RankingEntry is a derived projection of an account's position on the
// leaderboard. It is never authoritative and can always be rebuilt from
// the accounts table.
type RankingEntry struct {
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	Balance   int64     `db:"balance"`
	Rank      int       `db:"rank"` // 1 = highest balance, dense
	UpdatedAt time.Time `db:"updated_at"`
}
