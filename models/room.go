package models

import (
	"time"
)

// RoomStatus represents the lifecycle state of a room
type RoomStatus string

const (
	RoomStatusActive RoomStatus = "active"
	RoomStatusClosed RoomStatus = "closed"
)

// RoomMemberStatus represents a member's presence in a room
type RoomMemberStatus string

const (
	RoomMemberStatusActive RoomMemberStatus = "active"
	RoomMemberStatusLeft   RoomMemberStatus = "left"
)

// Room is a time-bounded grouping of accounts for in-person transfers.
// Rooms do not hold their own sub-balance; transfers inside a room move
// the same global account balances.
type Room struct {
	ID        int64      `db:"id"`
	Code      string     `db:"code"`
	Name      string     `db:"name"`
	HostID    int64      `db:"host_id"`
	Status    RoomStatus `db:"status"`
	ExpiresAt time.Time  `db:"expires_at"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// RoomMember tracks one account's presence in a room. LastSeenAt is
// refreshed by heartbeats and drives the stale-member sweep.
type RoomMember struct {
	RoomID     int64            `db:"room_id"`
	UserID     int64            `db:"user_id"`
	Status     RoomMemberStatus `db:"status"`
	JoinedAt   time.Time        `db:"joined_at"`
	LastSeenAt time.Time        `db:"last_seen_at"`
}
