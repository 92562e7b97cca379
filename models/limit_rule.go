package models

import (
	"time"
)

// LimitScope is the breadth over which a limit rule applies
type LimitScope string

const (
	LimitScopeGlobal  LimitScope = "global"
	LimitScopeSession LimitScope = "session"
	LimitScopeRoom    LimitScope = "room"
)

// LimitType selects the streak semantics of a rule
type LimitType string

const (
	// LimitTypeConsecutivePair counts unbroken transfers between the same
	// two accounts in either direction
	LimitTypeConsecutivePair LimitType = "consecutive_pair"
	// LimitTypeConsecutiveSend counts unbroken transfers from the sender
	// to the same receiver
	LimitTypeConsecutiveSend LimitType = "consecutive_send"
	// LimitTypeConsecutiveReceive counts unbroken transfers to the receiver
	// from the same sender
	LimitTypeConsecutiveReceive LimitType = "consecutive_receive"
)

// LimitRule is a configurable anti-abuse rule restricting consecutive
// transfers. All active rules matching a scope must pass for a transfer
// to proceed.
type LimitRule struct {
	ID                int64      `db:"id"`
	Scope             LimitScope `db:"scope"`
	ScopeID           *string    `db:"scope_id"`
	LimitType         LimitType  `db:"limit_type"`
	MaxCount          int        `db:"max_count"`
	TimeWindowMinutes int        `db:"time_window_minutes"` // 0 = unbounded
	Active            bool       `db:"active"`
	Description       string     `db:"description"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// LimitDecision is the outcome of evaluating the active rules against a
// prospective transfer
type LimitDecision struct {
	Allowed bool
	Reason  string
	Rule    *LimitRule // the violated rule when Allowed is false
}
