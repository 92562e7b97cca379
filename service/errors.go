package service

import (
	"errors"
	"fmt"

	"coincafe/models"
)

// Validation failures surfaced to callers. Each aborts its operation with
// zero side effects; the web layer maps them to response codes.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be a positive integer")
	ErrSelfTransfer        = errors.New("cannot transfer to yourself")
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomNotActive       = errors.New("room is not active")
	ErrNotRoomMember       = errors.New("not an active member of this room")
	ErrRuleNotFound        = errors.New("limit rule not found")
)

// LimitExceededError is returned when the limit evaluator denies a
// transfer. Reason carries the human-readable message of the violated rule.
type LimitExceededError struct {
	Rule   *models.LimitRule
	Reason string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("transaction limit exceeded: %s", e.Reason)
}

// IsLimitExceeded reports whether err is a limit denial
func IsLimitExceeded(err error) bool {
	var limitErr *LimitExceededError
	return errors.As(err, &limitErr)
}
