package models

import (
	"time"
)

// TransactionKind represents the type of balance-affecting event
type TransactionKind string

const (
	TransactionKindEarn     TransactionKind = "earn"
	TransactionKindSpend    TransactionKind = "spend"
	TransactionKindTransfer TransactionKind = "transfer"
)

// Transaction is one append-only log entry. Records are never updated or
// deleted after creation; the log's id order is the order the Limit
// Evaluator walks when counting streaks.
type Transaction struct {
	ID          int64           `db:"id"`
	SenderID    *int64          `db:"sender_id"`
	ReceiverID  *int64          `db:"receiver_id"`
	Amount      int64           `db:"amount"`
	Kind        TransactionKind `db:"kind"`
	Description string          `db:"description"`
	GroupID     *string         `db:"group_id"`
	RoomCode    *string         `db:"room_code"`
	CreatedAt   time.Time       `db:"created_at"`
}

// TransferResult summarizes a completed transfer for the caller
type TransferResult struct {
	TransactionID   int64
	Amount          int64
	SenderBalance   int64
	ReceiverBalance int64
	RecipientName   string
}
