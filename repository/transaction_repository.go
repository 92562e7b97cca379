package repository

import (
	"context"
	"fmt"
	"time"

	"coincafe/database"
	"coincafe/models"
)

// TransactionRepository implements the service.TransactionRepository
// interface over the append-only transactions table
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository bound to a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

const transactionColumns = `id, sender_id, receiver_id, amount, kind, description, group_id, room_code, created_at`

// Append writes one record and fills in its id and creation time. Records
// are never updated afterwards.
func (r *TransactionRepository) Append(ctx context.Context, record *models.Transaction) error {
	query := `
		INSERT INTO transactions (sender_id, receiver_id, amount, kind, description, group_id, room_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.SenderID,
		record.ReceiverID,
		record.Amount,
		record.Kind,
		record.Description,
		record.GroupID,
		record.RoomCode,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to append transaction record: %w", err)
	}
	return nil
}

func (r *TransactionRepository) queryRecords(ctx context.Context, query string, args ...any) ([]*models.Transaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.Transaction
	for rows.Next() {
		var record models.Transaction
		err := rows.Scan(
			&record.ID,
			&record.SenderID,
			&record.ReceiverID,
			&record.Amount,
			&record.Kind,
			&record.Description,
			&record.GroupID,
			&record.RoomCode,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction records: %w", err)
	}
	return records, nil
}

// sinceArg turns the optional sliding-window bound into a query
// parameter; a zero since means unbounded
func sinceArg(since time.Time) any {
	if since.IsZero() {
		return nil
	}
	return since
}

// GetRecentTransfersInvolving returns the newest transfer records that
// touch either of the two accounts, newest first. Transfers with any
// third party are included so streak counting can see the break.
func (r *TransactionRepository) GetRecentTransfersInvolving(ctx context.Context, userA, userB int64, limit int, since time.Time) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE kind = 'transfer'
		  AND (sender_id IN ($1, $2) OR receiver_id IN ($1, $2))
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		ORDER BY id DESC
		LIMIT $4
	`

	records, err := r.queryRecords(ctx, query, userA, userB, sinceArg(since), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent transfers involving %d and %d: %w", userA, userB, err)
	}
	return records, nil
}

// GetRecentTransfersBySender returns the newest transfer records sent by
// senderID, newest first
func (r *TransactionRepository) GetRecentTransfersBySender(ctx context.Context, senderID int64, limit int, since time.Time) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE kind = 'transfer'
		  AND sender_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		ORDER BY id DESC
		LIMIT $3
	`

	records, err := r.queryRecords(ctx, query, senderID, sinceArg(since), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent transfers sent by %d: %w", senderID, err)
	}
	return records, nil
}

// GetRecentTransfersByReceiver returns the newest transfer records
// received by receiverID, newest first
func (r *TransactionRepository) GetRecentTransfersByReceiver(ctx context.Context, receiverID int64, limit int, since time.Time) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE kind = 'transfer'
		  AND receiver_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		ORDER BY id DESC
		LIMIT $3
	`

	records, err := r.queryRecords(ctx, query, receiverID, sinceArg(since), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent transfers received by %d: %w", receiverID, err)
	}
	return records, nil
}

// GetByUser returns the newest records involving a user, newest first
func (r *TransactionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	records, err := r.queryRecords(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for user %d: %w", userID, err)
	}
	return records, nil
}

// GetByRoomCode returns the newest records tagged with a room code
func (r *TransactionRepository) GetByRoomCode(ctx context.Context, roomCode string, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE room_code = $1
		ORDER BY id DESC
		LIMIT $2
	`

	records, err := r.queryRecords(ctx, query, roomCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for room %s: %w", roomCode, err)
	}
	return records, nil
}
