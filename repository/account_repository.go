package repository

import (
	"context"
	"fmt"

	"coincafe/database"
	"coincafe/models"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the service.AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository bound to a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `user_id, username, balance, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.UserID,
		&account.Username,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByUserID retrieves an account, or nil if it does not exist
func (r *AccountRepository) GetByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", userID, err)
	}
	return account, nil
}

// GetByUserIDForUpdate retrieves an account and locks its row until the
// surrounding transaction finishes
func (r *AccountRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 FOR UPDATE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d for update: %w", userID, err)
	}
	return account, nil
}

// Create creates a new account with the initial balance
func (r *AccountRepository) Create(ctx context.Context, userID int64, username string, initialBalance int64) (*models.Account, error) {
	query := `
		INSERT INTO accounts (user_id, username, balance)
		VALUES ($1, $2, $3)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID, username, initialBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create account %d: %w", userID, err)
	}
	return account, nil
}

// AddBalance adds to an account's balance atomically
func (r *AccountRepository) AddBalance(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE user_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to add balance for account %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d not found", userID)
	}
	return nil
}

// DeductBalance deducts from an account's balance atomically, refusing to
// drive it negative
func (r *AccountRepository) DeductBalance(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to deduct balance for account %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		account, err := r.GetByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check account %d: %w", userID, err)
		}
		if account == nil {
			return fmt.Errorf("account %d not found", userID)
		}
		return fmt.Errorf("insufficient balance: have %d, need %d", account.Balance, amount)
	}
	return nil
}

// GetAll returns all accounts, newest first
func (r *AccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var account models.Account
		err := rows.Scan(
			&account.UserID,
			&account.Username,
			&account.Balance,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}
