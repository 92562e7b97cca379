package repository

import (
	"context"
	"fmt"

	"coincafe/database"
	"coincafe/models"

	"github.com/jackc/pgx/v5"
)

// RankingRepository implements the service.RankingRepository interface
// over the derived rankings projection
type RankingRepository struct {
	q queryable
}

// NewRankingRepository creates a new ranking repository
func NewRankingRepository(db *database.DB) *RankingRepository {
	return &RankingRepository{q: db.Pool}
}

// newRankingRepositoryWithTx creates a new ranking repository bound to a transaction
func newRankingRepositoryWithTx(tx queryable) *RankingRepository {
	return &RankingRepository{q: tx}
}

// Upsert creates or refreshes the entry for one user. A brand-new entry
// starts with a provisional rank of zero until the next reorder.
func (r *RankingRepository) Upsert(ctx context.Context, entry *models.RankingEntry) error {
	query := `
		INSERT INTO rankings (user_id, username, balance, rank)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username, balance = EXCLUDED.balance, updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, entry.UserID, entry.Username, entry.Balance); err != nil {
		return fmt.Errorf("failed to upsert ranking entry for user %d: %w", entry.UserID, err)
	}
	return nil
}

// GetAllOrdered returns all entries sorted by balance descending, with
// user id as a stable tie-break
func (r *RankingRepository) GetAllOrdered(ctx context.Context) ([]*models.RankingEntry, error) {
	query := `
		SELECT user_id, username, balance, rank, updated_at
		FROM rankings
		ORDER BY balance DESC, user_id ASC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get ranking entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.RankingEntry
	for rows.Next() {
		var entry models.RankingEntry
		err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.Balance,
			&entry.Rank,
			&entry.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ranking entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ranking entries: %w", err)
	}
	return entries, nil
}

// UpdateRanks persists the rank positions of the given entries
func (r *RankingRepository) UpdateRanks(ctx context.Context, entries []*models.RankingEntry) error {
	query := `UPDATE rankings SET rank = $1, updated_at = NOW() WHERE user_id = $2`

	for _, entry := range entries {
		if _, err := r.q.Exec(ctx, query, entry.Rank, entry.UserID); err != nil {
			return fmt.Errorf("failed to update rank for user %d: %w", entry.UserID, err)
		}
	}
	return nil
}

// GetByUserID retrieves one entry, or nil if it does not exist
func (r *RankingRepository) GetByUserID(ctx context.Context, userID int64) (*models.RankingEntry, error) {
	query := `
		SELECT user_id, username, balance, rank, updated_at
		FROM rankings
		WHERE user_id = $1
	`

	var entry models.RankingEntry
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&entry.UserID,
		&entry.Username,
		&entry.Balance,
		&entry.Rank,
		&entry.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ranking entry for user %d: %w", userID, err)
	}
	return &entry, nil
}
