package service

import (
	"context"
	"fmt"

	"coincafe/models"
)

type rankingService struct {
	uowFactory UnitOfWorkFactory
}

// NewRankingService creates a new ranking service
func NewRankingService(uowFactory UnitOfWorkFactory) RankingService {
	return &rankingService{
		uowFactory: uowFactory,
	}
}

// RefreshUser upserts the user's leaderboard entry from the current
// account state and reorders the whole board. A missing account means
// there is nothing to rank; that is not a failure.
//
// The full reorder on every mutation is a deliberate correctness-over-
// efficiency choice: the population is a single event's attendees.
func (s *rankingService) RefreshUser(ctx context.Context, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get account %d: %w", userID, err)
	}
	if account == nil {
		return nil
	}

	entry := &models.RankingEntry{
		UserID:   account.UserID,
		Username: account.Username,
		Balance:  account.Balance,
	}
	if err := uow.RankingRepository().Upsert(ctx, entry); err != nil {
		return fmt.Errorf("failed to upsert ranking entry: %w", err)
	}

	if err := reorderRanks(ctx, uow.RankingRepository()); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// reorderRanks reassigns dense rank positions over the whole board.
// Ties are broken by user id so repeated projections are stable.
func reorderRanks(ctx context.Context, rankings RankingRepository) error {
	entries, err := rankings.GetAllOrdered(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ranking entries: %w", err)
	}

	for i, entry := range entries {
		entry.Rank = i + 1
	}

	if err := rankings.UpdateRanks(ctx, entries); err != nil {
		return fmt.Errorf("failed to persist rank order: %w", err)
	}
	return nil
}

// GetRankings returns the leaderboard in rank order
func (s *rankingService) GetRankings(ctx context.Context) ([]*models.RankingEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.RankingRepository().GetAllOrdered(ctx)
}

// GetUserRanking returns one user's entry, or nil if the user has never
// been projected
func (s *rankingService) GetUserRanking(ctx context.Context, userID int64) (*models.RankingEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.RankingRepository().GetByUserID(ctx, userID)
}
