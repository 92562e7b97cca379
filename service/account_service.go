package service

import (
	"context"
	"fmt"

	"coincafe/events"
	"coincafe/models"

	log "github.com/sirupsen/logrus"
)

type accountService struct {
	uowFactory     UnitOfWorkFactory
	ranking        RankingProjector
	initialBalance int64
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory, ranking RankingProjector, initialBalance int64) AccountService {
	return &accountService{
		uowFactory:     uowFactory,
		ranking:        ranking,
		initialBalance: initialBalance,
	}
}

// GetOrCreateAccount retrieves an existing account or registers a new one
// with the configured initial balance. A grant above zero is logged as an
// earn transaction so the ledger stays complete.
func (s *accountService) GetOrCreateAccount(ctx context.Context, userID int64, username string) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if account != nil {
		return account, nil
	}

	account, err = uow.AccountRepository().Create(ctx, userID, username, s.initialBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if s.initialBalance > 0 {
		record := &models.Transaction{
			ReceiverID:  &userID,
			Amount:      s.initialBalance,
			Kind:        models.TransactionKindEarn,
			Description: "welcome grant",
		}
		if err := uow.TransactionRepository().Append(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to record welcome grant: %w", err)
		}
	}

	uow.EventBus().Publish(events.AccountCreatedEvent{
		UserID:         userID,
		Username:       username,
		InitialBalance: s.initialBalance,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Project the new account onto the leaderboard right away
	if err := s.ranking.RefreshUser(ctx, userID); err != nil {
		log.WithFields(log.Fields{
			"userID": userID,
			"error":  err,
		}).Warn("Failed to refresh ranking after account creation")
	}

	return account, nil
}

// GetAccount retrieves an account, failing if it does not exist
func (s *accountService) GetAccount(ctx context.Context, userID int64) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", userID, err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// GetTransactions returns the newest transactions involving a user
func (s *accountService) GetTransactions(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", userID, err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	return uow.TransactionRepository().GetByUser(ctx, userID, limit)
}
