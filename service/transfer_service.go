package service

import (
	"context"
	"fmt"

	"coincafe/events"
	"coincafe/models"

	log "github.com/sirupsen/logrus"
)

type transferService struct {
	uowFactory UnitOfWorkFactory
	pairLocks  PairLockFactory
	ranking    RankingProjector
}

// NewTransferService creates a new transfer service
func NewTransferService(uowFactory UnitOfWorkFactory, pairLocks PairLockFactory, ranking RankingProjector) TransferService {
	return &transferService{
		uowFactory: uowFactory,
		pairLocks:  pairLocks,
		ranking:    ranking,
	}
}

// TransferGlobal moves amount from sender to receiver
func (s *transferService) TransferGlobal(ctx context.Context, senderID, receiverID int64, amount int64, description string) (*models.TransferResult, error) {
	return s.transfer(ctx, senderID, receiverID, amount, description, nil)
}

// TransferInRoom moves amount between two active members of a room. The
// balances moved are the same global account balances; the room only
// scopes membership validation and tags the record.
func (s *transferService) TransferInRoom(ctx context.Context, senderID, receiverID int64, amount int64, description, roomCode string) (*models.TransferResult, error) {
	return s.transfer(ctx, senderID, receiverID, amount, description, &roomCode)
}

func (s *transferService) transfer(ctx context.Context, senderID, receiverID int64, amount int64, description string, roomCode *string) (*models.TransferResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if senderID == receiverID {
		return nil, ErrSelfTransfer
	}

	// Serialize limit check + append per account pair so two concurrent
	// transfers between the same pair cannot both pass the streak check
	// against a snapshot missing the other's append.
	pairLock := s.pairLocks.ForPair(senderID, receiverID)
	if err := pairLock.Lock(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire transfer lock: %w", err)
	}
	defer pairLock.Unlock(ctx)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if roomCode != nil {
		if err := s.checkRoomMembership(ctx, uow, *roomCode, senderID, receiverID); err != nil {
			return nil, err
		}
	}

	// Lock both account rows in ascending id order to avoid deadlocks
	// between transfers running in opposite directions
	firstID, secondID := senderID, receiverID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := uow.AccountRepository().GetByUserIDForUpdate(ctx, firstID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", firstID, err)
	}
	second, err := uow.AccountRepository().GetByUserIDForUpdate(ctx, secondID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", secondID, err)
	}
	if first == nil || second == nil {
		return nil, ErrAccountNotFound
	}

	sender, receiver := first, second
	if sender.UserID != senderID {
		sender, receiver = second, first
	}

	if sender.Balance < amount {
		return nil, ErrInsufficientBalance
	}

	// Room transfers are still evaluated at global scope; rooms do not
	// carry independent limit scoping.
	decision, err := checkTransactionLimits(ctx, uow.LimitRuleRepository(), uow.TransactionRepository(), senderID, receiverID, models.LimitScopeGlobal, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate transfer limits: %w", err)
	}
	if !decision.Allowed {
		return nil, &LimitExceededError{Rule: decision.Rule, Reason: decision.Reason}
	}

	if err := uow.AccountRepository().DeductBalance(ctx, senderID, amount); err != nil {
		return nil, fmt.Errorf("failed to deduct transfer amount: %w", err)
	}
	if err := uow.AccountRepository().AddBalance(ctx, receiverID, amount); err != nil {
		return nil, fmt.Errorf("failed to add transfer amount: %w", err)
	}

	record := &models.Transaction{
		SenderID:    &senderID,
		ReceiverID:  &receiverID,
		Amount:      amount,
		Kind:        models.TransactionKindTransfer,
		Description: description,
		RoomCode:    roomCode,
	}
	if err := uow.TransactionRepository().Append(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to append transaction record: %w", err)
	}

	tagged := ""
	if roomCode != nil {
		tagged = *roomCode
	}
	uow.EventBus().Publish(events.TransferEvent{
		TransactionID: record.ID,
		SenderID:      senderID,
		ReceiverID:    receiverID,
		Amount:        amount,
		RoomCode:      tagged,
	})
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:     senderID,
		OldBalance: sender.Balance,
		NewBalance: sender.Balance - amount,
		Kind:       models.TransactionKindTransfer,
		Amount:     -amount,
		RoomCode:   tagged,
	})
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:     receiverID,
		OldBalance: receiver.Balance,
		NewBalance: receiver.Balance + amount,
		Kind:       models.TransactionKindTransfer,
		Amount:     amount,
		RoomCode:   tagged,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.refreshRankings(ctx, senderID, receiverID)

	return &models.TransferResult{
		TransactionID:   record.ID,
		Amount:          amount,
		SenderBalance:   sender.Balance - amount,
		ReceiverBalance: receiver.Balance + amount,
		RecipientName:   receiver.Username,
	}, nil
}

// checkRoomMembership validates the room-scoped preconditions before any
// balance is touched
func (s *transferService) checkRoomMembership(ctx context.Context, uow UnitOfWork, roomCode string, senderID, receiverID int64) error {
	room, err := uow.RoomRepository().GetByCode(ctx, roomCode)
	if err != nil {
		return fmt.Errorf("failed to get room %s: %w", roomCode, err)
	}
	if room == nil {
		return ErrRoomNotFound
	}
	if room.Status != models.RoomStatusActive {
		return ErrRoomNotActive
	}

	for _, userID := range []int64{senderID, receiverID} {
		member, err := uow.RoomRepository().GetMember(ctx, room.ID, userID)
		if err != nil {
			return fmt.Errorf("failed to get room member %d: %w", userID, err)
		}
		if member == nil || member.Status != models.RoomMemberStatusActive {
			return ErrNotRoomMember
		}
	}
	return nil
}

// Earn applies a signed system adjustment to one account. Positive
// amounts are recorded as earn, negative as spend; an adjustment that
// would drive the balance negative is rejected.
func (s *transferService) Earn(ctx context.Context, userID int64, amount int64, description string) (*models.Transaction, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", userID, err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	record := &models.Transaction{
		Amount:      amount,
		Description: description,
	}
	if amount > 0 {
		record.Kind = models.TransactionKindEarn
		record.ReceiverID = &userID
		if err := uow.AccountRepository().AddBalance(ctx, userID, amount); err != nil {
			return nil, fmt.Errorf("failed to add balance: %w", err)
		}
	} else {
		if account.Balance < -amount {
			return nil, ErrInsufficientBalance
		}
		record.Kind = models.TransactionKindSpend
		record.SenderID = &userID
		record.Amount = -amount
		if err := uow.AccountRepository().DeductBalance(ctx, userID, -amount); err != nil {
			return nil, fmt.Errorf("failed to deduct balance: %w", err)
		}
	}

	if err := uow.TransactionRepository().Append(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to append transaction record: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:     userID,
		OldBalance: account.Balance,
		NewBalance: account.Balance + amount,
		Kind:       record.Kind,
		Amount:     amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.refreshRankings(ctx, userID)

	return record, nil
}

// refreshRankings re-projects the leaderboard for the affected accounts.
// The projection is derived state, so a failure here is logged rather
// than surfaced to the caller.
func (s *transferService) refreshRankings(ctx context.Context, userIDs ...int64) {
	for _, userID := range userIDs {
		if err := s.ranking.RefreshUser(ctx, userID); err != nil {
			log.WithFields(log.Fields{
				"userID": userID,
				"error":  err,
			}).Warn("Failed to refresh ranking after balance change")
		}
	}
}
