package service

import (
	"context"
	"fmt"
	"time"

	"coincafe/models"
)

// recentTransferLookback bounds how far back a streak can reach. Streaks
// are contiguity counts, so anything past the first break is irrelevant.
const recentTransferLookback = 20

type limitService struct {
	uowFactory      UnitOfWorkFactory
	defaultMaxCount int
}

// NewLimitService creates a new limit service
func NewLimitService(uowFactory UnitOfWorkFactory, defaultMaxCount int) LimitService {
	return &limitService{
		uowFactory:      uowFactory,
		defaultMaxCount: defaultMaxCount,
	}
}

// CheckTransactionLimit evaluates the active rules for a prospective
// transfer without performing it
func (s *limitService) CheckTransactionLimit(ctx context.Context, senderID, receiverID int64, scope models.LimitScope) (*models.LimitDecision, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return checkTransactionLimits(ctx, uow.LimitRuleRepository(), uow.TransactionRepository(), senderID, receiverID, scope, nil)
}

// checkTransactionLimits runs the rule evaluation against the given
// repositories. The transfer engine calls it with its own unit of work so
// the check and the subsequent append happen under one transaction.
func checkTransactionLimits(ctx context.Context, ruleRepo LimitRuleRepository, txRepo TransactionRepository, senderID, receiverID int64, scope models.LimitScope, scopeID *string) (*models.LimitDecision, error) {
	rules, err := ruleRepo.FindActiveRules(ctx, scope, scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load limit rules: %w", err)
	}

	for _, rule := range rules {
		var since time.Time
		if rule.TimeWindowMinutes > 0 {
			since = time.Now().Add(-time.Duration(rule.TimeWindowMinutes) * time.Minute)
		}

		var records []*models.Transaction
		switch rule.LimitType {
		case models.LimitTypeConsecutivePair:
			records, err = txRepo.GetRecentTransfersInvolving(ctx, senderID, receiverID, recentTransferLookback, since)
		case models.LimitTypeConsecutiveSend:
			records, err = txRepo.GetRecentTransfersBySender(ctx, senderID, recentTransferLookback, since)
		case models.LimitTypeConsecutiveReceive:
			records, err = txRepo.GetRecentTransfersByReceiver(ctx, receiverID, recentTransferLookback, since)
		default:
			return nil, fmt.Errorf("unknown limit type %q in rule %d", rule.LimitType, rule.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load recent transfers for rule %d: %w", rule.ID, err)
		}

		if streak := countStreak(rule.LimitType, records, senderID, receiverID); streak >= rule.MaxCount {
			return &models.LimitDecision{
				Allowed: false,
				Reason:  denialReason(rule),
				Rule:    rule,
			}, nil
		}
	}

	return &models.LimitDecision{Allowed: true}, nil
}

// countStreak walks records newest to oldest, counting matches until the
// first record that breaks the pattern. A single intervening transfer with
// a different counterparty resets the count to zero; this is a contiguity
// constraint, not a frequency constraint.
func countStreak(limitType models.LimitType, records []*models.Transaction, senderID, receiverID int64) int {
	streak := 0
	for _, record := range records {
		switch limitType {
		case models.LimitTypeConsecutivePair:
			if !isBetweenPair(record, senderID, receiverID) {
				return streak
			}
		case models.LimitTypeConsecutiveSend:
			if record.ReceiverID == nil || *record.ReceiverID != receiverID {
				return streak
			}
		case models.LimitTypeConsecutiveReceive:
			if record.SenderID == nil || *record.SenderID != senderID {
				return streak
			}
		}
		streak++
	}
	return streak
}

// isBetweenPair reports whether a record moves coins between exactly the
// two given accounts, in either direction
func isBetweenPair(record *models.Transaction, a, b int64) bool {
	if record.SenderID == nil || record.ReceiverID == nil {
		return false
	}
	s, r := *record.SenderID, *record.ReceiverID
	return (s == a && r == b) || (s == b && r == a)
}

func denialReason(rule *models.LimitRule) string {
	switch rule.LimitType {
	case models.LimitTypeConsecutiveSend:
		return fmt.Sprintf("no more than %d consecutive transfers to the same receiver", rule.MaxCount)
	case models.LimitTypeConsecutiveReceive:
		return fmt.Sprintf("no more than %d consecutive transfers from the same sender", rule.MaxCount)
	default:
		return fmt.Sprintf("no more than %d consecutive transfers between the same two accounts", rule.MaxCount)
	}
}

// EnsureDefaultRules seeds the default global pair rule when no rules
// exist yet. Safe to call on every startup.
func (s *limitService) EnsureDefaultRules(ctx context.Context) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rules, err := uow.LimitRuleRepository().GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load limit rules: %w", err)
	}
	if len(rules) > 0 {
		return nil
	}

	defaultRule := &models.LimitRule{
		Scope:             models.LimitScopeGlobal,
		LimitType:         models.LimitTypeConsecutivePair,
		MaxCount:          s.defaultMaxCount,
		TimeWindowMinutes: 0,
		Active:            true,
		Description:       "Default consecutive transfer limit between the same pair of accounts",
	}
	if err := uow.LimitRuleRepository().Create(ctx, defaultRule); err != nil {
		return fmt.Errorf("failed to create default limit rule: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRules returns every configured rule
func (s *limitService) GetRules(ctx context.Context) ([]*models.LimitRule, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.LimitRuleRepository().GetAll(ctx)
}

// CreateRule inserts a new rule
func (s *limitService) CreateRule(ctx context.Context, rule *models.LimitRule) error {
	if rule.MaxCount < 1 {
		return fmt.Errorf("max count must be at least 1")
	}
	switch rule.LimitType {
	case models.LimitTypeConsecutivePair, models.LimitTypeConsecutiveSend, models.LimitTypeConsecutiveReceive:
	default:
		return fmt.Errorf("unknown limit type %q", rule.LimitType)
	}
	switch rule.Scope {
	case models.LimitScopeGlobal, models.LimitScopeSession, models.LimitScopeRoom:
	default:
		return fmt.Errorf("unknown limit scope %q", rule.Scope)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.LimitRuleRepository().Create(ctx, rule); err != nil {
		return fmt.Errorf("failed to create limit rule: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateRule applies partial changes to an existing rule
func (s *limitService) UpdateRule(ctx context.Context, id int64, update LimitRuleUpdate) (*models.LimitRule, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rule, err := uow.LimitRuleRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get limit rule %d: %w", id, err)
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}

	if update.MaxCount != nil {
		if *update.MaxCount < 1 {
			return nil, fmt.Errorf("max count must be at least 1")
		}
		rule.MaxCount = *update.MaxCount
	}
	if update.TimeWindowMinutes != nil {
		rule.TimeWindowMinutes = *update.TimeWindowMinutes
	}
	if update.Active != nil {
		rule.Active = *update.Active
	}
	if update.Description != nil {
		rule.Description = *update.Description
	}

	if err := uow.LimitRuleRepository().Update(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to update limit rule %d: %w", id, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return rule, nil
}
