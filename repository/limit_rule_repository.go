package repository

import (
	"context"
	"fmt"

	"coincafe/database"
	"coincafe/models"

	"github.com/jackc/pgx/v5"
)

// LimitRuleRepository implements the service.LimitRuleRepository interface
type LimitRuleRepository struct {
	q queryable
}

// NewLimitRuleRepository creates a new limit rule repository
func NewLimitRuleRepository(db *database.DB) *LimitRuleRepository {
	return &LimitRuleRepository{q: db.Pool}
}

// newLimitRuleRepositoryWithTx creates a new limit rule repository bound to a transaction
func newLimitRuleRepositoryWithTx(tx queryable) *LimitRuleRepository {
	return &LimitRuleRepository{q: tx}
}

const limitRuleColumns = `id, scope, scope_id, limit_type, max_count, time_window_minutes, active, description, created_at, updated_at`

func (r *LimitRuleRepository) queryRules(ctx context.Context, query string, args ...any) ([]*models.LimitRule, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*models.LimitRule
	for rows.Next() {
		var rule models.LimitRule
		err := rows.Scan(
			&rule.ID,
			&rule.Scope,
			&rule.ScopeID,
			&rule.LimitType,
			&rule.MaxCount,
			&rule.TimeWindowMinutes,
			&rule.Active,
			&rule.Description,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan limit rule: %w", err)
		}
		rules = append(rules, &rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate limit rules: %w", err)
	}
	return rules, nil
}

// FindActiveRules returns the active rules for a scope in rule id order.
// A nil scopeID matches rules with no scope id; a concrete scopeID also
// matches scope-wide rules.
func (r *LimitRuleRepository) FindActiveRules(ctx context.Context, scope models.LimitScope, scopeID *string) ([]*models.LimitRule, error) {
	query := `
		SELECT ` + limitRuleColumns + `
		FROM limit_rules
		WHERE active AND scope = $1
		  AND (scope_id IS NULL OR scope_id = $2)
		ORDER BY id
	`

	rules, err := r.queryRules(ctx, query, scope, scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find active rules for scope %s: %w", scope, err)
	}
	return rules, nil
}

// GetAll returns every rule regardless of active flag
func (r *LimitRuleRepository) GetAll(ctx context.Context) ([]*models.LimitRule, error) {
	query := `SELECT ` + limitRuleColumns + ` FROM limit_rules ORDER BY id`

	rules, err := r.queryRules(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all limit rules: %w", err)
	}
	return rules, nil
}

// GetByID retrieves a rule, or nil if it does not exist
func (r *LimitRuleRepository) GetByID(ctx context.Context, id int64) (*models.LimitRule, error) {
	query := `SELECT ` + limitRuleColumns + ` FROM limit_rules WHERE id = $1`

	var rule models.LimitRule
	err := r.q.QueryRow(ctx, query, id).Scan(
		&rule.ID,
		&rule.Scope,
		&rule.ScopeID,
		&rule.LimitType,
		&rule.MaxCount,
		&rule.TimeWindowMinutes,
		&rule.Active,
		&rule.Description,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get limit rule %d: %w", id, err)
	}
	return &rule, nil
}

// Create inserts a new rule and fills in its id
func (r *LimitRuleRepository) Create(ctx context.Context, rule *models.LimitRule) error {
	query := `
		INSERT INTO limit_rules (scope, scope_id, limit_type, max_count, time_window_minutes, active, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		rule.Scope,
		rule.ScopeID,
		rule.LimitType,
		rule.MaxCount,
		rule.TimeWindowMinutes,
		rule.Active,
		rule.Description,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create limit rule: %w", err)
	}
	return nil
}

// Update persists changes to an existing rule
func (r *LimitRuleRepository) Update(ctx context.Context, rule *models.LimitRule) error {
	query := `
		UPDATE limit_rules
		SET max_count = $1, time_window_minutes = $2, active = $3, description = $4, updated_at = NOW()
		WHERE id = $5
	`

	result, err := r.q.Exec(ctx, query,
		rule.MaxCount,
		rule.TimeWindowMinutes,
		rule.Active,
		rule.Description,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update limit rule %d: %w", rule.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("limit rule %d not found", rule.ID)
	}
	return nil
}
