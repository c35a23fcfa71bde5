package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/commercegrid/pricing-engine/internal/domain"
	"github.com/commercegrid/pricing-engine/pkg/database"
	apperrors "github.com/commercegrid/pricing-engine/pkg/errors"
)

// RuleRepository implements repository.RuleRepository using PostgreSQL.
type RuleRepository struct {
	pool database.DBTX
}

// NewRuleRepository creates a new PostgreSQL-backed rule repository.
func NewRuleRepository(pool database.DBTX) *RuleRepository {
	return &RuleRepository{pool: pool}
}

const ruleColumns = `id, name, type, target_value, discount_type, discount_amount,
		   start_date, end_date, priority, is_active, created_at, updated_at`

// ListActive returns active, time-valid category and brand rules ordered by
// priority descending. Rule id breaks priority ties so the order is stable
// across runs.
func (r *RuleRepository) ListActive(ctx context.Context, now time.Time) ([]domain.Rule, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM discount_rules
		WHERE is_active = TRUE
		  AND start_date <= $1
		  AND end_date >= $1
		  AND type IN ('category', 'brand')
		ORDER BY priority DESC, id ASC`, ruleColumns)

	ctx, end := database.TraceQuery(ctx, "ListActiveRules", query)
	rows, err := r.pool.Query(ctx, query, now)
	end(err)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.Rule
	for rows.Next() {
		var rule domain.Rule
		if err := scanRule(rows, &rule); err != nil {
			return nil, fmt.Errorf("scan rule row: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule rows: %w", err)
	}

	return rules, nil
}

// GetPriorities batch-resolves rule priorities for the given ids in a single
// query. Missing ids are simply absent from the result.
func (r *RuleRepository) GetPriorities(ctx context.Context, ids []string) (map[string]int, error) {
	priorities := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return priorities, nil
	}

	query := `SELECT id, priority FROM discount_rules WHERE id = ANY($1)`

	ctx, end := database.TraceQuery(ctx, "GetRulePriorities", query)
	rows, err := r.pool.Query(ctx, query, ids)
	end(err)
	if err != nil {
		return nil, fmt.Errorf("get rule priorities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id       string
			priority int
		)
		if err := rows.Scan(&id, &priority); err != nil {
			return nil, fmt.Errorf("scan rule priority row: %w", err)
		}
		priorities[id] = priority
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule priority rows: %w", err)
	}

	return priorities, nil
}

// GetByID retrieves a rule by its ID.
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*domain.Rule, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM discount_rules
		WHERE id = $1`, ruleColumns)

	var rule domain.Rule
	ctx, end := database.TraceQuery(ctx, "GetRuleByID", query)
	err := scanRule(r.pool.QueryRow(ctx, query, id), &rule)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("rule", id)
		}
		return nil, fmt.Errorf("get rule by id: %w", err)
	}

	return &rule, nil
}

// scanRule scans a rule from either a pgx.Row or pgx.Rows.
func scanRule(row pgx.Row, rule *domain.Rule) error {
	return row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Type,
		&rule.TargetValue,
		&rule.DiscountType,
		&rule.DiscountAmount,
		&rule.StartDate,
		&rule.EndDate,
		&rule.Priority,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
}
