package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commercegrid/pricing-engine/internal/domain"
	"github.com/commercegrid/pricing-engine/pkg/database"
)

// CatalogRepository implements repository.CatalogRepository using PostgreSQL.
type CatalogRepository struct {
	pool database.DBTX
}

// NewCatalogRepository creates a new PostgreSQL-backed catalog repository.
func NewCatalogRepository(pool database.DBTX) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

const productColumns = `id, category_id, brand_id, base_price, is_active,
		   campaign_price, campaign_start, campaign_end, campaign_rule_id,
		   created_at, updated_at`

// ListEligible returns active products matching the rule's target value,
// filtered by category or brand depending on the rule type.
func (r *CatalogRepository) ListEligible(ctx context.Context, rule *domain.Rule) ([]domain.Product, error) {
	if !domain.IsValidRuleType(string(rule.Type)) {
		return nil, fmt.Errorf("unsupported rule type %q", rule.Type)
	}
	targetColumn := "brand_id"
	if rule.Type == domain.RuleTypeCategory {
		targetColumn = "category_id"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE is_active = TRUE AND %s = $1
		ORDER BY id ASC`, productColumns, targetColumn)

	ctx, end := database.TraceQuery(ctx, "ListEligibleProducts", query)
	rows, err := r.pool.Query(ctx, query, rule.TargetValue)
	end(err)
	if err != nil {
		return nil, fmt.Errorf("list eligible products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.CategoryID,
			&p.BrandID,
			&p.BasePrice,
			&p.IsActive,
			&p.CampaignPrice,
			&p.CampaignStart,
			&p.CampaignEnd,
			&p.CampaignRuleID,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// ClearExpiredCampaigns bulk-clears campaign state whose window no longer
// contains now. The campaign_start > now branch is deliberate: rule windows
// can be edited externally between runs, leaving future-dated assignments
// that would otherwise never be cleaned up.
func (r *CatalogRepository) ClearExpiredCampaigns(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE products
		SET campaign_price = NULL,
		    campaign_start = NULL,
		    campaign_end = NULL,
		    campaign_rule_id = NULL,
		    updated_at = NOW()
		WHERE campaign_rule_id IS NOT NULL
		  AND (campaign_end < $1 OR campaign_start > $1)`

	ctx, end := database.TraceQuery(ctx, "ClearExpiredCampaigns", query)
	ct, err := r.pool.Exec(ctx, query, now)
	end(err)
	if err != nil {
		return 0, fmt.Errorf("clear expired campaigns: %w", err)
	}

	return ct.RowsAffected(), nil
}

// CommitCampaignPrice updates a product's campaign fields and appends the
// price change record in one transaction.
func (r *CatalogRepository) CommitCampaignPrice(ctx context.Context, productID string, rule *domain.Rule, price decimal.Decimal, change *domain.PriceChange) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updateQuery := `
		UPDATE products
		SET campaign_price = $1,
		    campaign_start = $2,
		    campaign_end = $3,
		    campaign_rule_id = $4,
		    updated_at = NOW()
		WHERE id = $5`

	ct, err := tx.Exec(ctx, updateQuery,
		price,
		rule.StartDate,
		rule.EndDate,
		rule.ID,
		productID,
	)
	if err != nil {
		return fmt.Errorf("update campaign price: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("update campaign price: product %s not found", productID)
	}

	insertQuery := `
		INSERT INTO price_changes (id, rule_id, product_id, old_price, new_price, discount_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.Exec(ctx, insertQuery,
		change.ID,
		change.RuleID,
		change.ProductID,
		change.OldPrice,
		change.NewPrice,
		change.DiscountAmount,
		change.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert price change: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
