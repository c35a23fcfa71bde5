package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commercegrid/pricing-engine/internal/domain"
)

// RuleRepository provides read-only access to discount rules. The engine
// never creates, edits, or deletes rule records.
type RuleRepository interface {
	// ListActive returns rules that are active, whose validity window contains
	// now, and whose type the engine evaluates (category or brand). Results
	// are ordered by priority descending with rule id as a stable tie-breaker,
	// so repeated runs are deterministic.
	ListActive(ctx context.Context, now time.Time) ([]domain.Rule, error)

	// GetPriorities batch-resolves the priorities of the given rule ids.
	// Ids that no longer exist are absent from the returned map.
	GetPriorities(ctx context.Context, ids []string) (map[string]int, error)

	// GetByID retrieves a single rule.
	GetByID(ctx context.Context, id string) (*domain.Rule, error)
}

// CatalogRepository provides the engine's narrow read/write access to catalog
// items: eligibility reads, the bulk expiry sweep, and the atomic campaign
// price commit. The engine never touches base prices.
type CatalogRepository interface {
	// ListEligible returns active products matching the rule's target
	// (category or brand), including their current campaign assignment.
	ListEligible(ctx context.Context, rule *domain.Rule) ([]domain.Product, error)

	// ClearExpiredCampaigns nulls the campaign fields on every product whose
	// campaign window no longer contains now (ended in the past or starting in
	// the future). Returns the number of products cleared.
	ClearExpiredCampaigns(ctx context.Context, now time.Time) (int64, error)

	// CommitCampaignPrice sets the campaign fields on a product and appends
	// the matching price change record in a single transaction, so a crash can
	// never produce a price change without its audit record or vice versa.
	CommitCampaignPrice(ctx context.Context, productID string, rule *domain.Rule, price decimal.Decimal, change *domain.PriceChange) error
}
