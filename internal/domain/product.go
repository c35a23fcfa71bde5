package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the engine's view of a catalog item. BasePrice is canonical and
// never mutated here; the campaign fields are derived state owned by the
// pricing engine.
//
// CampaignRuleID is a plain identifier, not an owned reference: the engine
// compares it against currently loaded rule priorities and never dereferences
// it as an object graph.
type Product struct {
	ID             string           `json:"id"`
	CategoryID     *string          `json:"category_id,omitempty"`
	BrandID        *string          `json:"brand_id,omitempty"`
	BasePrice      decimal.Decimal  `json:"base_price"`
	IsActive       bool             `json:"is_active"`
	CampaignPrice  *decimal.Decimal `json:"campaign_price,omitempty"`
	CampaignStart  *time.Time       `json:"campaign_start,omitempty"`
	CampaignEnd    *time.Time       `json:"campaign_end,omitempty"`
	CampaignRuleID *string          `json:"campaign_rule_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// HasCampaign reports whether the product currently carries a campaign assignment.
func (p *Product) HasCampaign() bool {
	return p.CampaignRuleID != nil
}
