package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceChange is an append-only audit record written alongside every campaign
// price commit. Records are never updated or deleted by the engine.
type PriceChange struct {
	ID             string          `json:"id"`
	RuleID         string          `json:"rule_id"`
	ProductID      string          `json:"product_id"`
	OldPrice       decimal.Decimal `json:"old_price"`
	NewPrice       decimal.Decimal `json:"new_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	CreatedAt      time.Time       `json:"created_at"`
}
