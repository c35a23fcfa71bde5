// Package pricing contains the pure price calculation used by the campaign
// engine. All prices are decimal values rounded to 2 places (half up).
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/commercegrid/pricing-engine/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Discounted computes the discounted price for a base price under the given
// discount type and amount.
//
//   - percentage: base - base*amount/100
//   - fixed:      max(0, base-amount)
//
// The result is rounded to 2 decimal places. Callers are responsible for
// validating amount >= 0; the function itself never errors.
func Discounted(base decimal.Decimal, t domain.DiscountType, amount decimal.Decimal) decimal.Decimal {
	var result decimal.Decimal

	switch t {
	case domain.DiscountTypePercentage:
		result = base.Sub(base.Mul(amount).Div(hundred))
	case domain.DiscountTypeFixed:
		result = base.Sub(amount)
		if result.IsNegative() {
			result = decimal.Zero
		}
	default:
		// Unknown discount types never improve the price; returning the base
		// makes the evaluator skip the commit (no-op discounts are rejected).
		result = base
	}

	return result.Round(2)
}
