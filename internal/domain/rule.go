package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleType determines how a discount rule selects its target products.
type RuleType string

const (
	RuleTypeCategory RuleType = "category"
	RuleTypeBrand    RuleType = "brand"
)

// DiscountType determines how a rule's discount amount is interpreted.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Rule represents a persisted discount rule. Rules are authored by an external
// admin workflow; the pricing engine only ever reads them.
type Rule struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           RuleType        `json:"type"`
	TargetValue    string          `json:"target_value"`
	DiscountType   DiscountType    `json:"discount_type"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	Priority       int             `json:"priority"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ValidRuleTypes returns the set of rule types the engine evaluates.
func ValidRuleTypes() []RuleType {
	return []RuleType{RuleTypeCategory, RuleTypeBrand}
}

// IsValidRuleType checks whether the given string is a rule type the engine evaluates.
func IsValidRuleType(t string) bool {
	for _, v := range ValidRuleTypes() {
		if string(v) == t {
			return true
		}
	}
	return false
}
