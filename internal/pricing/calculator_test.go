package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/commercegrid/pricing-engine/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDiscounted_Percentage(t *testing.T) {
	got := Discounted(dec("100.00"), domain.DiscountTypePercentage, dec("20"))
	assert.True(t, got.Equal(dec("80.00")), "got %s", got)
}

func TestDiscounted_Fixed(t *testing.T) {
	got := Discounted(dec("100.00"), domain.DiscountTypeFixed, dec("30"))
	assert.True(t, got.Equal(dec("70.00")), "got %s", got)
}

func TestDiscounted_FixedClampsAtZero(t *testing.T) {
	got := Discounted(dec("10.00"), domain.DiscountTypeFixed, dec("50"))
	assert.True(t, got.Equal(decimal.Zero), "got %s", got)
}

func TestDiscounted_ZeroPercentageIsNoOp(t *testing.T) {
	got := Discounted(dec("100.00"), domain.DiscountTypePercentage, dec("0"))
	assert.True(t, got.Equal(dec("100.00")), "got %s", got)
}

func TestDiscounted_RoundsToTwoPlacesHalfUp(t *testing.T) {
	// 33.335 rounds up to 33.34.
	got := Discounted(dec("66.67"), domain.DiscountTypePercentage, dec("50"))
	assert.True(t, got.Equal(dec("33.34")), "got %s", got)

	// 9.999... style fractions from percentage math.
	got = Discounted(dec("19.99"), domain.DiscountTypePercentage, dec("15"))
	assert.True(t, got.Equal(dec("16.99")), "got %s", got)
}

func TestDiscounted_UnknownTypeReturnsBase(t *testing.T) {
	got := Discounted(dec("42.50"), domain.DiscountType("bogus"), dec("10"))
	assert.True(t, got.Equal(dec("42.50")), "got %s", got)
}
