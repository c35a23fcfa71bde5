package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercegrid/pricing-engine/internal/domain"
	"github.com/commercegrid/pricing-engine/pkg/database"
)

func setupCatalogRepo(t *testing.T) (*CatalogRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewCatalogRepository(mock)
	return repo, mock
}

func productColumnNames() []string {
	return []string{
		"id", "category_id", "brand_id", "base_price", "is_active",
		"campaign_price", "campaign_start", "campaign_end", "campaign_rule_id",
		"created_at", "updated_at",
	}
}

func sampleChange() *domain.PriceChange {
	return &domain.PriceChange{
		ID:             "change-001",
		RuleID:         "rule-001",
		ProductID:      "prod-001",
		OldPrice:       decimal.RequireFromString("100.00"),
		NewPrice:       decimal.RequireFromString("80.00"),
		DiscountAmount: decimal.RequireFromString("20.00"),
		CreatedAt:      testNow,
	}
}

// ---------------------------------------------------------------------------
// ListEligible
// ---------------------------------------------------------------------------

func TestListEligible_CategoryRule(t *testing.T) {
	repo, mock := setupCatalogRepo(t)
	defer mock.Close()

	rule := sampleRule()
	category := "electronics"
	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(rule.TargetValue).
		WillReturnRows(pgxmock.NewRows(productColumnNames()).
			AddRow(
				"prod-001", &category, nil, decimal.RequireFromString("100.00"), true,
				nil, nil, nil, nil,
				testNow, testNow,
			))

	products, err := repo.ListEligible(context.Background(), rule)

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "prod-001", products[0].ID)
	assert.True(t, products[0].BasePrice.Equal(decimal.RequireFromString("100.00")))
	assert.Nil(t, products[0].CampaignRuleID)
}

func TestListEligible_BrandRule(t *testing.T) {
	repo, mock := setupCatalogRepo(t)
	defer mock.Close()

	rule := sampleRule()
	rule.Type = domain.RuleTypeBrand
	rule.TargetValue = "acme"
	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs("acme").
		WillReturnRows(pgxmock.NewRows(productColumnNames()))

	products, err := repo.ListEligible(context.Background(), rule)

	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestListEligible_UnsupportedRuleType(t *testing.T) {
	repo, mock := setupCatalogRepo(t)
	defer mock.Close()

	rule := sampleRule()
	rule.Type = domain.RuleType("product")

	products, err := repo.ListEligible(context.Background(), rule)

	assert.Nil(t, products)
	assert.ErrorContains(t, err, "unsupported rule type")
}

// ---------------------------------------------------------------------------
// ClearExpiredCampaigns
// ---------------------------------------------------------------------------

func TestClearExpiredCampaigns_ReturnsAffectedCount(t *testing.T) {
	repo, mock := setupCatalogRepo(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE products").
		WithArgs(testNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	cleared, err := repo.ClearExpiredCampaigns(context.Background(), testNow)

	require.NoError(t, err)
	assert.Equal(t, int64(3), cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearExpiredCampaigns_Error(t *testing.T) {
	repo, mock := setupCatalogRepo(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE products").
		WithArgs(testNow).
		WillReturnError(errors.New("lock timeout"))

	cleared, err := repo.ClearExpiredCampaigns(context.Background(), testNow)

	assert.Zero(t, cleared)
	assert.ErrorContains(t, err, "clear expired campaigns")
}

// ---------------------------------------------------------------------------
// CommitCampaignPrice
// ---------------------------------------------------------------------------

func TestCommitCampaignPrice_Success(t *testing.T) {
	repo, mock := setupCatalogRepo(t)
	defer mock.Close()

	rule := sampleRule()
	change := sampleChange()
	price := decimal.RequireFromString("80.00")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products").
		WithArgs(price, rule.StartDate, rule.EndDate, rule.ID, "prod-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO price_changes").
		WithArgs(change.ID, change.RuleID, change.ProductID, change.OldPrice, change.NewPrice, change.DiscountAmount, change.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.CommitCampaignPrice(context.Background(), "prod-001", rule, price, change)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitCampaignPrice_ProductGoneRollsBack(t *testing.T) {
	repo, mock := setupCatalogRepo(t)
	defer mock.Close()

	rule := sampleRule()
	change := sampleChange()
	price := decimal.RequireFromString("80.00")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products").
		WithArgs(price, rule.StartDate, rule.EndDate, rule.ID, "prod-gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.CommitCampaignPrice(context.Background(), "prod-gone", rule, price, change)

	assert.ErrorContains(t, err, "product prod-gone not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitCampaignPrice_InsertFailureRollsBack(t *testing.T) {
	repo, mock := setupCatalogRepo(t)
	defer mock.Close()

	rule := sampleRule()
	change := sampleChange()
	price := decimal.RequireFromString("80.00")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products").
		WithArgs(price, rule.StartDate, rule.EndDate, rule.ID, "prod-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO price_changes").
		WithArgs(change.ID, change.RuleID, change.ProductID, change.OldPrice, change.NewPrice, change.DiscountAmount, change.CreatedAt).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.CommitCampaignPrice(context.Background(), "prod-001", rule, price, change)

	assert.ErrorContains(t, err, "insert price change")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitCampaignPrice_BeginFailure(t *testing.T) {
	repo, mock := setupCatalogRepo(t)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := repo.CommitCampaignPrice(context.Background(), "prod-001", sampleRule(), decimal.RequireFromString("80.00"), sampleChange())

	assert.ErrorContains(t, err, "begin transaction")
}
