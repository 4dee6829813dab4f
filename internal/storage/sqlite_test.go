package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont/wealthsim/internal/common"
	"github.com/oakmont/wealthsim/internal/model"
	"github.com/oakmont/wealthsim/internal/service"
)

func setupTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testCustomer(id string) model.Customer {
	return model.Customer{
		ID:                id,
		Type:              model.CustomerPersonal,
		RiskLevel:         model.RiskR3,
		IncomeTier:        model.IncomeMedium,
		WealthPhase:       model.PhaseEstablished,
		Region:            "east",
		Province:          "Jiangsu",
		TotalAssets:       500000,
		Savings:           200000,
		WealthBalance:     80000,
		MonthlyIncome:     15000,
		DaysSinceActivity: 12,
		IsVIP:             true,
		RegisteredAt:      time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testProduct(id string) model.Product {
	return model.Product{
		ID:                     id,
		Name:                   "Test Bond " + id,
		Issuer:                 "Huaxin Bank",
		RiskLevel:              model.RiskR2,
		Type:                   model.TypeBond,
		RedemptionStyle:        model.RedeemAnytime,
		InvestmentPeriodMonths: 6,
		ExpectedYield:          0.045,
		MinimumInvestment:      10000,
		MarketingActive:        true,
		VIPOnly:                true,
		AllowedRegions:         []string{"east", "south"},
		AllowedPhases:          []model.WealthPhase{model.PhaseEstablished},
		PerCustomerCap:         3,
		LaunchDate:             time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:                time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

func testPosition(id, customerID, productID string, purchase time.Time) model.InvestmentPosition {
	return model.InvestmentPosition{
		ID:             id,
		CustomerID:     customerID,
		ProductID:      productID,
		AccountID:      "ACC-1",
		Channel:        "mobile_app",
		PurchaseAmount: 50000,
		HoldAmount:     50000,
		ExpectedReturn: 0.045,
		Status:         model.StatusHeld,
		PurchaseTime:   purchase,
		MaturityTime:   purchase.AddDate(0, 6, 0),
	}
}

func TestCustomerRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	want := testCustomer("CUS-1")
	require.NoError(t, store.SaveCustomers(ctx, []model.Customer{want, testCustomer("CUS-2")}))

	got, err := store.GetCustomer(ctx, "CUS-1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.RiskLevel, got.RiskLevel)
	assert.Equal(t, want.IncomeTier, got.IncomeTier)
	assert.Equal(t, want.WealthPhase, got.WealthPhase)
	assert.Equal(t, want.IsVIP, got.IsVIP)
	assert.Equal(t, want.WealthBalance, got.WealthBalance)
	assert.True(t, want.RegisteredAt.Equal(got.RegisteredAt))

	all, err := store.GetAllCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	some, err := store.GetCustomers(ctx, []string{"CUS-2", "CUS-404"})
	require.NoError(t, err)
	assert.Len(t, some, 1)
}

func TestGetCustomerNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetCustomer(context.Background(), "CUS-404")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestProductRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	want := testProduct("PRD-1")
	require.NoError(t, store.SaveProducts(ctx, []model.Product{want}))

	got, err := store.GetProduct(ctx, "PRD-1")
	require.NoError(t, err)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.RedemptionStyle, got.RedemptionStyle)
	assert.Equal(t, want.AllowedRegions, got.AllowedRegions)
	assert.Equal(t, want.AllowedPhases, got.AllowedPhases)
	assert.Equal(t, want.PerCustomerCap, got.PerCustomerCap)
	assert.Equal(t, want.VIPOnly, got.VIPOnly)
	assert.Equal(t, want.MinimumInvestment, got.MinimumInvestment)
}

func TestGetProductsAvailableWindow(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	onSale := testProduct("PRD-1")
	expired := testProduct("PRD-2")
	expired.EndDate = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	notYet := testProduct("PRD-3")
	notYet.LaunchDate = time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	pulled := testProduct("PRD-4")
	pulled.MarketingActive = false

	require.NoError(t, store.SaveProducts(ctx, []model.Product{onSale, expired, notYet, pulled}))

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	available, err := store.GetProductsAvailable(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "PRD-1", available[0].ID)
}

func TestPositionLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	purchase := time.Date(2025, 1, 10, 10, 30, 0, 0, time.UTC)

	require.NoError(t, store.SaveCustomers(ctx, []model.Customer{testCustomer("CUS-1")}))
	require.NoError(t, store.SaveProducts(ctx, []model.Product{testProduct("PRD-1")}))
	require.NoError(t, store.SavePositions(ctx, []model.InvestmentPosition{
		testPosition("POS-1", "CUS-1", "PRD-1", purchase),
		testPosition("POS-2", "CUS-1", "PRD-1", purchase.AddDate(0, 0, 5)),
	}))

	open, err := store.LoadOpenPositions(ctx, service.PositionFilter{})
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "POS-1", open[0].ID, "oldest purchase first")

	// Partial redemption on POS-1.
	at := purchase.AddDate(0, 2, 0)
	applied, err := store.ApplyTransitions(ctx, []model.PositionDelta{{
		PositionID:     "POS-1",
		CustomerID:     "CUS-1",
		ProductID:      "PRD-1",
		OldStatus:      model.StatusHeld,
		NewStatus:      model.StatusPartiallyRedeemed,
		RedeemedAmount: 20000,
		NewHoldAmount:  30000,
		OccurredAt:     at,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	open, err = store.LoadOpenPositions(ctx, service.PositionFilter{CustomerID: "CUS-1"})
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, model.StatusPartiallyRedeemed, open[0].Status)
	assert.Equal(t, 30000.0, open[0].HoldAmount)

	// Full redemption removes it from the open set.
	closeAt := purchase.AddDate(0, 3, 0)
	applied, err = store.ApplyTransitions(ctx, []model.PositionDelta{{
		PositionID:     "POS-1",
		CustomerID:     "CUS-1",
		ProductID:      "PRD-1",
		OldStatus:      model.StatusPartiallyRedeemed,
		NewStatus:      model.StatusFullyRedeemed,
		RedeemedAmount: 30000,
		NewHoldAmount:  0,
		FullRedeemTime: &closeAt,
		OccurredAt:     closeAt,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	open, err = store.LoadOpenPositions(ctx, service.PositionFilter{})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "POS-2", open[0].ID)

	count, err := store.CountCustomerPositions(ctx, "CUS-1", "PRD-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestApplyTransitionsStaleDelta(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	purchase := time.Date(2025, 1, 10, 10, 30, 0, 0, time.UTC)

	require.NoError(t, store.SavePositions(ctx, []model.InvestmentPosition{
		testPosition("POS-1", "CUS-1", "PRD-1", purchase),
	}))

	// Delta built against a state the row is no longer in.
	applied, err := store.ApplyTransitions(ctx, []model.PositionDelta{{
		PositionID:     "POS-1",
		CustomerID:     "CUS-1",
		ProductID:      "PRD-1",
		OldStatus:      model.StatusPartiallyRedeemed,
		NewStatus:      model.StatusFullyRedeemed,
		RedeemedAmount: 50000,
		NewHoldAmount:  0,
		FullRedeemTime: &purchase,
		OccurredAt:     purchase,
	}})
	require.NoError(t, err)
	assert.Zero(t, applied, "stale delta must not apply")
}

func TestGetCustomerHistory(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	purchase := time.Date(2025, 1, 10, 10, 30, 0, 0, time.UTC)

	require.NoError(t, store.SaveProducts(ctx, []model.Product{testProduct("PRD-1")}))
	positions := []model.InvestmentPosition{
		testPosition("POS-1", "CUS-1", "PRD-1", purchase),
		testPosition("POS-2", "CUS-1", "PRD-1", purchase.AddDate(0, 1, 0)),
		testPosition("POS-3", "CUS-2", "PRD-1", purchase),
	}
	require.NoError(t, store.SavePositions(ctx, positions))

	history, err := store.GetCustomerHistory(ctx, "CUS-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].PurchaseTime.After(history[1].PurchaseTime), "newest first")
	assert.Equal(t, model.TypeBond, history[0].ProductType)
	assert.Equal(t, model.CategoryLow, history[0].RiskCategory)
	assert.Equal(t, "Huaxin Bank", history[0].Issuer)

	limited, err := store.GetCustomerHistory(ctx, "CUS-1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestWatermarkRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	at, err := store.GetWatermark(ctx, "advance")
	require.NoError(t, err)
	assert.True(t, at.IsZero(), "missing watermark reads as zero time")

	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetWatermark(ctx, "advance", day))
	require.NoError(t, store.SetWatermark(ctx, "advance", day.AddDate(0, 0, 1)))

	at, err = store.GetWatermark(ctx, "advance")
	require.NoError(t, err)
	assert.True(t, day.AddDate(0, 0, 1).Equal(at))
}

func TestSaveEventsAndReadBack(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 2, 1, 14, 0, 0, 0, time.UTC)

	events := []model.PositionEvent{
		{ID: "EVT-1", PositionID: "POS-1", CustomerID: "CUS-1", Kind: model.EventPurchase,
			NewStatus: model.StatusHeld, Amount: 50000, OccurredAt: at},
		{ID: "EVT-2", PositionID: "POS-1", CustomerID: "CUS-1", Kind: model.EventPartialRedeem,
			OldStatus: model.StatusHeld, NewStatus: model.StatusPartiallyRedeemed,
			Amount: 20000, OccurredAt: at.AddDate(0, 1, 0)},
	}
	require.NoError(t, store.SaveEvents(ctx, events))

	got, err := store.GetPositionEvents(ctx, "POS-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.EventPurchase, got[0].Kind)
	assert.Equal(t, model.EventPartialRedeem, got[1].Kind)
	assert.Equal(t, 20000.0, got[1].Amount)
}

func TestValidationRejectsBadInput(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.SaveCustomers(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptySlice)

	_, err = store.GetCustomer(ctx, "")
	assert.Error(t, err)

	bad := testPosition("POS-1", "CUS-1", "PRD-1", time.Now())
	bad.HoldAmount = -5
	err = store.SavePositions(ctx, []model.InvestmentPosition{bad})
	assert.Error(t, err)

	//nolint:staticcheck // deliberately nil context
	_, err = store.GetAllCustomers(nil)
	assert.Error(t, err)
}
