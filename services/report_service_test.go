package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/testutil"
)

func TestPeriodRange(t *testing.T) {
	// Wednesday
	now := time.Date(2024, time.March, 13, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		period string
		want   string
		from   time.Time
		to     time.Time
	}{
		{"day", "day", time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"week", "week", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)},
		{"month", "month", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"year", "year", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"fortnight", "day", time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, from, to := PeriodRange(tt.period, now)
			assert.Equal(t, tt.want, got)
			assert.True(t, from.Equal(tt.from), from)
			assert.True(t, to.Equal(tt.to.Add(-time.Nanosecond)), to)
		})
	}
}

func TestBillingStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coffee := testutil.CreateMenuItem(t, f.db, "Coffee", "Bebidas", "10", testutil.IntPtr(50), f.user.ID)
	cake := testutil.CreateMenuItem(t, f.db, "Cake", "Doces", "30", nil, f.user.ID)
	supplier, err := f.catalog.CreateSupplier(ctx, models.Supplier{Name: "Roaster"})
	require.NoError(t, err)

	place := func(items ...CreateOrderItem) *models.Order {
		o, err := f.orders.CreateOrder(ctx, CreateOrderRequest{TableID: f.table.ID, UserID: f.user.ID, Items: items})
		require.NoError(t, err)
		return o
	}
	paid := place(CreateOrderItem{MenuItemID: coffee.ID, Quantity: 2}, CreateOrderItem{MenuItemID: cake.ID, Quantity: 1})
	served := place(CreateOrderItem{MenuItemID: cake.ID, Quantity: 2})
	place(CreateOrderItem{MenuItemID: coffee.ID, Quantity: 1})
	cancelled := place(CreateOrderItem{MenuItemID: cake.ID, Quantity: 5})

	_, err = f.orders.UpdateStatus(ctx, paid.ID, models.OrderPaid)
	require.NoError(t, err)
	_, err = f.orders.UpdateStatus(ctx, served.ID, models.OrderServed)
	require.NoError(t, err)
	_, err = f.orders.UpdateStatus(ctx, cancelled.ID, models.OrderCancelled)
	require.NoError(t, err)

	_, err = f.stock.RecordMovement(ctx, RecordMovementRequest{
		MenuItemID:    coffee.ID,
		Quantity:      10,
		Type:          models.MovementEntry,
		UserID:        f.user.ID,
		SupplierID:    &supplier.ID,
		PurchasePrice: testutil.DecPtr("5"),
	})
	require.NoError(t, err)
	_, err = f.stock.RecordMovement(ctx, RecordMovementRequest{
		MenuItemID:    coffee.ID,
		Quantity:      4,
		Type:          models.MovementEntry,
		UserID:        f.user.ID,
		PurchasePrice: testutil.DecPtr("5"),
	})
	require.NoError(t, err)

	stats, err := f.reports.BillingStats(ctx, "year")
	require.NoError(t, err)

	assert.Equal(t, "year", stats.Period)
	assert.Equal(t, 1, stats.PaidCount)
	assert.True(t, stats.TotalRevenue.Equal(testutil.Dec("50")), stats.TotalRevenue.String())
	// served (60) plus the untouched pending order (10)
	assert.Equal(t, 2, stats.PendingCount)
	assert.True(t, stats.PendingRevenue.Equal(testutil.Dec("70")), stats.PendingRevenue.String())

	// cost is half of the price for fixture items: paid 2x5 + 1x15, served 2x15
	assert.True(t, stats.TotalCost.Equal(testutil.Dec("55")), stats.TotalCost.String())
	assert.True(t, stats.GrossProfit.Equal(testutil.Dec("-5")), stats.GrossProfit.String())
	assert.True(t, stats.ProfitMargin.Equal(testutil.Dec("-10")), stats.ProfitMargin.String())
	assert.Equal(t, 2, stats.OrderCount)
	assert.True(t, stats.SalesByCategory["Bebidas"].Equal(testutil.Dec("20")))
	assert.True(t, stats.SalesByCategory["Doces"].Equal(testutil.Dec("90")))

	assert.True(t, stats.TotalPurchases.Equal(testutil.Dec("70")), stats.TotalPurchases.String())
	assert.True(t, stats.PurchasesBySupplier["Roaster"].Equal(testutil.Dec("50")))
	assert.True(t, stats.PurchasesBySupplier[noSupplier].Equal(testutil.Dec("20")))
}

func TestBillingStats_OutsidePeriodIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cake := testutil.CreateMenuItem(t, f.db, "Cake", "Doces", "30", nil, f.user.ID)
	order, err := f.orders.CreateOrder(ctx, CreateOrderRequest{
		TableID: f.table.ID,
		UserID:  f.user.ID,
		Items:   []CreateOrderItem{{MenuItemID: cake.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.orders.UpdateStatus(ctx, order.ID, models.OrderPaid)
	require.NoError(t, err)

	f.reports.now = func() time.Time { return time.Now().AddDate(-2, 0, 0) }
	stats, err := f.reports.BillingStats(ctx, "month")
	require.NoError(t, err)
	assert.True(t, stats.TotalRevenue.IsZero())
	assert.Equal(t, 0, stats.PaidCount)
	assert.True(t, stats.ProfitMargin.IsZero())
}

func TestWriteBillingPDF(t *testing.T) {
	stats := &BillingStats{
		Period:              "day",
		From:                time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC),
		To:                  time.Date(2024, 3, 13, 23, 59, 59, 0, time.UTC),
		TotalRevenue:        testutil.Dec("1250.50"),
		PendingRevenue:      testutil.Dec("80"),
		TotalCost:           testutil.Dec("400"),
		GrossProfit:         testutil.Dec("850.50"),
		ProfitMargin:        testutil.Dec("68.01"),
		SalesByCategory:     map[string]decimal.Decimal{"Bebidas": testutil.Dec("1000"), "Doces": testutil.Dec("250.50")},
		CostByCategory:      map[string]decimal.Decimal{"Bebidas": testutil.Dec("300"), "Doces": testutil.Dec("100")},
		PurchasesBySupplier: map[string]decimal.Decimal{"Café Açaí": testutil.Dec("90")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBillingPDF(&buf, stats))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWriteOrderReceiptPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	latte := testutil.CreateMenuItem(t, f.db, "Café com leite", "Bebidas", "12.50", nil, f.user.ID)
	order, err := f.orders.CreateOrder(ctx, CreateOrderRequest{
		TableID: f.table.ID,
		UserID:  f.user.ID,
		Items:   []CreateOrderItem{{MenuItemID: latte.ID, Quantity: 3, Notes: "oat milk"}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteOrderReceiptPDF(&buf, order))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), 500)
}
