package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/apperrors"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/testutil"
)

func TestRecordMovement_NormalizesSign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	beer := testutil.CreateMenuItem(t, f.db, "Beer", "Bebidas", "12", testutil.IntPtr(20), f.user.ID)

	cases := []struct {
		typ      models.MovementType
		quantity int
		delta    int
		stock    int
	}{
		{models.MovementEntry, -6, 6, 26},
		{models.MovementLoss, 4, -4, 22},
		{models.MovementAdjustment, -2, -2, 20},
		{models.MovementAdjustment, 3, 3, 23},
	}
	for _, tc := range cases {
		m, err := f.stock.RecordMovement(ctx, RecordMovementRequest{
			MenuItemID: beer.ID,
			Quantity:   tc.quantity,
			Type:       tc.typ,
			Reason:     "count",
			UserID:     f.user.ID,
		})
		require.NoError(t, err, tc.typ)
		assert.Equal(t, tc.delta, m.Quantity, tc.typ)
		assert.Equal(t, "Beer", m.MenuItem.Name)
		assert.Equal(t, tc.stock, *f.stockOf(t, beer.ID), tc.typ)
	}

	rec, err := f.stock.Reconcile(ctx, beer.ID)
	require.NoError(t, err)
	assert.True(t, rec.Balanced)
	assert.Equal(t, 23, rec.LedgerSum)
	assert.Len(t, f.events.Events(kds.EventStockMovement), len(cases))
}

func TestRecordMovement_LossMayGoNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	milk := testutil.CreateMenuItem(t, f.db, "Milk", "Bebidas", "8", testutil.IntPtr(2), f.user.ID)

	_, err := f.stock.RecordMovement(ctx, RecordMovementRequest{
		MenuItemID: milk.ID,
		Quantity:   5,
		Type:       models.MovementLoss,
		Reason:     "spilled",
		UserID:     f.user.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, -3, *f.stockOf(t, milk.ID))

	low := f.events.Events(kds.EventLowStock)
	require.Len(t, low, 1)
	item, ok := low[0].Data.(models.MenuItem)
	require.True(t, ok)
	assert.Equal(t, milk.ID, item.ID)
}

func TestRecordMovement_EntryUpdatesPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	supplier, err := f.catalog.CreateSupplier(ctx, models.Supplier{Name: "Distribuidora Sul"})
	require.NoError(t, err)
	soda := testutil.CreateMenuItem(t, f.db, "Soda", "Bebidas", "10", testutil.IntPtr(0), f.user.ID)

	m, err := f.stock.RecordMovement(ctx, RecordMovementRequest{
		MenuItemID:    soda.ID,
		Quantity:      24,
		Type:          models.MovementEntry,
		UserID:        f.user.ID,
		SupplierID:    &supplier.ID,
		PurchasePrice: testutil.DecPtr("4.25"),
		SellingPrice:  testutil.DecPtr("11"),
	})
	require.NoError(t, err)
	require.NotNil(t, m.Supplier)
	assert.Equal(t, "Distribuidora Sul", m.Supplier.Name)

	item, err := f.menu.GetMenuItem(ctx, soda.ID)
	require.NoError(t, err)
	assert.True(t, item.CostPrice.Equal(testutil.Dec("4.25")))
	assert.True(t, item.Price.Equal(testutil.Dec("11")))
	assert.Equal(t, 24, item.Stock())

	_, err = f.stock.RecordMovement(ctx, RecordMovementRequest{
		MenuItemID:    soda.ID,
		Quantity:      1,
		Type:          models.MovementLoss,
		UserID:        f.user.ID,
		PurchasePrice: testutil.DecPtr("99"),
	})
	require.NoError(t, err)
	item, err = f.menu.GetMenuItem(ctx, soda.ID)
	require.NoError(t, err)
	assert.True(t, item.CostPrice.Equal(testutil.Dec("4.25")), "losses keep the price of record")
}

func TestRecordMovement_UntrackedItemBecomesTracked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tea := testutil.CreateMenuItem(t, f.db, "Tea", "Bebidas", "20", nil, f.user.ID)

	_, err := f.stock.RecordMovement(ctx, RecordMovementRequest{
		MenuItemID: tea.ID,
		Quantity:   12,
		Type:       models.MovementEntry,
		UserID:     f.user.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, f.stockOf(t, tea.ID))
	assert.Equal(t, 12, *f.stockOf(t, tea.ID))
}

func TestRecordMovement_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	beer := testutil.CreateMenuItem(t, f.db, "Beer", "Bebidas", "12", testutil.IntPtr(20), f.user.ID)
	base := RecordMovementRequest{MenuItemID: beer.ID, Quantity: 1, Type: models.MovementEntry, UserID: f.user.ID}

	var ve *apperrors.ValidationError
	req := base
	req.Quantity = 0
	_, err := f.stock.RecordMovement(ctx, req)
	assert.ErrorAs(t, err, &ve)

	req = base
	req.Type = "GIFT"
	_, err = f.stock.RecordMovement(ctx, req)
	assert.ErrorAs(t, err, &ve)

	req = base
	req.PurchasePrice = testutil.DecPtr("-1")
	_, err = f.stock.RecordMovement(ctx, req)
	assert.ErrorAs(t, err, &ve)

	req = base
	req.UserID = 0
	_, err = f.stock.RecordMovement(ctx, req)
	var ua *apperrors.UnauthenticatedError
	assert.ErrorAs(t, err, &ua)

	var nf *apperrors.NotFoundError
	req = base
	req.MenuItemID = 999
	_, err = f.stock.RecordMovement(ctx, req)
	assert.ErrorAs(t, err, &nf)

	req = base
	req.SupplierID = testutil.UintPtr(55)
	_, err = f.stock.RecordMovement(ctx, req)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "supplier", nf.Resource)

	assert.Equal(t, 20, *f.stockOf(t, beer.ID))
	assert.Len(t, f.movementsOf(t, beer.ID), 1)
	assert.Empty(t, f.events.Messages())
}

func TestListMovements_NewestFirstWithFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	beer := testutil.CreateMenuItem(t, f.db, "Beer", "Bebidas", "12", testutil.IntPtr(20), f.user.ID)
	wine := testutil.CreateMenuItem(t, f.db, "Wine", "Bebidas", "40", testutil.IntPtr(6), f.user.ID)

	for _, typ := range []models.MovementType{models.MovementEntry, models.MovementLoss} {
		_, err := f.stock.RecordMovement(ctx, RecordMovementRequest{MenuItemID: beer.ID, Quantity: 2, Type: typ, UserID: f.user.ID})
		require.NoError(t, err)
	}

	all, err := f.stock.ListMovements(ctx, MovementFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, models.MovementLoss, all[0].Type)

	byItem, err := f.stock.ListMovements(ctx, MovementFilter{MenuItemID: &wine.ID})
	require.NoError(t, err)
	require.Len(t, byItem, 1)
	assert.Equal(t, "Wine", byItem[0].MenuItem.Name)

	entries, err := f.stock.ListMovements(ctx, MovementFilter{Type: models.MovementEntry})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	limited, err := f.stock.ListMovements(ctx, MovementFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLowStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateMenuItem(t, f.db, "Beer", "Bebidas", "12", testutil.IntPtr(20), f.user.ID)
	wine := testutil.CreateMenuItem(t, f.db, "Wine", "Bebidas", "40", testutil.IntPtr(5), f.user.ID)
	gin := testutil.CreateMenuItem(t, f.db, "Gin", "Bebidas", "50", testutil.IntPtr(1), f.user.ID)
	testutil.CreateMenuItem(t, f.db, "Tea", "Bebidas", "20", nil, f.user.ID)

	items, err := f.stock.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, gin.ID, items[0].ID)
	assert.Equal(t, wine.ID, items[1].ID)
}

func TestReconcile_LedgerMatchesAfterMixedOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.menu.CreateMenuItem(ctx, CreateMenuItemRequest{
		Name:          "Cappuccino",
		Category:      "Bebidas",
		Price:         testutil.Dec("70"),
		StockQuantity: testutil.IntPtr(15),
		UserID:        f.user.ID,
	})
	require.NoError(t, err)

	_, err = f.orders.CreateOrder(ctx, CreateOrderRequest{
		TableID: f.table.ID,
		UserID:  f.user.ID,
		Items:   []CreateOrderItem{{MenuItemID: created.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	_, err = f.stock.RecordMovement(ctx, RecordMovementRequest{MenuItemID: created.ID, Quantity: 2, Type: models.MovementLoss, UserID: f.user.ID})
	require.NoError(t, err)

	_, err = f.menu.UpdateMenuItem(ctx, created.ID, UpdateMenuItemRequest{StockQuantity: testutil.IntPtr(30), UserID: f.user.ID})
	require.NoError(t, err)

	rec, err := f.stock.Reconcile(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, rec.Stored)
	assert.Equal(t, 30, rec.LedgerSum)
	assert.True(t, rec.Balanced)

	_, err = f.stock.Reconcile(ctx, 999)
	var nf *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
