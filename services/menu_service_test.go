package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-pos/apperrors"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/testutil"
)

func TestCreateMenuItem_BooksInitialStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.menu.CreateMenuItem(ctx, CreateMenuItemRequest{
		Name:          "Iced Tea",
		Category:      "Bebidas",
		Price:         testutil.Dec("18.90"),
		CostPrice:     testutil.DecPtr("6"),
		StockQuantity: testutil.IntPtr(40),
		UserID:        f.user.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, 40, item.Stock())
	assert.Equal(t, 5, item.MinStock)
	assert.Equal(t, "un", item.Unit)
	assert.True(t, item.IsAvailable)
	assert.True(t, item.IsStockTracked())

	movements := f.movementsOf(t, item.ID)
	require.Len(t, movements, 1)
	assert.Equal(t, models.MovementInitial, movements[0].Type)
	assert.Equal(t, 40, movements[0].Quantity)
	require.NotNil(t, movements[0].PurchasePrice)
	assert.True(t, movements[0].PurchasePrice.Equal(testutil.Dec("6")))
}

func TestCreateMenuItem_WithoutStockIsUntracked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.menu.CreateMenuItem(ctx, CreateMenuItemRequest{
		Name:        "Croissant",
		Category:    "Padaria",
		Price:       testutil.Dec("12"),
		IsAvailable: boolPtr(false),
		UserID:      f.user.ID,
	})
	require.NoError(t, err)
	assert.Nil(t, item.StockQuantity)
	assert.False(t, item.IsAvailable)
	assert.Empty(t, f.movementsOf(t, item.ID))

	zero, err := f.menu.CreateMenuItem(ctx, CreateMenuItemRequest{
		Name:          "Lemonade",
		Category:      "Bebidas",
		Price:         testutil.Dec("9"),
		StockQuantity: testutil.IntPtr(0),
		UserID:        f.user.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, zero.StockQuantity)
	assert.Equal(t, 0, *zero.StockQuantity)
	assert.Empty(t, f.movementsOf(t, zero.ID))
}

func TestCreateMenuItem_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ve *apperrors.ValidationError
	_, err := f.menu.CreateMenuItem(ctx, CreateMenuItemRequest{Category: "Bebidas", Price: testutil.Dec("1"), UserID: f.user.ID})
	assert.ErrorAs(t, err, &ve)

	_, err = f.menu.CreateMenuItem(ctx, CreateMenuItemRequest{Name: "X", Category: "Bebidas", Price: testutil.Dec("-1"), UserID: f.user.ID})
	assert.ErrorAs(t, err, &ve)

	_, err = f.menu.CreateMenuItem(ctx, CreateMenuItemRequest{Name: "X", Category: "Bebidas", Price: testutil.Dec("1"), StockQuantity: testutil.IntPtr(-2), UserID: f.user.ID})
	assert.ErrorAs(t, err, &ve)

	_, err = f.menu.CreateMenuItem(ctx, CreateMenuItemRequest{Name: "X", Category: "Bebidas", Price: testutil.Dec("1"), SupplierID: testutil.UintPtr(8), UserID: f.user.ID})
	var nf *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nf)

	assert.Equal(t, int64(0), f.count(t, &models.MenuItem{}))
}

func TestUpdateMenuItem_StockChangeIsAdjustment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	beer := testutil.CreateMenuItem(t, f.db, "Beer", "Bebidas", "12", testutil.IntPtr(20), f.user.ID)

	updated, err := f.menu.UpdateMenuItem(ctx, beer.ID, UpdateMenuItemRequest{
		StockQuantity: testutil.IntPtr(14),
		Name:          stringPtr("Lager"),
		UserID:        f.user.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lager", updated.Name)
	assert.Equal(t, 14, updated.Stock())

	movements := f.movementsOf(t, beer.ID)
	require.Len(t, movements, 2)
	assert.Equal(t, models.MovementAdjustment, movements[1].Type)
	assert.Equal(t, -6, movements[1].Quantity)

	events := f.events.Events(kds.EventStockMovement)
	require.Len(t, events, 1)
	payload, ok := events[0].Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 14, payload["stock"])

	_, err = f.menu.UpdateMenuItem(ctx, beer.ID, UpdateMenuItemRequest{StockQuantity: testutil.IntPtr(14), UserID: f.user.ID})
	require.NoError(t, err)
	assert.Len(t, f.movementsOf(t, beer.ID), 2)
}

func TestUpdateMenuItem_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	beer := testutil.CreateMenuItem(t, f.db, "Beer", "Bebidas", "12", testutil.IntPtr(20), f.user.ID)

	_, err := f.menu.UpdateMenuItem(ctx, beer.ID, UpdateMenuItemRequest{Name: stringPtr("x")})
	var ua *apperrors.UnauthenticatedError
	assert.ErrorAs(t, err, &ua)

	_, err = f.menu.UpdateMenuItem(ctx, 404, UpdateMenuItemRequest{Name: stringPtr("x"), UserID: f.user.ID})
	var nf *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = f.menu.UpdateMenuItem(ctx, beer.ID, UpdateMenuItemRequest{Price: testutil.DecPtr("-3"), UserID: f.user.ID})
	var ve *apperrors.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestDeleteMenuItem_KeepsOrderHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cake := testutil.CreateMenuItem(t, f.db, "Cake", "Doces", "30", nil, f.user.ID)

	order, err := f.orders.CreateOrder(ctx, CreateOrderRequest{
		TableID: f.table.ID,
		UserID:  f.user.ID,
		Items:   []CreateOrderItem{{MenuItemID: cake.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, f.menu.DeleteMenuItem(ctx, cake.ID))

	_, err = f.menu.GetMenuItem(ctx, cake.ID)
	var nf *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.ErrorAs(t, f.menu.DeleteMenuItem(ctx, cake.ID), &nf)

	menu, err := f.menu.ListMenu(ctx, MenuFilter{IncludeUnavailable: true})
	require.NoError(t, err)
	assert.Empty(t, menu)

	reloaded, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cake", reloaded.OrderItems[0].MenuItem.Name)

	_, err = f.orders.CreateOrder(ctx, CreateOrderRequest{
		TableID: f.table.ID,
		UserID:  f.user.ID,
		Items:   []CreateOrderItem{{MenuItemID: cake.ID, Quantity: 1}},
	})
	var invalid *apperrors.InvalidItemsError
	assert.ErrorAs(t, err, &invalid)
}

func TestListMenu_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateMenuItem(t, f.db, "Latte", "Bebidas", "20", nil, f.user.ID)
	testutil.CreateMenuItem(t, f.db, "Americano", "Bebidas", "15", nil, f.user.ID)
	hidden := testutil.CreateMenuItem(t, f.db, "Brownie", "Doces", "10", nil, f.user.ID)
	require.NoError(t, f.db.Model(&hidden).Update("is_available", false).Error)

	visible, err := f.menu.ListMenu(ctx, MenuFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "Americano", visible[0].Name)

	everything, err := f.menu.ListMenu(ctx, MenuFilter{IncludeUnavailable: true})
	require.NoError(t, err)
	assert.Len(t, everything, 3)

	sweets, err := f.menu.ListMenu(ctx, MenuFilter{Category: "Doces", IncludeUnavailable: true})
	require.NoError(t, err)
	require.Len(t, sweets, 1)
	assert.Equal(t, hidden.ID, sweets[0].ID)
}

func boolPtr(v bool) *bool { return &v }

func stringPtr(v string) *string { return &v }

func TestMenuItem_BrandAndProductDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	brand, err := f.catalog.CreateBrand(ctx, "Fonte Fresca")
	require.NoError(t, err)
	expiry := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)

	item, err := f.menu.CreateMenuItem(ctx, CreateMenuItemRequest{
		Name:          "Mineral Water",
		Category:      "Bebidas",
		Price:         testutil.Dec("40"),
		StockQuantity: testutil.IntPtr(24),
		Volume:        "500ml",
		Barcode:       "5601234567890",
		ExpiryDate:    &expiry,
		BrandID:       &brand.ID,
		UserID:        f.user.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, item.Brand)
	assert.Equal(t, "Fonte Fresca", item.Brand.Name)
	assert.Equal(t, "500ml", item.Volume)
	assert.Equal(t, "5601234567890", item.Barcode)
	require.NotNil(t, item.ExpiryDate)
	assert.True(t, item.ExpiryDate.Equal(expiry))

	movements, err := f.stock.ListMovements(ctx, MovementFilter{MenuItemID: &item.ID})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.NotNil(t, movements[0].MenuItem.Brand)
	assert.Equal(t, brand.ID, movements[0].MenuItem.Brand.ID)

	updated, err := f.menu.UpdateMenuItem(ctx, item.ID, UpdateMenuItemRequest{
		Volume: stringPtr("1.5L"),
		UserID: f.user.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "1.5L", updated.Volume)
	assert.Equal(t, "Fonte Fresca", updated.Brand.Name)

	missing := uint(404)
	_, err = f.menu.UpdateMenuItem(ctx, item.ID, UpdateMenuItemRequest{BrandID: &missing, UserID: f.user.ID})
	var nf *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = f.menu.CreateMenuItem(ctx, CreateMenuItemRequest{
		Name: "Ghost", Category: "Bebidas", Price: testutil.Dec("1"), BrandID: &missing, UserID: f.user.ID,
	})
	assert.ErrorAs(t, err, &nf)
}
