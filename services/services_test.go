package services

import (
	"testing"
	"time"

	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/testutil"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	events  *kds.Recorder
	tables  *TableService
	stock   *StockService
	menu    *MenuService
	orders  *OrderService
	reports *ReportService
	catalog *CatalogService
	user    models.User
	table   models.Table
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithOptions(t, OrderOptions{StrictTransitions: true})
}

func newFixtureWithOptions(t *testing.T, opts OrderOptions) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	events := kds.NewRecorder(0)
	timeout := 5 * time.Second
	if opts.TxTimeout == 0 {
		opts.TxTimeout = timeout
	}

	f := &fixture{db: db, events: events}
	f.tables = NewTableService(db, events, timeout)
	f.stock = NewStockService(db, events, timeout)
	f.menu = NewMenuService(db, events, timeout)
	f.orders = NewOrderService(db, f.tables, f.stock, events, opts)
	f.reports = NewReportService(db)
	f.catalog = NewCatalogService(db)
	f.user = testutil.CreateUser(t, db, "barista", "secret", models.RoleStaff)
	f.table = testutil.CreateTable(t, db, 1)
	return f
}

func (f *fixture) stockOf(t *testing.T, id uint) *int {
	t.Helper()
	var item models.MenuItem
	if err := f.db.Unscoped().First(&item, id).Error; err != nil {
		t.Fatalf("load menu item: %v", err)
	}
	return item.StockQuantity
}

func (f *fixture) movementsOf(t *testing.T, id uint) []models.StockMovement {
	t.Helper()
	var movements []models.StockMovement
	if err := f.db.Where("menu_item_id = ?", id).Order("id ASC").Find(&movements).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	return movements
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
