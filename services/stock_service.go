package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/apperrors"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
)

const defaultMovementLimit = 100

type StockService struct {
	db        *gorm.DB
	publisher kds.Publisher
	txTimeout time.Duration
}

func NewStockService(db *gorm.DB, publisher kds.Publisher, txTimeout time.Duration) *StockService {
	if publisher == nil {
		publisher = kds.Nop{}
	}
	return &StockService{db: db, publisher: publisher, txTimeout: txTimeout}
}

type RecordMovementRequest struct {
	MenuItemID    uint
	Quantity      int
	Type          models.MovementType
	Reason        string
	UserID        uint
	SupplierID    *uint
	PurchasePrice *decimal.Decimal
	SellingPrice  *decimal.Decimal
}

type MovementFilter struct {
	MenuItemID *uint
	Type       models.MovementType
	From       *time.Time
	To         *time.Time
	Limit      int
}

// StockReconciliation compares the stored quantity with the ledger.
type StockReconciliation struct {
	MenuItemID uint `json:"menu_item_id"`
	Stored     int  `json:"stored"`
	LedgerSum  int  `json:"ledger_sum"`
	Balanced   bool `json:"balanced"`
}

// saleLine is one tracked item to decrement for an order.
type saleLine struct {
	MenuItemID uint
	Name       string
	Quantity   int
}

// RecordMovement appends a manual ledger entry and applies its delta to the
// item's stock in one transaction. Manual movements have no lower bound.
func (s *StockService) RecordMovement(ctx context.Context, req RecordMovementRequest) (*models.StockMovement, error) {
	if !req.Type.Valid() {
		return nil, apperrors.NewValidation("unknown movement type %q", req.Type)
	}
	if req.Quantity == 0 {
		return nil, apperrors.NewValidation("quantity must not be zero")
	}
	if req.UserID == 0 {
		return nil, apperrors.NewUnauthenticated("")
	}
	for _, p := range []*decimal.Decimal{req.PurchasePrice, req.SellingPrice} {
		if p != nil && p.IsNegative() {
			return nil, apperrors.NewValidation("prices must not be negative")
		}
	}

	delta := req.Type.SignedDelta(req.Quantity)
	movement := models.StockMovement{
		MenuItemID:    req.MenuItemID,
		Quantity:      delta,
		Type:          req.Type,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		SupplierID:    req.SupplierID,
		Reason:        req.Reason,
		UserID:        req.UserID,
	}

	err := runTx(ctx, s.db, s.txTimeout, func(tx *gorm.DB) error {
		var item models.MenuItem
		if err := forUpdate(tx).First(&item, req.MenuItemID).Error; err != nil {
			if isNotFound(err) {
				return apperrors.NewNotFound("menu item", req.MenuItemID)
			}
			return err
		}
		if err := ensureSupplier(tx, req.SupplierID); err != nil {
			return err
		}

		if req.Type.UpdatesPrices() {
			prices := map[string]interface{}{}
			if req.PurchasePrice != nil {
				prices["cost_price"] = *req.PurchasePrice
			}
			if req.SellingPrice != nil {
				prices["price"] = *req.SellingPrice
			}
			if len(prices) > 0 {
				if err := tx.Model(&models.MenuItem{}).Where("id = ?", item.ID).Updates(prices).Error; err != nil {
					return err
				}
			}
		}

		return appendMovementTx(tx, &movement)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"menuItemId": movement.MenuItemID,
		"type":       movement.Type,
		"delta":      movement.Quantity,
		"userId":     movement.UserID,
	}).Info("stock movement recorded")

	s.afterMovement(ctx, movement.ID)
	return s.getMovement(ctx, movement.ID)
}

// appendMovementTx inserts the ledger entry and applies its delta.
func appendMovementTx(tx *gorm.DB, movement *models.StockMovement) error {
	if err := tx.Omit("MenuItem", "Supplier").Create(movement).Error; err != nil {
		return err
	}
	return tx.Model(&models.MenuItem{}).
		Unscoped().
		Where("id = ?", movement.MenuItemID).
		Update("stock_quantity", gorm.Expr("COALESCE(stock_quantity, 0) + ?", movement.Quantity)).Error
}

// decrementForSaleTx takes stock for the tracked lines of an order. Lines are
// processed in menu item id order so concurrent orders lock rows in the same
// sequence. A guarded update that matches no row means another transaction
// took the stock first.
func decrementForSaleTx(tx *gorm.DB, orderID, userID uint, lines []saleLine) error {
	sort.Slice(lines, func(i, j int) bool { return lines[i].MenuItemID < lines[j].MenuItemID })

	for _, line := range lines {
		var item models.MenuItem
		if err := forUpdate(tx).Select("id", "name", "stock_quantity", "cost_price", "price").
			First(&item, line.MenuItemID).Error; err != nil {
			if isNotFound(err) {
				return apperrors.NewInvalidItems([]uint{line.MenuItemID})
			}
			return err
		}

		res := tx.Model(&models.MenuItem{}).
			Where("id = ? AND stock_quantity >= ?", line.MenuItemID, line.Quantity).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", line.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewInsufficientStock(line.MenuItemID, line.Name, line.Quantity, item.Stock())
		}

		cost, price := item.CostPrice, item.Price
		movement := models.StockMovement{
			MenuItemID:    line.MenuItemID,
			Quantity:      -line.Quantity,
			Type:          models.MovementExitSale,
			PurchasePrice: &cost,
			SellingPrice:  &price,
			Reason:        fmt.Sprintf("Sale order #%d", orderID),
			UserID:        userID,
		}
		if err := tx.Omit("MenuItem", "Supplier").Create(&movement).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *StockService) getMovement(ctx context.Context, id uint) (*models.StockMovement, error) {
	var movement models.StockMovement
	err := s.db.WithContext(ctx).
		Preload("MenuItem", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("MenuItem.Brand").
		Preload("Supplier").
		First(&movement, id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("stock movement", id)
		}
		return nil, apperrors.NewInternal("load stock movement", err)
	}
	return &movement, nil
}

// afterMovement publishes the movement and a low stock alert if needed.
// Failures are logged only.
func (s *StockService) afterMovement(ctx context.Context, movementID uint) {
	movement, err := s.getMovement(ctx, movementID)
	if err != nil {
		utils.ErrorLogger.Errorf("Failed to load movement %d for publish: %v", movementID, err)
		return
	}
	publishEvent(ctx, s.publisher, kds.EventStockMovement, movement)
	if movement.MenuItem.IsLowStock() {
		s.publishLowStock(ctx, movement.MenuItem)
	}
}

func (s *StockService) publishLowStock(ctx context.Context, item models.MenuItem) {
	publishEvent(ctx, s.publisher, kds.EventLowStock, item)
}

// ListMovements returns ledger entries newest first.
func (s *StockService) ListMovements(ctx context.Context, filter MovementFilter) ([]models.StockMovement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultMovementLimit
	}

	q := s.db.WithContext(ctx).
		Preload("MenuItem", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("MenuItem.Brand").
		Preload("Supplier")
	if filter.MenuItemID != nil {
		q = q.Where("menu_item_id = ?", *filter.MenuItemID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}

	var movements []models.StockMovement
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&movements).Error; err != nil {
		return nil, apperrors.NewInternal("list stock movements", err)
	}
	return movements, nil
}

// LowStock lists tracked items at or below their minimum.
func (s *StockService) LowStock(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.WithContext(ctx).
		Where("stock_quantity IS NOT NULL AND stock_quantity <= min_stock").
		Order("stock_quantity ASC").Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, apperrors.NewInternal("list low stock items", err)
	}
	return items, nil
}

// Reconcile reports whether the stored quantity matches the ledger sum.
func (s *StockService) Reconcile(ctx context.Context, menuItemID uint) (*StockReconciliation, error) {
	db := s.db.WithContext(ctx)

	var item models.MenuItem
	if err := db.Unscoped().First(&item, menuItemID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("menu item", menuItemID)
		}
		return nil, apperrors.NewInternal("load menu item", err)
	}

	var sum int64
	if err := db.Model(&models.StockMovement{}).
		Where("menu_item_id = ?", menuItemID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error; err != nil {
		return nil, apperrors.NewInternal("sum stock movements", err)
	}

	rec := &StockReconciliation{
		MenuItemID: menuItemID,
		Stored:     item.Stock(),
		LedgerSum:  int(sum),
	}
	rec.Balanced = rec.Stored == rec.LedgerSum
	return rec, nil
}

// ReconcileAll checks every tracked item, soft-deleted ones included, and
// returns only those whose stored quantity disagrees with the ledger.
func (s *StockService) ReconcileAll(ctx context.Context) ([]StockReconciliation, error) {
	var rows []StockReconciliation
	err := s.db.WithContext(ctx).
		Table("menu_items AS m").
		Select("m.id AS menu_item_id, m.stock_quantity AS stored, COALESCE(SUM(s.quantity), 0) AS ledger_sum").
		Joins("LEFT JOIN stock_movements AS s ON s.menu_item_id = m.id").
		Where("m.stock_quantity IS NOT NULL").
		Group("m.id, m.stock_quantity").
		Having("m.stock_quantity <> COALESCE(SUM(s.quantity), 0)").
		Order("m.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.NewInternal("reconcile stock", err)
	}
	return rows, nil
}
