package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/apperrors"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultStockTrackedCategory = "Bebidas"

type OrderOptions struct {
	// StockTrackedCategory is the menu category whose stock is enforced.
	StockTrackedCategory string
	// StrictTransitions rejects backward moves and moves out of terminal states.
	StrictTransitions bool
	TxTimeout         time.Duration
}

type OrderService struct {
	db        *gorm.DB
	tables    *TableService
	stock     *StockService
	publisher kds.Publisher
	opts      OrderOptions
}

func NewOrderService(db *gorm.DB, tables *TableService, stock *StockService, publisher kds.Publisher, opts OrderOptions) *OrderService {
	if publisher == nil {
		publisher = kds.Nop{}
	}
	if opts.StockTrackedCategory == "" {
		opts.StockTrackedCategory = DefaultStockTrackedCategory
	}
	return &OrderService{db: db, tables: tables, stock: stock, publisher: publisher, opts: opts}
}

type CreateOrderItem struct {
	MenuItemID uint
	Quantity   int
	Notes      string
}

type CreateOrderRequest struct {
	TableID uint
	UserID  uint
	Items   []CreateOrderItem
}

type OrderFilter struct {
	Statuses []models.OrderStatus
	TableID  *uint
	From     *time.Time
	To       *time.Time
	Limit    int
}

func (s *OrderService) isTracked(item *models.MenuItem) bool {
	return item.Category == s.opts.StockTrackedCategory && item.StockQuantity != nil
}

// CreateOrder validates the request against the live menu, then records the
// order, its items, the stock decrements and their ledger entries in one
// transaction. The table is marked occupied and newOrder is published after
// commit; failures there are logged and do not fail the order.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.NewValidation("order must contain at least one item")
	}
	for _, it := range req.Items {
		if it.MenuItemID == 0 {
			return nil, apperrors.NewValidation("menu item id is required")
		}
		if it.Quantity < 1 {
			return nil, apperrors.NewValidation("quantity for menu item %d must be at least 1", it.MenuItemID)
		}
	}

	db := s.db.WithContext(ctx)
	log := utils.InfoLogger.WithFields(logrus.Fields{
		"tableId":   req.TableID,
		"userId":    req.UserID,
		"itemCount": len(req.Items),
	})
	log.Info("create order started")

	var table models.Table
	if err := db.First(&table, req.TableID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("table", req.TableID)
		}
		return nil, apperrors.NewInternal("load table", err)
	}

	if req.UserID == 0 {
		return nil, apperrors.NewUnauthenticated("")
	}
	var userCount int64
	if err := db.Model(&models.User{}).Where("id = ?", req.UserID).Count(&userCount).Error; err != nil {
		return nil, apperrors.NewInternal("load user", err)
	}
	if userCount == 0 {
		return nil, apperrors.NewUnauthenticated("user no longer exists")
	}

	requested := make(map[uint]int)
	var ids []uint
	for _, it := range req.Items {
		if _, seen := requested[it.MenuItemID]; !seen {
			ids = append(ids, it.MenuItemID)
		}
		requested[it.MenuItemID] += it.Quantity
	}

	var menuItems []models.MenuItem
	if err := db.Where("id IN ? AND is_available = ?", ids, true).Find(&menuItems).Error; err != nil {
		return nil, apperrors.NewInternal("load menu items", err)
	}
	byID := make(map[uint]*models.MenuItem, len(menuItems))
	for i := range menuItems {
		byID[menuItems[i].ID] = &menuItems[i]
	}

	var missing []uint
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, apperrors.NewInvalidItems(missing)
	}

	var lines []saleLine
	for _, id := range ids {
		item := byID[id]
		if !s.isTracked(item) {
			continue
		}
		if *item.StockQuantity < requested[id] {
			return nil, apperrors.NewInsufficientStock(id, item.Name, requested[id], *item.StockQuantity)
		}
		lines = append(lines, saleLine{MenuItemID: id, Name: item.Name, Quantity: requested[id]})
	}

	total := decimal.Zero
	for _, it := range req.Items {
		total = total.Add(byID[it.MenuItemID].Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	var created models.Order
	err := runTxWithRetry(ctx, s.db, s.opts.TxTimeout, "create order", func(tx *gorm.DB) error {
		order := models.Order{
			TableID:     req.TableID,
			UserID:      req.UserID,
			TotalAmount: total,
			Status:      models.OrderPending,
		}
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, models.OrderItem{
				OrderID:    order.ID,
				MenuItemID: it.MenuItemID,
				Quantity:   it.Quantity,
				Notes:      it.Notes,
				Price:      byID[it.MenuItemID].Price,
			})
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return err
		}

		if err := decrementForSaleTx(tx, order.ID, req.UserID, append([]saleLine(nil), lines...)); err != nil {
			return err
		}
		order.OrderItems = items
		created = order
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("create order failed")
		return nil, err
	}

	orderID := created.ID
	log.WithFields(logrus.Fields{"orderId": orderID, "total": total.StringFixed(2)}).Info("order created")

	if err := s.tables.Occupy(ctx, req.TableID); err != nil {
		utils.ErrorLogger.Errorf("Failed to mark table %d occupied after order %d: %v", req.TableID, orderID, err)
	}

	// Committed: a failed reload falls back to what the transaction wrote.
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		utils.ErrorLogger.Errorf("Failed to reload order %d after commit: %v", orderID, err)
		order = &created
		order.Table = table
		for i := range order.OrderItems {
			order.OrderItems[i].MenuItem = *byID[order.OrderItems[i].MenuItemID]
		}
	}
	s.publish(ctx, kds.EventNewOrder, order)
	s.alertLowStock(ctx, order)
	return order, nil
}

// UpdateStatus moves an order to a new status. Paying an order frees its
// table in the same transaction.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidation("unknown order status %q", status)
	}

	var from models.OrderStatus
	var tableID uint
	err := runTxWithRetry(ctx, s.db, s.opts.TxTimeout, "update order status", func(tx *gorm.DB) error {
		var order models.Order
		if err := forUpdate(tx).Select("id", "table_id", "status").First(&order, orderID).Error; err != nil {
			if isNotFound(err) {
				return apperrors.NewNotFound("order", orderID)
			}
			return err
		}
		from = order.Status
		tableID = order.TableID

		if s.opts.StrictTransitions && !order.Status.CanTransitionTo(status) {
			return apperrors.NewInvalidTransition(string(order.Status), string(status))
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 && order.Status != status {
			return apperrors.NewConflict("order %d was changed concurrently", orderID)
		}

		if status == models.OrderPaid {
			return setTableStatusTx(tx, order.TableID, models.TableAvailable)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"orderId": orderID,
		"from":    from,
		"to":      status,
	}).Info("order status updated")

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		utils.ErrorLogger.Errorf("Failed to reload order %d after status change: %v", orderID, err)
		order = &models.Order{ID: orderID, TableID: tableID, Status: status}
	}
	s.publish(ctx, kds.EventOrderUpdated, order)
	return order, nil
}

// GetOrder loads an order with its table, user and items. Items keep their
// menu item even after the item is removed from the menu.
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.hydrated(s.db.WithContext(ctx)).First(&order, id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("order", id)
		}
		return nil, apperrors.NewInternal("load order", err)
	}
	return &order, nil
}

// ListOrders returns orders newest first.
func (s *OrderService) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := s.hydrated(s.db.WithContext(ctx))
	if len(filter.Statuses) > 0 {
		for _, st := range filter.Statuses {
			if !st.Valid() {
				return nil, apperrors.NewValidation("unknown order status %q", st)
			}
		}
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.TableID != nil {
		q = q.Where("table_id = ?", *filter.TableID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, apperrors.NewInternal("list orders", err)
	}
	return orders, nil
}

func (s *OrderService) hydrated(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Table.Location").
		Preload("User").
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("OrderItems.MenuItem", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}

func (s *OrderService) publish(ctx context.Context, event string, payload interface{}) {
	publishEvent(ctx, s.publisher, event, payload)
}

// alertLowStock publishes lowStock for tracked items the order pushed to or
// below their minimum.
func (s *OrderService) alertLowStock(ctx context.Context, order *models.Order) {
	seen := map[uint]bool{}
	for _, it := range order.OrderItems {
		item := it.MenuItem
		if seen[item.ID] || !s.isTracked(&item) {
			continue
		}
		seen[item.ID] = true
		if item.IsLowStock() && s.stock != nil {
			s.stock.publishLowStock(ctx, item)
		}
	}
}
