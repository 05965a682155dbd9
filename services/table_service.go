package services

import (
	"context"
	"time"

	"github.com/yeremiapane/cafe-pos/apperrors"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
)

type TableService struct {
	db        *gorm.DB
	publisher kds.Publisher
	txTimeout time.Duration
}

func NewTableService(db *gorm.DB, publisher kds.Publisher, txTimeout time.Duration) *TableService {
	if publisher == nil {
		publisher = kds.Nop{}
	}
	return &TableService{db: db, publisher: publisher, txTimeout: txTimeout}
}

// TableView is a table with its display status derived from its orders.
type TableView struct {
	models.Table
	LocationName  string             `json:"location_name"`
	CurrentStatus models.OrderStatus `json:"current_status"`
	// CurrentOrderID is the latest active order, if any.
	CurrentOrderID *uint `json:"current_order_id"`
}

// DisplayAvailable is the display status of a table with no active order.
const DisplayAvailable models.OrderStatus = "AVAILABLE"

type CreateTableRequest struct {
	Number     int
	Capacity   int
	Type       string
	LocationID *uint
}

// UpdateTableRequest holds optional changes; nil fields stay as they are.
type UpdateTableRequest struct {
	Number        *int
	Capacity      *int
	Type          *string
	LocationID    *uint
	ClearLocation bool
}

// GetTables lists tables by number with the status of their latest active order.
func (s *TableService) GetTables(ctx context.Context) ([]TableView, error) {
	db := s.db.WithContext(ctx)

	var tables []models.Table
	if err := db.Preload("Location").Order("number ASC").Find(&tables).Error; err != nil {
		return nil, apperrors.NewInternal("list tables", err)
	}

	var active []models.Order
	if err := db.Select("id", "table_id", "status", "created_at").
		Where("status IN ?", models.ActiveOrderStatuses).
		Order("created_at DESC").Order("id DESC").
		Find(&active).Error; err != nil {
		return nil, apperrors.NewInternal("list active orders", err)
	}

	latest := make(map[uint]models.Order, len(active))
	for _, o := range active {
		if _, seen := latest[o.TableID]; !seen {
			latest[o.TableID] = o
		}
	}

	views := make([]TableView, 0, len(tables))
	for _, t := range tables {
		views = append(views, project(t, latest))
	}
	return views, nil
}

// GetTable returns one table with its display status.
func (s *TableService) GetTable(ctx context.Context, id uint) (*TableView, error) {
	db := s.db.WithContext(ctx)

	var table models.Table
	if err := db.Preload("Location").First(&table, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("table", id)
		}
		return nil, apperrors.NewInternal("load table", err)
	}

	var orders []models.Order
	if err := db.Select("id", "table_id", "status", "created_at").
		Where("table_id = ? AND status IN ?", id, models.ActiveOrderStatuses).
		Order("created_at DESC").Order("id DESC").Limit(1).
		Find(&orders).Error; err != nil {
		return nil, apperrors.NewInternal("load active order", err)
	}

	latest := map[uint]models.Order{}
	if len(orders) > 0 {
		latest[id] = orders[0]
	}
	view := project(table, latest)
	return &view, nil
}

func project(t models.Table, latest map[uint]models.Order) TableView {
	view := TableView{Table: t, LocationName: "No area", CurrentStatus: DisplayAvailable}
	if t.Location != nil {
		view.LocationName = t.Location.Name
	}
	if o, ok := latest[t.ID]; ok {
		view.CurrentStatus = o.Status
		id := o.ID
		view.CurrentOrderID = &id
	}
	return view
}

func (s *TableService) CreateTable(ctx context.Context, req CreateTableRequest) (*models.Table, error) {
	if req.Number <= 0 || req.Capacity <= 0 || req.Type == "" {
		return nil, apperrors.NewValidation("number, capacity and type are required")
	}

	table := models.Table{
		Number:     req.Number,
		Capacity:   req.Capacity,
		Type:       req.Type,
		LocationID: req.LocationID,
		Status:     models.TableAvailable,
	}

	err := runTx(ctx, s.db, s.txTimeout, func(tx *gorm.DB) error {
		if err := ensureNumberFree(tx, req.Number, 0); err != nil {
			return err
		}
		if err := ensureLocation(tx, req.LocationID); err != nil {
			return err
		}
		return tx.Omit("Location").Create(&table).Error
	})
	if err != nil {
		return nil, err
	}

	created, err := s.load(ctx, table.ID)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("New table created: %d (capacity=%d)", created.Number, created.Capacity)
	s.publish(ctx, kds.EventTableCreated, created)
	return created, nil
}

func (s *TableService) UpdateTable(ctx context.Context, id uint, req UpdateTableRequest) (*models.Table, error) {
	updates := map[string]interface{}{}
	if req.Number != nil {
		if *req.Number <= 0 {
			return nil, apperrors.NewValidation("number must be positive")
		}
		updates["number"] = *req.Number
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			return nil, apperrors.NewValidation("capacity must be positive")
		}
		updates["capacity"] = *req.Capacity
	}
	if req.Type != nil {
		if *req.Type == "" {
			return nil, apperrors.NewValidation("type must not be empty")
		}
		updates["type"] = *req.Type
	}
	if req.ClearLocation {
		updates["location_id"] = nil
	} else if req.LocationID != nil {
		updates["location_id"] = *req.LocationID
	}

	err := runTx(ctx, s.db, s.txTimeout, func(tx *gorm.DB) error {
		var table models.Table
		if err := forUpdate(tx).First(&table, id).Error; err != nil {
			if isNotFound(err) {
				return apperrors.NewNotFound("table", id)
			}
			return err
		}
		if req.Number != nil && *req.Number != table.Number {
			if err := ensureNumberFree(tx, *req.Number, id); err != nil {
				return err
			}
		}
		if !req.ClearLocation {
			if err := ensureLocation(tx, req.LocationID); err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Table{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	table, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, kds.EventTableUpdated, table)
	return table, nil
}

// DeleteTable removes a table that no order references. Orders are kept
// forever, so a table with history cannot be removed.
func (s *TableService) DeleteTable(ctx context.Context, id uint) error {
	err := runTx(ctx, s.db, s.txTimeout, func(tx *gorm.DB) error {
		var table models.Table
		if err := forUpdate(tx).First(&table, id).Error; err != nil {
			if isNotFound(err) {
				return apperrors.NewNotFound("table", id)
			}
			return err
		}

		var activeCount, totalCount int64
		if err := tx.Model(&models.Order{}).
			Where("table_id = ? AND status IN ?", id, models.ActiveOrderStatuses).
			Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount > 0 {
			return apperrors.NewConflict("table %d has active orders", table.Number)
		}
		if err := tx.Model(&models.Order{}).Where("table_id = ?", id).Count(&totalCount).Error; err != nil {
			return err
		}
		if totalCount > 0 {
			return apperrors.NewConflict("table %d has order history", table.Number)
		}
		return tx.Delete(&models.Table{}, id).Error
	})
	if err != nil {
		return err
	}

	utils.InfoLogger.Printf("Table %d deleted", id)
	s.publish(ctx, kds.EventTableDeleted, map[string]uint{"id": id})
	return nil
}

// SetStatus overwrites the stored status flag.
func (s *TableService) SetStatus(ctx context.Context, id uint, status models.TableStatus) (*models.Table, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidation("unknown table status %q", status)
	}
	err := runTx(ctx, s.db, s.txTimeout, func(tx *gorm.DB) error {
		return setTableStatusTx(tx, id, status)
	})
	if err != nil {
		return nil, err
	}

	table, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Table %d status changed to %s", table.ID, table.Status)
	s.publish(ctx, kds.EventTableUpdated, table)
	return table, nil
}

// Occupy marks a table busy after an order is placed on it.
func (s *TableService) Occupy(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return setTableStatusTx(tx, id, models.TableOccupied)
	})
}

// Release frees a table.
func (s *TableService) Release(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return setTableStatusTx(tx, id, models.TableAvailable)
	})
}

func setTableStatusTx(tx *gorm.DB, id uint, status models.TableStatus) error {
	res := tx.Model(&models.Table{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL reports zero rows when the value is unchanged.
	var count int64
	if err := tx.Model(&models.Table{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperrors.NewNotFound("table", id)
	}
	return nil
}

func (s *TableService) load(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).Preload("Location").First(&table, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("table", id)
		}
		return nil, apperrors.NewInternal("load table", err)
	}
	return &table, nil
}

func (s *TableService) publish(ctx context.Context, event string, payload interface{}) {
	publishEvent(ctx, s.publisher, event, payload)
}

func ensureNumberFree(tx *gorm.DB, number int, exceptID uint) error {
	var count int64
	q := tx.Model(&models.Table{}).Where("number = ?", number)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflict("a table with number %d already exists", number)
	}
	return nil
}

func ensureLocation(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Location{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperrors.NewNotFound("location", *id)
	}
	return nil
}
