package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/cafe-pos/apperrors"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
)

const defaultMinStock = 5

type MenuService struct {
	db        *gorm.DB
	publisher kds.Publisher
	txTimeout time.Duration
}

func NewMenuService(db *gorm.DB, publisher kds.Publisher, txTimeout time.Duration) *MenuService {
	if publisher == nil {
		publisher = kds.Nop{}
	}
	return &MenuService{db: db, publisher: publisher, txTimeout: txTimeout}
}

type MenuFilter struct {
	Category           string
	IncludeUnavailable bool
}

type CreateMenuItemRequest struct {
	Name          string
	Description   string
	Category      string
	Price         decimal.Decimal
	CostPrice     *decimal.Decimal
	StockQuantity *int
	MinStock      *int
	MaxStock      *int
	Unit          string
	Volume        string
	Barcode       string
	ExpiryDate    *time.Time
	ImageURL      string
	BrandID       *uint
	SupplierID    *uint
	IsAvailable   *bool
	UserID        uint
}

// UpdateMenuItemRequest holds optional changes; nil fields stay as they are.
type UpdateMenuItemRequest struct {
	Name          *string
	Description   *string
	Category      *string
	Price         *decimal.Decimal
	CostPrice     *decimal.Decimal
	StockQuantity *int
	MinStock      *int
	MaxStock      *int
	Unit          *string
	Volume        *string
	Barcode       *string
	ExpiryDate    *time.Time
	ImageURL      *string
	BrandID       *uint
	SupplierID    *uint
	IsAvailable   *bool
	UserID        uint
}

func (s *MenuService) ListMenu(ctx context.Context, filter MenuFilter) ([]models.MenuItem, error) {
	q := s.db.WithContext(ctx).Preload("Brand").Preload("Supplier")
	if !filter.IncludeUnavailable {
		q = q.Where("is_available = ?", true)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	var items []models.MenuItem
	if err := q.Order("category ASC").Order("name ASC").Find(&items).Error; err != nil {
		return nil, apperrors.NewInternal("list menu", err)
	}
	return items, nil
}

func (s *MenuService) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).Preload("Brand").Preload("Supplier").First(&item, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("menu item", id)
		}
		return nil, apperrors.NewInternal("load menu item", err)
	}
	return &item, nil
}

// CreateMenuItem adds an item. Initial stock is booked through the ledger as
// an INITIAL movement.
func (s *MenuService) CreateMenuItem(ctx context.Context, req CreateMenuItemRequest) (*models.MenuItem, error) {
	if req.Name == "" || req.Category == "" {
		return nil, apperrors.NewValidation("name and category are required")
	}
	if req.Price.IsNegative() || (req.CostPrice != nil && req.CostPrice.IsNegative()) {
		return nil, apperrors.NewValidation("prices must not be negative")
	}
	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		return nil, apperrors.NewValidation("initial stock must not be negative")
	}
	if req.UserID == 0 {
		return nil, apperrors.NewUnauthenticated("")
	}

	item := models.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		CostPrice:   decimal.Zero,
		MinStock:    defaultMinStock,
		MaxStock:    req.MaxStock,
		Unit:        "un",
		Volume:      req.Volume,
		Barcode:     req.Barcode,
		ExpiryDate:  req.ExpiryDate,
		ImageURL:    req.ImageURL,
		BrandID:     req.BrandID,
		SupplierID:  req.SupplierID,
		IsAvailable: true,
	}
	if req.CostPrice != nil {
		item.CostPrice = *req.CostPrice
	}
	if req.MinStock != nil {
		item.MinStock = *req.MinStock
	}
	if req.Unit != "" {
		item.Unit = req.Unit
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	initial := 0
	if req.StockQuantity != nil {
		initial = *req.StockQuantity
		zero := 0
		item.StockQuantity = &zero
	}

	err := runTx(ctx, s.db, s.txTimeout, func(tx *gorm.DB) error {
		if err := ensureSupplier(tx, req.SupplierID); err != nil {
			return err
		}
		if err := ensureBrand(tx, req.BrandID); err != nil {
			return err
		}
		if err := tx.Omit("Brand", "Supplier").Create(&item).Error; err != nil {
			return err
		}
		if initial == 0 {
			return nil
		}
		cost, price := item.CostPrice, item.Price
		return appendMovementTx(tx, &models.StockMovement{
			MenuItemID:    item.ID,
			Quantity:      initial,
			Type:          models.MovementInitial,
			PurchasePrice: &cost,
			SellingPrice:  &price,
			SupplierID:    req.SupplierID,
			Reason:        "Initial stock on registration",
			UserID:        req.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Menu item created: %s (id=%d, category=%s)", item.Name, item.ID, item.Category)
	return s.GetMenuItem(ctx, item.ID)
}

// UpdateMenuItem applies the given changes. A changed stock quantity is
// booked as an ADJUSTMENT movement carrying the difference.
func (s *MenuService) UpdateMenuItem(ctx context.Context, id uint, req UpdateMenuItemRequest) (*models.MenuItem, error) {
	if req.UserID == 0 {
		return nil, apperrors.NewUnauthenticated("")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperrors.NewValidation("name must not be empty")
		}
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		if *req.Category == "" {
			return nil, apperrors.NewValidation("category must not be empty")
		}
		updates["category"] = *req.Category
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, apperrors.NewValidation("prices must not be negative")
		}
		updates["price"] = *req.Price
	}
	if req.CostPrice != nil {
		if req.CostPrice.IsNegative() {
			return nil, apperrors.NewValidation("prices must not be negative")
		}
		updates["cost_price"] = *req.CostPrice
	}
	if req.MinStock != nil {
		updates["min_stock"] = *req.MinStock
	}
	if req.MaxStock != nil {
		updates["max_stock"] = *req.MaxStock
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	if req.Volume != nil {
		updates["volume"] = *req.Volume
	}
	if req.Barcode != nil {
		updates["barcode"] = *req.Barcode
	}
	if req.ExpiryDate != nil {
		updates["expiry_date"] = *req.ExpiryDate
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.BrandID != nil {
		updates["brand_id"] = *req.BrandID
	}
	if req.SupplierID != nil {
		updates["supplier_id"] = *req.SupplierID
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}

	var movementID uint
	err := runTx(ctx, s.db, s.txTimeout, func(tx *gorm.DB) error {
		var item models.MenuItem
		if err := forUpdate(tx).First(&item, id).Error; err != nil {
			if isNotFound(err) {
				return apperrors.NewNotFound("menu item", id)
			}
			return err
		}
		if err := ensureSupplier(tx, req.SupplierID); err != nil {
			return err
		}
		if err := ensureBrand(tx, req.BrandID); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.MenuItem{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}

		if req.StockQuantity == nil || (item.StockQuantity != nil && *item.StockQuantity == *req.StockQuantity) {
			return nil
		}
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}
		diff := *req.StockQuantity - item.Stock()
		if diff == 0 {
			// Untracked item becoming tracked at zero.
			return tx.Model(&models.MenuItem{}).Where("id = ?", id).Update("stock_quantity", 0).Error
		}
		cost, price := item.CostPrice, item.Price
		movement := models.StockMovement{
			MenuItemID:    id,
			Quantity:      diff,
			Type:          models.MovementAdjustment,
			PurchasePrice: &cost,
			SellingPrice:  &price,
			Reason:        "Manual adjustment via catalog",
			UserID:        req.UserID,
		}
		if err := appendMovementTx(tx, &movement); err != nil {
			return err
		}
		movementID = movement.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	item, err := s.GetMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if movementID != 0 {
		publishEvent(ctx, s.publisher, kds.EventStockMovement, map[string]interface{}{
			"movement_id":  movementID,
			"menu_item_id": id,
			"stock":        item.Stock(),
		})
	}
	return item, nil
}

// DeleteMenuItem soft deletes an item; past orders and movements keep it.
func (s *MenuService) DeleteMenuItem(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.MenuItem{}, id)
	if res.Error != nil {
		return apperrors.NewInternal("delete menu item", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("menu item", id)
	}
	utils.InfoLogger.Printf("Menu item %d deleted", id)
	return nil
}

func ensureSupplier(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Supplier{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperrors.NewNotFound("supplier", *id)
	}
	return nil
}

func ensureBrand(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Brand{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperrors.NewNotFound("brand", *id)
	}
	return nil
}
