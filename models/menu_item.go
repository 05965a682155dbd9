package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem is a sellable catalog entry. A nil StockQuantity means the item
// is not stock-tracked.
type MenuItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Category      string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"cost_price"`
	StockQuantity *int            `json:"stock_quantity"`
	MinStock      int             `gorm:"not null" json:"min_stock"`
	MaxStock      *int            `json:"max_stock"`
	Unit          string          `gorm:"type:varchar(20);not null;default:'un'" json:"unit"`
	Volume        string          `gorm:"type:varchar(50)" json:"volume"`
	Barcode       string          `gorm:"type:varchar(64);index" json:"barcode"`
	ExpiryDate    *time.Time      `json:"expiry_date"`
	ImageURL      string          `gorm:"type:varchar(500)" json:"image_url"`
	BrandID       *uint           `gorm:"index" json:"brand_id"`
	Brand         *Brand          `gorm:"foreignKey:BrandID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"brand,omitempty"`
	SupplierID    *uint           `gorm:"index" json:"supplier_id"`
	Supplier      *Supplier       `gorm:"foreignKey:SupplierID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"supplier,omitempty"`
	IsAvailable   bool            `gorm:"not null;index" json:"is_available"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (m *MenuItem) IsStockTracked() bool {
	return m.StockQuantity != nil
}

// IsLowStock reports whether a tracked item is at or below its minimum.
func (m *MenuItem) IsLowStock() bool {
	return m.StockQuantity != nil && *m.StockQuantity <= m.MinStock
}

// Stock returns the current quantity, or 0 for untracked items.
func (m *MenuItem) Stock() int {
	if m.StockQuantity == nil {
		return 0
	}
	return *m.StockQuantity
}
