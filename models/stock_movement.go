package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementInitial    MovementType = "INITIAL"
	MovementEntry      MovementType = "ENTRY"
	MovementExitSale   MovementType = "EXIT_SALE"
	MovementLoss       MovementType = "LOSS"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementInitial, MovementEntry, MovementExitSale, MovementLoss, MovementAdjustment:
		return true
	}
	return false
}

// SignedDelta turns the caller's quantity into the ledger delta for this
// movement type. ADJUSTMENT keeps the caller's sign.
func (t MovementType) SignedDelta(quantity int) int {
	abs := quantity
	if abs < 0 {
		abs = -abs
	}
	switch t {
	case MovementEntry, MovementInitial:
		return abs
	case MovementExitSale, MovementLoss:
		return -abs
	default:
		return quantity
	}
}

// UpdatesPrices reports whether a movement of this type carries the new
// price of record for the item.
func (t MovementType) UpdatesPrices() bool {
	return t == MovementEntry || t == MovementAdjustment
}

// StockMovement is an append-only ledger entry. The sum of Quantity over an
// item's movements equals the item's stock quantity.
type StockMovement struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	MenuItemID    uint             `gorm:"not null;index" json:"menu_item_id"`
	MenuItem      MenuItem         `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu_item"`
	Quantity      int              `gorm:"not null" json:"quantity"`
	Type          MovementType     `gorm:"type:varchar(20);not null;index" json:"type"`
	PurchasePrice *decimal.Decimal `gorm:"type:decimal(10,2)" json:"purchase_price"`
	SellingPrice  *decimal.Decimal `gorm:"type:decimal(10,2)" json:"selling_price"`
	SupplierID    *uint            `gorm:"index" json:"supplier_id"`
	Supplier      *Supplier        `gorm:"foreignKey:SupplierID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"supplier,omitempty"`
	Reason        string           `gorm:"type:text" json:"reason"`
	UserID        uint             `gorm:"not null;index" json:"user_id"`
	CreatedAt     time.Time        `gorm:"not null;index" json:"created_at"`
}
