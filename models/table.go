package models

import "time"

type TableStatus string

const (
	TableAvailable TableStatus = "AVAILABLE"
	TableOccupied  TableStatus = "OCCUPIED"
	TableReserved  TableStatus = "RESERVED"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved:
		return true
	}
	return false
}

// Table is a physical table. Status is the coarse reservation flag; the
// display status is projected from the table's orders at read time.
type Table struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	Number     int         `gorm:"uniqueIndex;not null" json:"number"`
	Capacity   int         `gorm:"not null" json:"capacity"`
	Type       string      `gorm:"type:varchar(30);not null" json:"type"`
	LocationID *uint       `gorm:"index" json:"location_id"`
	Location   *Location   `gorm:"foreignKey:LocationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"location,omitempty"`
	Status     TableStatus `gorm:"type:varchar(20);not null;default:'AVAILABLE'" json:"status"`
	CreatedAt  time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"not null" json:"updated_at"`
}
