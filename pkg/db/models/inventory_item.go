package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks available/reserved counts per product.
type InventoryItem struct {
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	ReservedQty  int       `gorm:"column:reserved_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BelowThreshold reports whether on-hand stock has fallen under the
// product's low stock alert level.
func (i InventoryItem) BelowThreshold(threshold int) bool {
	if threshold <= 0 {
		return false
	}
	return i.AvailableQty < threshold
}
