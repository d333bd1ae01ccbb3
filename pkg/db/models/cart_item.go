package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CartItem is one product line in a cart. VariationIDs holds the sorted
// variation UUIDs used to dedupe lines with identical options.
type CartItem struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	CartID       uuid.UUID      `gorm:"column:cart_id;type:uuid;not null"`
	ProductID    uuid.UUID      `gorm:"column:product_id;type:uuid;not null"`
	Quantity     int            `gorm:"column:quantity;not null"`
	VariationIDs pq.StringArray `gorm:"column:variation_ids;type:text[]"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
