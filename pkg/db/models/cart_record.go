package models

import (
	"time"

	"github.com/google/uuid"
)

// CartRecord is a customer's open cart. Consumption at checkout is terminal:
// the cart and its items are deleted in the same transaction that commits
// the order, so a cart can never source a second order.
type CartRecord struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID  `gorm:"column:customer_id;type:uuid;not null;uniqueIndex"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
