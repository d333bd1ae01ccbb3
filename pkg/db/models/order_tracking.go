package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harnoorlabs/aromas-backend/pkg/enums"
)

// OrderTracking is the append-only status timeline for an order. Rows are
// never updated or deleted.
type OrderTracking struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null"`
	Status    enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	Message   string            `gorm:"column:message;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
