package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	"github.com/harnoorlabs/aromas-backend/pkg/types"
)

// Order is the committed result of a checkout. The fulfillment timestamps
// are set exactly once the first time the matching status is reached.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber   string              `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID    uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	CartID        uuid.UUID           `gorm:"column:cart_id;type:uuid;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'new'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	Address       types.Address       `gorm:"column:address;type:jsonb;serializer:json"`
	Note          *string             `gorm:"column:note"`
	IPAddress     *string             `gorm:"column:ip_address"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount      decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Tax           decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	IsOrdered     bool                `gorm:"column:is_ordered;not null;default:false"`
	ShippedAt     *time.Time          `gorm:"column:shipped_at"`
	DeliveredAt   *time.Time          `gorm:"column:delivered_at"`
	CompletedAt   *time.Time          `gorm:"column:completed_at"`
	CancelledAt   *time.Time          `gorm:"column:cancelled_at"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment       *Payment            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Tracking      []OrderTracking     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
