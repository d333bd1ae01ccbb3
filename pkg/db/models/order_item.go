package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// OrderItem captures the priced snapshot of each product on an order.
// Variations holds display strings like "color: red" so the line survives
// later edits to the catalog.
type OrderItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID     *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	Name          string          `gorm:"column:name;not null"`
	Variations    pq.StringArray  `gorm:"column:variations;type:text[]"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	GSTPercentage decimal.Decimal `gorm:"column:gst_percentage;type:numeric(5,2);not null;default:0"`
	TaxAmount     decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	LineTotal     decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
