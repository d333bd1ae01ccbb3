package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harnoorlabs/aromas-backend/pkg/enums"
)

// Product represents a storefront listing.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SellerID      uuid.UUID        `gorm:"column:seller_id;type:uuid;not null"`
	Slug          string           `gorm:"column:slug;not null;uniqueIndex"`
	Name          string           `gorm:"column:name;not null"`
	Description   *string          `gorm:"column:description"`
	Category      string           `gorm:"column:category;not null"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	SalePrice     *decimal.Decimal `gorm:"column:sale_price;type:numeric(10,2)"`
	GSTPercentage decimal.Decimal  `gorm:"column:gst_percentage;type:numeric(5,2);not null;default:0"`
	MinStockAlert int              `gorm:"column:min_stock_alert;not null;default:10"`
	IsAvailable   bool             `gorm:"column:is_available;not null;default:true"`
	Inventory     *InventoryItem   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variations    []Variation      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice returns the sale price when one is set below the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil && p.SalePrice.LessThan(p.Price) {
		return *p.SalePrice
	}
	return p.Price
}

// Variation is a selectable product option such as color or size.
type Variation struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID               `gorm:"column:product_id;type:uuid;not null"`
	Category  enums.VariationCategory `gorm:"column:category;type:variation_category;not null"`
	Value     string                  `gorm:"column:value;not null"`
	IsActive  bool                    `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
}
