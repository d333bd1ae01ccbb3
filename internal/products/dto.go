package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
)

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Slug          string
	Name          string
	Description   *string
	Category      string
	Price         decimal.Decimal
	SalePrice     *decimal.Decimal
	GSTPercentage decimal.Decimal
	MinStockAlert int
	InitialStock  int
	Variations    []VariationInput
}

// VariationInput defines one selectable option for a product.
type VariationInput struct {
	Category enums.VariationCategory
	Value    string
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name          *string
	Description   *string
	Category      *string
	Price         *decimal.Decimal
	SalePrice     *decimal.Decimal
	GSTPercentage *decimal.Decimal
	MinStockAlert *int
	IsAvailable   *bool
	Stock         *int
}

// VariationDTO is the API shape of a product option.
type VariationDTO struct {
	ID       uuid.UUID `json:"id"`
	Category string    `json:"category"`
	Value    string    `json:"value"`
}

// ProductDTO is the API shape of a product with its stock summary.
type ProductDTO struct {
	ID            uuid.UUID      `json:"id"`
	Slug          string         `json:"slug"`
	Name          string         `json:"name"`
	Description   *string        `json:"description,omitempty"`
	Category      string         `json:"category"`
	Price         string         `json:"price"`
	SalePrice     *string        `json:"sale_price,omitempty"`
	GSTPercentage string         `json:"gst_percentage"`
	IsAvailable   bool           `json:"is_available"`
	AvailableQty  int            `json:"available_qty"`
	LowStock      bool           `json:"low_stock"`
	Variations    []VariationDTO `json:"variations,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func toProductDTO(p *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:            p.ID,
		Slug:          p.Slug,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Price:         p.Price.StringFixed(2),
		GSTPercentage: p.GSTPercentage.StringFixed(2),
		IsAvailable:   p.IsAvailable,
		CreatedAt:     p.CreatedAt,
	}
	if p.SalePrice != nil {
		s := p.SalePrice.StringFixed(2)
		dto.SalePrice = &s
	}
	if p.Inventory != nil {
		dto.AvailableQty = p.Inventory.AvailableQty
		dto.LowStock = p.Inventory.BelowThreshold(p.MinStockAlert)
	}
	for _, v := range p.Variations {
		dto.Variations = append(dto.Variations, VariationDTO{
			ID:       v.ID,
			Category: v.Category.String(),
			Value:    v.Value,
		})
	}
	return dto
}
