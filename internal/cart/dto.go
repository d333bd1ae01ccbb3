package cart

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AddItemInput carries a request to add a product to the cart.
type AddItemInput struct {
	ProductID    uuid.UUID   `json:"product_id" validate:"required"`
	VariationIDs []uuid.UUID `json:"variation_ids"`
	Quantity     int         `json:"quantity" validate:"required,gt=0"`
}

// CartItemDTO is one priced cart line in API responses.
type CartItemDTO struct {
	ID           uuid.UUID      `json:"id"`
	ProductID    uuid.UUID      `json:"product_id"`
	Name         string         `json:"name"`
	UnitPrice    string         `json:"unit_price"`
	Quantity     int            `json:"quantity"`
	VariationIDs pq.StringArray `json:"variation_ids,omitempty"`
	TaxAmount    string         `json:"tax_amount"`
	LineTotal    string         `json:"line_total"`
}

// CartDTO is the full cart with a zero-discount price summary.
type CartDTO struct {
	ID         uuid.UUID     `json:"id"`
	CustomerID uuid.UUID     `json:"customer_id"`
	Items      []CartItemDTO `json:"items"`
	Subtotal   string        `json:"subtotal"`
	Tax        string        `json:"tax"`
	Total      string        `json:"total"`
}

func emptyCartDTO(customerID uuid.UUID) *CartDTO {
	return &CartDTO{
		CustomerID: customerID,
		Items:      []CartItemDTO{},
		Subtotal:   "0.00",
		Tax:        "0.00",
		Total:      "0.00",
	}
}
