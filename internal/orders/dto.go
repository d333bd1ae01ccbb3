package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	"github.com/harnoorlabs/aromas-backend/pkg/pagination"
	"github.com/harnoorlabs/aromas-backend/pkg/types"
)

// OrderSummaryDTO is the list-view projection of an order.
type OrderSummaryDTO struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Total         string              `json:"total"`
	ItemCount     int                 `json:"item_count"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderItemDTO is one line on the order detail view.
type OrderItemDTO struct {
	ID         uuid.UUID `json:"id"`
	ProductID  *uuid.UUID `json:"product_id,omitempty"`
	Name       string    `json:"name"`
	Variations []string  `json:"variations,omitempty"`
	UnitPrice  string    `json:"unit_price"`
	Quantity   int       `json:"quantity"`
	TaxAmount  string    `json:"tax_amount"`
	LineTotal  string    `json:"line_total"`
}

// TrackingDTO is one entry on the fulfillment timeline.
type TrackingDTO struct {
	Status    enums.OrderStatus `json:"status"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
}

// PaymentDTO summarizes settlement state on the detail view.
type PaymentDTO struct {
	Method        enums.PaymentMethod `json:"method"`
	Status        enums.PaymentStatus `json:"status"`
	Amount        string              `json:"amount"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	FailureReason *string             `json:"failure_reason,omitempty"`
}

// OrderDetailDTO is the full order view with items, payment and timeline.
type OrderDetailDTO struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Address       types.Address       `json:"address"`
	Note          *string             `json:"note,omitempty"`
	Subtotal      string              `json:"subtotal"`
	Discount      string              `json:"discount"`
	Tax           string              `json:"tax"`
	Total         string              `json:"total"`
	Items         []OrderItemDTO      `json:"items"`
	Payment       *PaymentDTO         `json:"payment,omitempty"`
	Timeline      []TrackingDTO       `json:"timeline"`
	ShippedAt     *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt   *time.Time          `json:"delivered_at,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderListDTO pairs a page of summaries with the cursor for the next page.
type OrderListDTO struct {
	Orders     []OrderSummaryDTO `json:"orders"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func toSummaryDTO(order models.Order) OrderSummaryDTO {
	return OrderSummaryDTO{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		Total:         order.Total.StringFixed(2),
		ItemCount:     len(order.Items),
		CreatedAt:     order.CreatedAt,
	}
}

func toDetailDTO(order *models.Order) *OrderDetailDTO {
	dto := &OrderDetailDTO{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		Address:       order.Address,
		Note:          order.Note,
		Subtotal:      order.Subtotal.StringFixed(2),
		Discount:      order.Discount.StringFixed(2),
		Tax:           order.Tax.StringFixed(2),
		Total:         order.Total.StringFixed(2),
		Items:         make([]OrderItemDTO, 0, len(order.Items)),
		Timeline:      make([]TrackingDTO, 0, len(order.Tracking)),
		ShippedAt:     order.ShippedAt,
		DeliveredAt:   order.DeliveredAt,
		CompletedAt:   order.CompletedAt,
		CancelledAt:   order.CancelledAt,
		CreatedAt:     order.CreatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Name:       item.Name,
			Variations: item.Variations,
			UnitPrice:  item.UnitPrice.StringFixed(2),
			Quantity:   item.Quantity,
			TaxAmount:  item.TaxAmount.StringFixed(2),
			LineTotal:  item.LineTotal.StringFixed(2),
		})
	}
	for _, row := range order.Tracking {
		dto.Timeline = append(dto.Timeline, TrackingDTO{
			Status:    row.Status,
			Message:   row.Message,
			CreatedAt: row.CreatedAt,
		})
	}
	if order.Payment != nil {
		dto.Payment = &PaymentDTO{
			Method:        order.Payment.Method,
			Status:        order.Payment.Status,
			Amount:        order.Payment.Amount.StringFixed(2),
			PaidAt:        order.Payment.PaidAt,
			FailureReason: order.Payment.FailureReason,
		}
	}
	return dto
}

// toListDTO trims the buffered extra row and encodes the next cursor.
func toListDTO(rows []models.Order, limit int) OrderListDTO {
	normalized := pagination.NormalizeLimit(limit)
	hasMore := len(rows) > normalized
	if hasMore {
		rows = rows[:normalized]
	}
	dto := OrderListDTO{Orders: make([]OrderSummaryDTO, 0, len(rows))}
	for _, row := range rows {
		dto.Orders = append(dto.Orders, toSummaryDTO(row))
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		dto.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return dto
}
