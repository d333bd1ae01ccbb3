package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/harnoorlabs/aromas-backend/pkg/enums"
)

// OrderPlacedEvent signals a committed checkout.
type OrderPlacedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Total         string              `json:"total"`
	ItemCount     int                 `json:"item_count"`
}

// OrderPaidEvent is emitted when a gateway payment verifies successfully.
type OrderPaidEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderNumber      string    `json:"order_number"`
	CustomerID       uuid.UUID `json:"customer_id"`
	PaymentID        uuid.UUID `json:"payment_id"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	Amount           string    `json:"amount"`
	PaidAt           time.Time `json:"paid_at"`
}

// OrderStatusChangedEvent records a fulfillment transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	CustomerID  uuid.UUID         `json:"customer_id"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// OrderCancelledEvent is emitted when an order is cancelled before dispatch.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// OrderExpiredEvent describes an online order whose payment never arrived.
type OrderExpiredEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	ExpiredAt   time.Time `json:"expired_at"`
}

// PaymentFailedEvent is emitted when gateway verification or the payment
// window fails.
type PaymentFailedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	PaymentID   uuid.UUID `json:"payment_id"`
	Reason      string    `json:"reason,omitempty"`
}

// InvoiceRequestedEvent tells the mail worker to render and send an invoice.
type InvoiceRequestedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Email       string    `json:"email,omitempty"`
}

// LowStockEvent alerts sellers that on-hand stock fell under the threshold.
type LowStockEvent struct {
	ProductID    uuid.UUID `json:"product_id"`
	SellerID     uuid.UUID `json:"seller_id"`
	Name         string    `json:"name"`
	AvailableQty int       `json:"available_qty"`
	Threshold    int       `json:"threshold"`
}

// NotificationCreatedEvent mirrors an in-app notification for push delivery.
type NotificationCreatedEvent struct {
	NotificationID uuid.UUID              `json:"notification_id"`
	RecipientID    uuid.UUID              `json:"recipient_id"`
	Type           enums.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
}
