package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder        OutboxAggregateType = "order"
	AggregatePayment      OutboxAggregateType = "payment"
	AggregateProduct      OutboxAggregateType = "product"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregatePayment,
	AggregateProduct,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderPlaced         OutboxEventType = "order_placed"
	EventOrderPaid           OutboxEventType = "order_paid"
	EventOrderStatusChanged  OutboxEventType = "order_status_changed"
	EventOrderCancelled      OutboxEventType = "order_cancelled"
	EventOrderExpired        OutboxEventType = "order_expired"
	EventPaymentFailed       OutboxEventType = "payment_failed"
	EventInvoiceRequested    OutboxEventType = "invoice_requested"
	EventLowStock            OutboxEventType = "low_stock"
	EventNotificationCreated OutboxEventType = "notification_created"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPlaced,
	EventOrderPaid,
	EventOrderStatusChanged,
	EventOrderCancelled,
	EventOrderExpired,
	EventPaymentFailed,
	EventInvoiceRequested,
	EventLowStock,
	EventNotificationCreated,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
