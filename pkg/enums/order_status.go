package enums

import "fmt"

// OrderStatus tracks the fulfillment lifecycle of a placed order.
type OrderStatus string

const (
	OrderStatusNew            OrderStatus = "new"
	OrderStatusAccepted       OrderStatus = "accepted"
	OrderStatusPacked         OrderStatus = "packed"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusAccepted,
	OrderStatusPacked,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusNew:            "New",
	OrderStatusAccepted:       "Accepted",
	OrderStatusPacked:         "Packed",
	OrderStatusShipped:        "Shipped",
	OrderStatusOutForDelivery: "Out for delivery",
	OrderStatusDelivered:      "Delivered",
	OrderStatusCompleted:      "Completed",
	OrderStatusCancelled:      "Cancelled",
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// Label returns the human readable form used in tracking entries.
func (o OrderStatus) Label() string {
	if label, ok := orderStatusLabels[o]; ok {
		return label
	}
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status changes are allowed.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusCompleted || o == OrderStatusCancelled
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
