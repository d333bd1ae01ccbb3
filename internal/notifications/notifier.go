package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
)

// Notifier writes the notifications that accompany a committed checkout.
// Checkout calls it after the order transaction commits, so failures here
// never undo an order.
type Notifier struct {
	repo Repository
}

// NewNotifier builds a checkout notifier.
func NewNotifier(repo Repository) (*Notifier, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &Notifier{repo: repo}, nil
}

// OrderPlaced tells the customer their order went through.
func (n *Notifier) OrderPlaced(ctx context.Context, order *models.Order) error {
	return n.repo.Create(ctx, &models.Notification{
		ID:          uuid.New(),
		RecipientID: order.CustomerID,
		Type:        enums.NotificationTypeOrderPlaced,
		Title:       "Order placed",
		Message:     fmt.Sprintf("Your order %s has been placed.", order.OrderNumber),
		Link:        orderLink(order.ID),
	})
}

// LowStock alerts the seller that on-hand stock fell under their threshold.
func (n *Notifier) LowStock(ctx context.Context, product *models.Product, available int) error {
	link := fmt.Sprintf("/seller/products/%s", product.ID)
	return n.repo.Create(ctx, &models.Notification{
		ID:          uuid.New(),
		RecipientID: product.SellerID,
		Type:        enums.NotificationTypeLowStock,
		Title:       "Low stock alert",
		Message:     fmt.Sprintf("%s is down to %d unit(s).", product.Name, available),
		Link:        &link,
	})
}
