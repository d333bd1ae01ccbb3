package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
)

// Repository reads and updates payment rows plus the order flags that flip
// when a payment settles.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindOrderWithPayment loads an order and its payment row.
func (r *Repository) FindOrderWithPayment(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Payment").
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOrderByPaymentReference resolves the order whose payment carries the
// given gateway order id.
func (r *Repository) FindOrderByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&payment).Error; err != nil {
		return nil, err
	}
	order, err := r.FindOrderWithPayment(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdatePaymentReference stores the gateway order id on the payment row.
func (r *Repository) UpdatePaymentReference(ctx context.Context, paymentID uuid.UUID, reference string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Update("reference", reference).Error
}

// MarkPaymentCompleted settles the payment and stamps paid_at once.
func (r *Repository) MarkPaymentCompleted(ctx context.Context, paymentID uuid.UUID, gatewayPaymentID string, paidAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Updates(map[string]any{
			"status":             enums.PaymentStatusCompleted,
			"gateway_payment_id": gatewayPaymentID,
			"paid_at":            paidAt,
		}).Error
}

// MarkPaymentFailed records the failure reason.
func (r *Repository) MarkPaymentFailed(ctx context.Context, paymentID uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Updates(map[string]any{
			"status":         enums.PaymentStatusFailed,
			"failure_reason": reason,
		}).Error
}

// ConfirmOrder flips is_ordered once payment settles.
func (r *Repository) ConfirmOrder(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("is_ordered", true).Error
}

// CancelOrder marks the order cancelled and stamps cancelled_at once.
func (r *Repository) CancelOrder(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND cancelled_at IS NULL", orderID).
		Updates(map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": at,
		}).Error
}

// CreateTracking appends a tracking row.
func (r *Repository) CreateTracking(ctx context.Context, tracking *models.OrderTracking) error {
	return r.db.WithContext(ctx).Create(tracking).Error
}

// ListUnpaidOnlineOrders returns online orders still waiting on payment that
// were created before the cutoff.
func (r *Repository) ListUnpaidOnlineOrders(ctx context.Context, before time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Payment").
		Preload("Items").
		Joins("JOIN payments ON payments.order_id = orders.id").
		Where("orders.payment_method = ?", enums.PaymentMethodOnline).
		Where("orders.is_ordered = ?", false).
		Where("orders.status = ?", enums.OrderStatusNew).
		Where("payments.status = ?", enums.PaymentStatusPending).
		Where("orders.created_at < ?", before).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
