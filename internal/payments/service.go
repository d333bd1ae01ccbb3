package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/harnoorlabs/aromas-backend/internal/checkout/reservation"
	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
	"github.com/harnoorlabs/aromas-backend/pkg/gateway"
	"github.com/harnoorlabs/aromas-backend/pkg/logger"
	"github.com/harnoorlabs/aromas-backend/pkg/metrics"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox/payloads"
)

const (
	trackingPaymentCompleted = "Payment completed via gateway"
	trackingPaymentFailed    = "Payment verification failed"
	trackingOrderExpired     = "Order expired"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gatewayClient interface {
	CreateOrder(ctx context.Context, input gateway.CreateOrderInput) (*gateway.GatewayOrder, error)
	VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// GatewayOrderDTO is what the storefront needs to open the payment widget.
type GatewayOrderDTO struct {
	GatewayOrderID string `json:"gateway_order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	OrderNumber    string `json:"order_number"`
}

// CallbackInput carries the gateway's payment confirmation.
type CallbackInput struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

// Service drives the online payment leg of an order.
type Service interface {
	CreateGatewayOrder(ctx context.Context, customerID, orderID uuid.UUID) (*GatewayOrderDTO, error)
	HandleCallback(ctx context.Context, input CallbackInput) error
	ExpireUnpaidOrders(ctx context.Context, ttl time.Duration) (int, error)
}

type service struct {
	tx      txRunner
	repo    *Repository
	gateway gatewayClient
	outbox  outboxPublisher
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the payments service. metrics and logg may be nil.
func NewService(tx txRunner, repo *Repository, gw gatewayClient, publisher outboxPublisher, m *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, errors.New("tx runner required")
	}
	if repo == nil {
		return nil, errors.New("payments repository required")
	}
	if gw == nil {
		return nil, errors.New("gateway client required")
	}
	if publisher == nil {
		return nil, errors.New("outbox publisher required")
	}
	return &service{
		tx:      tx,
		repo:    repo,
		gateway: gw,
		outbox:  publisher,
		metrics: m,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// CreateGatewayOrder registers the order with the payment gateway and stores
// the gateway order id as the payment reference.
func (s *service) CreateGatewayOrder(ctx context.Context, customerID, orderID uuid.UUID) (*GatewayOrderDTO, error) {
	order, err := s.repo.FindOrderWithPayment(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	if order.PaymentMethod != enums.PaymentMethodOnline {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not payable online")
	}
	if order.IsOrdered {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is already paid")
	}
	if order.Payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order has no payment record")
	}
	if order.Payment.Status != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment is no longer pending")
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, gateway.CreateOrderInput{
		Amount:  order.Total,
		Receipt: order.OrderNumber,
		Notes:   map[string]string{"order_id": order.ID.String()},
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePaymentReference(ctx, order.Payment.ID, gatewayOrder.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing gateway reference")
	}

	return &GatewayOrderDTO{
		GatewayOrderID: gatewayOrder.ID,
		Amount:         gatewayOrder.Amount,
		Currency:       gatewayOrder.Currency,
		OrderNumber:    order.OrderNumber,
	}, nil
}

// HandleCallback verifies the gateway signature and settles or fails the
// payment. A verified callback confirms the order; anything else cancels it
// and returns the reserved stock.
func (s *service) HandleCallback(ctx context.Context, input CallbackInput) error {
	order, err := s.repo.FindOrderByPaymentReference(ctx, input.GatewayOrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "unknown gateway order")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving gateway order")
	}
	if order.Payment == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order has no payment record")
	}
	// Replayed callbacks for a settled payment are acknowledged silently.
	if order.Payment.Status == enums.PaymentStatusCompleted {
		return nil
	}
	// A payment the expiry sweep or a failed verification already marked as
	// failed stays failed. The order was cancelled and its stock returned to
	// the pool, so a late confirmation cannot be honored and a late failure
	// must not release inventory a second time.
	if order.Payment.Status != enums.PaymentStatusPending {
		return pkgerrors.New(pkgerrors.CodeConflict, "payment is no longer pending")
	}

	if !s.gateway.VerifyPaymentSignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		s.metrics.IncPaymentVerification("failure")
		if err := s.failPayment(ctx, order, trackingPaymentFailed, "signature verification failed"); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodePaymentVerification, "payment signature verification failed")
	}

	paidAt := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.MarkPaymentCompleted(ctx, order.Payment.ID, input.GatewayPaymentID, paidAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settling payment")
		}
		if err := repo.ConfirmOrder(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirming order")
		}
		if err := repo.CreateTracking(ctx, &models.OrderTracking{
			ID:      uuid.New(),
			OrderID: order.ID,
			Status:  order.Status,
			Message: trackingPaymentCompleted,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating tracking entry")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregatePayment,
			AggregateID:   order.Payment.ID,
			Data: payloads.OrderPaidEvent{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				CustomerID:       order.CustomerID,
				PaymentID:        order.Payment.ID,
				GatewayPaymentID: input.GatewayPaymentID,
				Amount:           order.Total.StringFixed(2),
				PaidAt:           paidAt,
			},
			Version: 1,
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return err
	}

	s.metrics.IncPaymentVerification("success")
	return nil
}

// ExpireUnpaidOrders sweeps online orders whose payment window has elapsed.
// Each order is expired in its own transaction so one failure cannot stall
// the rest of the sweep.
func (s *service) ExpireUnpaidOrders(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-ttl)
	stale, err := s.repo.ListUnpaidOnlineOrders(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing unpaid orders")
	}

	expired := 0
	var sweepErr error
	for i := range stale {
		order := stale[i]
		if err := s.failPayment(ctx, &order, trackingOrderExpired, "payment window expired"); err != nil {
			sweepErr = multierr.Append(sweepErr, err)
			continue
		}
		expired++
	}
	return expired, sweepErr
}

// failPayment cancels the order, returns its reserved stock and records the
// failure, all in one transaction.
func (s *service) failPayment(ctx context.Context, order *models.Order, trackingMessage, reason string) error {
	at := s.now()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.MarkPaymentFailed(ctx, order.Payment.ID, reason); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failing payment")
		}
		if err := repo.CancelOrder(ctx, order.ID, at); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling order")
		}

		releases := make([]reservation.InventoryReleaseRequest, 0, len(order.Items))
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			releases = append(releases, reservation.InventoryReleaseRequest{
				ProductID: *item.ProductID,
				Qty:       item.Quantity,
			})
		}
		if err := reservation.ReleaseInventory(ctx, tx, releases); err != nil {
			return err
		}

		if err := repo.CreateTracking(ctx, &models.OrderTracking{
			ID:      uuid.New(),
			OrderID: order.ID,
			Status:  enums.OrderStatusCancelled,
			Message: trackingMessage,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating tracking entry")
		}

		eventType := enums.EventPaymentFailed
		var data any = payloads.PaymentFailedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			PaymentID:   order.Payment.ID,
			Reason:      reason,
		}
		if trackingMessage == trackingOrderExpired {
			eventType = enums.EventOrderExpired
			data = payloads.OrderExpiredEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				ExpiredAt:   at,
			}
		}
		event := outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data:          data,
			Version:       1,
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}
