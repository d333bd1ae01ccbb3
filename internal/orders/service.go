package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harnoorlabs/aromas-backend/internal/checkout/reservation"
	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
	"github.com/harnoorlabs/aromas-backend/pkg/logger"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox/payloads"
	"github.com/harnoorlabs/aromas-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// forwardTransitions is the linear fulfillment path. Cancellation is handled
// separately: it is allowed from any non-terminal status.
var forwardTransitions = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusNew:            enums.OrderStatusAccepted,
	enums.OrderStatusAccepted:       enums.OrderStatusPacked,
	enums.OrderStatusPacked:         enums.OrderStatusShipped,
	enums.OrderStatusShipped:        enums.OrderStatusOutForDelivery,
	enums.OrderStatusOutForDelivery: enums.OrderStatusDelivered,
	enums.OrderStatusDelivered:      enums.OrderStatusCompleted,
}

// UpdateStatusInput asks for a fulfillment transition.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	To      enums.OrderStatus
}

// Service exposes order reads and the fulfillment state machine.
type Service interface {
	GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDetailDTO, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderListDTO, error)
	ListForSeller(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (*OrderListDTO, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDetailDTO, error)
	CancelByCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDetailDTO, error)
}

type service struct {
	tx     txRunner
	repo   *Repository
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the orders service. logg may be nil.
func NewService(tx txRunner, repo *Repository, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, errors.New("tx runner required")
	}
	if repo == nil {
		return nil, errors.New("orders repository required")
	}
	if publisher == nil {
		return nil, errors.New("outbox publisher required")
	}
	return &service{tx: tx, repo: repo, outbox: publisher, logg: logg, now: time.Now}, nil
}

func (s *service) GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDetailDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	// Unpaid online orders are visible to their owner so the storefront can
	// resume the payment flow.
	return toDetailDTO(order), nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderListDTO, error) {
	rows, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	dto := toListDTO(rows, params.Limit)
	return &dto, nil
}

func (s *service) ListForSeller(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (*OrderListDTO, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *status))
	}
	rows, err := s.repo.ListByStatus(ctx, status, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	dto := toListDTO(rows, params.Limit)
	return &dto, nil
}

// UpdateStatus advances an order one step along the fulfillment path, or
// cancels it from any non-terminal status. The order row, the tracking
// timeline and the stock movement commit together.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDetailDTO, error) {
	if !input.To.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.To))
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOrdered {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is not confirmed yet")
	}
	if err := validateTransition(order.Status, input.To); err != nil {
		return nil, err
	}

	if err := s.applyTransition(ctx, order, input.To); err != nil {
		return nil, err
	}
	return s.reload(ctx, order.ID)
}

// CancelByCustomer lets the owner cancel before the parcel ships.
func (s *service) CancelByCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDetailDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	switch order.Status {
	case enums.OrderStatusNew, enums.OrderStatusAccepted, enums.OrderStatusPacked:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("order can no longer be cancelled in status %q", order.Status))
	}

	if err := s.applyTransition(ctx, order, enums.OrderStatusCancelled); err != nil {
		return nil, err
	}
	return s.reload(ctx, order.ID)
}

func validateTransition(from, to enums.OrderStatus) error {
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("order is already %s", from))
	}
	if to == enums.OrderStatusCancelled {
		return nil
	}
	if forwardTransitions[from] != to {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("cannot change status from %q to %q", from, to))
	}
	return nil
}

// applyTransition writes the status change. Timestamps are set exactly once:
// the stamp for the target status is only written on the first entry into
// that status, which validateTransition guarantees.
func (s *service) applyTransition(ctx context.Context, order *models.Order, to enums.OrderStatus) error {
	at := s.now()
	from := order.Status

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		stamps := map[string]time.Time{}
		switch to {
		case enums.OrderStatusShipped:
			stamps["shipped_at"] = at
		case enums.OrderStatusDelivered:
			stamps["delivered_at"] = at
		case enums.OrderStatusCompleted:
			stamps["completed_at"] = at
		case enums.OrderStatusCancelled:
			stamps["cancelled_at"] = at
		}
		if err := repo.UpdateStatus(ctx, order.ID, to, stamps); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
		}

		if err := repo.CreateTracking(ctx, &models.OrderTracking{
			ID:      uuid.New(),
			OrderID: order.ID,
			Status:  to,
			Message: fmt.Sprintf("Status changed from %s to %s", from.Label(), to.Label()),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating tracking entry")
		}

		// Shipping consumes the reservation for good; cancellation returns
		// whatever is still reserved to the available pool.
		moves := make([]reservation.InventoryReleaseRequest, 0, len(order.Items))
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			moves = append(moves, reservation.InventoryReleaseRequest{
				ProductID: *item.ProductID,
				Qty:       item.Quantity,
			})
		}
		switch to {
		case enums.OrderStatusShipped:
			if err := reservation.ConsumeInventory(ctx, tx, moves); err != nil {
				return err
			}
		case enums.OrderStatusCancelled:
			if err := reservation.ReleaseInventory(ctx, tx, moves); err != nil {
				return err
			}
		}

		if to == enums.OrderStatusCancelled {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCancelled,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Data: payloads.OrderCancelledEvent{
					OrderID:     order.ID,
					OrderNumber: order.OrderNumber,
					CustomerID:  order.CustomerID,
					CancelledAt: at,
				},
				Version: 1,
			})
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				From:        from,
				To:          to,
				ChangedAt:   at,
			},
			Version: 1,
		})
	})
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) reload(ctx context.Context, orderID uuid.UUID) (*OrderDetailDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toDetailDTO(order), nil
}
