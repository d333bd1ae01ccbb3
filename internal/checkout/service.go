package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harnoorlabs/aromas-backend/internal/cart"
	"github.com/harnoorlabs/aromas-backend/internal/checkout/reservation"
	"github.com/harnoorlabs/aromas-backend/internal/ordernumber"
	"github.com/harnoorlabs/aromas-backend/internal/pricing"
	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
	"github.com/harnoorlabs/aromas-backend/pkg/logger"
	"github.com/harnoorlabs/aromas-backend/pkg/metrics"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox/payloads"
	"github.com/harnoorlabs/aromas-backend/pkg/types"
)

const trackingOrderPlaced = "Order placed successfully"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLister interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.InventoryReservationRequest) ([]reservation.InventoryReservationResult, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// SideEffects runs the best-effort work after an order commits. Failures are
// logged and never surfaced to the customer.
type SideEffects interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
	LowStock(ctx context.Context, product *models.Product, available int) error
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.InventoryReservationRequest) ([]reservation.InventoryReservationResult, error) {
	return reservation.ReserveInventory(ctx, tx, requests)
}

// PlaceOrderInput is everything the customer supplies at checkout.
type PlaceOrderInput struct {
	PaymentMethod enums.PaymentMethod
	Address       types.Address
	Note          *string
	IPAddress     *string
	Discount      decimal.Decimal
}

// InsufficientStockDetail names one cart line that cannot be fulfilled.
type InsufficientStockDetail struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Service turns a cart into a committed order.
type Service interface {
	PlaceOrder(ctx context.Context, customerID uuid.UUID, input PlaceOrderInput) (*models.Order, error)
}

type service struct {
	tx          txRunner
	repo        *Repository
	cartRepo    *cart.Repository
	products    productLister
	reservation reservationRunner
	outbox      outboxPublisher
	sideEffects SideEffects
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
}

// NewService builds the checkout service. sideEffects and metrics may be nil.
func NewService(
	tx txRunner,
	repo *Repository,
	cartRepo *cart.Repository,
	products productLister,
	publisher outboxPublisher,
	sideEffects SideEffects,
	m *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, errors.New("tx runner required")
	}
	if repo == nil {
		return nil, errors.New("checkout repository required")
	}
	if cartRepo == nil {
		return nil, errors.New("cart repository required")
	}
	if products == nil {
		return nil, errors.New("product lister required")
	}
	if publisher == nil {
		return nil, errors.New("outbox publisher required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		cartRepo:    cartRepo,
		products:    products,
		reservation: reservationEngine{},
		outbox:      publisher,
		sideEffects: sideEffects,
		metrics:     m,
		logg:        logg,
	}, nil
}

// PlaceOrder runs the checkout pipeline. Everything up to and including the
// cart deletion happens in a single transaction: a failure anywhere rolls
// the whole attempt back and the cart survives untouched. Once the
// transaction commits the cart is gone and the order exists; everything
// after commit is best effort.
func (s *service) PlaceOrder(ctx context.Context, customerID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	address := input.Address.Normalized()
	if err := address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
	}
	if input.Discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}

	record, err := s.cartRepo.FindByCustomer(ctx, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.metrics.IncCheckoutRejected("cart_missing")
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if len(record.Items) == 0 {
		s.metrics.IncCheckoutRejected("empty_cart")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	productsByID, err := s.loadProducts(ctx, record.Items)
	if err != nil {
		return nil, err
	}

	// Fast non-locking pass: reject obvious shortfalls with the full list of
	// offending lines before writing anything. The locked reservation below
	// re-validates, so a stale read here only costs a later rollback.
	if details := validateStock(record.Items, productsByID); len(details) > 0 {
		s.metrics.IncCheckoutRejected("insufficient_stock")
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").WithDetails(details)
	}

	quote, err := buildQuote(record.Items, productsByID, input.Discount)
	if err != nil {
		return nil, err
	}

	var (
		order    *models.Order
		lowStock []reservation.InventoryReservationResult
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		generator, err := ordernumber.NewGenerator(repo, s.metrics)
		if err != nil {
			return err
		}
		orderNumber, err := generator.Next(ctx)
		if err != nil {
			return err
		}

		order = &models.Order{
			ID:            uuid.New(),
			OrderNumber:   orderNumber,
			CustomerID:    customerID,
			CartID:        record.ID,
			Status:        enums.OrderStatusNew,
			PaymentMethod: input.PaymentMethod,
			Address:       address,
			Note:          input.Note,
			IPAddress:     input.IPAddress,
			Subtotal:      quote.Subtotal,
			Discount:      quote.Discount,
			Tax:           quote.Tax,
			Total:         quote.Total,
			IsOrdered:     input.PaymentMethod == enums.PaymentMethodCOD,
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}

		items, err := buildOrderItems(order.ID, record.Items, productsByID, quote)
		if err != nil {
			return err
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order items")
		}
		order.Items = items

		payment := &models.Payment{
			ID:        uuid.New(),
			OrderID:   order.ID,
			Method:    input.PaymentMethod,
			Status:    enums.PaymentStatusPending,
			Amount:    quote.Total,
			Reference: uuid.NewString(),
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating payment")
		}
		order.Payment = payment

		requests := make([]reservation.InventoryReservationRequest, 0, len(record.Items))
		for _, item := range record.Items {
			threshold := 0
			if product, ok := productsByID[item.ProductID]; ok {
				threshold = product.MinStockAlert
			}
			requests = append(requests, reservation.InventoryReservationRequest{
				CartItemID:        item.ID,
				ProductID:         item.ProductID,
				Qty:               item.Quantity,
				LowStockThreshold: threshold,
			})
		}
		results, err := s.reservation.Reserve(ctx, tx, requests)
		if err != nil {
			return err
		}

		// A late shortage aborts the whole transaction; the order, items and
		// payment written above are rolled back with it.
		var failed []InsufficientStockDetail
		for _, res := range results {
			if res.Reserved {
				continue
			}
			detail := InsufficientStockDetail{
				ProductID: res.ProductID,
				Requested: res.Qty,
				Available: res.Available,
			}
			if product, ok := productsByID[res.ProductID]; ok {
				detail.Name = product.Name
			}
			failed = append(failed, detail)
		}
		if len(failed) > 0 {
			s.metrics.IncCheckoutRejected("insufficient_stock")
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").WithDetails(failed)
		}

		for _, res := range results {
			if res.Exhausted {
				if err := repo.SetProductUnavailable(ctx, res.ProductID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flipping product availability")
				}
			}
			if res.LowStock {
				lowStock = append(lowStock, res)
			}
		}

		// Deleting the cart is the point of no return: once this transaction
		// commits, the same cart can never produce a second order.
		if err := s.cartRepo.WithTx(tx).Delete(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consuming cart")
		}

		if input.PaymentMethod == enums.PaymentMethodCOD {
			tracking := &models.OrderTracking{
				ID:      uuid.New(),
				OrderID: order.ID,
				Status:  enums.OrderStatusNew,
				Message: trackingOrderPlaced,
			}
			if err := repo.CreateTracking(ctx, tracking); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating tracking entry")
			}
			order.Tracking = []models.OrderTracking{*tracking}

			event := outbox.DomainEvent{
				EventType:     enums.EventOrderPlaced,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Data: payloads.OrderPlacedEvent{
					OrderID:       order.ID,
					OrderNumber:   order.OrderNumber,
					CustomerID:    customerID,
					PaymentMethod: input.PaymentMethod,
					Total:         quote.Total.StringFixed(2),
					ItemCount:     len(items),
				},
				Version: 1,
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emitting order placed event")
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderPlaced(input.PaymentMethod.String())
	s.runSideEffects(ctx, order, productsByID, lowStock)

	return order, nil
}

// runSideEffects fires the post-commit work. The order is already committed,
// so failures here are logged and swallowed.
func (s *service) runSideEffects(ctx context.Context, order *models.Order, productsByID map[uuid.UUID]*models.Product, lowStock []reservation.InventoryReservationResult) {
	if s.sideEffects == nil {
		return
	}
	if err := s.sideEffects.OrderPlaced(ctx, order); err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": order.ID.String()})
		s.logg.Warn(logCtx, "order placed side effects failed: "+err.Error())
	}
	for _, res := range lowStock {
		product, ok := productsByID[res.ProductID]
		if !ok {
			continue
		}
		if err := s.sideEffects.LowStock(ctx, product, res.Available); err != nil && s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": product.ID.String()})
			s.logg.Warn(logCtx, "low stock side effects failed: "+err.Error())
		}
	}
}

func (s *service) loadProducts(ctx context.Context, items []models.CartItem) (map[uuid.UUID]*models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	rows, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	return byID, nil
}

func validateStock(items []models.CartItem, productsByID map[uuid.UUID]*models.Product) []InsufficientStockDetail {
	var details []InsufficientStockDetail
	for _, item := range items {
		available := 0
		name := ""
		if product, ok := productsByID[item.ProductID]; ok {
			name = product.Name
			if product.IsAvailable && product.Inventory != nil {
				available = product.Inventory.AvailableQty
			}
		}
		if item.Quantity > available {
			details = append(details, InsufficientStockDetail{
				ProductID: item.ProductID,
				Name:      name,
				Requested: item.Quantity,
				Available: available,
			})
		}
	}
	return details
}

func buildQuote(items []models.CartItem, productsByID map[uuid.UUID]*models.Product, discount decimal.Decimal) (*pricing.Quote, error) {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		product, ok := productsByID[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s no longer exists", item.ProductID))
		}
		lines = append(lines, pricing.Line{
			UnitPrice:     product.EffectivePrice(),
			Quantity:      item.Quantity,
			GSTPercentage: product.GSTPercentage,
		})
	}
	return pricing.Compute(lines, discount)
}

func buildOrderItems(orderID uuid.UUID, items []models.CartItem, productsByID map[uuid.UUID]*models.Product, quote *pricing.Quote) ([]models.OrderItem, error) {
	if len(quote.Lines) != len(items) {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "quote line count mismatch")
	}
	out := make([]models.OrderItem, 0, len(items))
	for i, item := range items {
		product := productsByID[item.ProductID]
		productID := item.ProductID
		out = append(out, models.OrderItem{
			ID:            uuid.New(),
			OrderID:       orderID,
			ProductID:     &productID,
			Name:          product.Name,
			Variations:    displayVariations(product, item.VariationIDs),
			UnitPrice:     quote.Lines[i].UnitPrice,
			Quantity:      item.Quantity,
			GSTPercentage: product.GSTPercentage,
			TaxAmount:     quote.Lines[i].TaxAmount,
			LineTotal:     quote.Lines[i].LineTotal,
		})
	}
	return out, nil
}

// displayVariations snapshots the selected options as "category: value"
// strings so order lines stay readable after catalog edits.
func displayVariations(product *models.Product, variationIDs []string) pq.StringArray {
	if len(variationIDs) == 0 {
		return nil
	}
	byID := make(map[string]models.Variation, len(product.Variations))
	for _, v := range product.Variations {
		byID[v.ID.String()] = v
	}
	out := make(pq.StringArray, 0, len(variationIDs))
	for _, id := range variationIDs {
		if v, ok := byID[id]; ok {
			out = append(out, fmt.Sprintf("%s: %s", v.Category, v.Value))
		}
	}
	return out
}
