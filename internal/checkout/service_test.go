package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harnoorlabs/aromas-backend/internal/cart"
	"github.com/harnoorlabs/aromas-backend/internal/checkout/reservation"
	product "github.com/harnoorlabs/aromas-backend/internal/products"
	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox"
	"github.com/harnoorlabs/aromas-backend/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Product{},
		&models.Variation{},
		&models.InventoryItem{},
		&models.CartRecord{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.OrderTracking{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

type stubPublisher struct {
	events []outbox.DomainEvent
}

func (p *stubPublisher) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	p.events = append(p.events, event)
	return nil
}

type stubSideEffects struct {
	placed   []uuid.UUID
	lowStock []uuid.UUID
	fail     bool
}

func (s *stubSideEffects) OrderPlaced(_ context.Context, order *models.Order) error {
	if s.fail {
		return errors.New("notification channel down")
	}
	s.placed = append(s.placed, order.ID)
	return nil
}

func (s *stubSideEffects) LowStock(_ context.Context, row *models.Product, _ int) error {
	if s.fail {
		return errors.New("notification channel down")
	}
	s.lowStock = append(s.lowStock, row.ID)
	return nil
}

type stubReservation struct {
	results []reservation.InventoryReservationResult
}

func (s stubReservation) Reserve(_ context.Context, _ *gorm.DB, _ []reservation.InventoryReservationRequest) ([]reservation.InventoryReservationResult, error) {
	return s.results, nil
}

type checkoutFixture struct {
	conn        *gorm.DB
	svc         Service
	publisher   *stubPublisher
	sideEffects *stubSideEffects
	cartRepo    *cart.Repository
}

func newFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	conn := newTestDB(t)
	publisher := &stubPublisher{}
	sideEffects := &stubSideEffects{}
	svc, err := NewService(
		gormTxRunner{db: conn},
		NewRepository(conn),
		cart.NewRepository(conn),
		product.NewRepository(conn),
		publisher,
		sideEffects,
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &checkoutFixture{
		conn:        conn,
		svc:         svc,
		publisher:   publisher,
		sideEffects: sideEffects,
		cartRepo:    cart.NewRepository(conn),
	}
}

func seedProduct(t *testing.T, conn *gorm.DB, price, gst string, stock int) *models.Product {
	t.Helper()
	row := &models.Product{
		ID:            uuid.New(),
		SellerID:      uuid.New(),
		Slug:          fmt.Sprintf("candle-%s", uuid.NewString()),
		Name:          "Jasmine Candle",
		Category:      "candles",
		Price:         decimal.RequireFromString(price),
		GSTPercentage: decimal.RequireFromString(gst),
		MinStockAlert: 10,
		IsAvailable:   stock > 0,
	}
	if err := conn.Create(row).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	if err := conn.Create(&models.InventoryItem{ProductID: row.ID, AvailableQty: stock}).Error; err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	return row
}

func seedCart(t *testing.T, conn *gorm.DB, customerID uuid.UUID, lines map[uuid.UUID]int) *models.CartRecord {
	t.Helper()
	record := &models.CartRecord{ID: uuid.New(), CustomerID: customerID}
	if err := conn.Create(record).Error; err != nil {
		t.Fatalf("create cart: %v", err)
	}
	for productID, qty := range lines {
		item := &models.CartItem{
			ID:        uuid.New(),
			CartID:    record.ID,
			ProductID: productID,
			Quantity:  qty,
			IsActive:  true,
		}
		if err := conn.Create(item).Error; err != nil {
			t.Fatalf("create cart item: %v", err)
		}
	}
	return record
}

func testAddress() types.Address {
	return types.Address{
		FullName:   "Asha Rao",
		Phone:      "9876543210",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
	}
}

var orderNumberPattern = regexp.MustCompile(`^\d{8}-\d{6}-\d{2,4}$`)

func TestPlaceOrderCODHappyPath(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	row := seedProduct(t, fx.conn, "250.00", "5", 20)
	seedCart(t, fx.conn, customerID, map[uuid.UUID]int{row.ID: 2})

	order, err := fx.svc.PlaceOrder(ctx, customerID, PlaceOrderInput{
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       testAddress(),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if !orderNumberPattern.MatchString(order.OrderNumber) {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	if !order.IsOrdered || order.Status != enums.OrderStatusNew {
		t.Fatalf("expected confirmed new order, got ordered=%v status=%s", order.IsOrdered, order.Status)
	}
	if order.Subtotal.StringFixed(2) != "500.00" || order.Tax.StringFixed(2) != "25.00" || order.Total.StringFixed(2) != "525.00" {
		t.Fatalf("unexpected totals %s/%s/%s", order.Subtotal, order.Tax, order.Total)
	}
	if order.Payment == nil || order.Payment.Status != enums.PaymentStatusPending || order.Payment.Amount.StringFixed(2) != "525.00" {
		t.Fatalf("unexpected payment %+v", order.Payment)
	}

	var item models.InventoryItem
	if err := fx.conn.First(&item, "product_id = ?", row.ID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if item.AvailableQty != 18 || item.ReservedQty != 2 {
		t.Fatalf("unexpected inventory %+v", item)
	}

	var carts int64
	if err := fx.conn.Model(&models.CartRecord{}).Count(&carts).Error; err != nil {
		t.Fatalf("count carts: %v", err)
	}
	var cartItems int64
	if err := fx.conn.Model(&models.CartItem{}).Count(&cartItems).Error; err != nil {
		t.Fatalf("count cart items: %v", err)
	}
	if carts != 0 || cartItems != 0 {
		t.Fatalf("expected cart consumed, got %d carts and %d items", carts, cartItems)
	}

	var tracking []models.OrderTracking
	if err := fx.conn.Where("order_id = ?", order.ID).Find(&tracking).Error; err != nil {
		t.Fatalf("load tracking: %v", err)
	}
	if len(tracking) != 1 || tracking[0].Message != trackingOrderPlaced {
		t.Fatalf("unexpected tracking %+v", tracking)
	}

	if len(fx.publisher.events) != 1 || fx.publisher.events[0].EventType != enums.EventOrderPlaced {
		t.Fatalf("expected one order placed event, got %+v", fx.publisher.events)
	}
	if len(fx.sideEffects.placed) != 1 {
		t.Fatalf("expected order placed side effects, got %+v", fx.sideEffects.placed)
	}
}

func TestPlaceOrderFastValidationRejects(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	row := seedProduct(t, fx.conn, "100.00", "0", 1)
	seedCart(t, fx.conn, customerID, map[uuid.UUID]int{row.ID: 3})

	_, err := fx.svc.PlaceOrder(ctx, customerID, PlaceOrderInput{
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       testAddress(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	details, ok := typed.Details().([]InsufficientStockDetail)
	if !ok || len(details) != 1 {
		t.Fatalf("expected one detail line, got %#v", typed.Details())
	}
	if details[0].ProductID != row.ID || details[0].Requested != 3 || details[0].Available != 1 {
		t.Fatalf("unexpected detail %+v", details[0])
	}

	var orders int64
	if err := fx.conn.Model(&models.Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orders != 0 {
		t.Fatalf("expected no orders, got %d", orders)
	}
	var cartItems int64
	if err := fx.conn.Model(&models.CartItem{}).Count(&cartItems).Error; err != nil {
		t.Fatalf("count cart items: %v", err)
	}
	if cartItems != 1 {
		t.Fatalf("expected cart untouched, got %d items", cartItems)
	}
}

func TestPlaceOrderLateShortageRollsBack(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	row := seedProduct(t, fx.conn, "100.00", "0", 1)
	cartRecord := seedCart(t, fx.conn, customerID, map[uuid.UUID]int{row.ID: 1})

	// Fast validation passes on stock 1; a concurrent checkout drained it
	// before the locked reservation ran.
	fx.svc.(*service).reservation = stubReservation{results: []reservation.InventoryReservationResult{
		{ProductID: row.ID, Qty: 1, Reserved: false, Reason: "only 0 unit(s) available", Available: 0},
	}}

	_, err := fx.svc.PlaceOrder(ctx, customerID, PlaceOrderInput{
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       testAddress(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	var orders int64
	if err := fx.conn.Model(&models.Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	var payments int64
	if err := fx.conn.Model(&models.Payment{}).Count(&payments).Error; err != nil {
		t.Fatalf("count payments: %v", err)
	}
	if orders != 0 || payments != 0 {
		t.Fatalf("expected rollback, got %d orders and %d payments", orders, payments)
	}

	record, err := fx.cartRepo.FindByID(ctx, cartRecord.ID)
	if err != nil {
		t.Fatalf("expected cart to survive: %v", err)
	}
	if len(record.Items) != 1 {
		t.Fatalf("expected cart items intact, got %d", len(record.Items))
	}
}

func TestPlaceOrderOnlineStaysPending(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	row := seedProduct(t, fx.conn, "499.50", "0", 5)
	seedCart(t, fx.conn, customerID, map[uuid.UUID]int{row.ID: 1})

	order, err := fx.svc.PlaceOrder(ctx, customerID, PlaceOrderInput{
		PaymentMethod: enums.PaymentMethodOnline,
		Address:       testAddress(),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if order.IsOrdered {
		t.Fatalf("expected online order to stay unconfirmed until payment")
	}
	var tracking int64
	if err := fx.conn.Model(&models.OrderTracking{}).Where("order_id = ?", order.ID).Count(&tracking).Error; err != nil {
		t.Fatalf("count tracking: %v", err)
	}
	if tracking != 0 {
		t.Fatalf("expected no tracking before payment, got %d rows", tracking)
	}
	if len(fx.publisher.events) != 0 {
		t.Fatalf("expected no events before payment, got %+v", fx.publisher.events)
	}

	// Stock is still held for the pending payment window.
	var item models.InventoryItem
	if err := fx.conn.First(&item, "product_id = ?", row.ID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if item.AvailableQty != 4 || item.ReservedQty != 1 {
		t.Fatalf("unexpected inventory %+v", item)
	}
}

func TestPlaceOrderExhaustionFlipsAvailability(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	row := seedProduct(t, fx.conn, "100.00", "0", 2)
	seedCart(t, fx.conn, customerID, map[uuid.UUID]int{row.ID: 2})

	if _, err := fx.svc.PlaceOrder(ctx, customerID, PlaceOrderInput{
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       testAddress(),
	}); err != nil {
		t.Fatalf("place order: %v", err)
	}

	var updated models.Product
	if err := fx.conn.First(&updated, "id = ?", row.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if updated.IsAvailable {
		t.Fatalf("expected product flagged unavailable at zero stock")
	}
	if len(fx.sideEffects.lowStock) != 1 || fx.sideEffects.lowStock[0] != row.ID {
		t.Fatalf("expected low stock side effect, got %+v", fx.sideEffects.lowStock)
	}
}

func TestPlaceOrderSideEffectFailureTolerated(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.sideEffects.fail = true
	ctx := context.Background()
	customerID := uuid.New()
	row := seedProduct(t, fx.conn, "100.00", "0", 5)
	seedCart(t, fx.conn, customerID, map[uuid.UUID]int{row.ID: 1})

	order, err := fx.svc.PlaceOrder(ctx, customerID, PlaceOrderInput{
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       testAddress(),
	})
	if err != nil {
		t.Fatalf("expected order to commit despite side effect failure, got %v", err)
	}

	var persisted models.Order
	if err := fx.conn.First(&persisted, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if !persisted.IsOrdered {
		t.Fatalf("expected committed order")
	}
}

func TestPlaceOrderDoubleConsumeFailsCleanly(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	row := seedProduct(t, fx.conn, "100.00", "0", 10)
	seedCart(t, fx.conn, customerID, map[uuid.UUID]int{row.ID: 1})

	if _, err := fx.svc.PlaceOrder(ctx, customerID, PlaceOrderInput{
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       testAddress(),
	}); err != nil {
		t.Fatalf("first place order: %v", err)
	}

	_, err := fx.svc.PlaceOrder(ctx, customerID, PlaceOrderInput{
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       testAddress(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for consumed cart, got %v", err)
	}

	var orders int64
	if err := fx.conn.Model(&models.Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orders != 1 {
		t.Fatalf("expected exactly one order, got %d", orders)
	}
}

func TestPlaceOrderEmptyCartRejected(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := context.Background()
	customerID := uuid.New()
	seedCart(t, fx.conn, customerID, nil)

	_, err := fx.svc.PlaceOrder(ctx, customerID, PlaceOrderInput{
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       testAddress(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlaceOrderMissingCart(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	_, err := fx.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       testAddress(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestPlaceOrderInvalidAddress(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	_, err := fx.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		PaymentMethod: enums.PaymentMethodCOD,
		Address:       types.Address{FullName: "Asha Rao"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
