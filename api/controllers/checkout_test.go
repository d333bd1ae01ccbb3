package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harnoorlabs/aromas-backend/api/middleware"
	checkoutsvc "github.com/harnoorlabs/aromas-backend/internal/checkout"
	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
)

type stubCheckoutService struct {
	order *models.Order
	err   error
	got   *checkoutsvc.PlaceOrderInput
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, customerID uuid.UUID, input checkoutsvc.PlaceOrderInput) (*models.Order, error) {
	s.got = &input
	return s.order, s.err
}

func TestCheckoutSuccess(t *testing.T) {
	t.Parallel()

	customerID := uuid.New()
	productID := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "20260828-000042-17",
		CustomerID:    customerID,
		Status:        enums.OrderStatusNew,
		PaymentMethod: enums.PaymentMethodCOD,
		IsOrdered:     true,
		Subtotal:      decimal.RequireFromString("500.00"),
		Discount:      decimal.RequireFromString("50.00"),
		Tax:           decimal.RequireFromString("81.00"),
		Total:         decimal.RequireFromString("531.00"),
		Items: []models.OrderItem{
			{
				ID:        uuid.New(),
				ProductID: &productID,
				Name:      "Sandalwood Candle",
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("250.00"),
				TaxAmount: decimal.RequireFromString("81.00"),
				LineTotal: decimal.RequireFromString("531.00"),
			},
		},
	}
	svc := &stubCheckoutService{order: order}
	handler := Checkout(svc, nil)

	body := `{"payment_method":"cod","discount":"50.00","address":{"full_name":"Noor","phone":"9999999999","line1":"12 MG Road","city":"Ludhiana","state":"PB","postal_code":"141001","country":"IN"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), customerID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data checkoutResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderNumber != order.OrderNumber {
		t.Fatalf("unexpected order number: %s", envelope.Data.OrderNumber)
	}
	if envelope.Data.Total != "531.00" {
		t.Fatalf("unexpected total: %s", envelope.Data.Total)
	}
	if len(envelope.Data.Items) != 1 {
		t.Fatalf("expected 1 item got %d", len(envelope.Data.Items))
	}
	if svc.got == nil || svc.got.PaymentMethod != enums.PaymentMethodCOD {
		t.Fatalf("expected cod payment method passed to service")
	}
	if !svc.got.Discount.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("unexpected discount: %s", svc.got.Discount)
	}
}

func TestCheckoutRequiresAuth(t *testing.T) {
	handler := Checkout(&stubCheckoutService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutValidationError(t *testing.T) {
	handler := Checkout(&stubCheckoutService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	handler := Checkout(&stubCheckoutService{}, nil)

	body := `{"payment_method":"barter","address":{"full_name":"Noor","phone":"9999999999","line1":"12 MG Road","city":"Ludhiana","state":"PB","postal_code":"141001","country":"IN"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutSurfacesInsufficientStock(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "short on stock")}
	handler := Checkout(svc, nil)

	body := `{"payment_method":"cod","address":{"full_name":"Noor","phone":"9999999999","line1":"12 MG Road","city":"Ludhiana","state":"PB","postal_code":"141001","country":"IN"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}
