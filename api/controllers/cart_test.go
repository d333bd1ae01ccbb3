package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harnoorlabs/aromas-backend/api/middleware"
	"github.com/harnoorlabs/aromas-backend/internal/cart"
)

type stubCartService struct {
	dto      *cart.CartDTO
	err      error
	addInput *cart.AddItemInput
	removed  uuid.UUID
}

func (s *stubCartService) AddItem(ctx context.Context, customerID uuid.UUID, input cart.AddItemInput) (*cart.CartDTO, error) {
	s.addInput = &input
	return s.dto, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*cart.CartDTO, error) {
	s.removed = itemID
	return s.dto, s.err
}

func (s *stubCartService) DecrementItem(ctx context.Context, customerID, itemID uuid.UUID) (*cart.CartDTO, error) {
	s.removed = itemID
	return s.dto, s.err
}

func (s *stubCartService) Get(ctx context.Context, customerID uuid.UUID) (*cart.CartDTO, error) {
	return s.dto, s.err
}

func authedRequest(method, target, body string, customerID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), customerID.String()))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCartAddItemSuccess(t *testing.T) {
	customerID := uuid.New()
	productID := uuid.New()
	svc := &stubCartService{dto: &cart.CartDTO{CustomerID: customerID, Subtotal: "250.00"}}
	handler := CartAddItem(svc, nil)

	body := `{"product_id":"` + productID.String() + `","quantity":2}`
	req := authedRequest(http.MethodPost, "/api/v1/cart/items", body, customerID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.addInput == nil || svc.addInput.ProductID != productID || svc.addInput.Quantity != 2 {
		t.Fatalf("unexpected input passed to service: %+v", svc.addInput)
	}

	var envelope struct {
		Data cart.CartDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Subtotal != "250.00" {
		t.Fatalf("unexpected subtotal: %s", envelope.Data.Subtotal)
	}
}

func TestCartAddItemValidation(t *testing.T) {
	handler := CartAddItem(&stubCartService{}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/cart/items", `{"quantity":0}`, uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartRemoveItemParsesPathID(t *testing.T) {
	customerID := uuid.New()
	itemID := uuid.New()
	svc := &stubCartService{dto: &cart.CartDTO{CustomerID: customerID}}
	handler := CartRemoveItem(svc, nil)

	req := authedRequest(http.MethodDelete, "/api/v1/cart/items/"+itemID.String(), "", customerID)
	req = withURLParam(req, "itemId", itemID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.removed != itemID {
		t.Fatalf("expected item %s removed, got %s", itemID, svc.removed)
	}
}

func TestCartRemoveItemRejectsBadID(t *testing.T) {
	handler := CartRemoveItem(&stubCartService{}, nil)

	req := authedRequest(http.MethodDelete, "/api/v1/cart/items/nope", "", uuid.New())
	req = withURLParam(req, "itemId", "nope")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartFetchRequiresAuth(t *testing.T) {
	handler := CartFetch(&stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
