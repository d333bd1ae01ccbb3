package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/harnoorlabs/aromas-backend/internal/orders"
	product "github.com/harnoorlabs/aromas-backend/internal/products"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	"github.com/harnoorlabs/aromas-backend/pkg/pagination"
)

type stubProductService struct {
	dto       *product.ProductDTO
	list      []product.ProductDTO
	err       error
	created   *product.CreateProductInput
	updated   *product.UpdateProductInput
	deletedID uuid.UUID
}

func (s *stubProductService) CreateProduct(ctx context.Context, sellerID uuid.UUID, input product.CreateProductInput) (*product.ProductDTO, error) {
	s.created = &input
	return s.dto, s.err
}

func (s *stubProductService) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input product.UpdateProductInput) (*product.ProductDTO, error) {
	s.updated = &input
	return s.dto, s.err
}

func (s *stubProductService) DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	s.deletedID = productID
	return s.err
}

func (s *stubProductService) GetDetail(ctx context.Context, productID uuid.UUID) (*product.ProductDTO, error) {
	return s.dto, s.err
}

func (s *stubProductService) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]product.ProductDTO, error) {
	return s.list, s.err
}

func (s *stubProductService) ListLowStock(ctx context.Context, sellerID uuid.UUID) ([]product.ProductDTO, error) {
	return s.list, s.err
}

type sellerOrdersService struct {
	stubOrdersService
	status     *enums.OrderStatus
	statusedTo enums.OrderStatus
}

func (s *sellerOrdersService) ListForSeller(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (*orders.OrderListDTO, error) {
	s.status = status
	return &orders.OrderListDTO{}, nil
}

func (s *sellerOrdersService) UpdateStatus(ctx context.Context, input orders.UpdateStatusInput) (*orders.OrderDetailDTO, error) {
	s.statusedTo = input.To
	return &orders.OrderDetailDTO{ID: input.OrderID}, nil
}

func TestSellerCreateProductSuccess(t *testing.T) {
	svc := &stubProductService{dto: &product.ProductDTO{ID: uuid.New(), Name: "Oud Attar"}}
	handler := SellerCreateProduct(svc, nil)

	body := `{
		"slug": "oud-attar",
		"name": "Oud Attar",
		"category": "attar",
		"price": "450.00",
		"gst_percentage": "18",
		"min_stock_alert": 5,
		"initial_stock": 40,
		"variations": [{"category": "size", "value": "12ml"}]
	}`
	req := authedRequest(http.MethodPost, "/api/v1/seller/products", body, uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.created == nil {
		t.Fatal("expected create input captured")
	}
	if svc.created.InitialStock != 40 || svc.created.MinStockAlert != 5 {
		t.Fatalf("unexpected stock fields: %+v", svc.created)
	}
	if len(svc.created.Variations) != 1 || svc.created.Variations[0].Category != enums.VariationCategorySize {
		t.Fatalf("unexpected variations: %+v", svc.created.Variations)
	}
}

func TestSellerCreateProductRejectsBadVariation(t *testing.T) {
	handler := SellerCreateProduct(&stubProductService{}, nil)

	body := `{
		"slug": "oud-attar",
		"name": "Oud Attar",
		"category": "attar",
		"price": "450.00",
		"initial_stock": 10,
		"variations": [{"category": "weight", "value": "100g"}]
	}`
	req := authedRequest(http.MethodPost, "/api/v1/seller/products", body, uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown variation category got %d", resp.Code)
	}
}

func TestSellerUpdateProductForwardsPatch(t *testing.T) {
	svc := &stubProductService{dto: &product.ProductDTO{ID: uuid.New()}}
	handler := SellerUpdateProduct(svc, nil)

	productID := uuid.New()
	body := `{"min_stock_alert": 3, "is_available": false}`
	req := authedRequest(http.MethodPatch, "/api/v1/seller/products/"+productID.String(), body, uuid.New())
	req = withURLParam(req, "productId", productID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.updated == nil || svc.updated.MinStockAlert == nil || *svc.updated.MinStockAlert != 3 {
		t.Fatalf("min stock alert not forwarded: %+v", svc.updated)
	}
	if svc.updated.IsAvailable == nil || *svc.updated.IsAvailable {
		t.Fatalf("availability flag not forwarded: %+v", svc.updated)
	}
	if svc.updated.Name != nil {
		t.Fatalf("untouched fields must stay nil: %+v", svc.updated)
	}
}

func TestSellerDeleteProductParsesPathID(t *testing.T) {
	svc := &stubProductService{}
	handler := SellerDeleteProduct(svc, nil)

	productID := uuid.New()
	req := authedRequest(http.MethodDelete, "/api/v1/seller/products/"+productID.String(), "", uuid.New())
	req = withURLParam(req, "productId", productID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.deletedID != productID {
		t.Fatalf("expected %s deleted, got %s", productID, svc.deletedID)
	}
}

func TestSellerListOrdersParsesStatusFilter(t *testing.T) {
	svc := &sellerOrdersService{}
	handler := SellerListOrders(svc, nil)

	req := authedRequest(http.MethodGet, "/api/v1/seller/orders?status=shipped", "", uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.status == nil || *svc.status != enums.OrderStatusShipped {
		t.Fatalf("status filter not forwarded: %v", svc.status)
	}
}

func TestSellerListOrdersRejectsUnknownStatus(t *testing.T) {
	handler := SellerListOrders(&sellerOrdersService{}, nil)

	req := authedRequest(http.MethodGet, "/api/v1/seller/orders?status=teleported", "", uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSellerUpdateOrderStatusSuccess(t *testing.T) {
	svc := &sellerOrdersService{}
	handler := SellerUpdateOrderStatus(svc, nil)

	orderID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/seller/orders/"+orderID.String()+"/status", `{"status":"packed"}`, uuid.New())
	req = withURLParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.statusedTo != enums.OrderStatusPacked {
		t.Fatalf("unexpected target status: %s", svc.statusedTo)
	}

	var envelope struct {
		Data orders.OrderDetailDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != orderID {
		t.Fatalf("unexpected order id: %s", envelope.Data.ID)
	}
}

func TestSellerUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	handler := SellerUpdateOrderStatus(&sellerOrdersService{}, nil)

	orderID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/seller/orders/"+orderID.String()+"/status", `{"status":"vaporized"}`, uuid.New())
	req = withURLParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
