package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/harnoorlabs/aromas-backend/api/responses"
	"github.com/harnoorlabs/aromas-backend/api/validators"
	"github.com/harnoorlabs/aromas-backend/internal/orders"
	product "github.com/harnoorlabs/aromas-backend/internal/products"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
	"github.com/harnoorlabs/aromas-backend/pkg/logger"
)

// SellerCreateProduct adds a product to the catalog with opening stock.
func SellerCreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		sellerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.CreateProduct(r.Context(), sellerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// SellerUpdateProduct patches product fields, price or stock.
func SellerUpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		sellerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpdateProduct(r.Context(), sellerID, productID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// SellerDeleteProduct removes a product from the catalog.
func SellerDeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		sellerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), sellerID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// SellerListProducts lists the seller's catalog.
func SellerListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		sellerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListBySeller(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// SellerLowStockProducts lists products at or under their alert threshold.
func SellerLowStockProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}
		sellerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListLowStock(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// SellerListOrders lists confirmed orders, optionally filtered by status.
func SellerListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var status *enums.OrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}
		result, err := svc.ListForSeller(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SellerUpdateOrderStatus advances an order through fulfillment.
func SellerUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}
		detail, err := svc.UpdateStatus(r.Context(), orders.UpdateStatusInput{OrderID: orderID, To: to})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type createProductRequest struct {
	Slug          string                    `json:"slug" validate:"required"`
	Name          string                    `json:"name" validate:"required"`
	Description   *string                   `json:"description,omitempty"`
	Category      string                    `json:"category" validate:"required"`
	Price         decimal.Decimal           `json:"price" validate:"required"`
	SalePrice     *decimal.Decimal          `json:"sale_price,omitempty"`
	GSTPercentage decimal.Decimal           `json:"gst_percentage"`
	MinStockAlert int                       `json:"min_stock_alert"`
	InitialStock  int                       `json:"initial_stock" validate:"gte=0"`
	Variations    []productVariationRequest `json:"variations,omitempty"`
}

type productVariationRequest struct {
	Category string `json:"category" validate:"required"`
	Value    string `json:"value" validate:"required"`
}

func (c createProductRequest) toInput() (product.CreateProductInput, error) {
	input := product.CreateProductInput{
		Slug:          c.Slug,
		Name:          c.Name,
		Description:   c.Description,
		Category:      c.Category,
		Price:         c.Price,
		SalePrice:     c.SalePrice,
		GSTPercentage: c.GSTPercentage,
		MinStockAlert: c.MinStockAlert,
		InitialStock:  c.InitialStock,
	}
	for _, v := range c.Variations {
		category := enums.VariationCategory(v.Category)
		if !category.IsValid() {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid variation category").WithDetails(map[string]any{"category": v.Category})
		}
		input.Variations = append(input.Variations, product.VariationInput{Category: category, Value: v.Value})
	}
	return input, nil
}

type updateProductRequest struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	GSTPercentage *decimal.Decimal `json:"gst_percentage,omitempty"`
	MinStockAlert *int             `json:"min_stock_alert,omitempty"`
	IsAvailable   *bool            `json:"is_available,omitempty"`
	Stock         *int             `json:"stock,omitempty"`
}

func (u updateProductRequest) toInput() product.UpdateProductInput {
	return product.UpdateProductInput{
		Name:          u.Name,
		Description:   u.Description,
		Category:      u.Category,
		Price:         u.Price,
		SalePrice:     u.SalePrice,
		GSTPercentage: u.GSTPercentage,
		MinStockAlert: u.MinStockAlert,
		IsAvailable:   u.IsAvailable,
		Stock:         u.Stock,
	}
}
