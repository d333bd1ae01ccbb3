package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harnoorlabs/aromas-backend/api/middleware"
	"github.com/harnoorlabs/aromas-backend/api/responses"
	"github.com/harnoorlabs/aromas-backend/api/validators"
	checkoutsvc "github.com/harnoorlabs/aromas-backend/internal/checkout"
	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
	"github.com/harnoorlabs/aromas-backend/pkg/logger"
	"github.com/harnoorlabs/aromas-backend/pkg/types"
)

// Checkout converts the customer's cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		discount := decimal.Zero
		if payload.Discount != nil {
			discount = *payload.Discount
		}

		ip := middleware.ClientIP(r)
		input := checkoutsvc.PlaceOrderInput{
			PaymentMethod: method,
			Address:       payload.Address,
			Note:          payload.Note,
			Discount:      discount,
		}
		if ip != "" {
			input.IPAddress = &ip
		}

		order, err := svc.PlaceOrder(r.Context(), customerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(order))
	}
}

type checkoutRequest struct {
	PaymentMethod string           `json:"payment_method" validate:"required"`
	Address       types.Address    `json:"address" validate:"required"`
	Note          *string          `json:"note,omitempty"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
}

type checkoutResponse struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	Status        string              `json:"status"`
	PaymentMethod string              `json:"payment_method"`
	PaymentStatus string              `json:"payment_status,omitempty"`
	IsOrdered     bool                `json:"is_ordered"`
	Subtotal      string              `json:"subtotal"`
	Discount      string              `json:"discount"`
	Tax           string              `json:"tax"`
	Total         string              `json:"total"`
	Items         []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ProductID  *uuid.UUID `json:"product_id,omitempty"`
	Name       string     `json:"name"`
	Quantity   int        `json:"quantity"`
	Variations []string   `json:"variations,omitempty"`
	UnitPrice  string     `json:"unit_price"`
	TaxAmount  string     `json:"tax_amount"`
	LineTotal  string     `json:"line_total"`
}

func newCheckoutResponse(order *models.Order) checkoutResponse {
	if order == nil {
		return checkoutResponse{}
	}
	resp := checkoutResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        string(order.Status),
		PaymentMethod: string(order.PaymentMethod),
		IsOrdered:     order.IsOrdered,
		Subtotal:      order.Subtotal.StringFixed(2),
		Discount:      order.Discount.StringFixed(2),
		Tax:           order.Tax.StringFixed(2),
		Total:         order.Total.StringFixed(2),
		Items:         make([]orderItemResponse, 0, len(order.Items)),
	}
	if order.Payment != nil {
		resp.PaymentStatus = string(order.Payment.Status)
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:  item.ProductID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Variations: item.Variations,
			UnitPrice:  item.UnitPrice.StringFixed(2),
			TaxAmount:  item.TaxAmount.StringFixed(2),
			LineTotal:  item.LineTotal.StringFixed(2),
		})
	}
	return resp
}
