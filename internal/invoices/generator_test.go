package invoices

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
	"github.com/harnoorlabs/aromas-backend/pkg/types"
)

func confirmedOrder() *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "20260828-000001-42",
		CustomerID:    uuid.New(),
		Status:        enums.OrderStatusNew,
		PaymentMethod: enums.PaymentMethodCOD,
		Address: types.Address{
			FullName:   "Asha Rao",
			Phone:      "9876543210",
			Line1:      "12 MG Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560001",
			Country:    "IN",
		},
		Subtotal:  decimal.RequireFromString("500.00"),
		Discount:  decimal.Zero,
		Tax:       decimal.RequireFromString("25.00"),
		Total:     decimal.RequireFromString("525.00"),
		IsOrdered: true,
		CreatedAt: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
		Items: []models.OrderItem{{
			ID:         uuid.New(),
			Name:       "Jasmine Candle",
			Variations: []string{"color: red", "size: large"},
			UnitPrice:  decimal.RequireFromString("250.00"),
			Quantity:   2,
			TaxAmount:  decimal.RequireFromString("25.00"),
			LineTotal:  decimal.RequireFromString("525.00"),
		}},
	}
}

func TestRenderInvoice(t *testing.T) {
	t.Parallel()

	gen, err := NewGenerator("Aromas by Harnoor")
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	html, err := gen.Render(context.Background(), confirmedOrder())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	out := string(html)
	for _, want := range []string{
		"Invoice 20260828-000001-42",
		"Asha Rao",
		"Jasmine Candle",
		"color: red",
		"28 Aug 2026",
		"<strong>Total: 525.00</strong>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected invoice to contain %q", want)
		}
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	t.Parallel()

	gen, err := NewGenerator("")
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	order := confirmedOrder()
	order.Items[0].Name = `<script>alert("x")</script>`
	html, err := gen.Render(context.Background(), order)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(html), "<script>") {
		t.Fatalf("expected item name to be escaped")
	}
}

func TestRenderRejectsUnconfirmedOrder(t *testing.T) {
	t.Parallel()

	gen, err := NewGenerator("")
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	order := confirmedOrder()
	order.IsOrdered = false
	_, err = gen.Render(context.Background(), order)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}
