package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
)

// Line is one cart line entering the quote: the unit price snapshot, the
// quantity and the product's GST rate.
type Line struct {
	UnitPrice     decimal.Decimal
	Quantity      int
	GSTPercentage decimal.Decimal
}

// PricedLine carries the computed amounts for a line. All amounts are
// rounded half-up to 2 decimal places, matching what gets persisted.
type PricedLine struct {
	Line
	LineSubtotal decimal.Decimal
	TaxAmount    decimal.Decimal
	LineTotal    decimal.Decimal
}

// Quote is the order-level pricing summary. The financial identity
// Total = Subtotal - Discount + Tax holds exactly at 2 decimal places
// because every component is rounded before summing.
type Quote struct {
	Lines    []PricedLine
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// Compute prices the given lines and applies the externally supplied
// discount. Tax is computed per line from each product's GST rate. The
// discount is clamped to [0, subtotal]; over-discounting never drives the
// total below the tax floor.
func Compute(lines []Line, discount decimal.Decimal) (*Quote, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no lines to price")
	}
	if discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}

	quote := &Quote{
		Lines:    make([]PricedLine, 0, len(lines)),
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
	}

	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be positive", i))
		}
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: unit price must not be negative", i))
		}
		if line.GSTPercentage.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: gst percentage must not be negative", i))
		}

		qty := decimal.NewFromInt(int64(line.Quantity))
		lineSubtotal := line.UnitPrice.Mul(qty).Round(2)
		taxAmount := line.UnitPrice.Mul(qty).Mul(line.GSTPercentage).Div(oneHundred).Round(2)

		quote.Lines = append(quote.Lines, PricedLine{
			Line:         line,
			LineSubtotal: lineSubtotal,
			TaxAmount:    taxAmount,
			LineTotal:    lineSubtotal.Add(taxAmount),
		})
		quote.Subtotal = quote.Subtotal.Add(lineSubtotal)
		quote.Tax = quote.Tax.Add(taxAmount)
	}

	quote.Discount = discount.Round(2)
	if quote.Discount.GreaterThan(quote.Subtotal) {
		quote.Discount = quote.Subtotal
	}
	quote.Total = quote.Subtotal.Sub(quote.Discount).Add(quote.Tax)

	return quote, nil
}
