package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeMixedGSTRates(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{UnitPrice: dec("100"), Quantity: 2, GSTPercentage: dec("5")},
		{UnitPrice: dec("50"), Quantity: 1, GSTPercentage: dec("18")},
	}

	quote, err := Compute(lines, dec("10"))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if !quote.Subtotal.Equal(dec("250")) {
		t.Fatalf("expected subtotal 250, got %s", quote.Subtotal)
	}
	if !quote.Tax.Equal(dec("19")) {
		t.Fatalf("expected tax 19, got %s", quote.Tax)
	}
	if !quote.Total.Equal(dec("259")) {
		t.Fatalf("expected total 259, got %s", quote.Total)
	}

	if !quote.Lines[0].TaxAmount.Equal(dec("10")) {
		t.Fatalf("expected line 0 tax 10, got %s", quote.Lines[0].TaxAmount)
	}
	if !quote.Lines[1].TaxAmount.Equal(dec("9")) {
		t.Fatalf("expected line 1 tax 9, got %s", quote.Lines[1].TaxAmount)
	}
	if !quote.Lines[0].LineTotal.Equal(dec("210")) {
		t.Fatalf("expected line 0 total 210, got %s", quote.Lines[0].LineTotal)
	}
}

func TestComputeFinancialIdentity(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{UnitPrice: dec("33.33"), Quantity: 3, GSTPercentage: dec("12.5")},
		{UnitPrice: dec("7.77"), Quantity: 7, GSTPercentage: dec("2")},
	}

	quote, err := Compute(lines, dec("4.55"))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	want := quote.Subtotal.Sub(quote.Discount).Add(quote.Tax)
	if !quote.Total.Equal(want) {
		t.Fatalf("identity broken: total %s, subtotal-discount+tax %s", quote.Total, want)
	}
}

func TestComputeRoundsHalfUp(t *testing.T) {
	t.Parallel()

	// 1.005 * 1 * 1% = 0.01005 -> 0.01; subtotal 1.005 -> 1.01 (half-up).
	quote, err := Compute([]Line{
		{UnitPrice: dec("1.005"), Quantity: 1, GSTPercentage: dec("1")},
	}, decimal.Zero)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !quote.Subtotal.Equal(dec("1.01")) {
		t.Fatalf("expected subtotal 1.01, got %s", quote.Subtotal)
	}
	if !quote.Tax.Equal(dec("0.01")) {
		t.Fatalf("expected tax 0.01, got %s", quote.Tax)
	}
}

func TestComputeClampsDiscount(t *testing.T) {
	t.Parallel()

	quote, err := Compute([]Line{
		{UnitPrice: dec("20"), Quantity: 1, GSTPercentage: dec("5")},
	}, dec("100"))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if !quote.Discount.Equal(dec("20")) {
		t.Fatalf("expected discount clamped to 20, got %s", quote.Discount)
	}
	// Total never drops below the tax floor.
	if !quote.Total.Equal(dec("1")) {
		t.Fatalf("expected total 1, got %s", quote.Total)
	}
}

func TestComputeValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		lines    []Line
		discount decimal.Decimal
	}{
		{name: "empty lines", lines: nil, discount: decimal.Zero},
		{name: "zero quantity", lines: []Line{{UnitPrice: dec("10"), Quantity: 0}}, discount: decimal.Zero},
		{name: "negative price", lines: []Line{{UnitPrice: dec("-1"), Quantity: 1}}, discount: decimal.Zero},
		{name: "negative gst", lines: []Line{{UnitPrice: dec("1"), Quantity: 1, GSTPercentage: dec("-5")}}, discount: decimal.Zero},
		{name: "negative discount", lines: []Line{{UnitPrice: dec("1"), Quantity: 1}}, discount: dec("-1")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(tc.lines, tc.discount)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
