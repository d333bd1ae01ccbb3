package invoices

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
	"github.com/harnoorlabs/aromas-backend/pkg/types"
)

// Generator renders order invoices as HTML. The output is served to the
// customer and attached to the order confirmation mail.
type Generator struct {
	tmpl *template.Template
	from string
}

type invoiceLine struct {
	Name       string
	Variations []string
	UnitPrice  string
	Quantity   int
	TaxAmount  string
	LineTotal  string
}

type invoiceData struct {
	OrderNumber   string
	IssuedAt      string
	PaymentMethod string
	Address       types.Address
	Lines         []invoiceLine
	Subtotal      string
	Discount      string
	Tax           string
	Total         string
	SellerName    string
}

// NewGenerator parses the invoice template once. sellerName appears in the
// invoice header.
func NewGenerator(sellerName string) (*Generator, error) {
	tmpl, err := template.New("invoice").Parse(invoiceTemplate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parsing invoice template")
	}
	if sellerName == "" {
		sellerName = "Aromas by Harnoor"
	}
	return &Generator{tmpl: tmpl, from: sellerName}, nil
}

// Render produces the invoice HTML for a confirmed order.
func (g *Generator) Render(_ context.Context, order *models.Order) ([]byte, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if !order.IsOrdered {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "invoice is only available for confirmed orders")
	}

	data := invoiceData{
		OrderNumber:   order.OrderNumber,
		IssuedAt:      order.CreatedAt.Format("02 Jan 2006"),
		PaymentMethod: order.PaymentMethod.String(),
		Address:       order.Address,
		Subtotal:      order.Subtotal.StringFixed(2),
		Discount:      order.Discount.StringFixed(2),
		Tax:           order.Tax.StringFixed(2),
		Total:         order.Total.StringFixed(2),
		SellerName:    g.from,
	}
	if data.IssuedAt == "" || order.CreatedAt.IsZero() {
		data.IssuedAt = time.Now().Format("02 Jan 2006")
	}
	for _, item := range order.Items {
		data.Lines = append(data.Lines, invoiceLine{
			Name:       item.Name,
			Variations: item.Variations,
			UnitPrice:  item.UnitPrice.StringFixed(2),
			Quantity:   item.Quantity,
			TaxAmount:  item.TaxAmount.StringFixed(2),
			LineTotal:  item.LineTotal.StringFixed(2),
		})
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rendering invoice")
	}
	return buf.Bytes(), nil
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Invoice {{.OrderNumber}}</title></head>
<body>
<h1>{{.SellerName}}</h1>
<h2>Invoice {{.OrderNumber}}</h2>
<p>Date: {{.IssuedAt}}<br>Payment: {{.PaymentMethod}}</p>
<h3>Deliver to</h3>
<p>{{.Address.FullName}}<br>
{{.Address.Line1}}{{if .Address.Line2}}<br>{{.Address.Line2}}{{end}}<br>
{{.Address.City}}, {{.Address.State}} {{.Address.PostalCode}}<br>
{{.Address.Country}}<br>
{{.Address.Phone}}</p>
<table border="1" cellspacing="0" cellpadding="4">
<tr><th>Item</th><th>Qty</th><th>Unit price</th><th>GST</th><th>Total</th></tr>
{{range .Lines}}
<tr>
<td>{{.Name}}{{if .Variations}} ({{range $i, $v := .Variations}}{{if $i}}, {{end}}{{$v}}{{end}}){{end}}</td>
<td>{{.Quantity}}</td>
<td>{{.UnitPrice}}</td>
<td>{{.TaxAmount}}</td>
<td>{{.LineTotal}}</td>
</tr>
{{end}}
</table>
<p>Subtotal: {{.Subtotal}}<br>
Discount: {{.Discount}}<br>
GST: {{.Tax}}<br>
<strong>Total: {{.Total}}</strong></p>
</body>
</html>`
