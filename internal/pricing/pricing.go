// Package pricing computes checkout money. All arithmetic is fixed-point
// decimal so repeated recomputation of the same cart always lands on the
// same centavo.
package pricing

import "github.com/shopspring/decimal"

// ShippingMethod selects the flat shipping fee applied to an order.
type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

// VAT is charged on the goods subtotal only, never on shipping.
var vatRate = decimal.RequireFromString("0.12")

var (
	standardFee = decimal.NewFromInt(150)
	expressFee  = decimal.NewFromInt(300)
)

// Item is one priced cart line.
type Item struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the full money breakdown for an order.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	VAT        decimal.Decimal `json:"vat"`
	Shipping   decimal.Decimal `json:"shippingCost"`
	GrandTotal decimal.Decimal `json:"total"`
}

// ShippingCost returns the flat fee for the method. Anything that is not
// express ships standard.
func ShippingCost(m ShippingMethod) decimal.Decimal {
	if m == ShippingExpress {
		return expressFee
	}
	return standardFee
}

// Calculate prices the given lines under one order-wide shipping method.
// Lines with a non-positive quantity contribute nothing.
func Calculate(items []Item, method ShippingMethod) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	subtotal = subtotal.Round(2)
	vat := subtotal.Mul(vatRate).Round(2)
	shipping := ShippingCost(method)
	return Totals{
		Subtotal:   subtotal,
		VAT:        vat,
		Shipping:   shipping,
		GrandTotal: subtotal.Add(vat).Add(shipping).Round(2),
	}
}
