package domain

import "github.com/shopspring/decimal"

// Pricing holds the checkout pricing rules.
type Pricing struct {
	TaxRate               float64
	ShippingFee           float64
	FreeShippingThreshold float64
}

// Apply fills the item subtotals and the order level money fields.
func (p Pricing) Apply(o *Order) {
	subtotal := decimal.Zero
	for i := range o.Items {
		line := decimal.NewFromFloat(o.Items[i].Price).Mul(decimal.NewFromInt(int64(o.Items[i].Quantity)))
		o.Items[i].Subtotal = line.Round(2).InexactFloat64()
		subtotal = subtotal.Add(line)
	}

	shipping := decimal.NewFromFloat(p.ShippingFee)
	if p.FreeShippingThreshold > 0 && subtotal.GreaterThanOrEqual(decimal.NewFromFloat(p.FreeShippingThreshold)) {
		shipping = decimal.Zero
	}
	if len(o.Items) == 0 {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(decimal.NewFromFloat(p.TaxRate)).Round(2)
	discount := decimal.NewFromFloat(o.Discount)

	total := subtotal.Add(shipping).Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	o.Subtotal = subtotal.Round(2).InexactFloat64()
	o.ShippingCost = shipping.Round(2).InexactFloat64()
	o.Tax = tax.InexactFloat64()
	o.TotalAmount = total.Round(2).InexactFloat64()
}
