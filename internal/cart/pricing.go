package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

var (
	DefaultFreeShippingThreshold = decimal.NewFromInt(1000)
	DefaultFlatShippingFee       = decimal.NewFromInt(75)
)

// ShippingPolicy decides the shipping charge for a subtotal. Orders whose
// subtotal is strictly greater than FreeThreshold ship free; everything
// else pays FlatFee.
type ShippingPolicy struct {
	FreeThreshold decimal.Decimal
	FlatFee       decimal.Decimal
}

// DefaultShippingPolicy returns the 1000 / 75 storefront policy.
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		FreeThreshold: DefaultFreeShippingThreshold,
		FlatFee:       DefaultFlatShippingFee,
	}
}

// Validate rejects negative amounts.
func (p ShippingPolicy) Validate() error {
	if p.FreeThreshold.IsNegative() {
		return fmt.Errorf("free shipping threshold must not be negative, got %s", p.FreeThreshold)
	}
	if p.FlatFee.IsNegative() {
		return fmt.Errorf("flat shipping fee must not be negative, got %s", p.FlatFee)
	}
	return nil
}

// ShippingFor returns the shipping charge for subtotal.
func (p ShippingPolicy) ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.FlatFee
}

// Price builds the summary for an already computed subtotal.
func (p ShippingPolicy) Price(subtotal decimal.Decimal) models.PriceSummary {
	shipping := p.ShippingFor(subtotal)
	return models.PriceSummary{
		Subtotal:       subtotal,
		ShippingCharge: shipping,
		GrandTotal:     subtotal.Add(shipping),
	}
}

// Summarize prices a sequence of line items.
func (p ShippingPolicy) Summarize(items []models.LineItem) models.PriceSummary {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Total())
	}
	return p.Price(subtotal)
}

// Summarize prices items with the default shipping policy.
func Summarize(items []models.LineItem) models.PriceSummary {
	return DefaultShippingPolicy().Summarize(items)
}
