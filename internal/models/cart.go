package models

import "github.com/shopspring/decimal"

// LineItem is one product entry in a cart.
// Quantity is kept within 1..AvailableStock by the cart store.
type LineItem struct {
	ProductID      string          `json:"product_id" validate:"required"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price" validate:"gte=0"`
	ImageRef       string          `json:"image_ref,omitempty"`
	AvailableStock int             `json:"available_stock" validate:"gte=0"`
	Quantity       int             `json:"quantity" validate:"gte=1"`
}

// Total is UnitPrice times Quantity.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// PriceSummary is derived from cart contents and never stored.
type PriceSummary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCharge decimal.Decimal `json:"shipping_charge"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
}

// PaymentMethod enumerates the supported ways to pay for an order.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentEwallet        PaymentMethod = "ewallet"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentEwallet
}

// ShippingInfo is the delivery address captured at checkout.
type ShippingInfo struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderLine is a line item as sent to the order service.
type OrderLine struct {
	ProductID string          `json:"product_id" validate:"required"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// OrderPayload is the body accepted by the order service.
type OrderPayload struct {
	Items          []OrderLine     `json:"items" validate:"required,min=1,dive"`
	Shipping       ShippingInfo    `json:"shipping"`
	PaymentMethod  PaymentMethod   `json:"payment_method" validate:"required,oneof=cod ewallet"`
	Subtotal       decimal.Decimal `json:"subtotal" validate:"gte=0"`
	ShippingCharge decimal.Decimal `json:"shipping_charge" validate:"gte=0"`
	GrandTotal     decimal.Decimal `json:"grand_total" validate:"gte=0"`
}

// OrderAck is returned by the order service once an order is accepted.
type OrderAck struct {
	OrderID string `json:"order_id"`
}
