package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, OrderStatusDelivered.Valid())
	assert.False(t, OrderStatus("lost").Valid())
}

func TestNewValidator_Decimal(t *testing.T) {
	v := NewValidator()

	product := Product{Name: "Kettle", Price: decimal.RequireFromString("0.01"), Stock: 0}
	assert.NoError(t, v.Struct(product))

	product.Price = decimal.Zero
	assert.Error(t, v.Struct(product), "price must be positive")

	item := LineItem{ProductID: "p1", UnitPrice: decimal.NewFromInt(-1), Quantity: 1}
	assert.Error(t, v.Struct(item))
	item.UnitPrice = decimal.Zero
	assert.NoError(t, v.Struct(item), "free items are allowed in a cart")
}

func TestLineItem_Total(t *testing.T) {
	item := LineItem{UnitPrice: decimal.RequireFromString("19.99"), Quantity: 3}
	assert.Equal(t, "59.97", item.Total().String())
}

func TestPaymentMethod_Valid(t *testing.T) {
	assert.True(t, PaymentCashOnDelivery.Valid())
	assert.True(t, PaymentEwallet.Valid())
	assert.False(t, PaymentMethod("card").Valid())
	assert.False(t, PaymentMethod("").Valid())
}
