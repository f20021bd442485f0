package cart_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/cart"
)

func TestValidateIncrement(t *testing.T) {
	tests := []struct {
		name      string
		current   int
		available int
		want      int
		wantErr   error
	}{
		{name: "room left", current: 1, available: 3, want: 2},
		{name: "reaches stock", current: 2, available: 3, want: 3},
		{name: "at stock", current: 3, available: 3, want: 3, wantErr: cart.ErrStockExceeded},
		{name: "out of stock", current: 1, available: 0, want: 1, wantErr: cart.ErrStockExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cart.ValidateIncrement(tt.current, tt.available)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateDecrement(t *testing.T) {
	got, err := cart.ValidateDecrement(5)
	assert.NoError(t, err)
	assert.Equal(t, 4, got)

	got, err = cart.ValidateDecrement(2)
	assert.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = cart.ValidateDecrement(1)
	assert.ErrorIs(t, err, cart.ErrItemShouldBeRemoved)
	assert.Equal(t, 1, got)
}

func TestValidateQuantity(t *testing.T) {
	assert.NoError(t, cart.ValidateQuantity(1, 1))
	assert.NoError(t, cart.ValidateQuantity(4, 10))
	assert.ErrorIs(t, cart.ValidateQuantity(0, 10), cart.ErrInvalidItem)
	assert.ErrorIs(t, cart.ValidateQuantity(11, 10), cart.ErrStockExceeded)
}
