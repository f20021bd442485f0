package cart

// ValidateIncrement returns current+1, or ErrStockExceeded when that
// would exceed available.
func ValidateIncrement(current, available int) (int, error) {
	if current+1 > available {
		return current, ErrStockExceeded
	}
	return current + 1, nil
}

// ValidateDecrement returns current-1, or ErrItemShouldBeRemoved when
// the result would be below one.
func ValidateDecrement(current int) (int, error) {
	if current-1 < 1 {
		return current, ErrItemShouldBeRemoved
	}
	return current - 1, nil
}

// ValidateQuantity checks a requested quantity against available stock.
func ValidateQuantity(quantity, available int) error {
	if quantity < 1 {
		return ErrInvalidItem
	}
	if quantity > available {
		return ErrStockExceeded
	}
	return nil
}
