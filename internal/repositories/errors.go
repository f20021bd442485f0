package repositories

import "errors"

var (
	// ErrNotFound is wrapped by every lookup that finds nothing.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientStock is returned when a stock adjustment would go negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStaleStatus is returned when an order is no longer in the status a
	// conditional update expected.
	ErrStaleStatus = errors.New("order status changed concurrently")
)
