package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrStockExceeded is returned when a quantity would go past available stock.
	ErrStockExceeded = errors.New("requested quantity exceeds available stock")
	// ErrItemShouldBeRemoved signals that a decrement would drop below one.
	// The store handles it by removing the line item.
	ErrItemShouldBeRemoved = errors.New("quantity would drop below one")

	ErrItemNotFound         = errors.New("item not in cart")
	ErrInvalidItem          = errors.New("invalid line item")
	ErrCartLocked           = errors.New("cart is locked while an order is being submitted")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrSubmissionInProgress = errors.New("order submission already in progress, please wait")
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")
	ErrMissingToken         = errors.New("an authenticated session token is required")
	ErrInvalidShipping      = errors.New("shipping information is incomplete")
)

// Messages shown to the shopper when an order is refused.
const (
	DefaultSubmissionMessage = "Could not place your order, please try again"
	SessionExpiredMessage    = "Your session has expired, please sign in again"
)

// SubmissionError reports a failed order submission. Message is safe to
// show to the shopper; Err keeps the underlying cause for logs.
type SubmissionError struct {
	Message string
	Err     error
}

// NewSubmissionError builds a SubmissionError, falling back to the default
// message when message is empty.
func NewSubmissionError(message string, err error) *SubmissionError {
	if message == "" {
		message = DefaultSubmissionMessage
	}
	return &SubmissionError{Message: message, Err: err}
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func asSubmissionError(err error) *SubmissionError {
	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		return subErr
	}
	return NewSubmissionError("", err)
}
