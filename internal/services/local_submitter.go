package services

import (
	"context"
	"errors"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// LocalOrderSubmitter delivers cart checkouts to an OrderService running
// in the same process. It resolves the session token the same way the
// HTTP order endpoint does.
type LocalOrderSubmitter struct {
	auth   *AuthService
	orders *OrderService
}

// NewLocalOrderSubmitter creates a LocalOrderSubmitter.
func NewLocalOrderSubmitter(auth *AuthService, orders *OrderService) *LocalOrderSubmitter {
	return &LocalOrderSubmitter{auth: auth, orders: orders}
}

// SubmitOrder implements cart.OrderSubmitter.
func (s *LocalOrderSubmitter) SubmitOrder(ctx context.Context, payload models.OrderPayload, authToken string) (*models.OrderAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	claims, err := s.auth.ValidateToken(authToken)
	if err != nil {
		return nil, cart.NewSubmissionError(cart.SessionExpiredMessage, err)
	}
	order, err := s.orders.PlaceOrder(claims.UserID, payload)
	if err != nil {
		return nil, cart.NewSubmissionError(OrderFailureMessage(err), err)
	}
	return &models.OrderAck{OrderID: order.ID}, nil
}

// OrderFailureMessage returns the text shown to a shopper whose order was
// refused, or "" for infrastructure failures.
func OrderFailureMessage(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrPriceChanged),
		errors.Is(err, ErrTotalsMismatch),
		errors.Is(err, ErrInvalidOrder),
		errors.Is(err, repositories.ErrNotFound):
		return err.Error()
	default:
		return ""
	}
}
