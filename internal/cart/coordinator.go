package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/models"
)

// OrderSubmitter is the external order service. It either accepts the
// payload and returns an acknowledgement, or returns an error whose
// *SubmissionError (if any) carries a message for the shopper.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, payload models.OrderPayload, authToken string) (*models.OrderAck, error)
}

// State is the checkout state of a cart.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON views.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Coordinator turns a Store into a placed order. Only one submission per
// store may be in flight; the store rejects mutation until it finishes.
type Coordinator struct {
	store     *Store
	policy    ShippingPolicy
	submitter OrderSubmitter
	logger    *zap.Logger

	mu      sync.Mutex
	state   State
	lastAck *models.OrderAck
}

// NewCoordinator creates a Coordinator for store.
func NewCoordinator(store *Store, policy ShippingPolicy, submitter OrderSubmitter, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:     store,
		policy:    policy,
		submitter: submitter,
		logger:    logger,
	}
}

// State returns the current checkout state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastAck returns the acknowledgement of the most recent confirmed order.
func (c *Coordinator) LastAck() *models.OrderAck {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastAck == nil {
		return nil
	}
	ack := *c.lastAck
	return &ack
}

// Submit places an order for the current store contents. On success the
// store is cleared; on failure it is left exactly as it was.
func (c *Coordinator) Submit(ctx context.Context, shipping models.ShippingInfo, method models.PaymentMethod, authToken string) (*models.OrderAck, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}
	if strings.TrimSpace(authToken) == "" {
		return nil, ErrMissingToken
	}
	if err := validate.Struct(shipping); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShipping, err)
	}

	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmissionInProgress
	}
	items, err := c.store.beginSubmit()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.state = StateSubmitting
	c.mu.Unlock()

	req := NewOrderRequest(items, shipping, method, c.policy)
	summary := req.Summary()
	c.logger.Info("submitting order",
		zap.Int("line_items", len(items)),
		zap.String("grand_total", summary.GrandTotal.StringFixed(2)),
		zap.String("payment_method", string(method)),
	)

	ack, err := c.submitter.SubmitOrder(ctx, req.Payload(), authToken)
	if err == nil && (ack == nil || ack.OrderID == "") {
		err = errors.New("order service returned no order id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = StateFailed
		c.store.endSubmit(false)
		subErr := asSubmissionError(err)
		c.logger.Warn("order submission failed", zap.String("message", subErr.Message), zap.Error(err))
		return nil, subErr
	}

	c.state = StateConfirmed
	c.store.endSubmit(true)
	confirmed := *ack
	c.lastAck = &confirmed
	c.logger.Info("order confirmed", zap.String("order_id", ack.OrderID))
	return &confirmed, nil
}
