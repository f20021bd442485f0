package cart

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/models"
)

// Command is a cart operation. The set of commands is closed: Add,
// Increment, Decrement, Remove, Clear and Submit.
type Command interface {
	isCommand()
}

type (
	Add       struct{ Item models.LineItem }
	Increment struct{ ProductID string }
	Decrement struct{ ProductID string }
	Remove    struct{ ProductID string }
	Clear     struct{}
	Submit    struct {
		Shipping      models.ShippingInfo
		PaymentMethod models.PaymentMethod
		AuthToken     string
	}
)

func (Add) isCommand()       {}
func (Increment) isCommand() {}
func (Decrement) isCommand() {}
func (Remove) isCommand()    {}
func (Clear) isCommand()     {}
func (Submit) isCommand()    {}

// View is what a shopper sees of a cart after a command.
type View struct {
	CartID  string              `json:"cart_id"`
	Items   []models.LineItem   `json:"items"`
	Summary models.PriceSummary `json:"summary"`
	State   State               `json:"state"`
	Order   *models.OrderAck    `json:"order,omitempty"`
}

// Cart is one shopper's cart together with its checkout coordinator.
type Cart struct {
	id          string
	store       *Store
	policy      ShippingPolicy
	coordinator *Coordinator
}

// New creates an empty cart.
func New(id string, policy ShippingPolicy, submitter OrderSubmitter, logger *zap.Logger) *Cart {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := NewStore()
	return &Cart{
		id:          id,
		store:       store,
		policy:      policy,
		coordinator: NewCoordinator(store, policy, submitter, logger.With(zap.String("cart_id", id))),
	}
}

func (c *Cart) ID() string                { return c.id }
func (c *Cart) Store() *Store             { return c.store }
func (c *Cart) Coordinator() *Coordinator { return c.coordinator }

// Apply runs cmd against the cart and returns the resulting view. The
// view is returned even when cmd fails so callers can redisplay state.
func (c *Cart) Apply(ctx context.Context, cmd Command) (View, error) {
	var err error
	switch cmd := cmd.(type) {
	case Add:
		err = c.store.AddOrUpdate(cmd.Item)
	case Increment:
		err = c.store.Increment(cmd.ProductID)
	case Decrement:
		err = c.store.Decrement(cmd.ProductID)
	case Remove:
		err = c.store.Remove(cmd.ProductID)
	case Clear:
		err = c.store.Clear()
	case Submit:
		_, err = c.coordinator.Submit(ctx, cmd.Shipping, cmd.PaymentMethod, cmd.AuthToken)
	default:
		err = fmt.Errorf("unknown cart command %T", cmd)
	}
	return c.View(), err
}

// View snapshots the cart.
func (c *Cart) View() View {
	items := c.store.Items()
	return View{
		CartID:  c.id,
		Items:   items,
		Summary: c.policy.Summarize(items),
		State:   c.coordinator.State(),
		Order:   c.coordinator.LastAck(),
	}
}
