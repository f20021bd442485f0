package services

import (
	"context"
	"sync"

	"storefront/internal/cart"
	"storefront/internal/models"

	"go.uber.org/zap"
)

// CartService owns one cart per customer. Carts live in memory for the
// lifetime of the process.
type CartService struct {
	catalog   *CatalogService
	submitter cart.OrderSubmitter
	policy    cart.ShippingPolicy
	logger    *zap.Logger

	mu    sync.Mutex
	carts map[string]*cart.Cart
}

// NewCartService creates a new CartService.
func NewCartService(catalog *CatalogService, submitter cart.OrderSubmitter, policy cart.ShippingPolicy, logger *zap.Logger) *CartService {
	return &CartService{
		catalog:   catalog,
		submitter: submitter,
		policy:    policy,
		logger:    logger,
		carts:     make(map[string]*cart.Cart),
	}
}

// CartFor returns the cart of userID, creating it on first use.
func (s *CartService) CartFor(userID string) *cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		c = cart.New(userID, s.policy, s.submitter, s.logger)
		s.carts[userID] = c
	}
	return c
}

// View returns the current state of a customer's cart.
func (s *CartService) View(userID string) cart.View {
	return s.CartFor(userID).View()
}

// AddProduct puts quantity units of a catalog product in the cart,
// replacing any quantity already there.
func (s *CartService) AddProduct(ctx context.Context, userID, productID string, quantity int) (cart.View, error) {
	c := s.CartFor(userID)
	item, err := s.catalog.LineItemFor(productID, quantity)
	if err != nil {
		return c.View(), err
	}
	return c.Apply(ctx, cart.Add{Item: item})
}

// Apply runs a cart command for userID.
func (s *CartService) Apply(ctx context.Context, userID string, cmd cart.Command) (cart.View, error) {
	return s.CartFor(userID).Apply(ctx, cmd)
}

// Checkout submits the cart of userID to the order service.
func (s *CartService) Checkout(ctx context.Context, userID, authToken string, shipping models.ShippingInfo, method models.PaymentMethod) (cart.View, error) {
	return s.Apply(ctx, userID, cart.Submit{
		Shipping:      shipping,
		PaymentMethod: method,
		AuthToken:     authToken,
	})
}
