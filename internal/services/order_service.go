package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidOrder       = errors.New("invalid order")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrPriceChanged       = errors.New("price has changed")
	ErrTotalsMismatch     = errors.New("order totals do not match")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrInvalidTransition  = errors.New("order status change not allowed")
)

// RoutingOrderCreated is the routing key of order creation events.
const RoutingOrderCreated = "order.created"

// RoutingOrderStatusChanged is the routing key of order status events.
const RoutingOrderStatusChanged = "order.status_changed"

// EventPublisher publishes order events to the message broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderService is the order service that carts submit to. It re-checks
// the submitted snapshot against the catalog, owns order persistence and
// announces order events.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	publisher   EventPublisher
	policy      cart.ShippingPolicy
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, publisher EventPublisher, policy cart.ShippingPolicy, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		policy:      policy,
		validate:    models.NewValidator(),
		logger:      logger,
	}
}

// GetOrders lists orders matching filter.
func (s *OrderService) GetOrders(filter models.OrderFilter) ([]models.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, filter.Status)
	}
	return s.orderRepo.GetAll(filter)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// PlaceOrder accepts a checkout payload for userID. Prices and totals must
// match the catalog exactly; stock is taken for every line or for none.
func (s *OrderService) PlaceOrder(userID string, payload models.OrderPayload) (*models.Order, error) {
	if err := s.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	items := make([]models.OrderItem, 0, len(payload.Items))
	seen := make(map[string]bool, len(payload.Items))
	lines := make([]models.LineItem, 0, len(payload.Items))
	for _, line := range payload.Items {
		if seen[line.ProductID] {
			return nil, fmt.Errorf("%w: product %s listed twice", ErrInvalidOrder, line.ProductID)
		}
		seen[line.ProductID] = true

		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s not available: %w", line.ProductID, err)
		}
		if product.Stock < line.Quantity {
			return nil, fmt.Errorf("%w for %s (requested: %d, available: %d)", ErrInsufficientStock, product.Name, line.Quantity, product.Stock)
		}
		if !product.Price.Equal(line.UnitPrice) {
			return nil, fmt.Errorf("%w for %s: now %s", ErrPriceChanged, product.Name, product.Price.StringFixed(2))
		}

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
		lines = append(lines, models.LineItem{
			ProductID:      product.ID,
			UnitPrice:      product.Price,
			AvailableStock: product.Stock,
			Quantity:       line.Quantity,
		})
	}

	summary := s.policy.Summarize(lines)
	if !summary.Subtotal.Equal(payload.Subtotal) ||
		!summary.ShippingCharge.Equal(payload.ShippingCharge) ||
		!summary.GrandTotal.Equal(payload.GrandTotal) {
		return nil, fmt.Errorf("%w: expected total %s, got %s", ErrTotalsMismatch, summary.GrandTotal.StringFixed(2), payload.GrandTotal.StringFixed(2))
	}

	if err := s.reserveStock(items); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:             uuid.New().String(),
		UserID:         userID,
		Items:          items,
		Shipping:       payload.Shipping,
		PaymentMethod:  payload.PaymentMethod,
		Subtotal:       summary.Subtotal,
		ShippingCharge: summary.ShippingCharge,
		TotalAmount:    summary.GrandTotal,
		Status:         models.OrderStatusPending,
	}
	if err := s.orderRepo.Create(order); err != nil {
		s.releaseStock(items)
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)
	s.publish(RoutingOrderCreated, order)
	return order, nil
}

// UpdateOrderStatus moves an order along its fulfilment lifecycle.
func (s *OrderService) UpdateOrderStatus(id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, status)
	}
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}
	// The update only applies if no one else moved the order since it was
	// read, so a cancellation releases stock exactly once.
	if err := s.orderRepo.UpdateStatus(id, order.Status, status); err != nil {
		if errors.Is(err, repositories.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		return nil, fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	if status == models.OrderStatusCancelled {
		s.releaseStock(order.Items)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	s.publish(RoutingOrderStatusChanged, order)
	return order, nil
}

// reserveStock takes stock for every item, putting back what was taken
// if any item fails.
func (s *OrderService) reserveStock(items []models.OrderItem) error {
	for i, item := range items {
		if err := s.productRepo.AdjustStock(item.ProductID, -item.Quantity); err != nil {
			s.releaseStock(items[:i])
			if errors.Is(err, repositories.ErrInsufficientStock) {
				return fmt.Errorf("%w for %s", ErrInsufficientStock, item.Name)
			}
			return fmt.Errorf("failed to reserve stock for %s: %w", item.Name, err)
		}
	}
	return nil
}

func (s *OrderService) releaseStock(items []models.OrderItem) {
	for _, item := range items {
		if err := s.productRepo.AdjustStock(item.ProductID, item.Quantity); err != nil {
			s.logger.Error("failed to release stock", zap.String("product_id", item.ProductID), zap.Int("quantity", item.Quantity), zap.Error(err))
		}
	}
}

func (s *OrderService) publish(routingKey string, order *models.Order) {
	if s.publisher == nil {
		s.logger.Debug("no event publisher configured, skipping order event", zap.String("routing_key", routingKey))
		return
	}
	body, err := json.Marshal(models.OrderEvent{
		Type:      routingKey,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    order.Status,
		Total:     order.TotalAmount,
		ItemCount: len(order.Items),
		At:        time.Now(),
	})
	if err != nil {
		s.logger.Error("failed to marshal order event", zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(routingKey, body); err != nil {
		s.logger.Warn("failed to publish order event", zap.String("order_id", order.ID), zap.String("routing_key", routingKey), zap.Error(err))
	}
}
