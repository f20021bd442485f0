package services_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	keyboardID = "5a0f2d7e-8c1b-4e0a-9b1d-2f3c4d5e6f70"
	mouseID    = "6b1e3c8f-9d2a-4f1b-8c2e-3a4b5c6d7e81"
)

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, body []byte) error {
	args := m.Called(routingKey, body)
	return args.Error(0)
}

func seedCatalog(t *testing.T) *repositories.InMemoryProductRepository {
	t.Helper()
	repo := repositories.NewInMemoryProductRepository()
	require.NoError(t, repo.Create(&models.Product{ID: keyboardID, Name: "Keyboard", Category: "peripherals", Price: decimal.NewFromInt(250), Stock: 5}))
	require.NoError(t, repo.Create(&models.Product{ID: mouseID, Name: "Mouse", Category: "peripherals", Price: decimal.RequireFromString("99.50"), Stock: 2}))
	return repo
}

func testShipping() models.ShippingInfo {
	return models.ShippingInfo{FullName: "Dewi Lestari", Phone: "+62 812 0000 0000", Address: "Jl. Merdeka 1", City: "Bandung"}
}

// payloadFor prices lines the way a cart would.
func payloadFor(lines ...models.OrderLine) models.OrderPayload {
	items := make([]models.LineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.LineItem{ProductID: l.ProductID, UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	summary := cart.Summarize(items)
	return models.OrderPayload{
		Items:          lines,
		Shipping:       testShipping(),
		PaymentMethod:  models.PaymentCashOnDelivery,
		Subtotal:       summary.Subtotal,
		ShippingCharge: summary.ShippingCharge,
		GrandTotal:     summary.GrandTotal,
	}
}

func newOrderService(t *testing.T, publisher services.EventPublisher) (*services.OrderService, *repositories.InMemoryProductRepository, *repositories.InMemoryOrderRepository) {
	t.Helper()
	products := seedCatalog(t)
	orders := repositories.NewInMemoryOrderRepository()
	return services.NewOrderService(orders, products, publisher, cart.DefaultShippingPolicy(), zap.NewNop()), products, orders
}

func stockOf(t *testing.T, repo *repositories.InMemoryProductRepository, id string) int {
	t.Helper()
	p, err := repo.GetByID(id)
	require.NoError(t, err)
	return p.Stock
}

func TestOrderService_PlaceOrder(t *testing.T) {
	publisher := new(MockPublisher)
	service, products, orders := newOrderService(t, publisher)

	var published []byte
	publisher.On("Publish", services.RoutingOrderCreated, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(1).([]byte) }).
		Return(nil).Once()

	payload := payloadFor(
		models.OrderLine{ProductID: keyboardID, Name: "Keyboard", Quantity: 2, UnitPrice: decimal.NewFromInt(250)},
		models.OrderLine{ProductID: mouseID, Name: "Mouse", Quantity: 1, UnitPrice: decimal.RequireFromString("99.50")},
	)
	order, err := service.PlaceOrder("user-1", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "599.5", order.Subtotal.String())
	assert.Equal(t, "75", order.ShippingCharge.String())
	assert.Equal(t, "674.5", order.TotalAmount.String())

	assert.Equal(t, 3, stockOf(t, products, keyboardID))
	assert.Equal(t, 1, stockOf(t, products, mouseID))

	stored, err := orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.UserID)

	var event models.OrderEvent
	require.NoError(t, json.Unmarshal(published, &event))
	assert.Equal(t, order.ID, event.OrderID)
	assert.Equal(t, 2, event.ItemCount)
	publisher.AssertExpectations(t)
}

func TestOrderService_PlaceOrderRejections(t *testing.T) {
	keyboard := func(qty int, price string) models.OrderLine {
		return models.OrderLine{ProductID: keyboardID, Name: "Keyboard", Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
	}

	tests := []struct {
		name    string
		payload func() models.OrderPayload
		wantErr error
	}{
		{
			name:    "empty order",
			payload: func() models.OrderPayload { return payloadFor() },
			wantErr: services.ErrInvalidOrder,
		},
		{
			name: "unknown payment method",
			payload: func() models.OrderPayload {
				p := payloadFor(keyboard(1, "250"))
				p.PaymentMethod = "bitcoin"
				return p
			},
			wantErr: services.ErrInvalidOrder,
		},
		{
			name:    "duplicate product lines",
			payload: func() models.OrderPayload { return payloadFor(keyboard(1, "250"), keyboard(1, "250")) },
			wantErr: services.ErrInvalidOrder,
		},
		{
			name:    "more than in stock",
			payload: func() models.OrderPayload { return payloadFor(keyboard(6, "250")) },
			wantErr: services.ErrInsufficientStock,
		},
		{
			name:    "stale price",
			payload: func() models.OrderPayload { return payloadFor(keyboard(1, "199")) },
			wantErr: services.ErrPriceChanged,
		},
		{
			name: "tampered total",
			payload: func() models.OrderPayload {
				p := payloadFor(keyboard(1, "250"))
				p.GrandTotal = p.GrandTotal.Sub(decimal.NewFromInt(75))
				return p
			},
			wantErr: services.ErrTotalsMismatch,
		},
		{
			name: "unknown product",
			payload: func() models.OrderPayload {
				return payloadFor(models.OrderLine{ProductID: "missing", Quantity: 1, UnitPrice: decimal.NewFromInt(1)})
			},
			wantErr: repositories.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := new(MockPublisher)
			service, products, orders := newOrderService(t, publisher)

			_, err := service.PlaceOrder("user-1", tt.payload())
			assert.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, 5, stockOf(t, products, keyboardID), "stock must be untouched")
			all, _ := orders.GetAll(models.OrderFilter{})
			assert.Empty(t, all)
			publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderService_FreeShippingAboveThreshold(t *testing.T) {
	service, _, _ := newOrderService(t, nil)

	order, err := service.PlaceOrder("user-1", payloadFor(
		models.OrderLine{ProductID: keyboardID, Quantity: 4, UnitPrice: decimal.NewFromInt(250)},
		models.OrderLine{ProductID: mouseID, Quantity: 1, UnitPrice: decimal.RequireFromString("99.50")},
	))
	require.NoError(t, err)
	assert.True(t, order.ShippingCharge.IsZero())
	assert.Equal(t, "1099.5", order.TotalAmount.String())
}

func TestOrderService_PublishFailureDoesNotFailOrder(t *testing.T) {
	publisher := new(MockPublisher)
	service, _, _ := newOrderService(t, publisher)
	publisher.On("Publish", services.RoutingOrderCreated, mock.Anything).Return(errors.New("broker down")).Once()

	order, err := service.PlaceOrder("user-1", payloadFor(models.OrderLine{ProductID: mouseID, Quantity: 1, UnitPrice: decimal.RequireFromString("99.50")}))
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	publisher.AssertExpectations(t)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	publisher := new(MockPublisher)
	service, products, _ := newOrderService(t, publisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	order, err := service.PlaceOrder("user-1", payloadFor(models.OrderLine{ProductID: keyboardID, Quantity: 2, UnitPrice: decimal.NewFromInt(250)}))
	require.NoError(t, err)
	require.Equal(t, 3, stockOf(t, products, keyboardID))

	_, err = service.UpdateOrderStatus(order.ID, models.OrderStatusDelivered)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	_, err = service.UpdateOrderStatus(order.ID, "lost")
	assert.ErrorIs(t, err, services.ErrInvalidOrderStatus)

	updated, err := service.UpdateOrderStatus(order.ID, models.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, updated.Status)

	updated, err = service.UpdateOrderStatus(order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
	assert.Equal(t, 5, stockOf(t, products, keyboardID), "cancelling returns stock")

	_, err = service.UpdateOrderStatus("missing", models.OrderStatusProcessing)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	publisher.AssertNumberOfCalls(t, "Publish", 3)
}

// barrierOrderRepository holds every GetByID until every expected caller has
// read the order, so their status updates race.
type barrierOrderRepository struct {
	*repositories.InMemoryOrderRepository
	reads sync.WaitGroup
}

func (r *barrierOrderRepository) GetByID(id string) (*models.Order, error) {
	order, err := r.InMemoryOrderRepository.GetByID(id)
	r.reads.Done()
	r.reads.Wait()
	return order, err
}

func TestOrderService_ConcurrentCancelReleasesStockOnce(t *testing.T) {
	products := seedCatalog(t)
	orders := repositories.NewInMemoryOrderRepository()
	placing := services.NewOrderService(orders, products, nil, cart.DefaultShippingPolicy(), zap.NewNop())
	order, err := placing.PlaceOrder("user-1", payloadFor(models.OrderLine{ProductID: keyboardID, Quantity: 2, UnitPrice: decimal.NewFromInt(250)}))
	require.NoError(t, err)
	require.Equal(t, 3, stockOf(t, products, keyboardID))

	const cancels = 2
	barrier := &barrierOrderRepository{InMemoryOrderRepository: orders}
	barrier.reads.Add(cancels)
	service := services.NewOrderService(barrier, products, nil, cart.DefaultShippingPolicy(), zap.NewNop())

	errs := make([]error, cancels)
	var wg sync.WaitGroup
	for i := 0; i < cancels; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.UpdateOrderStatus(order.ID, models.OrderStatusCancelled)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, services.ErrInvalidTransition)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 5, stockOf(t, products, keyboardID), "stock is released exactly once")
}

func TestOrderService_GetOrders(t *testing.T) {
	service, _, _ := newOrderService(t, nil)

	first, err := service.PlaceOrder("alice", payloadFor(models.OrderLine{ProductID: keyboardID, Quantity: 1, UnitPrice: decimal.NewFromInt(250)}))
	require.NoError(t, err)
	_, err = service.PlaceOrder("bob", payloadFor(models.OrderLine{ProductID: mouseID, Quantity: 1, UnitPrice: decimal.RequireFromString("99.50")}))
	require.NoError(t, err)
	_, err = service.UpdateOrderStatus(first.ID, models.OrderStatusProcessing)
	require.NoError(t, err)

	mine, err := service.GetOrders(models.OrderFilter{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	pending, err := service.GetOrders(models.OrderFilter{Status: models.OrderStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "bob", pending[0].UserID)

	_, err = service.GetOrders(models.OrderFilter{Status: "unknown"})
	assert.ErrorIs(t, err, services.ErrInvalidOrderStatus)
}
