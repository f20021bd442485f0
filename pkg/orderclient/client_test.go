package orderclient

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startOrderService serves handler on a random local port and returns its base URL.
func startOrderService(t *testing.T, handler fiber.Handler) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post(OrdersPath, handler)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

func testPayload() models.OrderPayload {
	return models.OrderPayload{
		Items: []models.OrderLine{
			{ProductID: "p1", Name: "Keyboard", Quantity: 1, UnitPrice: decimal.NewFromInt(250)},
		},
		Shipping:       models.ShippingInfo{FullName: "Dewi", Phone: "0812", Address: "Jl. Merdeka 1", City: "Bandung"},
		PaymentMethod:  models.PaymentCashOnDelivery,
		Subtotal:       decimal.NewFromInt(250),
		ShippingCharge: decimal.NewFromInt(75),
		GrandTotal:     decimal.NewFromInt(325),
	}
}

func TestClient_SubmitOrder(t *testing.T) {
	var gotAuth string
	var gotPayload models.OrderPayload
	url := startOrderService(t, func(c *fiber.Ctx) error {
		gotAuth = c.Get(fiber.HeaderAuthorization)
		if err := c.BodyParser(&gotPayload); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": "order-42", "message": "Order created successfully"})
	})

	client := New(url, time.Second, zap.NewNop())
	ack, err := client.SubmitOrder(context.Background(), testPayload(), "tok")
	require.NoError(t, err)
	assert.Equal(t, &models.OrderAck{OrderID: "order-42"}, ack)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.True(t, gotPayload.GrandTotal.Equal(decimal.NewFromInt(325)))
	assert.Len(t, gotPayload.Items, 1)
}

func TestClient_SubmitOrderRejected(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		message     string
		wantMessage string
	}{
		{"stock conflict passes reason through", fiber.StatusConflict, "insufficient stock for Keyboard", "insufficient stock for Keyboard"},
		{"expired session", fiber.StatusUnauthorized, "Invalid or expired token", cart.SessionExpiredMessage},
		{"server fault gets default", fiber.StatusInternalServerError, "db down", cart.DefaultSubmissionMessage},
		{"client error without reason gets default", fiber.StatusBadRequest, "", cart.DefaultSubmissionMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := startOrderService(t, func(c *fiber.Ctx) error {
				return c.Status(tt.status).JSON(fiber.Map{"message": tt.message, "error": "details"})
			})

			_, err := New(url, time.Second, nil).SubmitOrder(context.Background(), testPayload(), "tok")
			var subErr *cart.SubmissionError
			require.True(t, errors.As(err, &subErr), "got %v", err)
			assert.Equal(t, tt.wantMessage, subErr.Message)
			assert.Contains(t, subErr.Err.Error(), "details")
		})
	}
}

func TestClient_SubmitOrderWithoutID(t *testing.T) {
	url := startOrderService(t, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "ok"})
	})

	_, err := New(url, time.Second, nil).SubmitOrder(context.Background(), testPayload(), "tok")
	var subErr *cart.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, cart.DefaultSubmissionMessage, subErr.Message)
}

func TestClient_SubmitOrderTimeout(t *testing.T) {
	url := startOrderService(t, func(c *fiber.Ctx) error {
		time.Sleep(300 * time.Millisecond)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": "late"})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(url, time.Second, nil).SubmitOrder(ctx, testPayload(), "tok")
	var subErr *cart.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, cart.DefaultSubmissionMessage, subErr.Message)
}

func TestClient_SubmitOrderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New("http://127.0.0.1:1", time.Second, nil).SubmitOrder(ctx, testPayload(), "tok")
	assert.ErrorIs(t, err, context.Canceled)
}
