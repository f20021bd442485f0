// Package orderclient submits cart checkouts to a remote order service
// over HTTP.
package orderclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/cart"
	"storefront/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrdersPath is the order service endpoint, relative to the base URL.
const OrdersPath = "/api/v1/orders"

// DefaultTimeout bounds a submission when the caller's context has no deadline.
const DefaultTimeout = 10 * time.Second

// Client posts order payloads to the order service with the shopper's
// bearer token.
type Client struct {
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Client for the order service at baseURL.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, timeout: timeout, logger: logger}
}

type response struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SubmitOrder implements cart.OrderSubmitter.
func (c *Client) SubmitOrder(ctx context.Context, payload models.OrderPayload, authToken string) (*models.OrderAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}

	url := c.baseURL + OrdersPath
	agent := fiber.Post(url).
		Set(fiber.HeaderAuthorization, "Bearer "+authToken).
		Timeout(timeout).
		JSON(payload)
	if err := agent.Parse(); err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		err := errors.Join(errs...)
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		c.logger.Warn("order service unreachable", zap.String("url", url), zap.Error(err))
		return nil, cart.NewSubmissionError("", fmt.Errorf("order service unreachable: %w", err))
	}

	var resp response
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, cart.NewSubmissionError("", fmt.Errorf("order service returned %d with undecodable body: %w", status, err))
		}
	}

	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		c.logger.Info("order rejected by order service",
			zap.Int("status", status),
			zap.String("message", resp.Message),
			zap.String("error", resp.Error),
		)
		return nil, cart.NewSubmissionError(shopperMessage(status, resp.Message), fmt.Errorf("order service responded %d: %s", status, resp.Error))
	}
	if resp.ID == "" {
		return nil, cart.NewSubmissionError("", fmt.Errorf("order service responded %d without an order id", status))
	}
	return &models.OrderAck{OrderID: resp.ID}, nil
}

// shopperMessage passes client-error reasons through; server faults get
// the default message.
func shopperMessage(status int, message string) string {
	switch {
	case status == fiber.StatusUnauthorized:
		return cart.SessionExpiredMessage
	case status >= fiber.StatusBadRequest && status < fiber.StatusInternalServerError:
		return message
	default:
		return ""
	}
}
