package handlers

import (
	"errors"
	"fmt"

	"storefront/internal/cart"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// APIError is returned by handlers and rendered by ErrorHandler as
// {"message", "error", "errors", "cart"}.
type APIError struct {
	// Status is derived from Err when zero.
	Status  int
	Message string
	Err     error
	Fields  map[string]string
	Cart    *cart.View
}

func (e *APIError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

func fail(message string, err error) *APIError {
	return &APIError{Message: message, Err: err}
}

func badRequest(message string, err error) *APIError {
	return &APIError{Status: fiber.StatusBadRequest, Message: message, Err: err}
}

// bind parses the JSON body into out and validates it.
func bind(c *fiber.Ctx, validate *validator.Validate, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return badRequest("Invalid request body", err)
	}
	if err := validate.Struct(out); err != nil {
		return validationFailed(err)
	}
	return nil
}

func validationFailed(err error) *APIError {
	apiErr := badRequest("Validation failed", nil)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		apiErr.Err = err
		return apiErr
	}
	apiErr.Fields = make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		apiErr.Fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return apiErr
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repositories.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, cart.ErrMissingToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrPriceChanged),
		errors.Is(err, services.ErrTotalsMismatch),
		errors.Is(err, cart.ErrCartLocked),
		errors.Is(err, cart.ErrSubmissionInProgress):
		return fiber.StatusConflict
	case errors.Is(err, cart.ErrStockExceeded),
		errors.Is(err, cart.ErrEmptyCart):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidProduct),
		errors.Is(err, services.ErrInvalidOrder),
		errors.Is(err, services.ErrInvalidOrderStatus),
		errors.Is(err, cart.ErrInvalidItem),
		errors.Is(err, cart.ErrInvalidPaymentMethod),
		errors.Is(err, cart.ErrInvalidShipping):
		return fiber.StatusBadRequest
	}
	var subErr *cart.SubmissionError
	if errors.As(err, &subErr) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders handler errors as JSON.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
			}
			apiErr = fail("Internal server error", err)
		}

		status := apiErr.Status
		if status == 0 {
			status = statusFor(apiErr.Err)
		}
		message := apiErr.Message
		var subErr *cart.SubmissionError
		if errors.As(apiErr.Err, &subErr) {
			message = subErr.Message
		}

		body := fiber.Map{"message": message}
		if apiErr.Err != nil {
			body["error"] = apiErr.Err.Error()
		}
		if len(apiErr.Fields) > 0 {
			body["errors"] = apiErr.Fields
		}
		if apiErr.Cart != nil {
			body["cart"] = apiErr.Cart
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(apiErr.Err),
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error(message, fields...)
		} else {
			logger.Debug(message, fields...)
		}
		return c.Status(status).JSON(body)
	}
}
