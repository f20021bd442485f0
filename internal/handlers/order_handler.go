package handlers

import (
	"fmt"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders. POST /orders is the
// order service endpoint that carts submit to.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: models.NewValidator(),
	}
}

// RegisterRoutes registers the order routes behind protected.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, protected fiber.Handler) {
	orderRoutes := router.Group("/orders", protected)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
}

// HandleGetOrders lists the caller's orders, optionally filtered by ?status=.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetOrders(models.OrderFilter{
		UserID: middleware.UserID(c),
		Status: models.OrderStatus(c.Query("status")),
	})
	if err != nil {
		return fail("Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves one of the caller's orders.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.ownedOrder(c, orderID)
	if err != nil {
		return fail(fmt.Sprintf("Order with ID %s not found", orderID), err)
	}
	return c.JSON(order)
}

// ownedOrder loads orderID, reporting another user's order as not found.
func (h *OrderHandler) ownedOrder(c *fiber.Ctx, orderID string) (*models.Order, error) {
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != middleware.UserID(c) {
		return nil, fmt.Errorf("order with ID %s: %w", orderID, repositories.ErrNotFound)
	}
	return order, nil
}

// HandleCreateOrder accepts a checkout payload for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var payload models.OrderPayload
	if err := c.BodyParser(&payload); err != nil {
		return badRequest("Invalid request body", err)
	}

	createdOrder, err := h.service.PlaceOrder(middleware.UserID(c), payload)
	if err != nil {
		message := services.OrderFailureMessage(err)
		if message == "" {
			message = "Could not create order"
		}
		return fail(message, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"id":      createdOrder.ID,
		"order":   createdOrder,
	})
}

// UpdateStatusRequest is the body of PATCH /orders/:id/status.
type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus moves one of the caller's orders to a new status.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req UpdateStatusRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	if _, err := h.ownedOrder(c, orderID); err != nil {
		return fail(fmt.Sprintf("Order with ID %s not found", orderID), err)
	}
	order, err := h.service.UpdateOrderStatus(orderID, req.Status)
	if err != nil {
		return fail("Could not update order status", err)
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", orderID, req.Status),
		"order":   order,
	})
}
