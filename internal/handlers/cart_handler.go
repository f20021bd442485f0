package handlers

import (
	"storefront/internal/cart"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler exposes the authenticated user's cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: models.NewValidator(),
	}
}

// RegisterRoutes registers the cart routes behind protected.
func (h *CartHandler) RegisterRoutes(router fiber.Router, protected fiber.Handler) {
	cartRoutes := router.Group("/cart", protected)
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Post("/items/:id/increment", h.HandleIncrement)
	cartRoutes.Post("/items/:id/decrement", h.HandleDecrement)
	cartRoutes.Delete("/items/:id", h.HandleRemoveItem)
	cartRoutes.Post("/checkout", h.HandleCheckout)
}

// AddItemRequest is the body of POST /cart/items.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// CheckoutRequest is the body of POST /cart/checkout.
type CheckoutRequest struct {
	Shipping      models.ShippingInfo  `json:"shipping"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"required,oneof=cod ewallet"`
}

// HandleGetCart returns the cart with its price summary.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	return c.JSON(h.service.View(middleware.UserID(c)))
}

// HandleAddItem puts a product in the cart, replacing any quantity already there.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	view, err := h.service.AddProduct(c.UserContext(), middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		return cartFailure("Could not add item to cart", view, err)
	}
	return c.JSON(view)
}

// HandleIncrement adds one unit of a cart item.
func (h *CartHandler) HandleIncrement(c *fiber.Ctx) error {
	return h.apply(c, cart.Increment{ProductID: c.Params("id")}, "Could not increase quantity")
}

// HandleDecrement removes one unit of a cart item; the item is dropped at zero.
func (h *CartHandler) HandleDecrement(c *fiber.Ctx) error {
	return h.apply(c, cart.Decrement{ProductID: c.Params("id")}, "Could not decrease quantity")
}

// HandleRemoveItem drops an item from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	return h.apply(c, cart.Remove{ProductID: c.Params("id")}, "Could not remove item")
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	return h.apply(c, cart.Clear{}, "Could not clear cart")
}

// HandleCheckout submits the cart as an order using the caller's token.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	view, err := h.service.Checkout(c.UserContext(), middleware.UserID(c), middleware.Token(c), req.Shipping, req.PaymentMethod)
	if err != nil {
		return cartFailure("Could not place your order", view, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Order placed successfully",
		"order_id": view.Order.OrderID,
		"cart":     view,
	})
}

func (h *CartHandler) apply(c *fiber.Ctx, cmd cart.Command, failure string) error {
	view, err := h.service.Apply(c.UserContext(), middleware.UserID(c), cmd)
	if err != nil {
		return cartFailure(failure, view, err)
	}
	return c.JSON(view)
}

// cartFailure keeps the cart in the error body so clients can redisplay it.
func cartFailure(message string, view cart.View, err error) *APIError {
	apiErr := fail(message, err)
	apiErr.Cart = &view
	return apiErr
}
