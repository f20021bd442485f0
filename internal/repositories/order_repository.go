package repositories

import (
	"storefront/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// GetAll returns orders matching filter, newest first.
	GetAll(filter models.OrderFilter) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	// UpdateStatus moves the order from status from to status to. It
	// fails with ErrStaleStatus when the order is no longer in from.
	UpdateStatus(id string, from, to models.OrderStatus) error
}
