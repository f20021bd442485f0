package repositories

import (
	"storefront/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByCategory(category string) ([]models.Product, error)
	Categories() ([]string, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	// AdjustStock adds delta to a product's stock, refusing to go below zero.
	AdjustStock(id string, delta int) error
	Delete(id string) error
}
