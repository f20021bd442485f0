package services

import (
	"errors"
	"fmt"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidProduct wraps validation failures of product input.
var ErrInvalidProduct = errors.New("invalid product")

// CatalogService handles business logic related to products. It is the
// source of unit prices and available stock for cart line items.
type CatalogService struct {
	repo     repositories.ProductRepository
	validate *validator.Validate
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repositories.ProductRepository) *CatalogService {
	return &CatalogService{
		repo:     repo,
		validate: models.NewValidator(),
	}
}

// ListProducts returns the catalog, narrowed to one category when given.
func (s *CatalogService) ListProducts(category string) ([]models.Product, error) {
	if category == "" {
		return s.repo.GetAll()
	}
	return s.repo.GetByCategory(category)
}

// Categories lists the catalog categories.
func (s *CatalogService) Categories() ([]string, error) {
	return s.repo.Categories()
}

// GetProductByID retrieves a single product by its ID.
func (s *CatalogService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct validates and stores a new product.
func (s *CatalogService) CreateProduct(product *models.Product) error {
	if err := s.validate.Struct(product); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	return s.repo.Create(product)
}

// UpdateProduct validates and saves an existing product.
func (s *CatalogService) UpdateProduct(product *models.Product) error {
	if err := s.validate.Struct(product); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *CatalogService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

// LineItemFor builds a cart line item for quantity units of a product,
// using the catalog's current price and stock.
func (s *CatalogService) LineItemFor(productID string, quantity int) (models.LineItem, error) {
	product, err := s.repo.GetByID(productID)
	if err != nil {
		return models.LineItem{}, err
	}
	if err := cart.ValidateQuantity(quantity, product.Stock); err != nil {
		return models.LineItem{}, fmt.Errorf("%w: %s has %d in stock", err, product.Name, product.Stock)
	}
	return models.LineItem{
		ProductID:      product.ID,
		Name:           product.Name,
		UnitPrice:      product.Price,
		ImageRef:       product.ImageURL,
		AvailableStock: product.Stock,
		Quantity:       quantity,
	}, nil
}
