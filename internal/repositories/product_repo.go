package repositories

import "pasar/internal/models"

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	// GetByIDs resolves a batch of product ids. Missing ids are simply
	// absent from the result; the caller decides whether that is fatal.
	GetByIDs(ids []uint) ([]models.Product, error)
	Search(filter models.ProductFilter) ([]models.Product, error)
	Update(product *models.Product) error
	Delete(id uint) error
}
