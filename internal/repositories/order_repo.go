package repositories

import "pasar/internal/models"

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create persists the order, its line items and the corresponding
	// stock decrements atomically. If any product no longer has enough
	// stock at commit time the whole order is rolled back and a
	// *models.InsufficientStockError is returned.
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetAll() ([]models.Order, error)
	GetByUserID(userID uint) ([]models.Order, error)
	// GetBySellerID returns orders containing at least one product owned
	// by the seller.
	GetBySellerID(sellerID uint) ([]models.Order, error)
}
