package repositories

import (
	"sort"
	"sync"
	"time"

	"pasar/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// It leans on MockProductRepository for stock movements so that the
// stock invariant holds the same way it does in the SQL implementation:
// no store-level transaction exists here, so a failed decrement triggers
// compensating restocks of the decrements already applied.
type MockOrderRepository struct {
	mu       sync.Mutex
	products *MockProductRepository
	orders   map[uint]models.Order
	nextID   uint
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository(products *MockProductRepository) *MockOrderRepository {
	return &MockOrderRepository{
		products: products,
		orders:   make(map[uint]models.Order),
		nextID:   1,
	}
}

// Create applies stock decrements first, rolling them back on the first
// failure, then records the order with its items.
func (r *MockOrderRepository) Create(order *models.Order) error {
	applied := make([]models.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		product, ok, err := r.products.tryDecrement(item.ProductID, item.Quantity)
		if err == nil && !ok {
			err = &models.InsufficientStockError{
				ProductName: product.Name,
				Available:   product.Stock,
				Requested:   item.Quantity,
			}
		}
		if err != nil {
			for _, done := range applied {
				r.products.restock(done.ProductID, done.Quantity)
			}
			return err
		}
		applied = append(applied, item)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	order.ID = r.nextID
	r.nextID++
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].ID = uint(i) + 1
	}
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

// GetByID returns an order with product details attached.
func (r *MockOrderRepository) GetByID(id uint) (*models.Order, error) {
	r.mu.Lock()
	order, ok := r.orders[id]
	r.mu.Unlock()
	if !ok {
		return nil, &models.NotFoundError{Resource: "order", ID: id}
	}
	out := cloneOrder(order)
	r.attachProducts(&out)
	return &out, nil
}

// GetAll returns every order, newest first.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	return r.collect(func(models.Order) bool { return true }), nil
}

// GetByUserID returns a customer's orders, newest first.
func (r *MockOrderRepository) GetByUserID(userID uint) ([]models.Order, error) {
	return r.collect(func(o models.Order) bool { return o.UserID == userID }), nil
}

// GetBySellerID returns orders containing the seller's products, newest first.
func (r *MockOrderRepository) GetBySellerID(sellerID uint) ([]models.Order, error) {
	matches := r.collect(func(o models.Order) bool { return true })
	var out []models.Order
	for _, o := range matches {
		if o.ContainsProductOf(sellerID) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *MockOrderRepository) collect(keep func(models.Order) bool) []models.Order {
	r.mu.Lock()
	orders := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if keep(o) {
			orders = append(orders, cloneOrder(o))
		}
	}
	r.mu.Unlock()

	for i := range orders {
		r.attachProducts(&orders[i])
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (r *MockOrderRepository) attachProducts(order *models.Order) {
	for i := range order.Items {
		if product, err := r.products.GetByID(order.Items[i].ProductID); err == nil {
			order.Items[i].Product = product
		}
	}
}

func cloneOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
