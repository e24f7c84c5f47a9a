package repositories

import (
	"sort"
	"strings"
	"sync"
	"time"

	"pasar/internal/models"
)

// MockProductRepository is an in-memory implementation of
// ProductRepository used in tests and local experiments.
type MockProductRepository struct {
	mu       sync.Mutex
	products map[uint]models.Product
	nextID   uint
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[uint]models.Product),
		nextID:   1,
	}
}

// Create adds a new product, assigning an id when absent.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == 0 {
		product.ID = r.nextID
		r.nextID++
	} else if product.ID >= r.nextID {
		r.nextID = product.ID + 1
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	r.products[product.ID] = *product
	return nil
}

// GetByID returns a copy of the product.
func (r *MockProductRepository) GetByID(id uint) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "product", ID: id}
	}
	return &product, nil
}

// GetByIDs resolves a batch of ids; missing ids are skipped.
func (r *MockProductRepository) GetByIDs(ids []uint) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	products := make([]models.Product, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if product, ok := r.products[id]; ok {
			products = append(products, product)
		}
	}
	return products, nil
}

// Search applies the catalog filter over the in-memory set.
func (r *MockProductRepository) Search(filter models.ProductFilter) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []models.Product
	for _, p := range r.products {
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			desc := ""
			if p.Description != nil {
				desc = *p.Description
			}
			if !strings.Contains(strings.ToLower(p.Name), needle) &&
				!strings.Contains(strings.ToLower(desc), needle) {
				continue
			}
		}
		if filter.MinPrice != nil && p.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
			continue
		}
		if filter.SellerID != nil && p.SellerID != *filter.SellerID {
			continue
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []models.Product{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return &models.NotFoundError{Resource: "product", ID: product.ID}
	}
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return &models.NotFoundError{Resource: "product", ID: id}
	}
	delete(r.products, id)
	return nil
}

// tryDecrement atomically decrements stock when enough is available,
// returning the product state either way. Used by the mock order
// repository to mirror the conditional UPDATE of the SQL implementation.
func (r *MockProductRepository) tryDecrement(id uint, quantity int) (models.Product, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return models.Product{}, false, &models.NotFoundError{Resource: "product", ID: id}
	}
	if product.Stock < quantity {
		return product, false, nil
	}
	product.Stock -= quantity
	r.products[id] = product
	return product, true, nil
}

// restock reverses a decrement during compensating rollback.
func (r *MockProductRepository) restock(id uint, quantity int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product, ok := r.products[id]; ok {
		product.Stock += quantity
		r.products[id] = product
	}
}
