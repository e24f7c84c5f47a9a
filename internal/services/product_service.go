package services

import (
	"strings"

	"pasar/internal/models"
	"pasar/internal/repositories"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// ProductService handles catalog queries and product lifecycle with the
// ownership rules applied.
type ProductService struct {
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
}

// NewProductService creates a new ProductService.
func NewProductService(productRepo repositories.ProductRepository, userRepo repositories.UserRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// Search runs a public catalog query with pagination clamped to sane
// bounds (limit 1..100, default 20, offset >= 0).
func (s *ProductService) Search(filter models.ProductFilter) ([]models.Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultSearchLimit
	}
	if filter.Limit > maxSearchLimit {
		filter.Limit = maxSearchLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.productRepo.Search(filter)
}

// CreateProductInput carries the fields a product can be created with.
// SellerID is honored for Admins only; everyone else sells as themselves.
type CreateProductInput struct {
	Name        string
	Price       float64
	Stock       int
	ImageURL    *string
	Description *string
	SellerID    *uint
}

// Create adds a product owned by the acting seller, or by an explicit
// target seller when an Admin says so.
func (s *ProductService) Create(user *models.User, input CreateProductInput) (*models.Product, error) {
	if !CanManageProducts(user) {
		return nil, models.ErrForbidden
	}

	sellerID := user.ID
	if input.SellerID != nil {
		if user.Role != models.RoleAdmin {
			return nil, &models.ValidationError{
				Code:    "SELLER_ID_NOT_ALLOWED",
				Message: "Only Admin can specify sellerId",
			}
		}
		target, err := s.userRepo.GetByID(*input.SellerID)
		if err != nil || !CanManageProducts(target) {
			return nil, &models.ValidationError{Code: "INVALID_SELLER", Message: "Invalid seller"}
		}
		sellerID = target.ID
	}

	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Price:       input.Price,
		Stock:       input.Stock,
		SellerID:    sellerID,
		ImageURL:    input.ImageURL,
		Description: input.Description,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProductInput is a partial patch; nil fields are left untouched.
type UpdateProductInput struct {
	Name        *string
	Price       *float64
	Stock       *int
	ImageURL    *string
	Description *string
}

// Update applies a partial patch to a product the user owns (or any
// product for Admin). Existence is checked before ownership.
func (s *ProductService) Update(user *models.User, id uint, input UpdateProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !CanMutateProduct(user, product) {
		return nil, models.ErrForbidden
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, &models.ValidationError{Code: "INVALID_NAME", Message: "Name must be a non-empty string"}
		}
		product.Name = name
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, &models.ValidationError{Code: "INVALID_PRICE", Message: "Price must be a non-negative number"}
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, &models.ValidationError{Code: "INVALID_STOCK", Message: "Stock must be a non-negative integer"}
		}
		product.Stock = *input.Stock
	}
	if input.ImageURL != nil {
		trimmed := strings.TrimSpace(*input.ImageURL)
		product.ImageURL = &trimmed
	}
	if input.Description != nil {
		trimmed := strings.TrimSpace(*input.Description)
		product.Description = &trimmed
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product the user owns (or any product for Admin).
func (s *ProductService) Delete(user *models.User, id uint) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if !CanMutateProduct(user, product) {
		return models.ErrForbidden
	}
	return s.productRepo.Delete(id)
}

// GetByID retrieves a single product.
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	return s.productRepo.GetByID(id)
}
