package services

import (
	"log"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/pkg/rabbitmq"
)

// OrderService handles order placement and role-scoped order reads.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	mqClient    *rabbitmq.Client
}

// NewOrderService creates a new OrderService. mqClient may be nil, in
// which case order events are not published.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, mqClient *rabbitmq.Client) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		mqClient:    mqClient,
	}
}

// OrderItemInput is one requested cart line.
type OrderItemInput struct {
	ProductID uint
	Quantity  int
}

// Place validates the cart, snapshots prices, and persists the order
// together with its stock decrements in one atomic step. Any validation
// failure aborts before anything is written.
func (s *OrderService) Place(user *models.User, items []OrderItemInput) (*models.Order, error) {
	if !CanPlaceOrders(user) {
		return nil, models.ErrForbidden
	}
	if len(items) == 0 {
		return nil, &models.ValidationError{
			Code:    "MISSING_ITEMS",
			Message: "Items array is required and must not be empty",
		}
	}
	for _, item := range items {
		if item.ProductID == 0 {
			return nil, &models.ValidationError{
				Code:    "INVALID_PRODUCT_ID",
				Message: "Each item must have a valid product_id",
			}
		}
		if item.Quantity <= 0 {
			return nil, &models.ValidationError{
				Code:    "INVALID_QUANTITY",
				Message: "Each item must have a valid quantity greater than 0",
			}
		}
	}

	// Resolve every referenced product in one batch; a single missing
	// id rejects the whole order.
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	productByID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}
	for _, item := range items {
		if _, ok := productByID[item.ProductID]; !ok {
			return nil, &models.ValidationError{
				Code:    "PRODUCT_NOT_FOUND",
				Message: "One or more products do not exist",
			}
		}
	}

	// Full stock pass before any mutation. The repository re-checks
	// under the transaction; this pass exists so a doomed order fails
	// with the offending product named and nothing written.
	var total float64
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		product := productByID[item.ProductID]
		if product.Stock < item.Quantity {
			return nil, &models.InsufficientStockError{
				ProductName: product.Name,
				Available:   product.Stock,
				Requested:   item.Quantity,
			}
		}
		total += product.Price * float64(item.Quantity)
		orderItems = append(orderItems, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price, // price snapshot
		})
	}

	order := &models.Order{
		UserID: user.ID,
		Total:  total,
		Items:  orderItems,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	s.publishOrderCreated(order)

	// Return the fully materialized order with display data attached.
	placed, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		log.Printf("order %d created but could not be reloaded: %v", order.ID, err)
		return order, nil
	}
	return placed, nil
}

// ListFor returns the orders the user is entitled to see: Admin all,
// Customer their own, Seller the orders containing their products with
// the line items narrowed down to those products.
func (s *OrderService) ListFor(user *models.User) ([]models.Order, error) {
	if user == nil {
		return nil, models.ErrNotAuthenticated
	}
	switch user.Role {
	case models.RoleAdmin:
		return s.orderRepo.GetAll()
	case models.RoleCustomer:
		return s.orderRepo.GetByUserID(user.ID)
	case models.RoleSeller:
		orders, err := s.orderRepo.GetBySellerID(user.ID)
		if err != nil {
			return nil, err
		}
		for i := range orders {
			orders[i].Items = sellerItems(orders[i].Items, user.ID)
		}
		return orders, nil
	}
	return nil, models.ErrForbidden
}

// Get returns one order when the user may view it. The existence check
// runs first so an unknown id is a 404 for everyone.
func (s *OrderService) Get(user *models.User, id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !CanViewOrder(user, order) {
		return nil, models.ErrForbidden
	}
	return order, nil
}

// sellerItems keeps only the line items for products the seller owns.
func sellerItems(items []models.OrderItem, sellerID uint) []models.OrderItem {
	kept := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Product != nil && item.Product.SellerID == sellerID {
			kept = append(kept, item)
		}
	}
	return kept
}

func (s *OrderService) publishOrderCreated(order *models.Order) {
	if s.mqClient == nil {
		return
	}
	event := rabbitmq.OrderCreatedEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		Total:   order.Total,
	}
	if err := s.mqClient.PublishOrderCreated(event); err != nil {
		log.Printf("Warning: failed to publish order created event for order %d: %v", order.ID, err)
	}
}
