package handlers

import (
	"log"

	"pasar/internal/middleware"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes registers the order routes; all of them require a
// session.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, requireSession fiber.Handler) {
	orderRoutes := router.Group("/orders", requireSession)
	orderRoutes.Get("/", h.HandleList)
	orderRoutes.Post("/", h.HandleCreate)
	orderRoutes.Get("/:id", h.HandleGetByID)
}

// HandleList returns the role-scoped order list.
func (h *OrderHandler) HandleList(c *fiber.Ctx) error {
	orders, err := h.service.ListFor(middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
	})
}

// CreateOrderRequest is the order placement body.
type CreateOrderRequest struct {
	Items []struct {
		ProductID uint `json:"product_id"`
		Quantity  int  `json:"quantity"`
	} `json:"items"`
}

// HandleCreate places an order for the session user. The customer
// identity always comes from the session; a user_id key in the body is
// rejected.
func (h *OrderHandler) HandleCreate(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	if bodyHasAnyKey(c.Body(), "user_id", "userId") {
		return badRequest(c, "USER_ID_NOT_ALLOWED", "User ID cannot be provided in request body")
	}

	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create order body: %v", err)
		return badRequest(c, "INVALID_BODY", "Invalid request body")
	}

	items := make([]services.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.service.Place(user, items)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

// HandleGetByID returns one order, subject to the view policy.
func (h *OrderHandler) HandleGetByID(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "Valid order ID is required")
	}

	order, err := h.service.Get(middleware.CurrentUser(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}
