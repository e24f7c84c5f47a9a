package handlers

import (
	"encoding/json"
	"log"
	"strconv"

	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes. Listing is public;
// mutations go through the session guard.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, requireSession fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleSearch)
	productRoutes.Get("/:id", h.HandleGetByID)
	productRoutes.Post("/", requireSession, h.HandleCreate)
	productRoutes.Patch("/:id", requireSession, h.HandleUpdate)
	productRoutes.Delete("/:id", requireSession, h.HandleDelete)
}

// HandleSearch runs the public catalog query.
func (h *ProductHandler) HandleSearch(c *fiber.Ctx) error {
	filter := models.ProductFilter{
		Search: c.Query("search"),
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
	if raw := c.Query("minPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinPrice = &v
		}
	}
	if raw := c.Query("maxPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MaxPrice = &v
		}
	}
	if raw := c.Query("sellerId"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil {
			id := uint(v)
			filter.SellerID = &id
		}
	}

	products, err := h.service.Search(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
	})
}

// HandleGetByID returns a single product; public like the listing.
func (h *ProductHandler) HandleGetByID(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "Valid ID is required")
	}
	product, err := h.service.GetByID(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// CreateProductRequest is the product creation body.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	ImageURL    *string `json:"image_url"`
	Description *string `json:"description"`
	SellerID    *uint   `json:"seller_id"`
}

// HandleCreate creates a product. Only Admins may name another seller;
// everyone else supplying seller_id is rejected outright rather than
// silently ignored.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	if user.Role != models.RoleAdmin && bodyHasAnyKey(c.Body(), "seller_id", "sellerId") {
		return badRequest(c, "SELLER_ID_NOT_ALLOWED", "Only Admin can specify sellerId")
	}

	var req CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create product body: %v", err)
		return badRequest(c, "INVALID_BODY", "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	product, err := h.service.Create(user, services.CreateProductInput{
		Name:        req.Name,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		SellerID:    req.SellerID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// UpdateProductRequest is a partial patch body; absent fields stay as
// they are.
type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	ImageURL    *string  `json:"image_url"`
	Description *string  `json:"description"`
}

// HandleUpdate applies a partial patch. Ownership cannot be reassigned:
// a seller_id key in the body is always rejected.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "Valid ID is required")
	}
	if bodyHasAnyKey(c.Body(), "seller_id", "sellerId") {
		return badRequest(c, "SELLER_ID_NOT_ALLOWED", "Seller ID cannot be provided in request body")
	}

	var req UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update product body: %v", err)
		return badRequest(c, "INVALID_BODY", "Invalid request body")
	}

	product, err := h.service.Update(user, id, services.UpdateProductInput{
		Name:        req.Name,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// HandleDelete removes a product.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "Valid ID is required")
	}
	if err := h.service.Delete(user, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"message": "Product deleted"},
	})
}

// paramID parses the :id route parameter as a positive integer.
func paramID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// bodyHasAnyKey reports whether the raw JSON body contains any of the
// given top-level keys. Privileged identity fields are rejected by key
// presence, not by value, so an explicit null still counts.
func bodyHasAnyKey(body []byte, keys ...string) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return false
	}
	for _, key := range keys {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	return false
}
