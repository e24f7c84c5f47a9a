package handlers

import (
	"errors"
	"fmt"
	"log"

	"pasar/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error onto the HTTP error contract:
// validation 400, unauthenticated 401, forbidden 403, missing 404,
// duplicate 409, everything else 500.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validation   *models.ValidationError
		notFound     *models.NotFoundError
		conflict     *models.ConflictError
		insufficient *models.InsufficientStockError
	)

	switch {
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validation.Message,
			"code":  validation.Code,
		})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": insufficient.Error(),
			"code":  "INSUFFICIENT_STOCK",
		})
	case errors.As(err, &notFound):
		code := notFound.Code
		if code == "" {
			code = "NOT_FOUND"
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": notFound.Error(),
			"code":  code,
		})
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": conflict.Message,
			"code":  conflict.Code,
		})
	case errors.Is(err, models.ErrNotAuthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
			"code":  "UNAUTHENTICATED",
		})
	case errors.Is(err, models.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
			"code":  "INVALID_CREDENTIALS",
		})
	case errors.Is(err, models.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access forbidden: you do not have permission to perform this action",
			"code":  "FORBIDDEN",
		})
	}

	log.Printf("internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
		"code":  "INTERNAL_ERROR",
	})
}

// respondValidationErrors renders validator tag failures field by field.
func respondValidationErrors(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"code":   "MISSING_REQUIRED_FIELDS",
			"fields": messages,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Validation failed",
		"code":  "MISSING_REQUIRED_FIELDS",
	})
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}
