package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Handlers map these onto HTTP
// statuses; services never format status codes themselves.
var (
	ErrNotAuthenticated   = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError is a rejected input. It never implies any state change.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError is a missing referenced entity. Code overrides the
// generic NOT_FOUND response code when set.
type NotFoundError struct {
	Resource string
	ID       uint
	Code     string
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

// ConflictError is a unique-constraint violation (duplicate username/email).
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// InsufficientStockError names the first offending line item of a
// rejected order.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product %q. Available: %d, Requested: %d",
		e.ProductName, e.Available, e.Requested)
}
