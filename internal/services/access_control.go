package services

import "pasar/internal/models"

// Role and ownership policy. Handlers and services consult these
// helpers after resolving the session user; existence checks always
// come before ownership checks so a missing resource reads as 404
// rather than 403.

// CanManageProducts reports whether the user may create products.
func CanManageProducts(user *models.User) bool {
	return user != nil && (user.Role == models.RoleSeller || user.Role == models.RoleAdmin)
}

// CanMutateProduct reports whether the user may update or delete the
// given product: the owning seller, or an Admin.
func CanMutateProduct(user *models.User, product *models.Product) bool {
	if user == nil || product == nil {
		return false
	}
	return user.Role == models.RoleAdmin || product.SellerID == user.ID
}

// CanPlaceOrders reports whether the user may create orders.
func CanPlaceOrders(user *models.User) bool {
	return user != nil && (user.Role == models.RoleCustomer || user.Role == models.RoleAdmin)
}

// CanViewOrder reports whether the user may read the given order:
// Admin always, the owning customer, or a seller with at least one of
// their products among the line items.
func CanViewOrder(user *models.User, order *models.Order) bool {
	if user == nil || order == nil {
		return false
	}
	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCustomer:
		return order.UserID == user.ID
	case models.RoleSeller:
		return order.ContainsProductOf(user.ID)
	}
	return false
}
