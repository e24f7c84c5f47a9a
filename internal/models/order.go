package models

import "time"

// OrderItem is a single product line within an order. UnitPrice is a
// snapshot of the product price at order time and is never updated when
// the catalog price changes.
type OrderItem struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	OrderID   uint     `json:"order_id"`
	ProductID uint     `json:"product_id"`
	Product   *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int      `json:"quantity"`
	UnitPrice float64  `json:"unit_price"`
}

// Order is immutable once created. Total always equals the sum of
// Quantity*UnitPrice over Items.
type Order struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	UserID    uint        `json:"user_id"`
	User      *User       `json:"customer,omitempty" gorm:"foreignKey:UserID"`
	Total     float64     `json:"total"`
	Items     []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt time.Time   `json:"created_at"`
}

// ContainsProductOf reports whether any line item references a product
// owned by the given seller.
func (o *Order) ContainsProductOf(sellerID uint) bool {
	for _, item := range o.Items {
		if item.Product != nil && item.Product.SellerID == sellerID {
			return true
		}
	}
	return false
}
