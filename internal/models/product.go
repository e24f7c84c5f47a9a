package models

import "time"

// Product represents a catalog entry owned by a seller.
// Stock is only ever decremented through the order placement transaction.
type Product struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(200)"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock" gorm:"default:0"`
	SellerID    uint      `json:"seller_id"`
	Seller      *User     `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	ImageURL    *string   `json:"image_url" gorm:"type:varchar(500)"`
	Description *string   `json:"description" gorm:"type:varchar(2000)"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductFilter narrows a catalog search. Nil pointer fields are ignored.
type ProductFilter struct {
	Search   string
	MinPrice *float64
	MaxPrice *float64
	SellerID *uint
	Limit    int
	Offset   int
}
