package models

import (
	"time"
)

// Product is the model for the 'products' table.
// Pointers are used for nullable fields so the JSON stays clean.
type Product struct {
	ID          int64  `json:"id" db:"id"`
	Slug        string `json:"slug" db:"slug"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // e.g. protein, creatine, vitamins

	Price         float64 `json:"price" db:"price"`
	StockQuantity int     `json:"stock" db:"stock_quantity"`

	Status   string  `json:"status" db:"status"` // draft | published
	ImageURL *string `json:"imageUrl,omitempty" db:"image_url"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
