// Package products manages the product catalogue.
package products

import "time"

// Product is a catalogue entry.
type Product struct {
	ID          int64     `json:"id,string"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	LinkURL     string    `json:"link_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductInput is the create/update payload.
type ProductInput struct {
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description" validate:"max=5000"`
	ImageURL    string `json:"image_url" validate:"max=500"`
	LinkURL     string `json:"link_url" validate:"omitempty,http_url,max=500"`
}
