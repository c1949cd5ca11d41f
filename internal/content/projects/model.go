// Package projects manages the portfolio of delivered projects.
package projects

import (
	"time"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Project is a portfolio entry, optionally tied to a client and a category.
type Project struct {
	ID           int64     `json:"id,string"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Year         *int      `json:"year,omitempty"`
	ClientID     *int64    `json:"client_id,string,omitempty"`
	ClientName   string    `json:"client_name,omitempty"`
	CategoryID   *int64    `json:"category_id,string,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	ImageURL     string    `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProjectInput is the create/update payload.
type ProjectInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Year        *int       `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	ClientID    *shared.ID `json:"client_id"`
	CategoryID  *shared.ID `json:"category_id"`
	ImageURL    string     `json:"image_url" validate:"max=500"`
}

// Filters narrows a project listing.
type Filters struct {
	content.ListFilters
	ClientID   int64
	CategoryID int64
}

func (in ProjectInput) clientID() *int64   { return rawID(in.ClientID) }
func (in ProjectInput) categoryID() *int64 { return rawID(in.CategoryID) }

func rawID(id *shared.ID) *int64 {
	if id == nil || *id <= 0 {
		return nil
	}
	v := int64(*id)
	return &v
}
