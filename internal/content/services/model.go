// Package services manages offered services and their sub-service items.
package services

import (
	"time"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Service is an offered service with an ordered list of sub-services.
type Service struct {
	ID          int64     `json:"id,string"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IconURL     string    `json:"icon_url"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Item is one sub-service row.
type Item struct {
	ID        int64  `json:"id,string"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// ServiceInput is the create/update payload. Items is the complete target
// list: rows without an id are new, persisted rows missing from it are removed.
// Updates require the list; an empty list removes every row.
type ServiceInput struct {
	Title       string      `json:"title" validate:"required,max=150"`
	Description string      `json:"description" validate:"max=5000"`
	IconURL     string      `json:"icon_url" validate:"max=500"`
	Items       []ItemInput `json:"items" validate:"max=50,dive"`
}

// ItemInput is one row of the target list.
type ItemInput struct {
	ID   *shared.ID `json:"id"`
	Name string     `json:"name" validate:"required,max=200"`
}

// ItemPlan is the reconciliation of a target list against persisted rows.
type ItemPlan struct {
	Delete []int64
	Insert []Item
	Update []Item
}

// Empty reports whether the plan changes nothing.
func (p ItemPlan) Empty() bool {
	return len(p.Delete) == 0 && len(p.Insert) == 0 && len(p.Update) == 0
}
