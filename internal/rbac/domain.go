package rbac

import (
	"time"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Menu is a navigable admin section. Sub-menus reference a top-level parent.
type Menu struct {
	ID        int64     `json:"id,string"`
	Label     string    `json:"label"`
	URL       string    `json:"url"`
	ParentID  *int64    `json:"parent_id,string,omitempty"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	Children  []Menu    `json:"children,omitempty"`
}

// IsTopLevel reports whether the menu has no parent.
func (m Menu) IsTopLevel() bool {
	return m.ParentID == nil
}

// MenuInput carries the fields accepted when creating a menu.
type MenuInput struct {
	Label     string     `json:"label" validate:"required,max=100"`
	URL       string     `json:"url" validate:"required,startswith=/,max=255"`
	ParentID  *shared.ID `json:"parent_id"`
	SortOrder int        `json:"sort_order" validate:"gte=0"`
}

// SyncInput is the body of a permission sync request.
type SyncInput struct {
	RoleID  shared.ID     `json:"role_id" validate:"required"`
	MenuIDs shared.IDList `json:"menu_ids" validate:"required,dive,gt=0"`
}
