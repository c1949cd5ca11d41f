package roles

import "time"

// Role is a named bundle of menu permissions.
type Role struct {
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// RoleInput carries the writable role fields.
type RoleInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

// References counts rows still pointing at a role.
type References struct {
	Employees int
	Menus     int
}

// InUse reports whether any row references the role.
func (r References) InUse() bool {
	return r.Employees > 0 || r.Menus > 0
}
