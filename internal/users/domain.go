package users

import (
	"time"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// User is a credential identity. The hash never leaves the process.
type User struct {
	ID           int64     `json:"id,string"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleRef is the id and name of a role attached to an employee.
type RoleRef struct {
	ID   int64  `json:"id,string"`
	Name string `json:"name"`
}

// Employee grants admin capability to exactly one user.
type Employee struct {
	ID        int64     `json:"id,string"`
	UserID    int64     `json:"user_id,string"`
	Roles     []RoleRef `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// roleIDs returns the employee's role ids in stored order.
func (e Employee) roleIDs() []int64 {
	ids := make([]int64, 0, len(e.Roles))
	for _, r := range e.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}

// AdminSummary is the admin listing row.
type AdminSummary struct {
	ID         int64     `json:"id,string"`
	EmployeeID int64     `json:"employee_id,string"`
	Username   string    `json:"username"`
	Roles      []RoleRef `json:"roles"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateUserInput carries a new credential identity.
type CreateUserInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// CreateAdminInput is the body of POST /admin.
type CreateAdminInput struct {
	Username string        `json:"username" validate:"required,min=3,max=50"`
	Password string        `json:"password" validate:"required,min=8,max=72"`
	RoleIDs  shared.IDList `json:"role_ids" validate:"required,min=1,dive,gt=0"`
}

// UpdateAdminInput is the body of PUT /admin/{id}. An empty password keeps the current one.
type UpdateAdminInput struct {
	Username string        `json:"username" validate:"required,min=3,max=50"`
	Password string        `json:"password" validate:"omitempty,min=8,max=72"`
	RoleIDs  shared.IDList `json:"role_ids" validate:"required,min=1,dive,gt=0"`
}
