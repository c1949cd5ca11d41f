package auth

import "time"

// Credential is the stored login record of a user.
type Credential struct {
	UserID       int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// PublicUser is the outward view of a user. It never carries the hash.
type PublicUser struct {
	ID        int64     `json:"id,string"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Role is a role resolved at login.
type Role struct {
	ID   int64  `json:"id,string"`
	Name string `json:"name"`
}

// Identity is the result of a successful authentication.
type Identity struct {
	User        PublicUser `json:"user"`
	Roles       []Role     `json:"roles"`
	PrimaryRole Role       `json:"primary_role"`
}

// RoleIDs returns the normalised role id set.
func (i Identity) RoleIDs() []int64 {
	ids := make([]int64, 0, len(i.Roles))
	for _, r := range i.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=72"`
}
