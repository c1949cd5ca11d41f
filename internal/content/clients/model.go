// Package clients manages the client logos shown on the site.
package clients

import "time"

// Client is a customer whose logo appears on the site.
type Client struct {
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	LogoURL   string    `json:"logo_url"`
	Website   string    `json:"website"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClientInput is the create/update payload. LogoURL may be empty when a logo
// file accompanies the request, or on update to keep the current logo.
type ClientInput struct {
	Name    string `json:"name" validate:"required,max=150"`
	LogoURL string `json:"logo_url" validate:"max=500"`
	Website string `json:"website" validate:"omitempty,http_url,max=255"`
}
