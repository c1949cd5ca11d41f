// Package company manages the single company profile shown across the site.
package company

import "time"

// Profile is the company identity and contact card.
type Profile struct {
	ID            int64     `json:"id,string"`
	Name          string    `json:"name"`
	Tagline       string    `json:"tagline"`
	About         string    `json:"about"`
	Vision        string    `json:"vision"`
	Mission       string    `json:"mission"`
	Address       string    `json:"address"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	WhatsApp      string    `json:"whatsapp"`
	LogoURL       string    `json:"logo_url"`
	ProfilePDFURL string    `json:"profile_pdf_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProfileInput is the save payload. Empty media URLs without a file keep the
// stored value.
type ProfileInput struct {
	Name          string `json:"name" validate:"required,max=150"`
	Tagline       string `json:"tagline" validate:"max=255"`
	About         string `json:"about" validate:"max=10000"`
	Vision        string `json:"vision" validate:"max=5000"`
	Mission       string `json:"mission" validate:"max=5000"`
	Address       string `json:"address" validate:"max=500"`
	Phone         string `json:"phone" validate:"max=30"`
	Email         string `json:"email" validate:"omitempty,email,max=150"`
	WhatsApp      string `json:"whatsapp" validate:"omitempty,numeric,max=20"`
	LogoURL       string `json:"logo_url" validate:"max=500"`
	ProfilePDFURL string `json:"profile_pdf_url" validate:"max=500"`
}
