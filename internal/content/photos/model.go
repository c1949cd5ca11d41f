// Package photos manages the gallery photos shown on the site.
package photos

import "time"

// Photo is one gallery image.
type Photo struct {
	ID        int64     `json:"id,string"`
	Title     string    `json:"title"`
	Caption   string    `json:"caption"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// PhotoInput is the create/update payload.
type PhotoInput struct {
	Title    string `json:"title" validate:"max=150"`
	Caption  string `json:"caption" validate:"max=500"`
	ImageURL string `json:"image_url" validate:"max=500"`
}
