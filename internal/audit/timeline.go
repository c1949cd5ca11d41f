package audit

import (
	"time"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// TimelineFilters menampung filter untuk daftar activity log.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	UserID   int64
	Action   string
	Page     int
	PageSize int
}

// PagingInfo menyimpan metadata pagination sederhana.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result membungkus hasil timeline dengan informasi paging.
type Result struct {
	Rows   []shared.ActivityLog `json:"data"`
	Paging PagingInfo           `json:"paging"`
}
