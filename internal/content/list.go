// Package content holds helpers shared by the content resources.
package content

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ListFilters captures search, sort and paging of a resource list.
type ListFilters struct {
	Search string
	Sort   string
	Desc   bool
	Page   int
	Limit  int
}

// FiltersFromQuery reads ?search=&sort=&dir=&page=&limit=. Sort defaults to
// newest first.
func FiltersFromQuery(q url.Values) ListFilters {
	page, limit := shared.PageParams(q, defaultLimit, maxLimit)
	f := ListFilters{
		Search: strings.TrimSpace(q.Get("search")),
		Sort:   strings.TrimSpace(q.Get("sort")),
		Desc:   !strings.EqualFold(q.Get("dir"), "asc"),
		Page:   page,
		Limit:  limit,
	}
	return f
}

// Offset returns the row offset of the requested page.
func (f ListFilters) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize()
}

// PageSize returns the clamped limit.
func (f ListFilters) PageSize() int {
	switch {
	case f.Limit <= 0:
		return defaultLimit
	case f.Limit > maxLimit:
		return maxLimit
	default:
		return f.Limit
	}
}

// Pattern returns an ILIKE pattern for Search with wildcards escaped.
func (f ListFilters) Pattern() string {
	if f.Search == "" {
		return ""
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(f.Search) + "%"
}

// SortSpec is the allow-list of sortable columns for one listing.
type SortSpec struct {
	Columns map[string]string
	// Default is used for unknown keys; created_at when empty.
	Default string
	// ID breaks ties; id when empty.
	ID string
}

// OrderBy builds an ORDER BY clause. Only columns named by spec reach the SQL.
func (f ListFilters) OrderBy(spec SortSpec) string {
	column, ok := spec.Columns[f.Sort]
	if !ok || f.Sort == "" {
		column = spec.Default
	}
	if column == "" {
		column = "created_at"
	}
	id := spec.ID
	if id == "" {
		id = "id"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, %s %s", column, dir, id, dir)
}

// ListResult is a page of T plus paging metadata.
type ListResult[T any] struct {
	Data       []T               `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

// NewListResult builds a ListResult. A nil page becomes an empty array.
func NewListResult[T any](items []T, f ListFilters, total int) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	return ListResult[T]{Data: items, Pagination: shared.NewPagination(f.Page, f.PageSize(), total)}
}
