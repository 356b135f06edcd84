package shared

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
)

const (
	defaultPerPage = 20
	maxPerPage     = 200
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	page, perPage = normalizePage(page, perPage)
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// PageQuery carries the page/perPage pair parsed from a request.
type PageQuery struct {
	Page    int
	PerPage int
}

// Limit returns the SQL limit.
func (q PageQuery) Limit() int {
	_, perPage := normalizePage(q.Page, q.PerPage)
	return perPage
}

// Offset returns the SQL offset.
func (q PageQuery) Offset() int {
	page, perPage := normalizePage(q.Page, q.PerPage)
	return (page - 1) * perPage
}

// ParsePageQuery reads page and perPage from query values.
func ParsePageQuery(values url.Values) PageQuery {
	page, _ := strconv.Atoi(values.Get("page"))
	perPage, _ := strconv.Atoi(values.Get("perPage"))
	page, perPage = normalizePage(page, perPage)
	return PageQuery{Page: page, PerPage: perPage}
}

func normalizePage(page, perPage int) (int, int) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page <= 0 {
		page = 1
	}
	return page, perPage
}

// ListFilters is the search + page pair accepted by the simple CRUD listings.
type ListFilters struct {
	Search string
	Page   PageQuery
}

// ParseListFilters reads search, page and perPage from query values.
func ParseListFilters(values url.Values) ListFilters {
	return ListFilters{Search: strings.TrimSpace(values.Get("search")), Page: ParsePageQuery(values)}
}

// PageOf wraps one page of items with its pagination metadata.
func PageOf[T any](items []T, total int, q PageQuery) httpx.Page[T] {
	p := NewPagination(q.Page, q.PerPage, total)
	if items == nil {
		items = []T{}
	}
	return httpx.Page[T]{Items: items, Total: total, Page: p.Page, PerPage: p.PerPage, TotalPages: p.TotalPages}
}
