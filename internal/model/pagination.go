package model

// Pagination defaults
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based page request
type Page struct {
	Page  int
	Limit int
}

// NewPage normalizes raw page and limit values
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Page{Page: page, Limit: limit}
}

// Offset is the number of records to skip
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pages returns the page count for total records
func (p Page) Pages(total int) int {
	if total == 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// PageResult is a page of items plus totals
type PageResult[T any] struct {
	Items []T
	Total int
	Page  Page
}
