package services

import "math"

// Default listing window. Larger limits are clamped to MaxLimit.
const (
	DefaultLimit = 10
	DefaultPage  = 1
	MaxLimit     = 100
)

// Pagination is a normalized page request.
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination clamps non-positive values to the defaults and limit to MaxLimit.
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset is the number of leading records skipped before this page.
// It saturates at math.MaxInt instead of wrapping.
func (p Pagination) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// TotalPages is ceil(total / limit).
func (p Pagination) TotalPages(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	limit := int64(p.Limit)
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return int(pages)
}
