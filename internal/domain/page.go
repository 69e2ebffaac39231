package domain

import "math"

const (
	DefaultPageSize = 15
	MaxPageSize     = 100
	// MaxPage keeps Page*Size within an int.
	MaxPage = math.MaxInt / MaxPageSize
)

// PageRequest addresses one zero-based page.
type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps out-of-range values instead of rejecting them.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Page > MaxPage {
		r.Page = MaxPage
	}
	if r.Size <= 0 {
		r.Size = DefaultPageSize
	}
	if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}
	return r
}

func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// Page is one slice of a larger result set.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
}

// EmptyPage keeps Content non-nil so it serializes as [].
func EmptyPage[T any](req PageRequest) Page[T] {
	return Page[T]{Content: []T{}, PageNumber: req.Page, PageSize: req.Size}
}

// MapPage converts page content while keeping the paging metadata.
func MapPage[T, R any](page Page[T], fn func(T) R) Page[R] {
	out := make([]R, 0, len(page.Content))
	for _, item := range page.Content {
		out = append(out, fn(item))
	}
	return Page[R]{
		Content:       out,
		TotalElements: page.TotalElements,
		PageNumber:    page.PageNumber,
		PageSize:      page.PageSize,
	}
}
