package domain

import (
	"fmt"
	"strings"
)

// Paging defaults and limits.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest selects one page of a listing.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize fills in defaults and rejects out-of-range values.
func (p PageRequest) Normalize() (PageRequest, error) {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Page < 1 {
		return p, fmt.Errorf("%w: page must be a positive integer", ErrValidation)
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return p, fmt.Errorf("%w: limit must be between 1 and %d", ErrValidation, MaxLimit)
	}
	return p, nil
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes the page returned with a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// Page is one page of results.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPage builds a Page, never returning a nil Data slice.
func NewPage[T any](data []T, req PageRequest, total int) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data:       data,
		Pagination: Pagination{Page: req.Page, Limit: req.Limit, Total: total},
	}
}

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// flashcardSortColumns whitelists the columns a flashcard listing may be sorted by.
var flashcardSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"front":      true,
	"back":       true,
}

// FlashcardFilter selects and orders a user's flashcards.
type FlashcardFilter struct {
	PageRequest
	Sort         string
	Order        string
	Source       *FlashcardSource
	GenerationID *int64
}

// Normalize applies defaults (created_at desc) and validates every field.
func (f FlashcardFilter) Normalize() (FlashcardFilter, error) {
	page, err := f.PageRequest.Normalize()
	if err != nil {
		return f, err
	}
	f.PageRequest = page

	if f.Sort == "" {
		f.Sort = "created_at"
	}
	if !flashcardSortColumns[f.Sort] {
		return f, fmt.Errorf("%w: sort must be one of created_at, updated_at, front, back", ErrValidation)
	}

	f.Order = strings.ToLower(f.Order)
	if f.Order == "" {
		f.Order = OrderDesc
	}
	if f.Order != OrderAsc && f.Order != OrderDesc {
		return f, fmt.Errorf("%w: order must be asc or desc", ErrValidation)
	}

	if f.Source != nil && !f.Source.Valid() {
		return f, fmt.Errorf("%w: unknown source %q", ErrValidation, *f.Source)
	}
	if f.GenerationID != nil && *f.GenerationID < 1 {
		return f, fmt.Errorf("%w: generation_id must be a positive integer", ErrValidation)
	}
	return f, nil
}
