package service

import (
	"admin-service/internal/store"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Paged is one page of a listing
type Paged[T any] struct {
	Items       []T
	Total       int64
	Pages       int
	CurrentPage int
}

// NewPage clamps user supplied paging parameters. Values below 1 fall
// back to the defaults and per_page is capped at MaxPerPage.
func NewPage(page, perPage int) store.Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return store.Page{Number: page, PerSize: perPage}
}

func newPaged[T any](items []T, total int64, page store.Page) *Paged[T] {
	pages := 0
	if page.PerSize > 0 {
		pages = int((total + int64(page.PerSize) - 1) / int64(page.PerSize))
	}
	return &Paged[T]{
		Items:       items,
		Total:       total,
		Pages:       pages,
		CurrentPage: page.Number,
	}
}
