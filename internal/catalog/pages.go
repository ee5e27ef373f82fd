package catalog

import "fmt"

// PageSize is the fixed number of rows on every listing page.
const PageSize = 10

// Page is one window of an ordered listing.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	LastPage int   `json:"last_page"`
}

// window normalises a requested page number and returns the limit and
// offset to query with.
func window(page int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	return page, PageSize, (page - 1) * PageSize
}

func lastPage(total int64) int {
	if total <= 0 {
		return 1
	}
	return int((total + PageSize - 1) / PageSize)
}

// newPage wraps a query result. The first page always exists; any page past
// the last one is ErrNotFound.
func newPage[T any](items []T, page int, total int64) (*Page[T], error) {
	last := lastPage(total)
	if page > last {
		return nil, fmt.Errorf("page %d of %d: %w", page, last, ErrNotFound)
	}
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:    items,
		Page:     page,
		PageSize: PageSize,
		Total:    total,
		LastPage: last,
	}, nil
}
