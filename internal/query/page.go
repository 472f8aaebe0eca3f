package query

import (
	"context"

	"github.com/simp-lee/pagination"
)

// Aggregate is a count and sum over a filtered set. The zero value describes
// an empty set.
type Aggregate struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
}

// Store is the record-store contract the engine executes against. All
// methods are read-only and must apply the predicate identically.
type Store[T any] interface {
	Count(ctx context.Context, pred Predicate) (int64, error)
	Find(ctx context.Context, pred Predicate, sort []SortKey, offset, limit int) ([]T, error)
	Aggregate(ctx context.Context, pred Predicate, column string) (Aggregate, error)
}

// Pagination describes where a page sits in the filtered set.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// Page is one page of results.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// Result is a page together with the summary of the whole filtered set.
// Summary is nil when the schema declares no summary column.
type Result[T any] struct {
	Page[T]
	Summary *Aggregate
}

// NewPage converts a paginator result into a Page. An empty set has zero
// pages.
func NewPage[T any](p *pagination.Pagination[T]) *Page[T] {
	items := p.Items
	if items == nil {
		items = []T{}
	}

	totalPages := p.TotalPages
	if p.TotalItems == 0 {
		totalPages = 0
	}

	return &Page[T]{
		Items: items,
		Pagination: Pagination{
			CurrentPage: p.CurrentPage,
			PageSize:    p.ItemsPerPage,
			TotalPages:  totalPages,
			TotalCount:  p.TotalItems,
			HasNextPage: p.HasNextPage(),
			HasPrevPage: p.HasPreviousPage(),
		},
	}
}

// paginate fetches the page window of a Spec from a set of total rows. A page
// past the end is clamped to the last page.
func paginate[T any](ctx context.Context, store Store[T], spec Spec, pred Predicate, total int64) (*Page[T], error) {
	p, err := pagination.NewPaginator[T](
		pagination.WithItemsPerPage[T](spec.PageSize),
		pagination.WithKnownTotal[T](total),
		pagination.WithSliceCallback(func(ctx context.Context, offset, limit int) ([]T, error) {
			return store.Find(ctx, pred, spec.Sort, offset, limit)
		}),
	).Paginate(ctx, spec.Page)
	if err != nil {
		return nil, err
	}
	return NewPage(p), nil
}
