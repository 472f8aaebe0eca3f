package query

import (
	"context"
	"net/url"
)

// Engine executes validated specs for one resource type.
type Engine[T any] struct {
	store  Store[T]
	schema *Schema
}

// NewEngine creates an Engine over store for the given schema.
// Panics if store is nil or the schema is inconsistent.
func NewEngine[T any](store Store[T], schema *Schema) *Engine[T] {
	if store == nil {
		panic("query.NewEngine: store must not be nil")
	}
	if err := schema.Validate(); err != nil {
		panic("query.NewEngine: " + err.Error())
	}
	return &Engine[T]{store: store, schema: schema}
}

// Schema returns the schema the engine validates against.
func (e *Engine[T]) Schema() *Schema {
	return e.schema
}

// Build validates raw parameters against the engine's schema.
func (e *Engine[T]) Build(raw url.Values) (Spec, error) {
	return BuildSpec(raw, e.schema)
}

// Execute returns the requested page. Filters are applied first, then the
// sort, then the page window. The page window is computed once the filtered
// count is known, so a page past the end resolves to the last page.
func (e *Engine[T]) Execute(ctx context.Context, spec Spec, extra ...Condition) (*Page[T], error) {
	pred := spec.Predicate(extra...)

	total, err := e.store.Count(ctx, pred)
	if err != nil {
		return nil, err
	}
	return paginate(ctx, e.store, spec, pred, total)
}

// Summarize returns the count and the sum of column over every row matching
// the Spec's filters, ignoring pagination.
func (e *Engine[T]) Summarize(ctx context.Context, spec Spec, column string, extra ...Condition) (Aggregate, error) {
	return e.store.Aggregate(ctx, spec.Predicate(extra...), column)
}

// List returns the requested page together with the summary of the whole
// filtered set. When the schema declares a summary column, the total count
// is taken from the same aggregate statement as the sum, so the pagination
// totals and the summary can never disagree.
func (e *Engine[T]) List(ctx context.Context, spec Spec, extra ...Condition) (*Result[T], error) {
	if e.schema.SummaryColumn == "" {
		page, err := e.Execute(ctx, spec, extra...)
		if err != nil {
			return nil, err
		}
		return &Result[T]{Page: *page}, nil
	}

	pred := spec.Predicate(extra...)

	agg, err := e.store.Aggregate(ctx, pred, e.schema.SummaryColumn)
	if err != nil {
		return nil, err
	}
	page, err := paginate(ctx, e.store, spec, pred, agg.Count)
	if err != nil {
		return nil, err
	}
	return &Result[T]{Page: *page, Summary: &agg}, nil
}
