// Package query turns client-supplied list parameters into validated,
// schema-checked query specs and executes them against a record store,
// returning a page of results together with an aggregate summary computed
// over the same filtered set.
package query

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
)

// Kind is the value type accepted by a filter field.
type Kind int

// Filter kinds.
const (
	// KindString matches the column exactly.
	KindString Kind = iota
	// KindEnum uppercases the value; values outside Enum match nothing.
	KindEnum
	// KindID requires a well-formed record identifier.
	KindID
	// KindNumber requires a decimal number.
	KindNumber
	// KindTime requires an RFC 3339 timestamp or a YYYY-MM-DD date.
	KindTime
	// KindSearch is a case-insensitive substring match across Columns.
	KindSearch
)

// FilterField declares one recognized filter parameter.
type FilterField struct {
	Column  string
	Kind    Kind
	Op      Op
	Enum    []string
	Columns []string
}

// Schema declares the recognized list options of one resource type.
type Schema struct {
	Resource        string
	Filters         map[string]FilterField
	Sorts           map[string]string // API field name -> column
	DefaultSort     string
	DefaultDesc     bool
	DefaultPageSize int
	MaxPageSize     int
	SummaryColumn   string
}

// validColumn matches only plain identifiers so that schema columns can be
// interpolated into SQL.
var validColumn = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks that the schema is internally consistent.
func (s *Schema) Validate() error {
	if s == nil {
		return fmt.Errorf("schema is nil")
	}
	if s.DefaultPageSize < 1 {
		return fmt.Errorf("%s: default page size must be positive", s.Resource)
	}
	if s.MaxPageSize < s.DefaultPageSize {
		return fmt.Errorf("%s: max page size %d is below default %d", s.Resource, s.MaxPageSize, s.DefaultPageSize)
	}
	if _, ok := s.Sorts[s.DefaultSort]; !ok {
		return fmt.Errorf("%s: default sort %q is not a sort field", s.Resource, s.DefaultSort)
	}
	for name, col := range s.Sorts {
		if !validColumn.MatchString(col) {
			return fmt.Errorf("%s: sort %q has invalid column %q", s.Resource, name, col)
		}
	}
	for name, f := range s.Filters {
		cols := []string{f.Column}
		if f.Kind == KindSearch {
			cols = f.Columns
			if len(cols) == 0 {
				return fmt.Errorf("%s: search filter %q has no columns", s.Resource, name)
			}
		}
		for _, col := range cols {
			if !validColumn.MatchString(col) {
				return fmt.Errorf("%s: filter %q has invalid column %q", s.Resource, name, col)
			}
		}
		if f.Kind == KindEnum && len(f.Enum) == 0 {
			return fmt.Errorf("%s: enum filter %q has no values", s.Resource, name)
		}
	}
	if s.SummaryColumn != "" && !validColumn.MatchString(s.SummaryColumn) {
		return fmt.Errorf("%s: invalid summary column %q", s.Resource, s.SummaryColumn)
	}
	return nil
}

// WithPageSizes returns a copy of s using the given default and maximum page
// sizes. Non-positive values keep the schema's own setting.
func (s Schema) WithPageSizes(defaultSize, maxSize int) *Schema {
	if defaultSize > 0 {
		s.DefaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.MaxPageSize = maxSize
	}
	if s.DefaultPageSize > s.MaxPageSize {
		s.DefaultPageSize = s.MaxPageSize
	}
	return &s
}

// sortNames returns the recognized sort field names in a stable order.
func (s *Schema) sortNames() []string {
	return slices.Sorted(maps.Keys(s.Sorts))
}

// filterNames returns the recognized filter names in a stable order.
func (s *Schema) filterNames() []string {
	return slices.Sorted(maps.Keys(s.Filters))
}
