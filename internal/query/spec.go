package query

import (
	"errors"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/simp-lee/vendorpay/internal/domain"
)

// Op is the comparison a condition applies.
type Op string

// Supported operators.
const (
	OpEq       Op = "="
	OpGte      Op = ">="
	OpLte      Op = "<="
	OpContains Op = "contains"
	// OpNever matches no rows at all.
	OpNever Op = "never"
)

// Condition is one conjunct of a filter predicate.
type Condition struct {
	Column  string
	Columns []string
	Op      Op
	Value   any
}

// Eq returns an equality condition on column.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Op: OpEq, Value: value}
}

// Predicate is the conjunction of its conditions. An empty predicate matches
// every row.
type Predicate []Condition

// SortKey is one ORDER BY term.
type SortKey struct {
	Field  string `json:"field"`
	Column string `json:"-"`
	Desc   bool   `json:"desc"`
}

// Spec is the normalized, validated form of a list request.
type Spec struct {
	Page       int
	PageSize   int
	Sort       []SortKey
	Filters    map[string]string
	Search     string
	Conditions []Condition
}

// Predicate combines a Spec's own conditions with extra route-scoped ones.
func (s Spec) Predicate(extra ...Condition) Predicate {
	p := make(Predicate, 0, len(s.Conditions)+len(extra))
	p = append(p, s.Conditions...)
	p = append(p, extra...)
	return p
}

const (
	paramPage      = "page"
	paramSortBy    = "sortBy"
	paramSortOrder = "sortOrder"
)

// pageSizeParams are accepted spellings of the page size parameter, in
// precedence order.
var pageSizeParams = []string{"limit", "pageSize", "page_size"}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// BuildSpec validates raw query parameters against schema.
//
// Every malformed value is reported in a single validation error; nothing is
// returned partially. Parameters the schema does not recognize are ignored.
// Out-of-range page numbers and sizes are clamped rather than rejected.
func BuildSpec(raw url.Values, schema *Schema) (Spec, error) {
	var details []domain.FieldError
	fail := func(field, value, msg string) {
		details = append(details, domain.FieldError{Field: field, Value: value, Message: msg})
	}

	spec := Spec{
		Page:     1,
		PageSize: schema.DefaultPageSize,
		Filters:  make(map[string]string),
	}

	if v := strings.TrimSpace(raw.Get(paramPage)); v != "" {
		if n, ok := parseBoundedInt(v); !ok {
			fail(paramPage, v, "must be an integer")
		} else {
			spec.Page = max(n, 1)
		}
	}

	for _, name := range pageSizeParams {
		v := strings.TrimSpace(raw.Get(name))
		if v == "" {
			continue
		}
		if n, ok := parseBoundedInt(v); !ok {
			fail(name, v, "must be an integer")
		} else {
			spec.PageSize = min(max(n, 1), schema.MaxPageSize)
		}
		break
	}
	// The row offset of the last representable page must fit in an int.
	spec.Page = min(spec.Page, math.MaxInt/spec.PageSize)

	sortField := schema.DefaultSort
	desc := schema.DefaultDesc
	if v := strings.TrimSpace(raw.Get(paramSortBy)); v != "" {
		if _, ok := schema.Sorts[v]; ok {
			sortField = v
			desc = true
		} else {
			fail(paramSortBy, v, "must be one of: "+strings.Join(schema.sortNames(), ", "))
		}
	}
	if v := strings.TrimSpace(raw.Get(paramSortOrder)); v != "" {
		switch strings.ToLower(v) {
		case "asc":
			desc = false
		case "desc":
			desc = true
		default:
			fail(paramSortOrder, v, "must be one of: asc, desc")
		}
	}
	spec.Sort = []SortKey{{Field: sortField, Column: schema.Sorts[sortField], Desc: desc}}

	for _, name := range schema.filterNames() {
		v := strings.TrimSpace(raw.Get(name))
		if v == "" {
			continue
		}
		f := schema.Filters[name]
		cond, normalized, msg := compileFilter(f, v)
		if msg != "" {
			fail(name, v, msg)
			continue
		}
		spec.Filters[name] = normalized
		spec.Conditions = append(spec.Conditions, cond)
		if f.Kind == KindSearch {
			spec.Search = normalized
		}
	}

	if len(details) > 0 {
		return Spec{}, domain.NewValidationError(details)
	}
	return spec, nil
}

// parseBoundedInt parses an integer, saturating values beyond the int range
// at the nearest bound. ok is false for non-integer input.
func parseBoundedInt(v string) (n int, ok bool) {
	n, err := strconv.Atoi(v)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return n, true
}

// compileFilter converts one raw filter value into a condition. A non-empty
// msg reports a type mismatch.
func compileFilter(f FilterField, v string) (cond Condition, normalized, msg string) {
	op := f.Op
	if op == "" {
		op = OpEq
	}

	switch f.Kind {
	case KindEnum:
		upper := strings.ToUpper(v)
		if !slices.Contains(f.Enum, upper) {
			return Condition{Column: f.Column, Op: OpNever}, upper, ""
		}
		return Condition{Column: f.Column, Op: OpEq, Value: upper}, upper, ""
	case KindID:
		if !domain.IsValidID(v) {
			return Condition{}, "", "must be a valid id"
		}
		return Condition{Column: f.Column, Op: OpEq, Value: v}, v, ""
	case KindNumber:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return Condition{}, "", "must be a number"
		}
		return Condition{Column: f.Column, Op: op, Value: n}, strconv.FormatFloat(n, 'f', -1, 64), ""
	case KindTime:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return Condition{Column: f.Column, Op: op, Value: t.UTC()}, t.UTC().Format(time.RFC3339), ""
			}
		}
		return Condition{}, "", "must be an RFC 3339 timestamp or a YYYY-MM-DD date"
	case KindSearch:
		return Condition{Columns: f.Columns, Op: OpContains, Value: strings.ToLower(v)}, v, ""
	default:
		return Condition{Column: f.Column, Op: op, Value: v}, v, ""
	}
}
