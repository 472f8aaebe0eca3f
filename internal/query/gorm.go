package query

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// tieBreakers are appended to every ORDER BY so that rows sharing a sort key
// come back in a reproducible order, newest first.
var tieBreakers = []SortKey{
	{Field: "createdAt", Column: "created_at", Desc: true},
	{Field: "id", Column: "id", Desc: true},
}

type preload struct {
	query string
	args  []any
}

// GormStore implements Store for the model T using GORM.
type GormStore[T any] struct {
	db       *gorm.DB
	preloads []preload
}

// GormOption configures a GormStore.
type GormOption func(*gormOptions)

type gormOptions struct {
	preloads []preload
}

// WithPreload eagerly loads the named association on every Find.
func WithPreload(query string, args ...any) GormOption {
	return func(o *gormOptions) {
		o.preloads = append(o.preloads, preload{query: query, args: args})
	}
}

// NewGormStore creates a Store backed by db.
func NewGormStore[T any](db *gorm.DB, opts ...GormOption) *GormStore[T] {
	var o gormOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &GormStore[T]{db: db, preloads: o.preloads}
}

// Count returns the number of rows matching pred.
func (s *GormStore[T]) Count(ctx context.Context, pred Predicate) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(new(T)).Scopes(Where(pred)).Count(&total).Error
	return total, err
}

// Find returns the rows matching pred, ordered by sort, skipping offset rows
// and returning at most limit rows.
func (s *GormStore[T]) Find(ctx context.Context, pred Predicate, sort []SortKey, offset, limit int) ([]T, error) {
	q := s.db.WithContext(ctx).Model(new(T))
	for _, p := range s.preloads {
		q = q.Preload(p.query, p.args...)
	}

	var items []T
	err := q.Scopes(Where(pred), OrderBy(sort), Paginate(offset, limit)).Find(&items).Error
	return items, err
}

// Aggregate returns the count of rows matching pred and the sum of column
// over them.
func (s *GormStore[T]) Aggregate(ctx context.Context, pred Predicate, column string) (Aggregate, error) {
	var row struct {
		Count int64   `gorm:"column:row_count"`
		Sum   float64 `gorm:"column:row_sum"`
	}
	err := s.db.WithContext(ctx).Model(new(T)).
		Scopes(Where(pred)).
		Select("COUNT(*) AS row_count, COALESCE(SUM(" + column + "), 0) AS row_sum").
		Scan(&row).Error
	if err != nil {
		return Aggregate{}, err
	}
	return Aggregate{Count: row.Count, Sum: row.Sum}, nil
}

// Where returns a GORM scope applying every condition of pred.
// Column names come from schemas, never from request input.
func Where(pred Predicate) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, c := range pred {
			switch c.Op {
			case OpNever:
				db = db.Where("1 = 0")
			case OpContains:
				pattern := "%" + escapeLike(c.Value.(string)) + "%"
				clauses := make([]string, len(c.Columns))
				args := make([]any, len(c.Columns))
				for i, col := range c.Columns {
					clauses[i] = "LOWER(" + col + ") LIKE ? ESCAPE '\\'"
					args[i] = pattern
				}
				db = db.Where("("+strings.Join(clauses, " OR ")+")", args...)
			case OpGte, OpLte, OpEq:
				db = db.Where(c.Column+" "+string(c.Op)+" ?", c.Value)
			}
		}
		return db
	}
}

// OrderBy returns a GORM scope applying sort followed by the tie-breakers.
func OrderBy(sort []SortKey) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		seen := make(map[string]bool, len(sort)+len(tieBreakers))
		for _, k := range append(append([]SortKey{}, sort...), tieBreakers...) {
			if seen[k.Column] {
				continue
			}
			seen[k.Column] = true
			dir := " ASC"
			if k.Desc {
				dir = " DESC"
			}
			db = db.Order(k.Column + dir)
		}
		return db
	}
}

// Paginate returns a GORM scope applying OFFSET and LIMIT.
func Paginate(offset, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(offset).Limit(limit)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
