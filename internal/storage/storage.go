// Package storage defines the row store that repositories talk to. The
// postgres and memory packages implement it.
package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
)

// Row is one table row encoded as a JSON object.
type Row = json.RawMessage

// Values maps column names to values for inserts and updates.
type Values map[string]any

type Op string

const (
	OpEq  Op = "eq"
	OpIn  Op = "in"
	OpGte Op = "gte"
	OpLt  Op = "lt"
)

type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq matches column = value. String values compare against the column's text form.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// In matches column against any of keys, compared as text.
func In(column string, keys []string) Filter {
	return Filter{Column: column, Op: OpIn, Value: keys}
}

func Gte(column string, t time.Time) Filter {
	return Filter{Column: column, Op: OpGte, Value: t}
}

func Lt(column string, t time.Time) Filter {
	return Filter{Column: column, Op: OpLt, Value: t}
}

type Order struct {
	Column string
	Desc   bool
}

func Asc(column string) Order  { return Order{Column: column} }
func Desc(column string) Order { return Order{Column: column, Desc: true} }

type Query struct {
	Table   string
	Columns []string
	Filters []Filter
	Order   []Order
	Limit   int
}

// Conflict names the unique columns of an upsert. With IgnoreDuplicates an
// existing row is left untouched, otherwise it is overwritten.
type Conflict struct {
	Columns          []string
	IgnoreDuplicates bool
}

type RowStore interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, values Values) (Row, error)
	Upsert(ctx context.Context, table string, values Values, conflict Conflict) error
	// Update returns the first updated row and app_errors.ErrNotFound when nothing matched.
	Update(ctx context.Context, table string, values Values, filters ...Filter) (Row, error)
	Count(ctx context.Context, table string, filters ...Filter) (int, error)
}

// Decode unmarshals rows into typed records.
func Decode[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, app_errors.QueryFailedf("decode row: %v", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func DecodeOne[T any](row Row) (T, error) {
	var v T
	if err := json.Unmarshal(row, &v); err != nil {
		return v, app_errors.QueryFailedf("decode row: %v", err)
	}
	return v, nil
}

type unavailable struct{}

// Unavailable is the store used when no backend is configured. Every call
// fails with app_errors.ErrBackendUnavailable.
func Unavailable() RowStore {
	return unavailable{}
}

func (unavailable) Select(context.Context, Query) ([]Row, error) {
	return nil, app_errors.ErrBackendUnavailable
}

func (unavailable) Insert(context.Context, string, Values) (Row, error) {
	return nil, app_errors.ErrBackendUnavailable
}

func (unavailable) Upsert(context.Context, string, Values, Conflict) error {
	return app_errors.ErrBackendUnavailable
}

func (unavailable) Update(context.Context, string, Values, ...Filter) (Row, error) {
	return nil, app_errors.ErrBackendUnavailable
}

func (unavailable) Count(context.Context, string, ...Filter) (int, error) {
	return 0, app_errors.ErrBackendUnavailable
}

// Validate checks a query against the schema before it reaches a backend.
func (q Query) Validate() error {
	if err := CheckColumns(q.Table, q.Columns...); err != nil {
		return err
	}
	for _, f := range q.Filters {
		if err := CheckColumns(q.Table, f.Column); err != nil {
			return err
		}
	}
	for _, o := range q.Order {
		if err := CheckColumns(q.Table, o.Column); err != nil {
			return err
		}
	}
	if q.Limit < 0 {
		return app_errors.QueryFailedf("negative limit %d", q.Limit)
	}
	return nil
}

func (v Values) Columns() []string {
	cols := make([]string, 0, len(v))
	for c := range v {
		cols = append(cols, c)
	}
	return cols
}
