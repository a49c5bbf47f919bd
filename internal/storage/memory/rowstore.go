// Package memory is a RowStore kept in process memory. Tests use it, and
// the server falls back to a read-only instance seeded from a fixture when
// no database is configured.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/storage"
)

type record map[string]any

type RowStore struct {
	mu       sync.RWMutex
	tables   map[string][]record
	readOnly bool
	now      func() time.Time
}

var _ storage.RowStore = (*RowStore)(nil)

type Option func(*RowStore)

// ReadOnly makes every write fail with app_errors.ErrBackendUnavailable.
func ReadOnly() Option {
	return func(s *RowStore) { s.readOnly = true }
}

func WithClock(now func() time.Time) Option {
	return func(s *RowStore) { s.now = now }
}

func New(opts ...Option) *RowStore {
	s := &RowStore{tables: make(map[string][]record), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// unique lists columns that must not repeat, besides the primary key.
var unique = map[string][][]string{
	storage.TableCourses:        {{"slug"}},
	storage.TableUsers:          {{"email"}},
	storage.TableCourseProgress: {{"user_id", "course_id"}},
	storage.TableLessonProgress: {{"user_id", "lesson_id"}},
}

// Seed inserts rows as given, skipping defaults and read-only checks.
func (s *RowStore) Seed(table string, rows ...storage.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range rows {
		if err := storage.CheckColumns(table, v.Columns()...); err != nil {
			return err
		}
		rec, err := normalize(v)
		if err != nil {
			return err
		}
		s.tables[table] = append(s.tables[table], rec)
	}
	return nil
}

type fixture struct {
	Tables map[string][]map[string]any `yaml:"tables"`
}

// LoadFixture seeds the store from a YAML file of the form
// `tables: {courses: [{id: ..., title: ...}], ...}`.
func (s *RowStore) LoadFixture(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}
	for table, rows := range f.Tables {
		values := make([]storage.Values, 0, len(rows))
		for _, r := range rows {
			values = append(values, storage.Values(r))
		}
		if err := s.Seed(table, values...); err != nil {
			return fmt.Errorf("seed %s: %w", table, err)
		}
	}
	return nil
}

func (s *RowStore) Select(ctx context.Context, q storage.Query) ([]storage.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, app_errors.QueryFailed(err)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var matched []record
	for _, rec := range s.tables[q.Table] {
		ok, err := matches(rec, q.Filters)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		if ok {
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	if len(q.Order) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, o := range q.Order {
				c := compare(matched[i][o.Column], matched[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]storage.Row, 0, len(matched))
	for _, rec := range matched {
		row, err := project(rec, q.Columns)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *RowStore) Insert(ctx context.Context, table string, values storage.Values) (storage.Row, error) {
	if err := s.writable(ctx); err != nil {
		return nil, err
	}
	if err := storage.CheckColumns(table, values.Columns()...); err != nil {
		return nil, err
	}
	rec, err := normalize(values)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyDefaults(table, rec)
	if err := s.checkUnique(table, rec, -1); err != nil {
		return nil, err
	}
	s.tables[table] = append(s.tables[table], rec)
	return project(rec, nil)
}

func (s *RowStore) Upsert(ctx context.Context, table string, values storage.Values, conflict storage.Conflict) error {
	if err := s.writable(ctx); err != nil {
		return err
	}
	if err := storage.CheckColumns(table, values.Columns()...); err != nil {
		return err
	}
	if len(conflict.Columns) == 0 {
		return app_errors.QueryFailedf("upsert into %s needs conflict columns", table)
	}
	rec, err := normalize(values)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.tables[table] {
		if !sameOn(existing, rec, conflict.Columns) {
			continue
		}
		if conflict.IgnoreDuplicates {
			return nil
		}
		merged := clone(existing)
		for k, v := range rec {
			merged[k] = v
		}
		if err := s.checkUnique(table, merged, i); err != nil {
			return err
		}
		s.tables[table][i] = merged
		return nil
	}

	s.applyDefaults(table, rec)
	if err := s.checkUnique(table, rec, -1); err != nil {
		return err
	}
	s.tables[table] = append(s.tables[table], rec)
	return nil
}

func (s *RowStore) Update(ctx context.Context, table string, values storage.Values, filters ...storage.Filter) (storage.Row, error) {
	if err := s.writable(ctx); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, app_errors.QueryFailedf("update of %s has no columns", table)
	}
	if err := (storage.Query{Table: table, Columns: values.Columns(), Filters: filters}).Validate(); err != nil {
		return nil, err
	}
	changes, err := normalize(values)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var first record
	for i, rec := range s.tables[table] {
		ok, err := matches(rec, filters)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		updated := clone(rec)
		for k, v := range changes {
			updated[k] = v
		}
		if err := s.checkUnique(table, updated, i); err != nil {
			return nil, err
		}
		s.tables[table][i] = updated
		if first == nil {
			first = updated
		}
	}
	if first == nil {
		return nil, app_errors.ErrNotFound
	}
	return project(first, nil)
}

func (s *RowStore) Count(ctx context.Context, table string, filters ...storage.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, app_errors.QueryFailed(err)
	}
	if err := (storage.Query{Table: table, Filters: filters}).Validate(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, rec := range s.tables[table] {
		ok, err := matches(rec, filters)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (s *RowStore) writable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return app_errors.QueryFailed(err)
	}
	if s.readOnly {
		return fmt.Errorf("%w: %w", app_errors.ErrBackendUnavailable, app_errors.ErrReadOnly)
	}
	return nil
}

func (s *RowStore) applyDefaults(table string, rec record) {
	now := s.now().UTC().Format(time.RFC3339Nano)
	cols := storage.Schema[table]
	setIfMissing := func(col string, v any) {
		if !slices.Contains(cols, col) {
			return
		}
		if _, ok := rec[col]; !ok {
			rec[col] = v
		}
	}
	setIfMissing("id", uuid.NewString())
	setIfMissing("created_at", now)
	setIfMissing("updated_at", now)
	setIfMissing("started_at", now)
	setIfMissing("completed", false)
	setIfMissing("ordinal", float64(0))
	if table == storage.TableUsers {
		setIfMissing("role", models.StudentRole)
	}
}

func (s *RowStore) checkUnique(table string, rec record, skip int) error {
	keys := unique[table]
	if storage.TableHasID(table) {
		keys = append([][]string{{"id"}}, keys...)
	}
	for i, other := range s.tables[table] {
		if i == skip {
			continue
		}
		for _, cols := range keys {
			if sameOn(other, rec, cols) {
				return app_errors.QueryFailedf("duplicate key value violates unique constraint on %s %v", table, cols)
			}
		}
	}
	return nil
}

// normalize turns typed values into their JSON shapes so stored records
// match what the postgres store returns.
func normalize(values storage.Values) (record, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return nil, app_errors.QueryFailedf("encode values: %v", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, app_errors.QueryFailedf("encode values: %v", err)
	}
	return rec, nil
}

func project(rec record, cols []string) (storage.Row, error) {
	src := rec
	if len(cols) > 0 {
		src = make(record, len(cols))
		for _, c := range cols {
			src[c] = rec[c]
		}
	}
	data, err := json.Marshal(src)
	if err != nil {
		return nil, app_errors.QueryFailedf("encode row: %v", err)
	}
	return storage.Row(data), nil
}

func clone(rec record) record {
	out := make(record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func sameOn(a, b record, cols []string) bool {
	for _, c := range cols {
		av, aok := a[c]
		bv, bok := b[c]
		if !aok || !bok || av == nil || bv == nil {
			return false
		}
		if text(av) != text(bv) {
			return false
		}
	}
	return true
}

func matches(rec record, filters []storage.Filter) (bool, error) {
	for _, f := range filters {
		v := rec[f.Column]
		switch f.Op {
		case storage.OpEq:
			if f.Value == nil {
				if v != nil {
					return false, nil
				}
				continue
			}
			want, err := normalizeValue(f.Value)
			if err != nil {
				return false, err
			}
			if v == nil || text(v) != text(want) {
				return false, nil
			}
		case storage.OpIn:
			keys, ok := f.Value.([]string)
			if !ok {
				return false, app_errors.QueryFailedf("in filter on %s needs string keys", f.Column)
			}
			if v == nil || !slices.Contains(keys, text(v)) {
				return false, nil
			}
		case storage.OpGte, storage.OpLt:
			want, err := normalizeValue(f.Value)
			if err != nil {
				return false, err
			}
			if v == nil {
				return false, nil
			}
			c := compare(v, want)
			if f.Op == storage.OpGte && c < 0 || f.Op == storage.OpLt && c >= 0 {
				return false, nil
			}
		default:
			return false, app_errors.QueryFailedf("unsupported filter %q", f.Op)
		}
	}
	return true, nil
}

func normalizeValue(v any) (any, error) {
	rec, err := normalize(storage.Values{"v": v})
	if err != nil {
		return nil, err
	}
	return rec["v"], nil
}

// text is the comparison form of a stored value; ids go through models.ID.Key.
func text(v any) string {
	switch x := v.(type) {
	case string:
		return models.ID(x).Key()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// compare orders two stored values. Nulls sort last, as in postgres.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	if af, ok := a.(float64); ok {
		if bf, ok := b.(float64); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			}
			return 1
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	if at, err := time.Parse(time.RFC3339Nano, as); err == nil {
		if bt, err := time.Parse(time.RFC3339Nano, bs); err == nil {
			return at.Compare(bt)
		}
	}
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}
