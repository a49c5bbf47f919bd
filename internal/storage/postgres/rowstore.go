package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/storage"
)

// RowStore runs storage queries against postgres. Rows are serialized to
// JSON by the server so every table decodes the same way.
type RowStore struct {
	db *pgxpool.Pool
}

var _ storage.RowStore = (*RowStore)(nil)

func NewRowStore(db *pgxpool.Pool) *RowStore {
	return &RowStore{db: db}
}

func (r *RowStore) Select(ctx context.Context, q storage.Query) ([]storage.Row, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	query, args := buildSelect(q)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, queryFailed(err)
	}
	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, queryFailed(err)
	}

	out := make([]storage.Row, 0, len(docs))
	for _, d := range docs {
		out = append(out, storage.Row(d))
	}
	return out, nil
}

func (r *RowStore) Insert(ctx context.Context, table string, values storage.Values) (storage.Row, error) {
	cols := sortedColumns(values)
	if err := storage.CheckColumns(table, cols...); err != nil {
		return nil, err
	}
	query, args := buildInsert(table, cols, values)

	var doc []byte
	if err := r.db.QueryRow(ctx, query, args...).Scan(&doc); err != nil {
		return nil, queryFailed(err)
	}
	return storage.Row(doc), nil
}

func (r *RowStore) Upsert(ctx context.Context, table string, values storage.Values, conflict storage.Conflict) error {
	cols := sortedColumns(values)
	if err := storage.CheckColumns(table, cols...); err != nil {
		return err
	}
	if err := storage.CheckColumns(table, conflict.Columns...); err != nil {
		return err
	}
	if len(conflict.Columns) == 0 {
		return app_errors.QueryFailedf("upsert into %s needs conflict columns", table)
	}
	query, args := buildUpsert(table, cols, values, conflict)

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return queryFailed(err)
	}
	return nil
}

func (r *RowStore) Update(ctx context.Context, table string, values storage.Values, filters ...storage.Filter) (storage.Row, error) {
	cols := sortedColumns(values)
	if len(cols) == 0 {
		return nil, app_errors.QueryFailedf("update of %s has no columns", table)
	}
	if err := (storage.Query{Table: table, Columns: cols, Filters: filters}).Validate(); err != nil {
		return nil, err
	}
	query, args := buildUpdate(table, cols, values, filters)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, queryFailed(err)
	}
	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, queryFailed(err)
	}
	if len(docs) == 0 {
		return nil, app_errors.ErrNotFound
	}
	return storage.Row(docs[0]), nil
}

func (r *RowStore) Count(ctx context.Context, table string, filters ...storage.Filter) (int, error) {
	if err := (storage.Query{Table: table, Filters: filters}).Validate(); err != nil {
		return 0, err
	}
	query, args := buildCount(table, filters)

	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, queryFailed(err)
	}
	return n, nil
}

func queryFailed(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &app_errors.QueryFailedError{Message: pgErr.Message, Err: err}
	}
	return app_errors.QueryFailed(err)
}

func ident(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sortedColumns(values storage.Values) []string {
	cols := values.Columns()
	slices.Sort(cols)
	return cols
}

type argList []any

func (a *argList) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

// uuidColumns are the uuid-typed columns of the schema. Filters on them
// bind uuid parameters so the primary keys and foreign key indexes apply.
var uuidColumns = map[string]bool{
	"id":        true,
	"course_id": true,
	"module_id": true,
	"lesson_id": true,
	"user_id":   true,
}

// uuidArg parses a filter value for a uuid column. Values that are not
// uuids cannot match any row.
func uuidArg(v any) (uuid.UUID, bool) {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	return id, err == nil
}

func uuidArgs(keys []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(keys))
	for _, k := range keys {
		if id, ok := uuidArg(k); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func buildWhere(filters []storage.Filter, args *argList) string {
	if len(filters) == 0 {
		return ""
	}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		col := "t." + ident(f.Column)
		switch f.Op {
		case storage.OpIn:
			keys, _ := f.Value.([]string)
			if uuidColumns[f.Column] {
				parts = append(parts, fmt.Sprintf("%s = ANY(%s::uuid[])", col, args.add(uuidArgs(keys))))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s::text = ANY(%s)", col, args.add(f.Value)))
		case storage.OpGte:
			parts = append(parts, fmt.Sprintf("%s >= %s", col, args.add(f.Value)))
		case storage.OpLt:
			parts = append(parts, fmt.Sprintf("%s < %s", col, args.add(f.Value)))
		default:
			switch {
			case f.Value == nil:
				parts = append(parts, col+" IS NULL")
			case uuidColumns[f.Column]:
				id, ok := uuidArg(f.Value)
				if !ok {
					parts = append(parts, "FALSE")
					continue
				}
				parts = append(parts, fmt.Sprintf("%s = %s::uuid", col, args.add(id)))
			default:
				if _, ok := f.Value.(string); ok {
					parts = append(parts, fmt.Sprintf("%s::text = %s", col, args.add(f.Value)))
				} else {
					parts = append(parts, fmt.Sprintf("%s = %s", col, args.add(f.Value)))
				}
			}
		}
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

func buildSelect(q storage.Query) (string, []any) {
	var args argList

	projection := "to_json(t)"
	if len(q.Columns) > 0 {
		pairs := make([]string, 0, len(q.Columns))
		for _, c := range q.Columns {
			pairs = append(pairs, fmt.Sprintf("'%s', t.%s", c, ident(c)))
		}
		projection = "json_build_object(" + strings.Join(pairs, ", ") + ")"
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + projection + " FROM " + ident(q.Table) + " AS t")
	sb.WriteString(buildWhere(q.Filters, &args))
	if len(q.Order) > 0 {
		orders := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			orders = append(orders, "t."+ident(o.Column)+" "+dir)
		}
		sb.WriteString(" ORDER BY " + strings.Join(orders, ", "))
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}
	return sb.String(), args
}

func buildInsert(table string, cols []string, values storage.Values) (string, []any) {
	var args argList
	quoted := make([]string, 0, len(cols))
	params := make([]string, 0, len(cols))
	for _, c := range cols {
		quoted = append(quoted, ident(c))
		params = append(params, args.add(values[c]))
	}
	query := fmt.Sprintf("INSERT INTO %s AS t (%s) VALUES (%s) RETURNING to_json(t)",
		ident(table), strings.Join(quoted, ", "), strings.Join(params, ", "))
	return query, args
}

func buildUpsert(table string, cols []string, values storage.Values, conflict storage.Conflict) (string, []any) {
	insert, args := buildInsert(table, cols, values)
	insert = strings.TrimSuffix(insert, " RETURNING to_json(t)")

	target := make([]string, 0, len(conflict.Columns))
	for _, c := range conflict.Columns {
		target = append(target, ident(c))
	}

	var sets []string
	for _, c := range cols {
		if slices.Contains(conflict.Columns, c) {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", ident(c), ident(c)))
	}

	action := "DO NOTHING"
	if !conflict.IgnoreDuplicates && len(sets) > 0 {
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}
	return fmt.Sprintf("%s ON CONFLICT (%s) %s", insert, strings.Join(target, ", "), action), args
}

func buildUpdate(table string, cols []string, values storage.Values, filters []storage.Filter) (string, []any) {
	var args argList
	sets := make([]string, 0, len(cols))
	for _, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = %s", ident(c), args.add(values[c])))
	}
	where := buildWhere(filters, &args)
	return fmt.Sprintf("UPDATE %s AS t SET %s%s RETURNING to_json(t)",
		ident(table), strings.Join(sets, ", "), where), args
}

func buildCount(table string, filters []storage.Filter) (string, []any) {
	var args argList
	where := buildWhere(filters, &args)
	return "SELECT count(*) FROM " + ident(table) + " AS t" + where, args
}
