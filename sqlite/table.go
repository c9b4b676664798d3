package sqlite

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fwojciec/analyst"
)

// Interface compliance check.
var _ analyst.TableStore = (*TableStore)(nil)

// TableStore answers query descriptors against tables of a [DB].
type TableStore struct {
	db *DB
}

// NewTableStore creates a TableStore over db.
func NewTableStore(db *DB) *TableStore {
	return &TableStore{db: db}
}

// Select returns the rows matching q.
func (s *TableStore) Select(ctx context.Context, q analyst.Query) ([]analyst.Row, error) {
	cols, err := s.columns(ctx, q.Table)
	if err != nil {
		return nil, err
	}
	fields := q.Fields
	if len(fields) == 0 {
		fields = cols
	}
	for _, f := range fields {
		if !slices.Contains(cols, f) {
			return nil, unknownColumn(q.Table, f)
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, f := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quote(f))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(quote(q.Table))
	args, err := where(&sb, q, cols)
	if err != nil {
		return nil, err
	}
	if o := q.OrderBy; o != nil {
		if !slices.Contains(cols, o.Field) {
			return nil, unknownColumn(q.Table, o.Field)
		}
		dir := "ASC"
		if o.Direction == analyst.Desc {
			dir = "DESC"
		}
		// NULLs last in either direction.
		fmt.Fprintf(&sb, " ORDER BY %s IS NULL, %s %s", quote(o.Field), quote(o.Field), dir)
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := s.db.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, storeErr(q.Table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, storeErr(q.Table, err)
	}
	out := []analyst.Row{}
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, storeErr(q.Table, err)
		}
		row := make(analyst.Row, len(names))
		for i, n := range names {
			row[n] = normalize(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(q.Table, err)
	}
	return out, nil
}

// Count returns the number of rows matching q's filters.
func (s *TableStore) Count(ctx context.Context, q analyst.Query) (int, error) {
	cols, err := s.columns(ctx, q.Table)
	if err != nil {
		return 0, err
	}
	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM ")
	sb.WriteString(quote(q.Table))
	args, err := where(&sb, q, cols)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.db.QueryRowContext(ctx, sb.String(), args...).Scan(&n); err != nil {
		return 0, storeErr(q.Table, err)
	}
	return n, nil
}

// columns returns the table's column names in declaration order.
func (s *TableStore) columns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, storeErr(table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storeErr(table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("sqlite: table %q: %w", table, analyst.ErrNotFound)
	}
	return cols, nil
}

// where appends the WHERE clause for q's filters and returns its arguments.
// Fields are emitted in sorted order so the statement text is stable.
func where(sb *strings.Builder, q analyst.Query, cols []string) ([]any, error) {
	var conds []string
	var args []any

	for _, f := range sortedKeys(q.Where) {
		if !slices.Contains(cols, f) {
			return nil, unknownColumn(q.Table, f)
		}
		if q.Where[f] == nil {
			conds = append(conds, quote(f)+" IS NULL")
			continue
		}
		conds = append(conds, quote(f)+" = ?")
		args = append(args, q.Where[f])
	}
	for _, f := range sortedKeys(q.Ranges) {
		if !slices.Contains(cols, f) {
			return nil, unknownColumn(q.Table, f)
		}
		r := q.Ranges[f]
		for _, b := range []struct {
			op string
			v  any
		}{{">", r.GT}, {">=", r.GTE}, {"<", r.LT}, {"<=", r.LTE}} {
			if b.v == nil {
				continue
			}
			conds = append(conds, quote(f)+" "+b.op+" ?")
			args = append(args, b.v)
		}
	}

	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	return args, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// quote returns ident as a double-quoted SQL identifier.
func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// normalize converts driver values into the types handlers reduce over.
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return v
}

func unknownColumn(table, field string) error {
	return fmt.Errorf("sqlite: table %q has no column %q: %w", table, field, analyst.ErrInvalidParameters)
}

func storeErr(table string, err error) error {
	return fmt.Errorf("sqlite: table %q: %w: %w", table, analyst.ErrStoreUnavailable, err)
}
