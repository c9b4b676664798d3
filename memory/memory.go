// Package memory implements analyst.TableStore and analyst.MessageLog in
// process memory. It is not persistent and is meant for development and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/fwojciec/analyst"
)

// Interface compliance check.
var _ analyst.TableStore = (*TableStore)(nil)

// TableStore holds named tables of rows.
type TableStore struct {
	mu     sync.RWMutex
	tables map[string][]analyst.Row
}

// NewTableStore creates a TableStore seeded with tables. The rows are copied.
func NewTableStore(tables map[string][]analyst.Row) *TableStore {
	s := &TableStore{tables: make(map[string][]analyst.Row, len(tables))}
	for name, rows := range tables {
		s.Put(name, rows)
	}
	return s
}

// Put replaces the rows of table.
func (s *TableStore) Put(table string, rows []analyst.Row) {
	cp := make([]analyst.Row, len(rows))
	for i, r := range rows {
		cp[i] = maps.Clone(r)
	}
	s.mu.Lock()
	s.tables[table] = cp
	s.mu.Unlock()
}

// Select returns matching rows ordered and limited per q.
func (s *TableStore) Select(ctx context.Context, q analyst.Query) ([]analyst.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("memory: %w: %w", analyst.ErrStoreUnavailable, err)
	}
	rows, err := s.match(q)
	if err != nil {
		return nil, err
	}
	if q.OrderBy != nil {
		field, desc := q.OrderBy.Field, q.OrderBy.Direction == analyst.Desc
		slices.SortStableFunc(rows, func(a, b analyst.Row) int {
			c, ok := analyst.Compare(a[field], b[field])
			if !ok {
				// Missing values sort last in either direction.
				switch {
				case a[field] == nil && b[field] == nil:
					return 0
				case a[field] == nil:
					return 1
				default:
					return -1
				}
			}
			if desc {
				return -c
			}
			return c
		})
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	out := make([]analyst.Row, len(rows))
	for i, r := range rows {
		out[i] = project(r, q.Fields)
	}
	return out, nil
}

// Count returns the number of rows matching q's filters.
func (s *TableStore) Count(ctx context.Context, q analyst.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("memory: %w: %w", analyst.ErrStoreUnavailable, err)
	}
	rows, err := s.match(q)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *TableStore) match(q analyst.Query) ([]analyst.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.tables[q.Table]
	if !ok {
		return nil, fmt.Errorf("memory: table %q: %w", q.Table, analyst.ErrNotFound)
	}
	var out []analyst.Row
	for _, r := range table {
		if matches(r, q) {
			out = append(out, r)
		}
	}
	return out, nil
}

func matches(r analyst.Row, q analyst.Query) bool {
	for field, want := range q.Where {
		c, ok := analyst.Compare(r[field], want)
		if !ok || c != 0 {
			return false
		}
	}
	for field, rng := range q.Ranges {
		if !rng.Matches(r[field]) {
			return false
		}
	}
	return true
}

func project(r analyst.Row, fields []string) analyst.Row {
	if len(fields) == 0 {
		return maps.Clone(r)
	}
	out := make(analyst.Row, len(fields))
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}
