package analyst

import (
	"fmt"
	"strings"
)

// QueryKind selects how a handler turns parameters into store calls.
type QueryKind string

const (
	QuerySelect    QueryKind = "select"
	QueryCount     QueryKind = "count"
	QueryAggregate QueryKind = "aggregate"
	QueryFilter    QueryKind = "filter"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool { return d == Asc || d == Desc }

// OrderBy is a single sort key.
type OrderBy struct {
	Field     string
	Direction Direction
}

// ParseOrderBy parses "field", "field.desc", "field asc" or "-field".
func ParseOrderBy(s string) (*OrderBy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if field, ok := strings.CutPrefix(s, "-"); ok {
		return &OrderBy{Field: field, Direction: Desc}, nil
	}
	field, dir := s, Asc
	for _, sep := range []string{".", " ", ":"} {
		if i := strings.LastIndex(s, sep); i > 0 {
			field, dir = strings.TrimSpace(s[:i]), Direction(strings.ToLower(strings.TrimSpace(s[i+1:])))
			break
		}
	}
	if !dir.Valid() {
		return nil, fmt.Errorf("unknown order direction in %q: %w", s, ErrInvalidParameters)
	}
	return &OrderBy{Field: field, Direction: dir}, nil
}

// String renders the order in the "field.dir" form.
func (o OrderBy) String() string { return o.Field + "." + string(o.Direction) }

// AggregateOp is a reduce operator applied by a handler.
type AggregateOp string

const (
	OpSum   AggregateOp = "sum"
	OpAvg   AggregateOp = "avg"
	OpMin   AggregateOp = "min"
	OpMax   AggregateOp = "max"
	OpCount AggregateOp = "count"
)

// Valid reports whether op is a known operator.
func (op AggregateOp) Valid() bool {
	switch op {
	case OpSum, OpAvg, OpMin, OpMax, OpCount:
		return true
	}
	return false
}

// Range bounds a numeric or lexically ordered field. Nil bounds are open.
type Range struct {
	GT  any `json:"gt,omitempty"`
	GTE any `json:"gte,omitempty"`
	LT  any `json:"lt,omitempty"`
	LTE any `json:"lte,omitempty"`
}

// Empty reports whether no bound is set.
func (r Range) Empty() bool {
	return r.GT == nil && r.GTE == nil && r.LT == nil && r.LTE == nil
}

// QueryParameters are the structured parameters extracted from an utterance.
type QueryParameters struct {
	Kind         QueryKind
	Table        string
	Fields       []string
	Filters      map[string]any
	Ranges       map[string]Range
	Aggregations map[string]AggregateOp
	GroupBy      string
	OrderBy      *OrderBy
	Limit        int // 0 = handler default

	// Period1 and Period2 select the months compared by the period
	// specialist, formatted YYYY-MM. Empty selects the latest two.
	Period1 string
	Period2 string
}

// Row is a single record keyed by field name.
type Row map[string]any

// Query is the store-agnostic descriptor a handler sends to a TableStore.
// It never carries query-language text.
type Query struct {
	Table   string
	Fields  []string // empty = all fields
	Where   map[string]any
	Ranges  map[string]Range
	OrderBy *OrderBy
	Limit   int // 0 = unbounded
}
