package specialist

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/fwojciec/analyst"
)

// AggregateKey names the output key of op applied to field.
func AggregateKey(field string, op analyst.AggregateOp) string {
	return field + "_" + string(op)
}

// Reduce applies every aggregation to rows and returns a single record.
// Aggregation runs here rather than in the store: the handler owns the
// trust boundary for computed figures. Nil and non-numeric values are
// skipped; a field with no numeric values yields no key, except for count.
func Reduce(rows []analyst.Row, aggs map[string]analyst.AggregateOp) analyst.Row {
	out := make(analyst.Row, len(aggs))
	for field, op := range aggs {
		if v, ok := reduceField(rows, field, op); ok {
			out[AggregateKey(field, op)] = v
		}
	}
	return out
}

func reduceField(rows []analyst.Row, field string, op analyst.AggregateOp) (any, bool) {
	if op == analyst.OpCount {
		n := 0
		for _, r := range rows {
			if r[field] != nil {
				n++
			}
		}
		return n, true
	}

	var (
		n      int
		sum    float64
		lo, hi = math.Inf(1), math.Inf(-1)
	)
	for _, r := range rows {
		f, ok := analyst.Float(r[field])
		if !ok {
			continue
		}
		n++
		sum += f
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	if n == 0 {
		return nil, false
	}
	switch op {
	case analyst.OpSum:
		return analyst.Round2(sum), true
	case analyst.OpAvg:
		return analyst.Round2(sum / float64(n)), true
	case analyst.OpMin:
		return analyst.Round2(lo), true
	case analyst.OpMax:
		return analyst.Round2(hi), true
	}
	return nil, false
}

// Group partitions rows by the value of field, in order of first
// appearance, and reduces each partition. Every output row carries the
// group value under field and the partition size under countKey.
func Group(rows []analyst.Row, field string, aggs map[string]analyst.AggregateOp, countKey string) []analyst.Row {
	var (
		keys  []string
		parts = make(map[string][]analyst.Row)
		vals  = make(map[string]any)
	)
	for _, r := range rows {
		v := r[field]
		if v == nil {
			v = "unknown"
		}
		k := fmt.Sprint(v)
		if _, ok := parts[k]; !ok {
			keys = append(keys, k)
			vals[k] = v
		}
		parts[k] = append(parts[k], r)
	}

	out := make([]analyst.Row, 0, len(keys))
	for _, k := range keys {
		row := Reduce(parts[k], aggs)
		row[field] = vals[k]
		if countKey != "" {
			row[countKey] = len(parts[k])
		}
		out = append(out, row)
	}
	return out
}

// SortRows orders rows by key in place. Rows missing the key sort last.
func SortRows(rows []analyst.Row, key string, dir analyst.Direction) {
	slices.SortStableFunc(rows, func(a, b analyst.Row) int {
		c, ok := analyst.Compare(a[key], b[key])
		if !ok {
			return cmp.Compare(missing(a[key]), missing(b[key]))
		}
		if dir == analyst.Desc {
			return -c
		}
		return c
	})
}

func missing(v any) int {
	if v == nil {
		return 1
	}
	return 0
}

// orderKey maps an order field onto the aggregated output: a field that was
// aggregated sorts by its aggregate key.
func orderKey(field string, aggs map[string]analyst.AggregateOp) string {
	if op, ok := aggs[field]; ok {
		return AggregateKey(field, op)
	}
	return field
}
