package analyst

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Float converts a row value to float64. Numeric strings are accepted because
// CSV-seeded and JSON-decoded values arrive as text or json.Number.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// Round2 rounds f to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Compare orders two row values: numerically when both are numbers, else by
// their string form. ok is false when either value is nil.
func Compare(a, b any) (cmp int, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}
	fa, aok := Float(a)
	fb, bok := Float(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	sa, sb := toString(a), toString(b)
	return strings.Compare(sa, sb), true
}

// Matches reports whether v satisfies every bound of r.
func (r Range) Matches(v any) bool {
	check := func(bound any, want func(int) bool) bool {
		if bound == nil {
			return true
		}
		c, ok := Compare(v, bound)
		return ok && want(c)
	}
	return check(r.GT, func(c int) bool { return c > 0 }) &&
		check(r.GTE, func(c int) bool { return c >= 0 }) &&
		check(r.LT, func(c int) bool { return c < 0 }) &&
		check(r.LTE, func(c int) bool { return c <= 0 })
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.Trim(string(b), `"`)
}
