package synth

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/fwojciec/analyst"
)

const templateRows = 5

// Template renders data without a completer: every figure of a record, or
// the first rows of a row set, verbatim.
func Template(data analyst.Result, rowCount int) string {
	var b strings.Builder
	switch {
	case data.Record != nil:
		fmt.Fprintf(&b, "📊 Encontrei os dados solicitados (total de %d registros):\n", rowCount)
		for _, k := range slices.Sorted(maps.Keys(data.Record)) {
			fmt.Fprintf(&b, "- **%s** = **%s**\n", k, FormatValue(data.Record[k]))
		}
	case len(data.Rows) == 0:
		b.WriteString("📊 Não encontrei registros para essa consulta.\n")
	default:
		fmt.Fprintf(&b, "📊 Encontrei os dados solicitados (total de %d registros):\n", rowCount)
		for _, r := range data.Rows[:min(len(data.Rows), templateRows)] {
			parts := make([]string, 0, len(r))
			for _, k := range slices.Sorted(maps.Keys(r)) {
				parts = append(parts, fmt.Sprintf("%s: %s", k, FormatValue(r[k])))
			}
			fmt.Fprintf(&b, "- %s\n", strings.Join(parts, ", "))
		}
		if n := len(data.Rows) - templateRows; n > 0 {
			fmt.Fprintf(&b, "- … e mais %d\n", n)
		}
	}
	b.WriteString("\n💡 Posso detalhar esses números. O que mais gostaria de saber?")
	return b.String()
}

// FormatValue prints integers without decimals and other numbers with two.
func FormatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return "-"
	case string:
		return n
	case int, int32, int64, uint, uint64:
		return fmt.Sprint(n)
	}
	if f, ok := analyst.Float(v); ok {
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return fmt.Sprintf("%.0f", f)
		}
		return fmt.Sprintf("%.2f", f)
	}
	return fmt.Sprint(v)
}
