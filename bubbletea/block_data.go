package bubbletea

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/analyst"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

var _ MessageBlock = (*DataBlock)(nil)

const (
	maxPreviewRows = 8
	maxCellWidth   = 24
	columnGap      = "  "
)

// DataBlock renders a collapsible preview of a handler result: a table of
// rows, or key/value lines for a single record. It starts expanded.
type DataBlock struct {
	result    analyst.Result
	meta      analyst.ResponseMetadata
	columns   []string
	collapsed bool
	styles    Styles
}

// NewDataBlock creates a DataBlock. fields orders the table columns; columns
// present in the rows but missing from fields follow in sorted order.
func NewDataBlock(result analyst.Result, meta analyst.ResponseMetadata, fields []string, styles Styles) *DataBlock {
	return &DataBlock{
		result:  result,
		meta:    meta,
		columns: columnOrder(result.Rows, fields),
		styles:  styles,
	}
}

// Collapsed reports whether only the header is shown.
func (b *DataBlock) Collapsed() bool { return b.collapsed }

func (b *DataBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *DataBlock) View(width int) string {
	indicator := "▼"
	if b.collapsed {
		indicator = "▶"
	}
	header := fmt.Sprintf("%s %s · %d linhas", indicator, b.meta.QueryKind, b.meta.RowCount)
	if b.meta.Elapsed > 0 {
		header += " · " + b.meta.Elapsed.Round(time.Millisecond).String()
	}
	out := []string{b.styles.Data.Render(clip(header, width))}
	if b.collapsed {
		return out[0]
	}
	if len(b.result.Rows) == 0 {
		for _, l := range b.record() {
			out = append(out, clip(l, width))
		}
		return strings.Join(out, "\n")
	}
	head, body, hidden := b.table()
	out = append(out, b.styles.Muted.Render(clip(head, width)))
	for _, l := range body {
		out = append(out, clip(l, width))
	}
	if hidden > 0 {
		out = append(out, b.styles.Muted.Render(fmt.Sprintf("… mais %d linhas", hidden)))
	}
	return strings.Join(out, "\n")
}

// table lays out the previewed rows under a header row and reports how many
// rows were left out.
func (b *DataBlock) table() (head string, body []string, hidden int) {
	rows := b.result.Rows
	if len(rows) > maxPreviewRows {
		hidden = len(rows) - maxPreviewRows
		rows = rows[:maxPreviewRows]
	}

	names := make([]string, len(b.columns))
	widths := make([]int, len(b.columns))
	for i, c := range b.columns {
		names[i] = truncate(c, maxCellWidth)
		widths[i] = runewidth.StringWidth(names[i])
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(b.columns))
		for i, c := range b.columns {
			s := truncate(formatValue(row[c]), maxCellWidth)
			cells[r][i] = s
			widths[i] = max(widths[i], runewidth.StringWidth(s))
		}
	}

	head = joinCells(names, widths)
	body = make([]string, len(cells))
	for r, row := range cells {
		body[r] = joinCells(row, widths)
	}
	return head, body, hidden
}

func joinCells(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, s := range cells {
		padded[i] = runewidth.FillRight(s, widths[i])
	}
	return strings.TrimRight(strings.Join(padded, columnGap), " ")
}

func (b *DataBlock) record() []string {
	keys := make([]string, 0, len(b.result.Record))
	width := 0
	for k := range b.result.Record {
		keys = append(keys, k)
		width = max(width, runewidth.StringWidth(k))
	}
	slices.Sort(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = runewidth.FillRight(k, width) + columnGap + formatValue(b.result.Record[k])
	}
	return out
}

// columnOrder lists fields first, then any other row keys sorted.
func columnOrder(rows []analyst.Row, fields []string) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			cols = append(cols, f)
		}
	}
	var rest []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				rest = append(rest, k)
			}
		}
	}
	slices.Sort(rest)
	return append(cols, rest...)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "—"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(analyst.Round2(x), 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(analyst.Round2(float64(x)), 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// truncate shortens s to at most width display cells, cutting on grapheme
// cluster boundaries and marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	var sb strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := runewidth.StringWidth(g.Str())
		if used+w > width-1 {
			break
		}
		sb.WriteString(g.Str())
		used += w
	}
	return sb.String() + "…"
}

// clip cuts an unstyled line to width.
func clip(line string, width int) string {
	if width <= 0 {
		return line
	}
	return truncate(line, width)
}
