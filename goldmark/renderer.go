package goldmark

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/analyst"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

type renderer struct {
	width int

	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	heading   lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
	header    lipgloss.Style
}

func newRenderer(theme analyst.Theme, width int) *renderer {
	return &renderer{
		width:     width,
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		heading:   lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		underline: lipgloss.NewStyle().Underline(true),
		header:    lipgloss.NewStyle().Foreground(ansiColor(theme.Data)).Bold(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *renderer) render(source []byte) string {
	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	doc := md.Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	r.blocks(doc, source, r.width, &sb)
	return strings.TrimRight(sb.String(), "\n")
}

// blocks renders the children of node, separating siblings with a blank line.
func (r *renderer) blocks(node ast.Node, source []byte, width int, sb *strings.Builder) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.block(c, source, width, sb)
		if c.NextSibling() != nil {
			sb.WriteString("\n")
		}
	}
}

func (r *renderer) block(node ast.Node, source []byte, width int, sb *strings.Builder) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		sb.WriteString(wrap(r.inline(n, source), width))
		sb.WriteString("\n")

	case *ast.Heading:
		s := r.heading
		if n.Level == 1 {
			s = s.Underline(true)
		}
		sb.WriteString(wrap(s.Render(r.inline(n, source)), width))
		sb.WriteString("\n")

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(source)); lang != "" {
			sb.WriteString(r.muted.Render(lang))
			sb.WriteString("\n")
		}
		r.code(n, source, sb)

	case *ast.CodeBlock:
		r.code(n, source, sb)

	case *ast.Blockquote:
		var inner strings.Builder
		r.blocks(n, source, width-2, &inner)
		bar := r.muted.Render("▌") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			sb.WriteString(bar + line + "\n")
		}

	case *ast.List:
		r.list(n, source, width, sb, 0)

	case *east.Table:
		r.table(n, source, sb)

	case *ast.ThematicBreak:
		sb.WriteString(r.muted.Render(strings.Repeat("─", min(width, 40))))
		sb.WriteString("\n")

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			sb.Write(seg.Value(source))
		}

	default:
		r.blocks(node, source, width, sb)
	}
}

func (r *renderer) code(node ast.Node, source []byte, sb *strings.Builder) {
	gutter := r.muted.Render("│") + " "
	lines := node.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		sb.WriteString(gutter + strings.TrimRight(string(seg.Value(source)), "\n") + "\n")
	}
}

func (r *renderer) list(node *ast.List, source []byte, width int, sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	num := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "• "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}

		var content strings.Builder
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			if sub, ok := ic.(*ast.List); ok {
				if content.Len() > 0 {
					r.item(sb, indent+marker, content.String(), width)
					content.Reset()
				}
				r.list(sub, source, width, sb, depth+1)
				marker = strings.Repeat(" ", lipgloss.Width(marker))
				continue
			}
			switch ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				content.WriteString(r.inline(ic, source))
			default:
				r.block(ic, source, width, &content)
			}
		}
		if content.Len() > 0 {
			r.item(sb, indent+marker, content.String(), width)
		}
	}
}

// item writes one list entry, indenting continuation lines under the text.
func (r *renderer) item(sb *strings.Builder, prefix, content string, width int) {
	w := max(width-lipgloss.Width(prefix), 10)
	pad := strings.Repeat(" ", lipgloss.Width(prefix))
	for i, line := range strings.Split(wrap(content, w), "\n") {
		if i == 0 {
			sb.WriteString(prefix + line + "\n")
			continue
		}
		sb.WriteString(pad + line + "\n")
	}
}

// table renders a GFM table with columns padded to their widest cell.
func (r *renderer) table(node *east.Table, source []byte, sb *strings.Builder) {
	var rows [][]string
	header := 0
	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, r.inline(cell, source))
		}
		if _, ok := row.(*east.TableHeader); ok {
			header = 1
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(node.Alignments))
	for _, cells := range rows {
		for i, c := range cells {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(c))
			}
		}
	}

	sep := r.muted.Render(" │ ")
	for ri, cells := range rows {
		parts := make([]string, len(widths))
		for i := range widths {
			var c string
			if i < len(cells) {
				c = cells[i]
			}
			if ri < header {
				c = r.header.Render(c)
			}
			parts[i] = pad(c, widths[i], node.Alignments[i])
		}
		sb.WriteString(strings.TrimRight(strings.Join(parts, sep), " ") + "\n")
		if ri+1 == header {
			rules := make([]string, len(widths))
			for i, w := range widths {
				rules[i] = strings.Repeat("─", w)
			}
			sb.WriteString(r.muted.Render(strings.Join(rules, "─┼─")) + "\n")
		}
	}
}

func pad(s string, width int, align east.Alignment) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case east.AlignRight:
		return strings.Repeat(" ", gap) + s
	case east.AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	}
	return s + strings.Repeat(" ", gap)
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

// inline collects the styled inline text of node's children.
func (r *renderer) inline(node ast.Node, source []byte) string {
	var sb strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.span(c, source, &sb)
	}
	return sb.String()
}

func (r *renderer) span(node ast.Node, source []byte, sb *strings.Builder) {
	switch n := node.(type) {
	case *ast.Text:
		sb.Write(n.Segment.Value(source))
		switch {
		case n.HardLineBreak():
			sb.WriteByte('\n')
		case n.SoftLineBreak():
			sb.WriteByte(' ')
		}

	case *ast.String:
		sb.Write(n.Value)

	case *ast.Emphasis:
		inner := r.inline(n, source)
		if n.Level == 1 {
			sb.WriteString(r.italic.Render(inner))
		} else {
			sb.WriteString(r.bold.Render(inner))
		}

	case *east.Strikethrough:
		sb.WriteString(r.strike.Render(r.inline(n, source)))

	case *ast.CodeSpan:
		sb.WriteString(r.bold.Render(r.inline(n, source)))

	case *ast.Link:
		sb.WriteString(r.underline.Render(r.inline(n, source)))
		sb.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))

	case *ast.AutoLink:
		sb.WriteString(r.underline.Render(string(n.URL(source))))

	case *ast.RawHTML:
		for i := range n.Segments.Len() {
			seg := n.Segments.At(i)
			sb.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.span(c, source, sb)
		}
	}
}
