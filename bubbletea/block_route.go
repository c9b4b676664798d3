package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/analyst"
)

var _ MessageBlock = (*RouteBlock)(nil)

// Route describes how a turn was routed.
type Route struct {
	Category   analyst.Category
	Specialist analyst.SpecialistRef
	Confidence float64
	Source     analyst.DecisionSource
	Degraded   bool
	ErrorKind  analyst.ErrorKind
}

// RouteFromTurn extracts the route of a completed turn.
func RouteFromTurn(t analyst.Turn) Route {
	return Route{
		Category:   t.Decision.Category,
		Specialist: t.Decision.Specialist,
		Confidence: t.Decision.Confidence,
		Source:     t.Decision.Source,
		Degraded:   t.Degraded,
		ErrorKind:  t.ErrorKind,
	}
}

// RouteFromMetadata rebuilds a route from the metadata stored with an
// assistant message. ok is false when the metadata carries no category.
func RouteFromMetadata(meta map[string]any) (r Route, ok bool) {
	cat, _ := meta["category"].(string)
	if cat == "" {
		return Route{}, false
	}
	r.Category = analyst.Category(cat)
	if s, ok := meta["specialist"].(string); ok {
		r.Specialist = analyst.SpecialistRef(s)
	}
	if c, ok := analyst.Float(meta["confidence"]); ok {
		r.Confidence = c
	}
	if s, ok := meta["decision_source"].(string); ok {
		r.Source = analyst.DecisionSource(s)
	}
	r.Degraded, _ = meta["degraded"].(bool)
	if k, ok := meta["error_kind"].(string); ok {
		r.ErrorKind = analyst.ErrorKind(k)
	}
	return r, true
}

// RouteBlock renders a one-line summary of a turn's intent routing.
type RouteBlock struct {
	route  Route
	styles Styles
}

// NewRouteBlock creates a RouteBlock.
func NewRouteBlock(r Route, styles Styles) *RouteBlock {
	return &RouteBlock{route: r, styles: styles}
}

func (b *RouteBlock) Update(tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *RouteBlock) View(width int) string {
	r := b.route
	parts := []string{string(r.Category)}
	if r.Specialist != analyst.SpecialistNone {
		parts = append(parts, string(r.Specialist))
	}
	parts = append(parts, fmt.Sprintf("%.0f%%", r.Confidence*100))
	if r.Source != "" {
		parts = append(parts, string(r.Source))
	}
	line := b.styles.Route.Render("↳ " + strings.Join(parts, " · "))
	if r.Degraded {
		line += b.styles.Muted.Render(" · degraded")
	}
	if r.ErrorKind != "" {
		line += " " + b.styles.Error.Render(string(r.ErrorKind))
	}
	return lipgloss.NewStyle().Width(width).Render(line)
}
