package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/analyst"
	"github.com/fwojciec/analyst/goldmark"
)

var _ MessageBlock = (*AssistantBlock)(nil)

// AssistantBlock renders a synthesized reply as markdown. Rendering is
// cached per width.
type AssistantBlock struct {
	text    string
	theme   analyst.Theme
	byWidth map[int]string
}

// NewAssistantBlock creates an AssistantBlock for a complete reply.
func NewAssistantBlock(text string, theme analyst.Theme) *AssistantBlock {
	return &AssistantBlock{text: text, theme: theme, byWidth: make(map[int]string)}
}

// Text returns the raw reply.
func (b *AssistantBlock) Text() string { return b.text }

func (b *AssistantBlock) Update(tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AssistantBlock) View(width int) string {
	if cached, ok := b.byWidth[width]; ok {
		return cached
	}
	rendered := goldmark.Render(b.text, width, b.theme)
	b.byWidth[width] = rendered
	return rendered
}
