package bubbletea

import tea "github.com/charmbracelet/bubbletea"

// MessageBlock is a renderable element in the conversation.
// Unlike tea.Model, View takes a width parameter so the root model
// controls layout and blocks are testable in isolation.
type MessageBlock interface {
	Update(tea.Msg) (MessageBlock, tea.Cmd)
	View(width int) string
}

// ToggleMsg tells a collapsible block to toggle its collapsed state.
type ToggleMsg struct{}

// blockSeparator returns the spacing between two consecutive blocks. The
// route line and data preview belong to the reply that follows them, so
// they are kept tight.
func blockSeparator(prev, curr MessageBlock) string {
	switch prev.(type) {
	case *RouteBlock, *DataBlock:
		switch curr.(type) {
		case *DataBlock, *AssistantBlock:
			return "\n"
		}
	}
	return "\n\n"
}
