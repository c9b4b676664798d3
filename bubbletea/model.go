package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/analyst"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the analyst chat TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model
	// Spinner animates the status line while a turn is in flight.
	Spinner spinner.Model

	run       TurnFunc
	sessionID string
	history   []analyst.Message
	theme     analyst.Theme
	styles    Styles

	blocks     []MessageBlock
	blockFocus int // index of focused data block (-1 = none)

	state   analyst.TurnState
	running bool
	cancel  context.CancelFunc
	stateCh chan analyst.TurnState
	doneCh  chan TurnDoneMsg
	err     error
	ready   bool
}

// New creates a TUI Model for sessionID. history holds the session's
// earlier messages, oldest first; they are rendered when the window size is
// first known.
func New(run TurnFunc, sessionID string, history []analyst.Message, theme analyst.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Pergunte sobre clientes, clusters, vendas ou produtos..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	styles := NewStyles(theme)
	sp.Style = styles.Accent

	return Model{
		Input:      ti,
		Spinner:    sp,
		run:        run,
		sessionID:  sessionID,
		history:    history,
		theme:      theme,
		styles:     styles,
		blockFocus: -1,
		state:      analyst.StateIdle,
	}
}

// Running returns whether a turn is in flight.
func (m Model) Running() bool { return m.running }

// Err returns the last turn error, if any.
func (m Model) Err() error { return m.err }

// SessionID returns the session the TUI is talking in.
func (m Model) SessionID() string { return m.sessionID }

// State returns the latest state reported by the in-flight turn.
func (m Model) State() analyst.TurnState { return m.state }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateMsg:
		m.state = msg.State
		if m.stateCh != nil {
			return m, listenForState(m.stateCh, m.doneCh)
		}
		return m, nil

	case TurnDoneMsg:
		return m.finishTurn(msg)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	// Viewport always receives remaining messages for scrolling.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	const (
		inputHeight  = 1
		statusHeight = 1
		borderHeight = 2 // newlines between sections
	)
	vpHeight := max(msg.Height-inputHeight-statusHeight-borderHeight, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m = m.renderHistory()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submit(text)

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
		}
		return m, nil
	}

	if m.running {
		return m, nil
	}
	// Character keys go to the input only; 'j'/'k' would otherwise scroll.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.Input.Blur()
	m.err = nil

	m.blocks = append(m.blocks, NewUserMessageBlock(text, m.styles))
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.stateCh = make(chan analyst.TurnState, 16)
	m.doneCh = make(chan TurnDoneMsg, 1)
	m.state = analyst.StateIdle
	m.running = true

	return m, tea.Batch(
		startTurn(ctx, m.run, m.sessionID, text, m.stateCh, m.doneCh),
		listenForState(m.stateCh, m.doneCh),
		m.Spinner.Tick,
	)
}

func (m Model) finishTurn(msg TurnDoneMsg) (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.cancel = nil
	m.stateCh = nil
	m.doneCh = nil
	m.state = analyst.StateIdle

	switch {
	case errors.Is(msg.Err, context.Canceled):
	case msg.Err != nil:
		m.err = msg.Err
		m.blocks = append(m.blocks, NewErrorBlock(msg.Err, m.styles))
	default:
		m = m.appendTurn(msg.Turn)
	}

	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m, m.Input.Focus()
}

func (m Model) appendTurn(t analyst.Turn) Model {
	if t.SessionID != "" {
		m.sessionID = t.SessionID
	}
	m.blocks = append(m.blocks, NewRouteBlock(RouteFromTurn(t), m.styles))
	if r := t.Response; r != nil && r.Success && r.Data != nil {
		m.blocks = append(m.blocks, NewDataBlock(*r.Data, r.Metadata, t.Decision.Parameters.Fields, m.styles))
		m.blockFocus = len(m.blocks) - 1
	}
	m.blocks = append(m.blocks, NewAssistantBlock(t.Reply, m.theme))
	return m
}

// renderHistory creates blocks from the session's earlier messages.
func (m Model) renderHistory() Model {
	for _, msg := range m.history {
		switch msg.Role {
		case analyst.RoleUser:
			m.blocks = append(m.blocks, NewUserMessageBlock(msg.Content, m.styles))
		case analyst.RoleAssistant:
			if r, ok := RouteFromMetadata(msg.Metadata); ok {
				m.blocks = append(m.blocks, NewRouteBlock(r, m.styles))
			}
			m.blocks = append(m.blocks, NewAssistantBlock(msg.Content, m.theme))
		}
	}
	m.history = nil
	return m
}

func (m Model) renderContent() string {
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString(blockSeparator(m.blocks[i-1], block))
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// cycleFocusPrev moves blockFocus to the previous data block, wrapping
// around.
func (m Model) cycleFocusPrev() Model {
	n := len(m.blocks)
	start := m.blockFocus - 1
	if start < 0 {
		start = n - 1
	}
	for i := range n {
		idx := (start - i + n) % n
		if _, ok := m.blocks[idx].(*DataBlock); ok {
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

func (m Model) statusLine() string {
	if m.running {
		return m.Spinner.View() + " " + m.styles.Muted.Render(stateLabel(m.state)+" · Ctrl+C to cancel")
	}
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	}
	return m.styles.Muted.Render("Enter to send, Tab to toggle data, Ctrl+C to quit")
}

func stateLabel(s analyst.TurnState) string {
	switch s {
	case analyst.StateContextLoaded:
		return "Classifying..."
	case analyst.StateIntentClassified, analyst.StateDispatched:
		return "Querying data..."
	case analyst.StateResultReady, analyst.StateDirectReply:
		return "Writing reply..."
	case analyst.StateSynthesized:
		return "Saving..."
	}
	return "Loading context..."
}

// startTurn runs the turn in a goroutine and signals completion.
func startTurn(ctx context.Context, run TurnFunc, sessionID, text string, stateCh chan<- analyst.TurnState, doneCh chan<- TurnDoneMsg) tea.Cmd {
	return func() tea.Msg {
		turn, err := run(ctx, sessionID, text, func(s analyst.TurnState) {
			select {
			case stateCh <- s:
			case <-ctx.Done():
			}
		})
		close(stateCh)
		doneCh <- TurnDoneMsg{Turn: turn, Err: err}
		return nil
	}
}

// listenForState waits for the next state from the channel. When the
// channel closes, it returns the turn's TurnDoneMsg.
func listenForState(ch <-chan analyst.TurnState, doneCh <-chan TurnDoneMsg) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return <-doneCh
		}
		return StateMsg{State: s}
	}
}
