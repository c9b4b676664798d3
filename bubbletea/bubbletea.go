// Package bubbletea provides a Bubble Tea chat TUI for the analyst.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/analyst"
)

// TurnFunc runs one conversational turn. onState is called for every state
// the turn enters. The function blocks until the turn completes or ctx is
// cancelled.
type TurnFunc func(ctx context.Context, sessionID, utterance string, onState func(analyst.TurnState)) (analyst.Turn, error)

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. When ctx is cancelled, the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// StateMsg reports a state entered by the in-flight turn.
type StateMsg struct {
	State analyst.TurnState
}

// TurnDoneMsg signals that the in-flight turn has completed.
type TurnDoneMsg struct {
	Turn analyst.Turn
	Err  error
}
