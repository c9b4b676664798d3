package bubbletea_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/analyst"
	bt "github.com/fwojciec/analyst/bubbletea"
	"github.com/stretchr/testify/require"
)

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, run bt.TurnFunc, history ...analyst.Message) bt.Model {
	t.Helper()
	return initModelWithSize(t, run, 80, 24, history...)
}

// initModelWithSize creates a model with a custom terminal size.
func initModelWithSize(t *testing.T, run bt.TurnFunc, width, height int, history ...analyst.Message) bt.Model {
	t.Helper()
	m := bt.New(run, "sess-1", history, analyst.DefaultTheme())
	return updateModel(t, m, tea.WindowSizeMsg{Width: width, Height: height})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// nopTurn answers every utterance with an empty chat turn.
func nopTurn(_ context.Context, sessionID, utterance string, _ func(analyst.TurnState)) (analyst.Turn, error) {
	return analyst.Turn{SessionID: sessionID, Utterance: utterance, State: analyst.StateLogged}, nil
}

// countTurn is a completed data turn answering "Quantos clientes temos?".
func countTurn() analyst.Turn {
	return analyst.Turn{
		SessionID: "sess-1",
		Utterance: "Quantos clientes temos?",
		Reply:     "Temos **237 clientes** ativos.",
		State:     analyst.StateLogged,
		Decision: analyst.IntentDecision{
			Category:   analyst.CategoryDataQuery,
			Specialist: analyst.SpecialistClient,
			Confidence: 0.92,
			Source:     analyst.SourceLLM,
			Parameters: analyst.QueryParameters{Kind: analyst.QueryCount, Table: "Visão_cliente"},
		},
		Response: &analyst.AgentResponse{
			Success: true,
			Data:    &analyst.Result{Record: analyst.Row{"total_clientes": 237}},
			Metadata: analyst.ResponseMetadata{
				RowCount:  1,
				QueryKind: analyst.QueryCount,
				Elapsed:   12 * time.Millisecond,
			},
		},
		Logged: true,
	}
}
