package analyst

import (
	"fmt"
	"time"
)

// TurnState is a state of the per-turn coordinator state machine.
type TurnState string

const (
	StateIdle             TurnState = "idle"
	StateContextLoaded    TurnState = "context_loaded"
	StateIntentClassified TurnState = "intent_classified"
	StateDispatched       TurnState = "dispatched"
	StateResultReady      TurnState = "result_ready"
	StateDirectReply      TurnState = "direct_reply"
	StateSynthesized      TurnState = "synthesized"
	StateLogged           TurnState = "logged"
	StateFailed           TurnState = "failed"
)

var transitions = map[TurnState][]TurnState{
	StateIdle:             {StateContextLoaded},
	StateContextLoaded:    {StateIntentClassified},
	StateIntentClassified: {StateDispatched, StateDirectReply},
	StateDispatched:       {StateResultReady},
	StateResultReady:      {StateSynthesized},
	StateDirectReply:      {StateSynthesized},
	StateSynthesized:      {StateLogged},
	StateLogged:           {StateIdle},
}

// CanTransition reports whether the machine may move from s to next. Any
// non-terminal state may move to StateFailed.
func (s TurnState) CanTransition(next TurnState) bool {
	if next == StateFailed {
		return s != StateFailed && s != StateLogged
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends a turn.
func (s TurnState) Terminal() bool {
	return s == StateLogged || s == StateFailed
}

// Trace records the states a turn passed through, in order.
type Trace []TurnState

// Advance appends next after checking the transition is legal.
func (t *Trace) Advance(next TurnState) error {
	cur := StateIdle
	if n := len(*t); n > 0 {
		cur = (*t)[n-1]
	}
	if !cur.CanTransition(next) {
		return fmt.Errorf("illegal transition %s -> %s: %w", cur, next, ErrValidation)
	}
	*t = append(*t, next)
	return nil
}

// Last returns the latest state, or StateIdle for an empty trace.
func (t Trace) Last() TurnState {
	if len(t) == 0 {
		return StateIdle
	}
	return t[len(t)-1]
}

// Turn is the outcome of one coordinator invocation.
type Turn struct {
	SessionID string
	Utterance string
	Reply     string
	State     TurnState
	Trace     Trace
	Decision  IntentDecision
	Response  *AgentResponse
	// Degraded is set when the context window came from the fallback cache.
	Degraded bool
	// Logged is false when the message log rejected the turn's messages.
	Logged    bool
	ErrorKind ErrorKind
	Elapsed   time.Duration
}
