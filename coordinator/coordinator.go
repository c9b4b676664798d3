// Package coordinator runs one conversation turn through the analyst
// pipeline: context assembly, intent classification, specialist dispatch,
// synthesis and logging.
//
// Each Run walks the turn state machine in analyst.TurnState. Collaborator
// failures are recovered inside the components that issue the calls; the
// coordinator only sees typed outcomes. Anything that still goes wrong,
// including a handler panic, ends the turn in StateFailed with a safe reply.
package coordinator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/analyst"
	"github.com/fwojciec/analyst/history"
	"github.com/fwojciec/analyst/synth"
	"go.uber.org/zap"
)

// DefaultWindowSize is how many recent messages ground each turn.
const DefaultWindowSize = 6

// Coordinator orchestrates turns. It holds no per-turn state and is safe for
// concurrent use across sessions.
type Coordinator struct {
	history    *history.Assembler
	classifier analyst.Classifier
	resolver   analyst.Resolver
	synth      analyst.Synthesizer
	windowSize int
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures a [Coordinator].
type Option func(*Coordinator)

// WithWindowSize sets the context window size.
func WithWindowSize(n int) Option {
	return func(c *Coordinator) { c.windowSize = n }
}

// WithClock sets the time source used for message timestamps and elapsed
// time.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New creates a Coordinator.
func New(h *history.Assembler, classifier analyst.Classifier, resolver analyst.Resolver, s analyst.Synthesizer, opts ...Option) *Coordinator {
	c := &Coordinator{
		history:    h,
		classifier: classifier,
		resolver:   resolver,
		synth:      s,
		windowSize: DefaultWindowSize,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RunOption configures a single Run invocation.
type RunOption func(*runConfig)

type runConfig struct {
	onState func(analyst.TurnState)
}

// WithStateHandler sets a callback that receives each state the turn enters.
// It is called synchronously from the goroutine running the turn.
func WithStateHandler(h func(analyst.TurnState)) RunOption {
	return func(c *runConfig) {
		c.onState = h
	}
}

// Run processes one utterance for sessionID. An empty sessionID starts a new
// session. The returned turn always carries a user-safe Reply; the error is
// non-nil only for an empty utterance or when ctx ends before the turn is
// logged, in which case nothing is written to the message log.
func (c *Coordinator) Run(ctx context.Context, sessionID, utterance string, opts ...RunOption) (analyst.Turn, error) {
	if strings.TrimSpace(utterance) == "" {
		return analyst.Turn{}, fmt.Errorf("empty utterance: %w", analyst.ErrValidation)
	}
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if sessionID == "" {
		sessionID = analyst.NewSessionID()
	}

	r := &run{
		c:       c,
		cfg:     &cfg,
		started: c.now(),
		logger:  c.logger.With(zap.String("session_id", sessionID)),
		turn: analyst.Turn{
			SessionID: sessionID,
			Utterance: utterance,
			State:     analyst.StateIdle,
		},
	}
	err := r.execute(ctx)
	r.turn.Elapsed = c.now().Sub(r.started)
	r.logger.Info("turn finished",
		zap.String("state", string(r.turn.State)),
		zap.String("category", string(r.turn.Decision.Category)),
		zap.String("specialist", string(r.turn.Decision.Specialist)),
		zap.String("error_kind", string(r.turn.ErrorKind)),
		zap.Duration("elapsed", r.turn.Elapsed),
	)
	return r.turn, err
}

// Clear forgets a session.
func (c *Coordinator) Clear(ctx context.Context, sessionID string) error {
	return c.history.Purge(ctx, sessionID)
}

// run is the mutable state of one turn.
type run struct {
	c       *Coordinator
	cfg     *runConfig
	started time.Time
	logger  *zap.Logger
	window  []analyst.Message
	turn    analyst.Turn
}

func (r *run) execute(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = r.fail(ctx, fmt.Errorf("panic in %s: %v", r.turn.State, p), synth.Apology)
		}
	}()

	w := r.c.history.Assemble(ctx, r.turn.SessionID, r.c.windowSize)
	r.window = w.Messages
	r.turn.Degraded = w.Degraded
	if err := r.step(ctx, analyst.StateContextLoaded); err != nil {
		return err
	}

	d := r.c.classifier.Classify(ctx, r.turn.Utterance, r.window)
	r.turn.Decision = d
	r.logger.Debug("intent classified",
		zap.String("category", string(d.Category)),
		zap.String("specialist", string(d.Specialist)),
		zap.Float64("confidence", d.Confidence),
		zap.String("source", string(d.Source)),
	)
	if err := r.step(ctx, analyst.StateIntentClassified); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return r.fail(ctx, err, synth.Apology)
	}

	var reply analyst.Reply
	if d.Category == analyst.CategoryGeneralChat {
		if err := r.step(ctx, analyst.StateDirectReply); err != nil {
			return err
		}
		reply = r.c.synth.Synthesize(ctx, r.turn.Utterance, nil, r.window)
	} else {
		h, err := r.c.resolver.Resolve(d.Specialist)
		if err != nil {
			r.logger.Error("no handler bound for classified specialist",
				zap.String("specialist", string(d.Specialist)),
				zap.Error(err),
			)
			return r.fail(ctx, err, synth.Unavailable)
		}
		if err := r.step(ctx, analyst.StateDispatched); err != nil {
			return err
		}
		resp := r.dispatch(ctx, h)
		r.turn.Response = &resp
		if err := r.step(ctx, analyst.StateResultReady); err != nil {
			return err
		}
		reply = r.c.synth.Synthesize(ctx, r.turn.Utterance, &resp, r.window)
	}

	if reply.Err != nil && r.turn.ErrorKind == analyst.KindNone {
		r.turn.ErrorKind = analyst.KindOf(reply.Err)
	}
	r.turn.Reply = reply.Text
	if err := r.step(ctx, analyst.StateSynthesized); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		r.logger.Debug("turn abandoned before logging", zap.Error(err))
		return err
	}
	r.turn.Logged = r.record(ctx, analyst.StateLogged)
	return r.advance(analyst.StateLogged)
}

func (r *run) dispatch(ctx context.Context, h analyst.Handler) analyst.AgentResponse {
	d := r.turn.Decision
	resp := h.Handle(ctx, analyst.AgentInstruction{
		Specialist: d.Specialist,
		Task:       r.turn.Utterance,
		Parameters: d.Parameters,
		Context: map[string]any{
			"confidence": d.Confidence,
			"reasoning":  d.Reasoning,
			"history":    len(r.window),
		},
		SessionID: r.turn.SessionID,
	})
	if err := resp.Validate(); err != nil {
		resp = analyst.Fail(fmt.Errorf("handler %s: %w", d.Specialist, err), resp.Metadata)
	}
	if !resp.Success {
		r.turn.ErrorKind = resp.ErrorKind()
		r.logger.Warn("specialist failed",
			zap.String("specialist", string(d.Specialist)),
			zap.String("error_kind", string(r.turn.ErrorKind)),
			zap.Error(resp.Err),
		)
	}
	return resp
}

// step checks ctx and advances. A cancelled context abandons the turn
// without logging.
func (r *run) step(ctx context.Context, next analyst.TurnState) error {
	if err := ctx.Err(); err != nil {
		r.logger.Debug("turn abandoned", zap.String("state", string(r.turn.State)), zap.Error(err))
		return err
	}
	if err := r.advance(next); err != nil {
		return r.fail(ctx, err, synth.Apology)
	}
	return nil
}

func (r *run) advance(next analyst.TurnState) error {
	if err := r.turn.Trace.Advance(next); err != nil {
		return err
	}
	r.turn.State = next
	r.logger.Debug("state", zap.String("state", string(next)))
	if r.cfg.onState != nil {
		r.cfg.onState(next)
	}
	return nil
}

// fail moves the turn to StateFailed with a fixed reply and logs it on a
// best-effort basis. It returns ctx's error when the caller has gone away.
func (r *run) fail(ctx context.Context, cause error, reply string) error {
	if r.turn.ErrorKind == analyst.KindNone {
		r.turn.ErrorKind = analyst.KindOf(cause)
	}
	r.turn.Reply = reply
	r.turn.State = analyst.StateFailed
	r.turn.Trace = append(r.turn.Trace, analyst.StateFailed)
	r.logger.Warn("turn failed",
		zap.String("error_kind", string(r.turn.ErrorKind)),
		zap.Error(cause),
	)
	if r.cfg.onState != nil {
		r.cfg.onState(analyst.StateFailed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.turn.Logged = r.record(ctx, analyst.StateFailed)
	return nil
}

// record appends the user utterance and the reply to the message log as one
// write. A failing or panicking log leaves the turn unlogged.
func (r *run) record(ctx context.Context, final analyst.TurnState) (logged bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("message log panicked, turn kept in cache only", zap.Any("panic", p))
			logged = false
		}
	}()
	msgs := []analyst.Message{
		analyst.UserMessage(r.turn.Utterance, r.started),
		analyst.AssistantMessage(r.turn.Reply, r.c.now(), r.metadata(final)),
	}
	if err := r.c.history.Record(ctx, r.turn.SessionID, msgs...); err != nil {
		r.logger.Warn("message log unavailable, turn kept in cache only",
			zap.String("error_kind", string(analyst.KindOf(err))),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (r *run) metadata(final analyst.TurnState) map[string]any {
	d := r.turn.Decision
	m := map[string]any{
		"category":        string(d.Category),
		"specialist":      string(d.Specialist),
		"confidence":      d.Confidence,
		"decision_source": string(d.Source),
		"degraded":        r.turn.Degraded,
		"state":           string(final),
	}
	if resp := r.turn.Response; resp != nil {
		m["query_kind"] = string(resp.Metadata.QueryKind)
		m["row_count"] = resp.Metadata.RowCount
	}
	if r.turn.ErrorKind != analyst.KindNone {
		m["error_kind"] = string(r.turn.ErrorKind)
	}
	return m
}
