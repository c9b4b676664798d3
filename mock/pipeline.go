package mock

import (
	"context"
	"sync/atomic"

	"github.com/fwojciec/analyst"
)

// Interface compliance checks.
var (
	_ analyst.Classifier  = (*Classifier)(nil)
	_ analyst.Resolver    = (*Resolver)(nil)
	_ analyst.Synthesizer = (*Synthesizer)(nil)
)

// Classifier is a test double for analyst.Classifier.
type Classifier struct {
	ClassifyFn func(ctx context.Context, utterance string, window []analyst.Message) analyst.IntentDecision
}

// Classify delegates to ClassifyFn.
func (c *Classifier) Classify(ctx context.Context, utterance string, window []analyst.Message) analyst.IntentDecision {
	return c.ClassifyFn(ctx, utterance, window)
}

// Resolver is a test double for analyst.Resolver that counts lookups.
type Resolver struct {
	ResolveFn func(ref analyst.SpecialistRef) (analyst.Handler, error)

	calls atomic.Int64
}

// Resolve records the call and delegates to ResolveFn.
func (r *Resolver) Resolve(ref analyst.SpecialistRef) (analyst.Handler, error) {
	r.calls.Add(1)
	return r.ResolveFn(ref)
}

// Calls returns how many times Resolve was invoked.
func (r *Resolver) Calls() int {
	return int(r.calls.Load())
}

// Synthesizer is a test double for analyst.Synthesizer.
type Synthesizer struct {
	SynthesizeFn func(ctx context.Context, utterance string, resp *analyst.AgentResponse, window []analyst.Message) analyst.Reply
}

// Synthesize delegates to SynthesizeFn.
func (s *Synthesizer) Synthesize(ctx context.Context, utterance string, resp *analyst.AgentResponse, window []analyst.Message) analyst.Reply {
	return s.SynthesizeFn(ctx, utterance, resp, window)
}
