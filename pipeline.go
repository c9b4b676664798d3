package analyst

import "context"

// Classifier turns an utterance and its context window into a decision. It
// never fails; unusable completions are recovered inside the classifier.
type Classifier interface {
	Classify(ctx context.Context, utterance string, window []Message) IntentDecision
}

// Resolver maps a specialist reference to its bound handler. It returns an
// error wrapping ErrUnknownSpecialist when none is bound.
type Resolver interface {
	Resolve(ref SpecialistRef) (Handler, error)
}

// Synthesizer renders the reply for a turn. A nil response selects the
// conversational path.
type Synthesizer interface {
	Synthesize(ctx context.Context, utterance string, resp *AgentResponse, window []Message) Reply
}

// Reply is user-facing text. Text is always safe to show; Err records the
// recovered failure when Text came from a fallback.
type Reply struct {
	Text string
	Err  error
}
