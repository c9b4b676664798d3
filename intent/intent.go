// Package intent classifies a user utterance into an analyst.IntentDecision.
//
// The Classifier asks a Completer for a JSON decision and validates it. When
// the completer fails, times out or answers with something that does not
// parse, it falls back to a deterministic keyword match over the registry
// catalog. Classification therefore never fails the caller.
package intent

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/analyst"
	"go.uber.org/zap"
)

// Completion settings for classification.
const (
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 500
	DefaultContextSize = 3
	defaultTimeout     = 20 * time.Second
)

// FallbackConfidence is reported for every keyword-fallback decision.
const FallbackConfidence = 0.6

// Interface compliance check.
var _ analyst.Classifier = (*Classifier)(nil)

// Classifier produces intent decisions.
type Classifier struct {
	completer   analyst.Completer
	catalog     []analyst.SpecialistInfo
	model       string
	temperature float64
	maxTokens   int
	contextSize int
	timeout     time.Duration
	logger      *zap.Logger
}

// Option configures a [Classifier].
type Option func(*Classifier)

// WithModel sets the model passed to the completer.
func WithModel(model string) Option {
	return func(c *Classifier) { c.model = model }
}

// WithTimeout bounds each completion call.
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) { c.timeout = d }
}

// WithTemperature overrides the classification temperature.
func WithTemperature(t float64) Option {
	return func(c *Classifier) { c.temperature = t }
}

// WithMaxTokens overrides the classification token budget.
func WithMaxTokens(n int) Option {
	return func(c *Classifier) { c.maxTokens = n }
}

// WithContextSize sets how many of the latest context messages are embedded
// in the prompt.
func WithContextSize(n int) Option {
	return func(c *Classifier) { c.contextSize = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// New creates a Classifier that routes to the entries of catalog, in the
// order given.
func New(completer analyst.Completer, catalog []analyst.SpecialistInfo, opts ...Option) *Classifier {
	c := &Classifier{
		completer:   completer,
		catalog:     catalog,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		contextSize: DefaultContextSize,
		timeout:     defaultTimeout,
		logger:      zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify returns the decision for utterance given the context window.
func (c *Classifier) Classify(ctx context.Context, utterance string, window []analyst.Message) analyst.IntentDecision {
	d, err := c.classifyLLM(ctx, utterance, window)
	if err == nil {
		return d
	}
	c.logger.Warn("classification unavailable, using keyword fallback",
		zap.String("error_kind", string(analyst.KindOf(err))),
		zap.Error(err),
	)
	return Fallback(utterance, c.catalog)
}

func (c *Classifier) classifyLLM(ctx context.Context, utterance string, window []analyst.Message) (analyst.IntentDecision, error) {
	if c.completer == nil {
		return analyst.IntentDecision{}, fmt.Errorf("no completer configured: %w", analyst.ErrClassificationUnavailable)
	}
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.completer.Complete(cctx, analyst.CompletionRequest{
		Model:       c.model,
		Prompt:      Prompt(utterance, tail(window, c.contextSize), c.catalog),
		Format:      analyst.FormatJSON,
		MaxTokens:   c.maxTokens,
		Temperature: analyst.Temperature(c.temperature),
	})
	if err != nil {
		return analyst.IntentDecision{}, fmt.Errorf("complete: %w: %w", analyst.ErrClassificationUnavailable, err)
	}
	c.logger.Debug("classification completed",
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
	)
	return Parse(resp.Text, c.catalog)
}

func tail(msgs []analyst.Message, n int) []analyst.Message {
	if n <= 0 {
		return nil
	}
	if len(msgs) > n {
		return msgs[len(msgs)-n:]
	}
	return msgs
}
