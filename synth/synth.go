// Package synth turns handler results into natural-language replies.
//
// Every path yields user-safe text. Completion failures fall back to fixed
// strings or to a template that lists the raw figures; error details never
// reach the reply.
package synth

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/analyst"
	"go.uber.org/zap"
)

// Fixed replies.
const (
	Apology      = "Desculpe, encontrei um problema ao processar sua solicitação. Pode reformular sua pergunta sobre os dados? 🤔"
	DataApology  = "Não consegui obter os dados solicitados. Pode reformular sua pergunta? 😕"
	Unavailable  = "Essa análise ainda não está disponível. Posso ajudar com clientes, clusters, vendas ou produtos. 📊"
	ChatFallback = "Olá! 😊 Sou seu analista de dados de e-commerce. Posso ajudar com análises de clientes, receita, margem e clusters. Pergunte sobre seus dados de negócio!"
)

// Completion settings.
const (
	DefaultNarrativeTemperature = 0.8
	DefaultNarrativeMaxTokens   = 600
	DefaultChatTemperature      = 0.7
	DefaultChatMaxTokens        = 300
	DefaultChatContextSize      = 4
	defaultTimeout              = 30 * time.Second
)

// Interface compliance check.
var _ analyst.Synthesizer = (*Synthesizer)(nil)

// Synthesizer produces replies using a Completer. Reply.Err wraps
// analyst.ErrSynthesisUnavailable when the completer failed.
type Synthesizer struct {
	completer analyst.Completer
	model     string
	timeout   time.Duration

	narrativeTemp   float64
	narrativeTokens int
	chatTemp        float64
	chatTokens      int
	chatContext     int

	logger *zap.Logger
}

// Option configures a [Synthesizer].
type Option func(*Synthesizer)

// WithModel sets the model passed to the completer.
func WithModel(model string) Option {
	return func(s *Synthesizer) { s.model = model }
}

// WithTimeout bounds each completion call.
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) { s.timeout = d }
}

// WithNarrative overrides the temperature and token budget of data replies.
func WithNarrative(temperature float64, maxTokens int) Option {
	return func(s *Synthesizer) {
		s.narrativeTemp = temperature
		s.narrativeTokens = maxTokens
	}
}

// WithChat overrides the temperature and token budget of chat replies.
func WithChat(temperature float64, maxTokens int) Option {
	return func(s *Synthesizer) {
		s.chatTemp = temperature
		s.chatTokens = maxTokens
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Synthesizer) { s.logger = l }
}

// New creates a Synthesizer.
func New(completer analyst.Completer, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		completer:       completer,
		timeout:         defaultTimeout,
		narrativeTemp:   DefaultNarrativeTemperature,
		narrativeTokens: DefaultNarrativeMaxTokens,
		chatTemp:        DefaultChatTemperature,
		chatTokens:      DefaultChatMaxTokens,
		chatContext:     DefaultChatContextSize,
		logger:          zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Synthesize answers utterance. A nil resp means no specialist was invoked
// and the reply is conversational. A failed resp yields DataApology.
func (s *Synthesizer) Synthesize(ctx context.Context, utterance string, resp *analyst.AgentResponse, window []analyst.Message) analyst.Reply {
	switch {
	case resp == nil:
		return s.chat(ctx, utterance, window)
	case !resp.Success || resp.Data == nil:
		return analyst.Reply{Text: DataApology}
	}
	return s.narrate(ctx, utterance, resp)
}

func (s *Synthesizer) chat(ctx context.Context, utterance string, window []analyst.Message) analyst.Reply {
	if len(window) > s.chatContext {
		window = window[len(window)-s.chatContext:]
	}
	text, err := s.complete(ctx, analyst.CompletionRequest{
		SystemPrompt: SystemPrompt,
		Prompt:       ChatPrompt(utterance, window),
		MaxTokens:    s.chatTokens,
		Temperature:  analyst.Temperature(s.chatTemp),
	})
	if err != nil {
		s.logger.Warn("chat reply unavailable, using greeting", zap.Error(err))
		return analyst.Reply{Text: ChatFallback, Err: err}
	}
	return analyst.Reply{Text: text}
}

func (s *Synthesizer) narrate(ctx context.Context, utterance string, resp *analyst.AgentResponse) analyst.Reply {
	prompt, err := NarrativePrompt(utterance, resp)
	if err == nil {
		var text string
		text, err = s.complete(ctx, analyst.CompletionRequest{
			SystemPrompt: SystemPrompt,
			Prompt:       prompt,
			MaxTokens:    s.narrativeTokens,
			Temperature:  analyst.Temperature(s.narrativeTemp),
		})
		if err == nil {
			return analyst.Reply{Text: text}
		}
	}
	s.logger.Warn("narrative unavailable, using data template",
		zap.String("error_kind", string(analyst.KindOf(err))),
		zap.Error(err),
	)
	return analyst.Reply{Text: Template(*resp.Data, resp.Metadata.RowCount), Err: err}
}

func (s *Synthesizer) complete(ctx context.Context, req analyst.CompletionRequest) (string, error) {
	if s.completer == nil {
		return "", fmt.Errorf("no completer configured: %w", analyst.ErrSynthesisUnavailable)
	}
	req.Model = s.model
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	c, err := s.completer.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("complete: %w: %w", analyst.ErrSynthesisUnavailable, err)
	}
	s.logger.Debug("synthesis completed",
		zap.String("model", c.Model),
		zap.Int("input_tokens", c.Usage.InputTokens),
		zap.Int("output_tokens", c.Usage.OutputTokens),
	)
	if c.Text == "" {
		return "", fmt.Errorf("empty completion: %w", analyst.ErrSynthesisUnavailable)
	}
	return c.Text, nil
}
