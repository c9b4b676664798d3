package analyst

import "context"

// Completer is a strategy pattern interface for text-completion services.
// Implementations may fail, time out, or return malformed output; callers
// own the recovery policy.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// ResponseFormat hints at the shape the caller expects back.
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

// Completion is the text returned by a Completer.
type Completion struct {
	Text  string
	Model string
	Usage Usage
}

// Usage is the token consumption reported by a Completer. Providers that do
// not report usage leave it zero.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
