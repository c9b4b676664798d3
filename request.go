package analyst

// CompletionRequest carries the prompt and generation parameters.
// The completer uses its own defaults when fields are zero/nil.
type CompletionRequest struct {
	Model        string // model ID, provider-specific; empty = provider default
	SystemPrompt string
	Prompt       string
	Format       ResponseFormat // empty = FormatText
	MaxTokens    int            // 0 = provider default
	Temperature  *float64       // nil = provider default
}

// Temperature returns a pointer to t for use in CompletionRequest.
func Temperature(t float64) *float64 {
	return &t
}
