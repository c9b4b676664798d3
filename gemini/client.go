package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/analyst"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ analyst.Completer = (*Client)(nil)

// Client implements [analyst.Completer] for the Google Gemini API.
type Client struct {
	client  *genai.Client
	model   string
	baseURL string
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is gemini-2.5-flash.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithBaseURL overrides the API endpoint. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	c := &Client{model: defaultModel}
	for _, o := range opts {
		o(c)
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c.client = gc
	return c, nil
}

// Complete sends a single GenerateContent request and returns its text.
func (c *Client) Complete(ctx context.Context, req analyst.CompletionRequest) (analyst.Completion, error) {
	if err := req.Validate(); err != nil {
		return analyst.Completion{}, fmt.Errorf("gemini: %w", err)
	}
	model := req.Model
	if model == "" {
		model = c.model
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, BuildConfig(req))
	if err != nil {
		return analyst.Completion{}, fmt.Errorf("gemini: %w", err)
	}

	text, err := ResponseText(resp)
	if err != nil {
		return analyst.Completion{}, err
	}
	out := analyst.Completion{Text: text, Model: resp.ModelVersion}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = analyst.Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
		}
	}
	return out, nil
}

// BuildConfig converts the generation settings of req.
// Exported for testing.
func BuildConfig(req analyst.CompletionRequest) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}

	if req.Format == analyst.FormatJSON {
		config.ResponseMIMEType = jsonMIMEType
	}

	return config
}

// ResponseText joins the non-thought text parts of the first candidate. A
// response without any text is an error, including one cut off by a safety
// block.
// Exported for testing.
func ResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: response has no candidates")
	}
	cand := resp.Candidates[0]
	var sb strings.Builder
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini: empty response (finish reason %q)", cand.FinishReason)
	}
	return sb.String(), nil
}
