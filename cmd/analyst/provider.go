package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fwojciec/analyst"
	"github.com/fwojciec/analyst/anthropic"
	"github.com/fwojciec/analyst/config"
	"github.com/fwojciec/analyst/gemini"
)

var errNoAPIKey = errors.New("no API key")

// resolveProvider constructs the completer for provider. Keys are passed in
// as values; env is only read by config.Load.
func resolveProvider(ctx context.Context, provider, model, apiKey string) (analyst.Completer, error) {
	switch provider {
	case config.ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set: %w", errNoAPIKey)
		}
		var opts []anthropic.Option
		if model != "" {
			opts = append(opts, anthropic.WithModel(model))
		}
		return anthropic.New(apiKey, opts...), nil
	case config.ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not set: %w", errNoAPIKey)
		}
		var opts []gemini.Option
		if model != "" {
			opts = append(opts, gemini.WithModel(model))
		}
		client, err := gemini.New(ctx, apiKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: must be \"anthropic\" or \"gemini\"", provider)
	}
}

// offlineCompleter fails every request, leaving the classifier and
// synthesizer on their keyword and template paths.
type offlineCompleter struct{}

func (offlineCompleter) Complete(context.Context, analyst.CompletionRequest) (analyst.Completion, error) {
	return analyst.Completion{}, errors.New("offline: no completion provider")
}
