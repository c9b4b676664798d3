// Package mock provides test doubles for analyst interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/analyst"
)

// Interface compliance check.
var _ analyst.Completer = (*Completer)(nil)

// Completer is a test double for analyst.Completer.
// Set CompleteFn before calling Complete.
type Completer struct {
	CompleteFn func(ctx context.Context, req analyst.CompletionRequest) (analyst.Completion, error)
}

// Complete delegates to CompleteFn.
func (c *Completer) Complete(ctx context.Context, req analyst.CompletionRequest) (analyst.Completion, error) {
	return c.CompleteFn(ctx, req)
}

// Text returns a Completer that always answers with text.
func Text(text string) *Completer {
	return &Completer{
		CompleteFn: func(context.Context, analyst.CompletionRequest) (analyst.Completion, error) {
			return analyst.Completion{Text: text}, nil
		},
	}
}

// Failing returns a Completer that always fails with err.
func Failing(err error) *Completer {
	return &Completer{
		CompleteFn: func(context.Context, analyst.CompletionRequest) (analyst.Completion, error) {
			return analyst.Completion{}, err
		},
	}
}
