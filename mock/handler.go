package mock

import (
	"context"
	"sync/atomic"

	"github.com/fwojciec/analyst"
)

// Interface compliance check.
var _ analyst.Handler = (*Handler)(nil)

// Handler is a test double for analyst.Handler that counts invocations.
// Set HandleFn before calling Handle.
type Handler struct {
	HandleFn func(ctx context.Context, in analyst.AgentInstruction) analyst.AgentResponse

	calls atomic.Int64
}

// Handle records the call and delegates to HandleFn.
func (h *Handler) Handle(ctx context.Context, in analyst.AgentInstruction) analyst.AgentResponse {
	h.calls.Add(1)
	return h.HandleFn(ctx, in)
}

// Calls returns how many times Handle was invoked.
func (h *Handler) Calls() int {
	return int(h.calls.Load())
}
