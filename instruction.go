package analyst

import (
	"context"
	"time"
)

// AgentInstruction is the sole input contract into a Handler.
type AgentInstruction struct {
	Specialist SpecialistRef
	Task       string
	Parameters QueryParameters
	Context    map[string]any
	SessionID  string
}

// Result is a handler's normalized data: an ordered sequence of rows, or a
// single record for counts and ungrouped aggregates.
type Result struct {
	Rows   []Row `json:"rows,omitempty"`
	Record Row   `json:"record,omitempty"`
}

// ResponseMetadata is populated by every handler, successful or not.
type ResponseMetadata struct {
	RowCount    int
	QueryKind   QueryKind
	Elapsed     time.Duration
	Diagnostics map[string]any
}

// AgentResponse is the sole output contract out of a Handler. Success
// implies Data is set and Err is nil; failure implies the reverse.
type AgentResponse struct {
	Success  bool
	Data     *Result
	Err      error
	Metadata ResponseMetadata
}

// ErrorKind returns the taxonomy kind of the response's error.
func (r AgentResponse) ErrorKind() ErrorKind { return KindOf(r.Err) }

// Succeed builds a successful response.
func Succeed(data Result, meta ResponseMetadata) AgentResponse {
	return AgentResponse{Success: true, Data: &data, Metadata: meta}
}

// Fail builds a failed response carrying err.
func Fail(err error, meta ResponseMetadata) AgentResponse {
	if meta.Diagnostics == nil {
		meta.Diagnostics = map[string]any{}
	}
	meta.Diagnostics["error_kind"] = string(KindOf(err))
	return AgentResponse{Success: false, Err: err, Metadata: meta}
}

// Handler answers instructions for one bound data view. Handle never returns
// an error; failures are reported through AgentResponse.
type Handler interface {
	Handle(ctx context.Context, in AgentInstruction) AgentResponse
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, in AgentInstruction) AgentResponse

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, in AgentInstruction) AgentResponse {
	return f(ctx, in)
}
