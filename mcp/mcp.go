// Package mcp exposes the analyst over the Model Context Protocol. The
// server offers two tools: ask, which runs one conversational turn, and
// clear_session, which purges a session's history.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fwojciec/analyst"
	"github.com/fwojciec/analyst/coordinator"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Tool names.
const (
	ToolAsk          = "ask"
	ToolClearSession = "clear_session"
)

const (
	defaultName    = "analyst"
	defaultVersion = "dev"
)

// Coordinator runs and clears conversation turns.
type Coordinator interface {
	Run(ctx context.Context, sessionID, utterance string, opts ...coordinator.RunOption) (analyst.Turn, error)
	Clear(ctx context.Context, sessionID string) error
}

// Interface compliance check.
var _ Coordinator = (*coordinator.Coordinator)(nil)

// Server is an MCP tool server backed by a Coordinator.
type Server struct {
	coord   Coordinator
	name    string
	version string
	logger  *zap.Logger
	server  *server.MCPServer
}

// Option configures a [Server].
type Option func(*Server)

// WithVersion sets the version reported to clients.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server and registers its tools.
func New(coord Coordinator, opts ...Option) *Server {
	s := &Server{
		coord:   coord,
		name:    defaultName,
		version: defaultVersion,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.server = server.NewMCPServer(
		s.name,
		s.version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer { return s.server }

// ServeStdio serves the tools over stdin and stdout until stdin closes.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio", zap.String("version", s.version))
	return server.ServeStdio(s.server)
}

func (s *Server) registerTools() {
	askTool := mcp.NewTool(ToolAsk,
		mcp.WithDescription("Ask the e-commerce data analyst a question in natural language. "+
			"Questions about customers, clusters, sales or products are answered from the data; "+
			"anything else gets a conversational reply."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The question or message"),
		),
		mcp.WithString("session_id",
			mcp.Description("Session to continue; omit to start a new one"),
		),
	)
	s.server.AddTool(askTool, s.Ask)

	clearTool := mcp.NewTool(ToolClearSession,
		mcp.WithDescription("Delete the stored history of a session"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session to clear"),
		),
	)
	s.server.AddTool(clearTool, s.ClearSession)
}

// AskResult is the JSON payload returned by the ask tool.
type AskResult struct {
	SessionID  string          `json:"session_id"`
	Reply      string          `json:"reply"`
	Category   string          `json:"category"`
	Specialist string          `json:"specialist,omitempty"`
	Confidence float64         `json:"confidence"`
	Source     string          `json:"decision_source"`
	State      string          `json:"state"`
	Degraded   bool            `json:"degraded,omitempty"`
	ErrorKind  string          `json:"error_kind,omitempty"`
	RowCount   int             `json:"row_count,omitempty"`
	Data       *analyst.Result `json:"data,omitempty"`
	ElapsedMS  int64           `json:"elapsed_ms"`
}

// NewAskResult builds the ask payload for a completed turn.
func NewAskResult(t analyst.Turn) AskResult {
	r := AskResult{
		SessionID:  t.SessionID,
		Reply:      t.Reply,
		Category:   string(t.Decision.Category),
		Specialist: string(t.Decision.Specialist),
		Confidence: t.Decision.Confidence,
		Source:     string(t.Decision.Source),
		State:      string(t.State),
		Degraded:   t.Degraded,
		ErrorKind:  string(t.ErrorKind),
		ElapsedMS:  t.Elapsed.Milliseconds(),
	}
	if resp := t.Response; resp != nil && resp.Success {
		r.RowCount = resp.Metadata.RowCount
		r.Data = resp.Data
	}
	return r
}

// Ask handles the ask tool.
func (s *Server) Ask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sessionID := request.GetString("session_id", "")

	turn, err := s.coord.Run(ctx, sessionID, message)
	if errors.Is(err, analyst.ErrValidation) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	s.logger.Debug("mcp ask answered",
		zap.String("session_id", turn.SessionID),
		zap.String("state", string(turn.State)),
	)

	payload, err := json.Marshal(NewAskResult(turn))
	if err != nil {
		return nil, fmt.Errorf("ask: encode result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// ClearSession handles the clear_session tool.
func (s *Server) ClearSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.coord.Clear(ctx, sessionID); err != nil {
		s.logger.Warn("clear session failed", zap.String("session_id", sessionID), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("could not clear session %s", sessionID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("session %s cleared", sessionID)), nil
}
