// Package history assembles the recent-message context window for a turn.
//
// The Assembler reads from a durable analyst.MessageLog and falls back to an
// explicit in-memory Cache when the log is unreachable. Fallback is reported
// through Window.Degraded and never fails the caller.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/analyst"
	"go.uber.org/zap"
)

const defaultTimeout = 3 * time.Second

// Window is an assembled context window.
type Window struct {
	Messages []analyst.Message
	// Degraded is set when Messages came from the cache because the log
	// failed. Err holds that failure.
	Degraded bool
	Err      error
}

// Assembler loads context windows and records new messages.
type Assembler struct {
	log     analyst.MessageLog
	cache   *Cache
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures an [Assembler].
type Option func(*Assembler)

// WithTimeout bounds each call to the message log.
func WithTimeout(d time.Duration) Option {
	return func(a *Assembler) { a.timeout = d }
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// New creates an Assembler over log with cache as the fallback tier. A nil
// cache gets a default-sized one.
func New(log analyst.MessageLog, cache *Cache, opts ...Option) *Assembler {
	if cache == nil {
		cache = NewCache(0, 0)
	}
	a := &Assembler{
		log:     log,
		cache:   cache,
		timeout: defaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Assemble returns at most n of the session's most recent messages, oldest
// first. Unknown sessions and n <= 0 yield an empty window.
func (a *Assembler) Assemble(ctx context.Context, sessionID string, n int) Window {
	if n <= 0 {
		return Window{Messages: []analyst.Message{}}
	}
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	msgs, err := a.log.Recent(cctx, sessionID, n)
	if err != nil {
		err = fmt.Errorf("recent %s: %w: %w", sessionID, analyst.ErrStoreUnavailable, err)
		a.logger.Warn("message log unavailable, using cached context",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return Window{Messages: a.cache.Recent(sessionID, n), Degraded: true, Err: err}
	}
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	if msgs == nil {
		msgs = []analyst.Message{}
	}
	a.cache.Refresh(sessionID, msgs)
	return Window{Messages: msgs}
}

// Record writes msgs through the cache to the log as one unit. The cache is
// always updated. The log write is detached from ctx's cancellation so a
// started write completes within the log timeout; either every message is
// persisted or none is.
func (a *Assembler) Record(ctx context.Context, sessionID string, msgs ...analyst.Message) error {
	a.cache.Add(sessionID, msgs...)
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()
	if err := a.log.AppendTurn(cctx, sessionID, msgs...); err != nil {
		return fmt.Errorf("append %s: %w: %w", sessionID, analyst.ErrStoreUnavailable, err)
	}
	return nil
}

// Purge removes the session from the log and the cache.
func (a *Assembler) Purge(ctx context.Context, sessionID string) error {
	a.cache.Drop(sessionID)
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.log.Purge(cctx, sessionID); err != nil {
		return fmt.Errorf("purge %s: %w: %w", sessionID, analyst.ErrStoreUnavailable, err)
	}
	return nil
}
