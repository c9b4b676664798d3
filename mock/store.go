package mock

import (
	"context"
	"time"

	"github.com/fwojciec/analyst"
)

// Interface compliance checks.
var (
	_ analyst.TableStore   = (*TableStore)(nil)
	_ analyst.MessageLog   = (*MessageLog)(nil)
	_ analyst.SessionIndex = (*MessageLog)(nil)
)

// TableStore is a test double for analyst.TableStore.
// Set the function fields for the methods you need.
type TableStore struct {
	SelectFn func(ctx context.Context, q analyst.Query) ([]analyst.Row, error)
	CountFn  func(ctx context.Context, q analyst.Query) (int, error)
}

// Select delegates to SelectFn.
func (s *TableStore) Select(ctx context.Context, q analyst.Query) ([]analyst.Row, error) {
	return s.SelectFn(ctx, q)
}

// Count delegates to CountFn.
func (s *TableStore) Count(ctx context.Context, q analyst.Query) (int, error) {
	return s.CountFn(ctx, q)
}

// MessageLog is a test double for analyst.MessageLog and analyst.SessionIndex.
// Set the function fields for the methods you need.
type MessageLog struct {
	AppendFn     func(ctx context.Context, sessionID string, msg analyst.Message) error
	AppendTurnFn func(ctx context.Context, sessionID string, msgs ...analyst.Message) error
	RecentFn     func(ctx context.Context, sessionID string, n int) ([]analyst.Message, error)
	PurgeFn      func(ctx context.Context, sessionID string) error
	SessionsFn   func(ctx context.Context) ([]analyst.SessionStats, error)
	PruneFn      func(ctx context.Context, cutoff time.Time) (int, error)
}

// Append delegates to AppendFn.
func (l *MessageLog) Append(ctx context.Context, sessionID string, msg analyst.Message) error {
	return l.AppendFn(ctx, sessionID, msg)
}

// AppendTurn delegates to AppendTurnFn.
func (l *MessageLog) AppendTurn(ctx context.Context, sessionID string, msgs ...analyst.Message) error {
	return l.AppendTurnFn(ctx, sessionID, msgs...)
}

// Recent delegates to RecentFn.
func (l *MessageLog) Recent(ctx context.Context, sessionID string, n int) ([]analyst.Message, error) {
	return l.RecentFn(ctx, sessionID, n)
}

// Purge delegates to PurgeFn.
func (l *MessageLog) Purge(ctx context.Context, sessionID string) error {
	return l.PurgeFn(ctx, sessionID)
}

// Sessions delegates to SessionsFn.
func (l *MessageLog) Sessions(ctx context.Context) ([]analyst.SessionStats, error) {
	return l.SessionsFn(ctx)
}

// Prune delegates to PruneFn.
func (l *MessageLog) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	return l.PruneFn(ctx, cutoff)
}
