package analyst

import (
	"context"
	"time"
)

// TableStore executes query descriptors over named tables.
type TableStore interface {
	// Select returns the rows matching q, ordered and limited as requested.
	Select(ctx context.Context, q Query) ([]Row, error)
	// Count returns the number of rows matching q's filters. Fields, order
	// and limit are ignored.
	Count(ctx context.Context, q Query) (int, error)
}

// MessageLog is the durable, append-only conversation store.
type MessageLog interface {
	Append(ctx context.Context, sessionID string, msg Message) error
	// AppendTurn stores msgs at the end of the session as one unit: either
	// every message is persisted or none is.
	AppendTurn(ctx context.Context, sessionID string, msgs ...Message) error
	// Recent returns at most n of the session's latest messages, oldest
	// first. An unknown session yields an empty slice.
	Recent(ctx context.Context, sessionID string, n int) ([]Message, error)
	Purge(ctx context.Context, sessionID string) error
}

// SessionIndex is implemented by message logs that can enumerate and expire
// sessions.
type SessionIndex interface {
	Sessions(ctx context.Context) ([]SessionStats, error)
	// Prune removes sessions whose latest message is older than cutoff and
	// returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}
