package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fwojciec/analyst"
)

// Interface compliance checks.
var (
	_ analyst.MessageLog   = (*MessageLog)(nil)
	_ analyst.SessionIndex = (*MessageLog)(nil)
)

// MessageLog keeps each session's messages in insertion order.
type MessageLog struct {
	mu         sync.RWMutex
	sessions   map[string][]analyst.Message
	maxHistory int
}

// NewMessageLog creates an empty log. maxHistory caps the messages kept per
// session, dropping the oldest; zero keeps everything.
func NewMessageLog(maxHistory int) *MessageLog {
	return &MessageLog{
		sessions:   make(map[string][]analyst.Message),
		maxHistory: maxHistory,
	}
}

// Append stores msg at the end of the session.
func (l *MessageLog) Append(ctx context.Context, sessionID string, msg analyst.Message) error {
	return l.AppendTurn(ctx, sessionID, msg)
}

// AppendTurn stores msgs under a single lock; an invalid message leaves the
// session untouched.
func (l *MessageLog) AppendTurn(ctx context.Context, sessionID string, msgs ...analyst.Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory: %w: %w", analyst.ErrStoreUnavailable, err)
	}
	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return err
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := slices.Clone(l.sessions[sessionID])
	for _, msg := range msgs {
		out = append(out, msg.Clone())
	}
	if l.maxHistory > 0 && len(out) > l.maxHistory {
		out = slices.Clone(out[len(out)-l.maxHistory:])
	}
	l.sessions[sessionID] = out
	return nil
}

// Recent returns the last n messages of the session, oldest first.
// If n <= 0, returns all.
func (l *MessageLog) Recent(ctx context.Context, sessionID string, n int) ([]analyst.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("memory: %w: %w", analyst.ErrStoreUnavailable, err)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	msgs := l.sessions[sessionID]
	if n <= 0 || n > len(msgs) {
		n = len(msgs)
	}
	out := make([]analyst.Message, 0, n)
	for _, m := range msgs[len(msgs)-n:] {
		out = append(out, m.Clone())
	}
	return out, nil
}

// Purge deletes the session.
func (l *MessageLog) Purge(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory: %w: %w", analyst.ErrStoreUnavailable, err)
	}
	l.mu.Lock()
	delete(l.sessions, sessionID)
	l.mu.Unlock()
	return nil
}

// Sessions returns stats for every stored session.
func (l *MessageLog) Sessions(ctx context.Context) ([]analyst.SessionStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("memory: %w: %w", analyst.ErrStoreUnavailable, err)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]analyst.SessionStats, 0, len(l.sessions))
	for id, msgs := range l.sessions {
		if len(msgs) == 0 {
			continue
		}
		out = append(out, analyst.SessionStats{
			ID:           id,
			MessageCount: len(msgs),
			FirstAt:      msgs[0].Timestamp,
			LastAt:       msgs[len(msgs)-1].Timestamp,
		})
	}
	slices.SortFunc(out, func(a, b analyst.SessionStats) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Prune removes sessions whose latest message is before cutoff.
func (l *MessageLog) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("memory: %w: %w", analyst.ErrStoreUnavailable, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, msgs := range l.sessions {
		if len(msgs) == 0 || msgs[len(msgs)-1].Timestamp.Before(cutoff) {
			delete(l.sessions, id)
			removed++
		}
	}
	return removed, nil
}
