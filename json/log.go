package json

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/analyst"
)

// DefaultMaxHistory caps the messages kept per session file.
const DefaultMaxHistory = 50

const fileExt = ".json"

// Interface compliance checks.
var (
	_ analyst.MessageLog   = (*MessageLog)(nil)
	_ analyst.SessionIndex = (*MessageLog)(nil)
)

// MessageLog keeps each session in its own envelope file under dir.
type MessageLog struct {
	dir        string
	maxHistory int
	now        func() time.Time

	mu sync.Mutex
}

// Option configures a [MessageLog].
type Option func(*MessageLog)

// WithMaxHistory sets the per-session cap. Zero or less keeps everything.
func WithMaxHistory(n int) Option {
	return func(l *MessageLog) { l.maxHistory = n }
}

// WithClock overrides the clock used for envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *MessageLog) { l.now = now }
}

// NewMessageLog creates a MessageLog rooted at dir. The directory is created
// on first append.
func NewMessageLog(dir string, opts ...Option) *MessageLog {
	l := &MessageLog{dir: dir, maxHistory: DefaultMaxHistory, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Path returns the file backing the session.
func (l *MessageLog) Path(sessionID string) string {
	return filepath.Join(l.dir, url.PathEscape(sessionID)+fileExt)
}

// Append adds msg to the session file, trimming the oldest messages beyond
// the cap.
func (l *MessageLog) Append(ctx context.Context, sessionID string, msg analyst.Message) error {
	return l.AppendTurn(ctx, sessionID, msg)
}

// AppendTurn adds msgs to the session file with a single atomic Save.
func (l *MessageLog) AppendTurn(ctx context.Context, sessionID string, msgs ...analyst.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return err
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.load(sessionID)
	if err != nil {
		return err
	}
	now := l.now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	for _, msg := range msgs {
		s.Messages = append(s.Messages, msg.Clone())
	}
	if l.maxHistory > 0 && len(s.Messages) > l.maxHistory {
		s.Messages = slices.Clone(s.Messages[len(s.Messages)-l.maxHistory:])
	}
	if err := Save(l.Path(sessionID), s); err != nil {
		return logErr(err)
	}
	return nil
}

// Recent returns the last n messages of the session, oldest first. If
// n <= 0, returns all.
func (l *MessageLog) Recent(ctx context.Context, sessionID string, n int) ([]analyst.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	s, err := l.load(sessionID)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	msgs := s.Messages
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]analyst.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Purge removes the session file. Purging an unknown session is not an error.
func (l *MessageLog) Purge(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.Remove(l.Path(sessionID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return logErr(err)
	}
	return nil
}

// Sessions returns stats for every session file, most recently active first.
func (l *MessageLog) Sessions(ctx context.Context) ([]analyst.SessionStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	ids, err := l.ids()
	if err != nil {
		return nil, err
	}
	out := []analyst.SessionStats{}
	for _, id := range ids {
		st, err := LoadStats(l.Path(id))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, logErr(err)
		}
		if st.MessageCount == 0 {
			continue
		}
		st.ID = id
		out = append(out, st)
	}
	slices.SortStableFunc(out, func(a, b analyst.SessionStats) int {
		if c := b.LastAt.Compare(a.LastAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Prune removes sessions whose latest message is older than cutoff.
func (l *MessageLog) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	stats, err := l.Sessions(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range stats {
		if !s.LastAt.Before(cutoff) {
			continue
		}
		if err := l.Purge(ctx, s.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// load reads the session file. A missing file yields an empty session.
func (l *MessageLog) load(sessionID string) (analyst.Session, error) {
	s, err := Load(l.Path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return analyst.Session{ID: sessionID}, nil
	}
	if err != nil {
		return analyst.Session{}, logErr(err)
	}
	s.ID = sessionID
	return s, nil
}

// ids lists the session IDs that have a file under dir.
func (l *MessageLog) ids() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(l.dir), "*"+fileExt)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, logErr(err)
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		id, err := url.PathUnescape(strings.TrimSuffix(m, fileExt))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func logErr(err error) error {
	return fmt.Errorf("json: message log: %w: %w", analyst.ErrStoreUnavailable, err)
}
