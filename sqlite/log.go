package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/analyst"
)

// DefaultMaxHistory caps the messages kept per session.
const DefaultMaxHistory = 50

// Interface compliance checks.
var (
	_ analyst.MessageLog   = (*MessageLog)(nil)
	_ analyst.SessionIndex = (*MessageLog)(nil)
)

// MessageLog stores conversation messages in the messages table. Each
// session keeps at most maxHistory messages; older ones are dropped on
// append.
type MessageLog struct {
	db         *DB
	maxHistory int
}

// LogOption configures a [MessageLog].
type LogOption func(*MessageLog)

// WithMaxHistory sets the per-session cap. Zero or less keeps everything.
func WithMaxHistory(n int) LogOption {
	return func(l *MessageLog) { l.maxHistory = n }
}

// NewMessageLog creates a MessageLog over db.
func NewMessageLog(db *DB, opts ...LogOption) *MessageLog {
	l := &MessageLog{db: db, maxHistory: DefaultMaxHistory}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Append stores msg at the end of the session and trims the session to the
// history cap in the same transaction.
func (l *MessageLog) Append(ctx context.Context, sessionID string, msg analyst.Message) error {
	return l.AppendTurn(ctx, sessionID, msg)
}

// AppendTurn stores msgs in one transaction, then trims the session to the
// history cap before committing.
func (l *MessageLog) AppendTurn(ctx context.Context, sessionID string, msgs ...analyst.Message) error {
	metas := make([]sql.NullString, len(msgs))
	for i, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return err
		}
		if len(msg.Metadata) == 0 {
			continue
		}
		b, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("sqlite: marshal metadata: %w", err)
		}
		metas[i] = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := l.db.db.BeginTx(ctx, nil)
	if err != nil {
		return logErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, msg := range msgs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, role, content, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
			sessionID, string(msg.Role), msg.Content, metas[i], msg.Timestamp.UnixNano(),
		); err != nil {
			return logErr(err)
		}
	}
	if l.maxHistory > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM messages WHERE session_id = ? AND id NOT IN (
				SELECT id FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?
			)`, sessionID, sessionID, l.maxHistory,
		); err != nil {
			return logErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return logErr(err)
	}
	return nil
}

// Recent returns the last n messages of the session, oldest first. If
// n <= 0, returns all.
func (l *MessageLog) Recent(ctx context.Context, sessionID string, n int) ([]analyst.Message, error) {
	if n <= 0 {
		n = -1 // no limit
	}
	rows, err := l.db.db.QueryContext(ctx, `
		SELECT role, content, metadata, created_at FROM (
			SELECT id, role, content, metadata, created_at FROM messages
			WHERE session_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, sessionID, n)
	if err != nil {
		return nil, logErr(err)
	}
	defer rows.Close()

	msgs := []analyst.Message{}
	for rows.Next() {
		var (
			m    analyst.Message
			role string
			meta sql.NullString
			ts   int64
		)
		if err := rows.Scan(&role, &m.Content, &meta, &ts); err != nil {
			return nil, logErr(err)
		}
		m.Role = analyst.Role(role)
		m.Timestamp = time.Unix(0, ts).UTC()
		if meta.Valid {
			if err := json.Unmarshal([]byte(meta.String), &m.Metadata); err != nil {
				return nil, fmt.Errorf("sqlite: decode metadata: %w", err)
			}
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, logErr(err)
	}
	return msgs, nil
}

// Purge deletes every message of the session.
func (l *MessageLog) Purge(ctx context.Context, sessionID string) error {
	if _, err := l.db.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return logErr(err)
	}
	return nil
}

// Sessions returns stats for every stored session, most recently active
// first.
func (l *MessageLog) Sessions(ctx context.Context) ([]analyst.SessionStats, error) {
	rows, err := l.db.db.QueryContext(ctx, `
		SELECT session_id, COUNT(*), MIN(created_at), MAX(created_at)
		FROM messages GROUP BY session_id ORDER BY MAX(created_at) DESC, session_id`)
	if err != nil {
		return nil, logErr(err)
	}
	defer rows.Close()

	out := []analyst.SessionStats{}
	for rows.Next() {
		var (
			s           analyst.SessionStats
			first, last int64
		)
		if err := rows.Scan(&s.ID, &s.MessageCount, &first, &last); err != nil {
			return nil, logErr(err)
		}
		s.FirstAt = time.Unix(0, first).UTC()
		s.LastAt = time.Unix(0, last).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, logErr(err)
	}
	return out, nil
}

// Prune removes sessions whose latest message is older than cutoff.
func (l *MessageLog) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := l.db.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, logErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	const stale = `SELECT session_id FROM messages GROUP BY session_id HAVING MAX(created_at) < ?`
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM (`+stale+`)`, cutoff.UnixNano()).Scan(&n); err != nil {
		return 0, logErr(err)
	}
	if n == 0 {
		return 0, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id IN (`+stale+`)`, cutoff.UnixNano()); err != nil {
		return 0, logErr(err)
	}
	if err := tx.Commit(); err != nil {
		return 0, logErr(err)
	}
	return n, nil
}

func logErr(err error) error {
	return fmt.Errorf("sqlite: message log: %w: %w", analyst.ErrStoreUnavailable, err)
}
