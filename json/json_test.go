package json_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/analyst"
	analystjson "github.com/fwojciec/analyst/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)

func TestMarshalSession_RoundTrip(t *testing.T) {
	t.Parallel()
	session := analyst.Session{
		ID:        "sess-123",
		CreatedAt: base,
		UpdatedAt: base.Add(5 * time.Minute),
		Messages: []analyst.Message{
			analyst.UserMessage("Quantos clientes temos?", base),
			analyst.AssistantMessage("Temos 237 clientes.", base.Add(time.Second), map[string]any{
				"category":   "customer_analysis",
				"confidence": 0.92,
				"degraded":   false,
			}),
		},
	}

	data, err := analystjson.MarshalSession(session)
	require.NoError(t, err)

	got, err := analystjson.UnmarshalSession(data)
	require.NoError(t, err)

	assert.Equal(t, session.ID, got.ID)
	assert.True(t, session.CreatedAt.Equal(got.CreatedAt), "CreatedAt mismatch")
	assert.True(t, session.UpdatedAt.Equal(got.UpdatedAt), "UpdatedAt mismatch")
	require.Len(t, got.Messages, 2)

	assert.Equal(t, analyst.RoleUser, got.Messages[0].Role)
	assert.Equal(t, "Quantos clientes temos?", got.Messages[0].Content)
	assert.Nil(t, got.Messages[0].Metadata)

	am := got.Messages[1]
	assert.Equal(t, analyst.RoleAssistant, am.Role)
	assert.True(t, base.Add(time.Second).Equal(am.Timestamp))
	assert.Equal(t, "customer_analysis", am.Metadata["category"])
	assert.InDelta(t, 0.92, am.Metadata["confidence"], 1e-9)
	assert.Equal(t, false, am.Metadata["degraded"])
}

func TestMarshalSession_Envelope(t *testing.T) {
	t.Parallel()
	data, err := analystjson.MarshalSession(analyst.Session{
		ID:        "env",
		CreatedAt: base,
		UpdatedAt: base,
		Messages:  []analyst.Message{analyst.UserMessage("oi", base)},
	})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.InDelta(t, 2, raw["version"], 0)
	assert.Equal(t, "env", raw["id"])
	assert.Contains(t, raw, "created_at")
	assert.Contains(t, raw, "updated_at")
	assert.Equal(t, map[string]any{
		"message_count": float64(1),
		"first_at":      "2026-02-18T12:00:00Z",
		"last_at":       "2026-02-18T12:00:00Z",
	}, raw["stats"])

	msgs := raw["messages"].([]any)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "oi", msg["content"])
	assert.Equal(t, "2026-02-18T12:00:00Z", msg["timestamp"])
	assert.NotContains(t, msg, "metadata")
}

func TestMarshalSession_EmptySession(t *testing.T) {
	t.Parallel()
	data, err := analystjson.MarshalSession(analyst.Session{ID: "empty", CreatedAt: base, UpdatedAt: base})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"messages": []`)

	got, err := analystjson.UnmarshalSession(data)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
}

func TestMarshalSession_InvalidMessage(t *testing.T) {
	t.Parallel()
	_, err := analystjson.MarshalSession(analyst.Session{
		ID:       "bad",
		Messages: []analyst.Message{{Role: "tool", Content: "x", Timestamp: base}},
	})
	assert.ErrorIs(t, err, analyst.ErrValidation)
}

func TestUnmarshalSession_UnknownRole(t *testing.T) {
	t.Parallel()
	data := []byte(`{
		"version": 1,
		"id": "test",
		"created_at": "2026-02-18T12:00:00Z",
		"updated_at": "2026-02-18T12:00:00Z",
		"messages": [
			{"role": "tool", "content": "x", "timestamp": "2026-02-18T12:00:00Z"}
		]
	}`)
	_, err := analystjson.UnmarshalSession(data)
	assert.ErrorIs(t, err, analyst.ErrValidation)
}

func TestUnmarshalSession_UnsupportedVersion(t *testing.T) {
	t.Parallel()
	data := []byte(`{"version": 99, "id": "test", "messages": []}`)
	_, err := analystjson.UnmarshalSession(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported envelope version")
}

func TestUnmarshalSession_LegacyVersion(t *testing.T) {
	t.Parallel()
	data := []byte(`{
		"version": 1,
		"id": "old",
		"created_at": "2026-02-18T12:00:00Z",
		"updated_at": "2026-02-18T12:00:00Z",
		"messages": [
			{"role": "user", "content": "oi", "timestamp": "2026-02-18T12:00:00Z"}
		]
	}`)
	got, err := analystjson.UnmarshalSession(data)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "oi", got.Messages[0].Content)
}

func TestUnmarshalSession_StatsMismatch(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing stats": `{"version": 2, "id": "s", "messages": []}`,
		"wrong count": `{"version": 2, "id": "s",
			"stats": {"message_count": 2, "first_at": "2026-02-18T12:00:00Z", "last_at": "2026-02-18T12:00:00Z"},
			"messages": [{"role": "user", "content": "oi", "timestamp": "2026-02-18T12:00:00Z"}]}`,
		"wrong last": `{"version": 2, "id": "s",
			"stats": {"message_count": 1, "first_at": "2026-02-18T12:00:00Z", "last_at": "2026-02-18T13:00:00Z"},
			"messages": [{"role": "user", "content": "oi", "timestamp": "2026-02-18T12:00:00Z"}]}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := analystjson.UnmarshalSession([]byte(data))
			assert.ErrorContains(t, err, "envelope")
		})
	}
}

func TestLoadStats(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	t.Run("reads the stats block", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "v2.json")
		require.NoError(t, analystjson.Save(path, analyst.Session{
			ID: "v2",
			Messages: []analyst.Message{
				analyst.UserMessage("oi", base),
				analyst.AssistantMessage("olá", base.Add(time.Minute), nil),
			},
		}))
		st, err := analystjson.LoadStats(path)
		require.NoError(t, err)
		assert.Equal(t, "v2", st.ID)
		assert.Equal(t, 2, st.MessageCount)
		assert.True(t, st.FirstAt.Equal(base))
		assert.True(t, st.LastAt.Equal(base.Add(time.Minute)))
	})

	t.Run("summarizes legacy files", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "v1.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"version": 1, "id": "v1", "messages": [
			{"role": "user", "content": "oi", "timestamp": "2026-02-18T12:00:00Z"}]}`), 0o600))
		st, err := analystjson.LoadStats(path)
		require.NoError(t, err)
		assert.Equal(t, 1, st.MessageCount)
		assert.True(t, st.LastAt.Equal(base))
	})
}

func TestSave_And_Load(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "deep", "session.json")
	session := analyst.Session{
		ID:        "save-load",
		CreatedAt: base,
		UpdatedAt: base,
		Messages:  []analyst.Message{analyst.UserMessage("Olá", base)},
	}

	require.NoError(t, analystjson.Save(path, session))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file left behind")

	got, err := analystjson.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "save-load", got.ID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "Olá", got.Messages[0].Content)
}

func TestLoad_NonexistentFile(t *testing.T) {
	t.Parallel()
	_, err := analystjson.Load("/nonexistent/path/session.json")
	assert.Error(t, err)
}

func TestMessageLog_AppendRecent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := analystjson.NewMessageLog(t.TempDir())

	require.NoError(t, log.Append(ctx, "s1", analyst.UserMessage("primeira", base)))
	require.NoError(t, log.Append(ctx, "s1", analyst.AssistantMessage("resposta", base.Add(time.Second), map[string]any{"row_count": 3})))
	require.NoError(t, log.Append(ctx, "s2", analyst.UserMessage("outra sessão", base)))

	got, err := log.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "primeira", got[0].Content)
	assert.Equal(t, "resposta", got[1].Content)
	assert.InDelta(t, 3, got[1].Metadata["row_count"], 0)

	last, err := log.Recent(ctx, "s1", 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "resposta", last[0].Content)

	none, err := log.Recent(ctx, "unknown", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMessageLog_Cap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := analystjson.NewMessageLog(t.TempDir(), analystjson.WithMaxHistory(5))

	for i := range 12 {
		msg := analyst.UserMessage(string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, log.Append(ctx, "s", msg))
	}
	got, err := log.Recent(ctx, "s", 0)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "h", got[0].Content)
	assert.Equal(t, "l", got[4].Content)
}

func TestMessageLog_SessionIDEscaping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	log := analystjson.NewMessageLog(dir)

	id := "../escape/attempt"
	require.NoError(t, log.Append(ctx, id, analyst.UserMessage("oi", base)))
	assert.Equal(t, dir, filepath.Dir(log.Path(id)))

	stats, err := log.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, id, stats[0].ID)
}

func TestMessageLog_SessionsPurgePrune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := analystjson.NewMessageLog(t.TempDir())

	require.NoError(t, log.Append(ctx, "old", analyst.UserMessage("a", base)))
	require.NoError(t, log.Append(ctx, "old", analyst.UserMessage("b", base.Add(time.Minute))))
	require.NoError(t, log.Append(ctx, "new", analyst.UserMessage("c", base.Add(48*time.Hour))))

	stats, err := log.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "new", stats[0].ID)
	assert.Equal(t, "old", stats[1].ID)
	assert.Equal(t, 2, stats[1].MessageCount)
	assert.True(t, base.Equal(stats[1].FirstAt))
	assert.True(t, base.Add(time.Minute).Equal(stats[1].LastAt))

	n, err := log.Prune(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stats, err = log.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "new", stats[0].ID)

	require.NoError(t, log.Purge(ctx, "new"))
	require.NoError(t, log.Purge(ctx, "new"))
	stats, err = log.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestMessageLog_EmptyDir(t *testing.T) {
	t.Parallel()
	log := analystjson.NewMessageLog(filepath.Join(t.TempDir(), "missing"))
	stats, err := log.Sessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestMessageLog_CorruptFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	log := analystjson.NewMessageLog(dir)
	require.NoError(t, os.WriteFile(log.Path("s"), []byte("{not json"), 0o600))

	_, err := log.Recent(context.Background(), "s", 5)
	assert.ErrorIs(t, err, analyst.ErrStoreUnavailable)
}

func TestMessageLog_InvalidMessage(t *testing.T) {
	t.Parallel()
	log := analystjson.NewMessageLog(t.TempDir())
	err := log.Append(context.Background(), "s", analyst.Message{Role: analyst.RoleUser, Content: "x"})
	assert.ErrorIs(t, err, analyst.ErrValidation)
}

func TestMessageLog_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	log := analystjson.NewMessageLog(t.TempDir())
	err := log.Append(ctx, "s", analyst.UserMessage("x", base))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMessageLog_AppendTurn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := analystjson.NewMessageLog(t.TempDir())

	require.NoError(t, log.AppendTurn(ctx, "s",
		analyst.UserMessage("Quantos clientes temos?", base),
		analyst.AssistantMessage("Temos 237.", base.Add(time.Second), map[string]any{"state": "logged"}),
	))
	err := log.AppendTurn(ctx, "s",
		analyst.UserMessage("E no cluster 1?", base.Add(2*time.Second)),
		analyst.Message{Role: analyst.RoleAssistant, Content: "sem horário"},
	)
	require.ErrorIs(t, err, analyst.ErrValidation)

	got, err := log.Recent(ctx, "s", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Temos 237.", got[1].Content)
}
