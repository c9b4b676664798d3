package history_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fwojciec/analyst"
	"github.com/fwojciec/analyst/history"
	"github.com/fwojciec/analyst/memory"
	"github.com/fwojciec/analyst/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func seeded(t *testing.T, n int) *memory.MessageLog {
	t.Helper()
	l := memory.NewMessageLog(0)
	for i := range n {
		require.NoError(t, l.Append(context.Background(), "s1",
			analyst.UserMessage(fmt.Sprint(i), base.Add(time.Duration(i)*time.Second))))
	}
	return l
}

func TestAssembler_Assemble(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns the latest window oldest first", func(t *testing.T) {
		t.Parallel()
		a := history.New(seeded(t, 1000), nil)
		w := a.Assemble(ctx, "s1", 6)
		require.False(t, w.Degraded)
		require.Len(t, w.Messages, 6)
		assert.Equal(t, "994", w.Messages[0].Content)
		assert.Equal(t, "999", w.Messages[5].Content)
		for i := 1; i < len(w.Messages); i++ {
			assert.False(t, w.Messages[i].Timestamp.Before(w.Messages[i-1].Timestamp))
		}
	})

	t.Run("unknown session yields empty window", func(t *testing.T) {
		t.Parallel()
		a := history.New(memory.NewMessageLog(0), nil)
		w := a.Assemble(ctx, "nobody", 6)
		assert.False(t, w.Degraded)
		assert.Empty(t, w.Messages)
	})

	t.Run("zero window size", func(t *testing.T) {
		t.Parallel()
		a := history.New(seeded(t, 3), nil)
		assert.Empty(t, a.Assemble(ctx, "s1", 0).Messages)
	})

	t.Run("falls back to cache when log fails", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("connection refused")
		log := &mock.MessageLog{
			RecentFn: func(context.Context, string, int) ([]analyst.Message, error) { return nil, boom },
		}
		cache := history.NewCache(10, 10)
		cache.Add("s1",
			analyst.UserMessage("hi", base),
			analyst.AssistantMessage("hello", base.Add(time.Second), nil),
		)
		a := history.New(log, cache)

		w := a.Assemble(ctx, "s1", 6)
		assert.True(t, w.Degraded)
		assert.ErrorIs(t, w.Err, analyst.ErrStoreUnavailable)
		require.Len(t, w.Messages, 2)
		assert.Equal(t, "hello", w.Messages[1].Content)
	})

	t.Run("slow log times out into degraded mode", func(t *testing.T) {
		t.Parallel()
		log := &mock.MessageLog{
			RecentFn: func(ctx context.Context, _ string, _ int) ([]analyst.Message, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
		a := history.New(log, nil, history.WithTimeout(10*time.Millisecond))
		w := a.Assemble(ctx, "s1", 6)
		assert.True(t, w.Degraded)
		assert.ErrorIs(t, w.Err, context.DeadlineExceeded)
		assert.Empty(t, w.Messages)
	})

	t.Run("successful load refreshes cache", func(t *testing.T) {
		t.Parallel()
		cache := history.NewCache(10, 10)
		a := history.New(seeded(t, 4), cache)
		a.Assemble(ctx, "s1", 6)
		got := cache.Recent("s1", 6)
		require.Len(t, got, 4)
		assert.Equal(t, "3", got[3].Content)
	})
}

func TestAssembler_Record(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("writes through to log", func(t *testing.T) {
		t.Parallel()
		log := memory.NewMessageLog(0)
		a := history.New(log, nil)
		require.NoError(t, a.Record(ctx, "s1",
			analyst.UserMessage("q", base),
			analyst.AssistantMessage("a", base.Add(time.Second), nil),
		))
		got, err := log.Recent(ctx, "s1", 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, analyst.RoleUser, got[0].Role)
		assert.Equal(t, analyst.RoleAssistant, got[1].Role)
	})

	t.Run("log failure still updates cache", func(t *testing.T) {
		t.Parallel()
		log := &mock.MessageLog{
			AppendTurnFn: func(context.Context, string, ...analyst.Message) error { return errors.New("disk full") },
		}
		cache := history.NewCache(10, 10)
		a := history.New(log, cache)
		err := a.Record(ctx, "s1", analyst.UserMessage("q", base))
		assert.ErrorIs(t, err, analyst.ErrStoreUnavailable)
		assert.Len(t, cache.Recent("s1", 6), 1)
	})
}

func TestAssembler_Record_Atomic(t *testing.T) {
	t.Parallel()

	t.Run("one write per turn", func(t *testing.T) {
		t.Parallel()
		var calls [][]analyst.Message
		log := &mock.MessageLog{
			AppendTurnFn: func(_ context.Context, _ string, msgs ...analyst.Message) error {
				calls = append(calls, msgs)
				return nil
			},
		}
		a := history.New(log, nil)
		require.NoError(t, a.Record(context.Background(), "s1",
			analyst.UserMessage("q", base),
			analyst.AssistantMessage("a", base.Add(time.Second), nil),
		))
		require.Len(t, calls, 1)
		assert.Len(t, calls[0], 2)
	})

	t.Run("cancelled caller does not abort the write", func(t *testing.T) {
		t.Parallel()
		log := memory.NewMessageLog(0)
		a := history.New(log, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.NoError(t, a.Record(ctx, "s1",
			analyst.UserMessage("q", base),
			analyst.AssistantMessage("a", base.Add(time.Second), nil),
		))
		got, err := log.Recent(context.Background(), "s1", 0)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("invalid message persists nothing", func(t *testing.T) {
		t.Parallel()
		log := memory.NewMessageLog(0)
		a := history.New(log, nil)

		err := a.Record(context.Background(), "s1",
			analyst.UserMessage("q", base),
			analyst.Message{Role: "tool", Content: "x", Timestamp: base},
		)
		require.Error(t, err)
		got, err := log.Recent(context.Background(), "s1", 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestAssembler_Purge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := history.NewCache(10, 10)
	log := seeded(t, 3)
	a := history.New(log, cache)
	a.Assemble(ctx, "s1", 6)

	require.NoError(t, a.Purge(ctx, "s1"))
	assert.Empty(t, cache.Recent("s1", 6))
	assert.Empty(t, a.Assemble(ctx, "s1", 6).Messages)
}

func TestCache(t *testing.T) {
	t.Parallel()

	t.Run("evicts least recently used session", func(t *testing.T) {
		t.Parallel()
		c := history.NewCache(2, 5)
		c.Add("a", analyst.UserMessage("1", base))
		c.Add("b", analyst.UserMessage("2", base))
		c.Recent("a", 1)
		c.Add("c", analyst.UserMessage("3", base))

		assert.Equal(t, 2, c.Len())
		assert.Len(t, c.Recent("a", 1), 1)
		assert.Empty(t, c.Recent("b", 1))
	})

	t.Run("caps messages per session", func(t *testing.T) {
		t.Parallel()
		c := history.NewCache(1, 3)
		for i := range 5 {
			c.Add("a", analyst.UserMessage(fmt.Sprint(i), base))
		}
		got := c.Recent("a", 10)
		require.Len(t, got, 3)
		assert.Equal(t, "2", got[0].Content)
	})

	t.Run("refresh keeps the longer window", func(t *testing.T) {
		t.Parallel()
		c := history.NewCache(1, 10)
		c.Add("a", analyst.UserMessage("1", base), analyst.UserMessage("2", base))
		c.Refresh("a", []analyst.Message{analyst.UserMessage("2", base)})
		assert.Len(t, c.Recent("a", 10), 2)
	})
}
