package analyst_test

import (
	"testing"
	"time"

	"github.com/fwojciec/analyst"
	"github.com/stretchr/testify/assert"
)

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	now := time.Now()

	t.Run("user message", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, analyst.UserMessage("oi", now).Validate())
	})

	t.Run("system role is valid", func(t *testing.T) {
		t.Parallel()
		m := analyst.Message{Role: analyst.RoleSystem, Content: "x", Timestamp: now}
		assert.NoError(t, m.Validate())
	})

	t.Run("unknown role", func(t *testing.T) {
		t.Parallel()
		m := analyst.Message{Role: "tool", Content: "x", Timestamp: now}
		assert.ErrorIs(t, m.Validate(), analyst.ErrValidation)
	})

	t.Run("zero timestamp", func(t *testing.T) {
		t.Parallel()
		m := analyst.Message{Role: analyst.RoleUser, Content: "x"}
		assert.ErrorIs(t, m.Validate(), analyst.ErrValidation)
	})
}

func TestMessage_Clone(t *testing.T) {
	t.Parallel()

	orig := analyst.AssistantMessage("ok", time.Now(), map[string]any{"specialist": "client_view"})
	c := orig.Clone()
	c.Metadata["specialist"] = "sale_view"

	assert.Equal(t, "client_view", orig.Metadata["specialist"])
}

func TestRole_Values(t *testing.T) {
	t.Parallel()
	assert.Equal(t, analyst.Role("user"), analyst.RoleUser)
	assert.Equal(t, analyst.Role("assistant"), analyst.RoleAssistant)
	assert.Equal(t, analyst.Role("system"), analyst.RoleSystem)
	assert.False(t, analyst.Role("tool_result").Valid())
}
