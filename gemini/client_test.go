package gemini_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/analyst"
	"github.com/fwojciec/analyst/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		got := gemini.BuildConfig(analyst.CompletionRequest{Prompt: "oi"})
		assert.Equal(t, int32(1024), got.MaxOutputTokens)
		assert.Nil(t, got.SystemInstruction)
		assert.Nil(t, got.Temperature)
		assert.Empty(t, got.ResponseMIMEType)
	})

	t.Run("settings and JSON hint", func(t *testing.T) {
		t.Parallel()
		got := gemini.BuildConfig(analyst.CompletionRequest{
			SystemPrompt: "Você é um analista.",
			Prompt:       "classifique",
			Format:       analyst.FormatJSON,
			MaxTokens:    500,
			Temperature:  analyst.Temperature(0.2),
		})
		assert.Equal(t, int32(500), got.MaxOutputTokens)
		require.NotNil(t, got.Temperature)
		assert.InDelta(t, 0.2, float64(*got.Temperature), 1e-6)
		assert.Equal(t, "application/json", got.ResponseMIMEType)
		require.NotNil(t, got.SystemInstruction)
		require.Len(t, got.SystemInstruction.Parts, 1)
		assert.Equal(t, "Você é um analista.", got.SystemInstruction.Parts[0].Text)
	})
}

func TestResponseText(t *testing.T) {
	t.Parallel()

	t.Run("skips thoughts", func(t *testing.T) {
		t.Parallel()
		resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "pensando...", Thought: true},
				{Text: "Temos "},
				{Text: "237 clientes."},
			}},
		}}}
		got, err := gemini.ResponseText(resp)
		require.NoError(t, err)
		assert.Equal(t, "Temos 237 clientes.", got)
	})

	t.Run("no candidates", func(t *testing.T) {
		t.Parallel()
		_, err := gemini.ResponseText(&genai.GenerateContentResponse{})
		assert.Error(t, err)
		_, err = gemini.ResponseText(nil)
		assert.Error(t, err)
	})

	t.Run("blocked candidate", func(t *testing.T) {
		t.Parallel()
		resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonSafety,
		}}}
		_, err := gemini.ResponseText(resp)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SAFETY")
	})
}

func TestClient_Complete(t *testing.T) {
	t.Parallel()

	var captured []byte
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		captured, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"category\":\"general_chat\",\"confidence\":0.9}"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":8},"modelVersion":"gemini-2.5-flash"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	c, err := gemini.New(ctx, "test-key", gemini.WithBaseURL(srv.URL), gemini.WithModel("gemini-test"))
	require.NoError(t, err)

	got, err := c.Complete(ctx, analyst.CompletionRequest{Prompt: "Olá", Format: analyst.FormatJSON})
	require.NoError(t, err)

	assert.JSONEq(t, `{"category":"general_chat","confidence":0.9}`, got.Text)
	assert.Equal(t, "gemini-2.5-flash", got.Model)
	assert.Equal(t, analyst.Usage{InputTokens: 12, OutputTokens: 8}, got.Usage)
	assert.True(t, strings.HasSuffix(path, "models/gemini-test:generateContent"), path)

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured, &body))
	assert.Contains(t, string(captured), "Olá")
	assert.Contains(t, string(captured), "application/json")
}

func TestClient_InvalidRequest(t *testing.T) {
	t.Parallel()

	c, err := gemini.New(context.Background(), "test-key", gemini.WithBaseURL("http://127.0.0.1:0"))
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), analyst.CompletionRequest{})
	assert.ErrorIs(t, err, analyst.ErrValidation)
}
