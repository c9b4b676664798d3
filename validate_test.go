package analyst_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/analyst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionRequest_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid defaults", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, analyst.CompletionRequest{Prompt: "hi"}.Validate())
	})

	t.Run("valid with all fields", func(t *testing.T) {
		t.Parallel()
		r := analyst.CompletionRequest{
			Model:        "gemini-2.5-flash",
			SystemPrompt: "You classify intents.",
			Prompt:       "Quantos clientes temos?",
			Format:       analyst.FormatJSON,
			MaxTokens:    500,
			Temperature:  analyst.Temperature(0.2),
		}
		assert.NoError(t, r.Validate())
	})

	t.Run("empty prompt", func(t *testing.T) {
		t.Parallel()
		err := analyst.CompletionRequest{Prompt: "  "}.Validate()
		assert.ErrorIs(t, err, analyst.ErrValidation)
	})

	t.Run("temperature bounds", func(t *testing.T) {
		t.Parallel()
		for _, temp := range []float64{-0.1, 2.1} {
			err := analyst.CompletionRequest{Prompt: "hi", Temperature: analyst.Temperature(temp)}.Validate()
			assert.ErrorIs(t, err, analyst.ErrValidation, "temperature %g", temp)
		}
		for _, temp := range []float64{0, 2} {
			assert.NoError(t, analyst.CompletionRequest{Prompt: "hi", Temperature: analyst.Temperature(temp)}.Validate())
		}
	})

	t.Run("negative max tokens", func(t *testing.T) {
		t.Parallel()
		err := analyst.CompletionRequest{Prompt: "hi", MaxTokens: -1}.Validate()
		assert.ErrorIs(t, err, analyst.ErrValidation)
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		err := analyst.CompletionRequest{Prompt: "hi", Format: "xml"}.Validate()
		assert.ErrorIs(t, err, analyst.ErrValidation)
	})
}

func TestIntentDecision_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		d       analyst.IntentDecision
		wantErr bool
	}{
		{"general chat", analyst.GeneralChat(0.9, analyst.SourceLLM), false},
		{"general chat with specialist", analyst.IntentDecision{Category: analyst.CategoryGeneralChat, Specialist: analyst.SpecialistClient}, true},
		{"data query", analyst.IntentDecision{Category: analyst.CategoryDataQuery, Specialist: analyst.SpecialistSale, Confidence: 1}, false},
		{"data query without specialist", analyst.IntentDecision{Category: analyst.CategoryDataQuery}, true},
		{"unknown category", analyst.IntentDecision{Category: "smalltalk"}, true},
		{"confidence above one", analyst.IntentDecision{Category: analyst.CategoryDataQuery, Specialist: analyst.SpecialistSale, Confidence: 1.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.d.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, analyst.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestQueryParameters_Validate(t *testing.T) {
	t.Parallel()

	base := func() analyst.QueryParameters {
		return analyst.QueryParameters{Kind: analyst.QuerySelect, Table: "Visão_cliente"}
	}

	t.Run("valid select", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.Limit = 10
		p.OrderBy = &analyst.OrderBy{Field: "receita_bruta_12m", Direction: analyst.Desc}
		assert.NoError(t, p.Validate(100))
	})

	t.Run("limit above maximum", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.Limit = 101
		assert.ErrorIs(t, p.Validate(100), analyst.ErrInvalidParameters)
	})

	t.Run("zero maximum disables bound", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.Limit = 1_000_000
		assert.NoError(t, p.Validate(0))
	})

	t.Run("negative limit", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.Limit = -5
		assert.ErrorIs(t, p.Validate(100), analyst.ErrInvalidParameters)
	})

	t.Run("filter without filters", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.Kind = analyst.QueryFilter
		assert.ErrorIs(t, p.Validate(100), analyst.ErrInvalidParameters)
	})

	t.Run("filter with range only", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.Kind = analyst.QueryFilter
		p.Ranges = map[string]analyst.Range{"recencia_dias": {GT: 90}}
		assert.NoError(t, p.Validate(100))
	})

	t.Run("aggregate without operators", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.Kind = analyst.QueryAggregate
		assert.ErrorIs(t, p.Validate(100), analyst.ErrInvalidParameters)
	})

	t.Run("unknown operator", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.Kind = analyst.QueryAggregate
		p.Aggregations = map[string]analyst.AggregateOp{"x": "median"}
		assert.ErrorIs(t, p.Validate(100), analyst.ErrInvalidParameters)
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.Kind = "delete"
		assert.ErrorIs(t, p.Validate(100), analyst.ErrInvalidParameters)
	})

	t.Run("missing table", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.Table = ""
		assert.ErrorIs(t, p.Validate(100), analyst.ErrInvalidParameters)
	})

	t.Run("empty range", func(t *testing.T) {
		t.Parallel()
		p := base()
		p.Ranges = map[string]analyst.Range{"x": {}}
		assert.ErrorIs(t, p.Validate(100), analyst.ErrInvalidParameters)
	})
}

func TestAgentResponse_Validate(t *testing.T) {
	t.Parallel()

	t.Run("success carries data", func(t *testing.T) {
		t.Parallel()
		r := analyst.Succeed(analyst.Result{Record: analyst.Row{"count": 1}}, analyst.ResponseMetadata{})
		assert.NoError(t, r.Validate())
	})

	t.Run("failure carries error and kind", func(t *testing.T) {
		t.Parallel()
		r := analyst.Fail(analyst.ErrStoreUnavailable, analyst.ResponseMetadata{QueryKind: analyst.QueryCount})
		require.NoError(t, r.Validate())
		assert.Nil(t, r.Data)
		assert.Equal(t, analyst.KindStoreUnavailable, r.ErrorKind())
		assert.Equal(t, "store_unavailable", r.Metadata.Diagnostics["error_kind"])
	})

	t.Run("success without data is invalid", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, analyst.AgentResponse{Success: true}.Validate(), analyst.ErrValidation)
	})

	t.Run("failure with data is invalid", func(t *testing.T) {
		t.Parallel()
		r := analyst.AgentResponse{Data: &analyst.Result{}, Err: errors.New("x")}
		assert.ErrorIs(t, r.Validate(), analyst.ErrValidation)
	})

	t.Run("failure without error is invalid", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, analyst.AgentResponse{}.Validate(), analyst.ErrValidation)
	})
}
