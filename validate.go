package analyst

import (
	"fmt"
	"strings"
)

// Validate checks universal constraints on CompletionRequest.
// Completer implementations may apply additional provider-specific validation.
func (r CompletionRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("prompt must not be empty: %w", ErrValidation)
	}
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	switch r.Format {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("unknown response format %q: %w", r.Format, ErrValidation)
	}
	return nil
}

// Validate checks the invariants of an IntentDecision.
func (d IntentDecision) Validate() error {
	switch d.Category {
	case CategoryGeneralChat:
		if d.Specialist != SpecialistNone {
			return fmt.Errorf("general chat must not name a specialist, got %q: %w", d.Specialist, ErrValidation)
		}
	case CategoryDataQuery:
		if d.Specialist == SpecialistNone {
			return fmt.Errorf("data query must name a specialist: %w", ErrValidation)
		}
	default:
		return fmt.Errorf("unknown category %q: %w", d.Category, ErrValidation)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence must be in [0, 1], got %g: %w", d.Confidence, ErrValidation)
	}
	return nil
}

// Validate checks the query parameters against maxLimit. A maxLimit of zero
// disables the bound.
func (p QueryParameters) Validate(maxLimit int) error {
	switch p.Kind {
	case QuerySelect, QueryCount, QueryAggregate:
	case QueryFilter:
		if len(p.Filters) == 0 && len(p.Ranges) == 0 {
			return fmt.Errorf("filter query requires at least one filter: %w", ErrInvalidParameters)
		}
	default:
		return fmt.Errorf("unknown query kind %q: %w", p.Kind, ErrInvalidParameters)
	}
	if p.Table == "" {
		return fmt.Errorf("table is required: %w", ErrInvalidParameters)
	}
	if p.Limit < 0 {
		return fmt.Errorf("limit must be positive, got %d: %w", p.Limit, ErrInvalidParameters)
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		return fmt.Errorf("limit %d exceeds maximum %d: %w", p.Limit, maxLimit, ErrInvalidParameters)
	}
	for field, op := range p.Aggregations {
		if !op.Valid() {
			return fmt.Errorf("unknown aggregation %q for field %q: %w", op, field, ErrInvalidParameters)
		}
	}
	if p.Kind == QueryAggregate && len(p.Aggregations) == 0 && p.GroupBy == "" {
		return fmt.Errorf("aggregate query requires aggregations: %w", ErrInvalidParameters)
	}
	if p.OrderBy != nil {
		if p.OrderBy.Field == "" {
			return fmt.Errorf("order field is required: %w", ErrInvalidParameters)
		}
		if !p.OrderBy.Direction.Valid() {
			return fmt.Errorf("unknown order direction %q: %w", p.OrderBy.Direction, ErrInvalidParameters)
		}
	}
	for field, r := range p.Ranges {
		if r.Empty() {
			return fmt.Errorf("range for %q has no bounds: %w", field, ErrInvalidParameters)
		}
	}
	return nil
}

// Validate checks the success/data/error invariant of an AgentResponse.
func (r AgentResponse) Validate() error {
	if r.Success {
		if r.Data == nil {
			return fmt.Errorf("successful response must carry data: %w", ErrValidation)
		}
		if r.Err != nil {
			return fmt.Errorf("successful response must not carry an error: %w", ErrValidation)
		}
		return nil
	}
	if r.Data != nil {
		return fmt.Errorf("failed response must not carry data: %w", ErrValidation)
	}
	if r.Err == nil {
		return fmt.Errorf("failed response must carry an error: %w", ErrValidation)
	}
	return nil
}
