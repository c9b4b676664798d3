package intent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/analyst"
)

// ParseError is a completion payload that did not yield a valid decision.
type ParseError struct {
	Payload string // excerpt of the raw completion
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse intent %q: %v", e.Payload, e.Err)
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause.
func (e *ParseError) Unwrap() []error {
	return []error{analyst.ErrClassificationUnavailable, e.Err}
}

const excerptLen = 120

func parseErr(payload string, err error) *ParseError {
	if r := []rune(payload); len(r) > excerptLen {
		payload = string(r[:excerptLen]) + "…"
	}
	return &ParseError{Payload: payload, Err: err}
}

type wireDecision struct {
	Category   string          `json:"category"`
	IntentType string          `json:"intent_type"`
	Confidence *float64        `json:"confidence"`
	Specialist string          `json:"specialist"`
	Agent      string          `json:"requires_agent"`
	Parameters *wireParameters `json:"parameters"`
	Extracted  *wireParameters `json:"extracted_parameters"`
	Reasoning  string          `json:"reasoning"`
}

type wireParameters struct {
	QueryKind    string                   `json:"query_kind"`
	QueryType    string                   `json:"query_type"`
	Table        string                   `json:"table"`
	Fields       []string                 `json:"fields"`
	Filters      map[string]any           `json:"filters"`
	Ranges       map[string]analyst.Range `json:"ranges"`
	Aggregations map[string]string        `json:"aggregations"`
	Aggregation  map[string]string        `json:"aggregation"`
	GroupBy      string                   `json:"group_by"`
	OrderBy      json.RawMessage          `json:"order_by"`
	Limit        int                      `json:"limit"`
	Period1      string                   `json:"period1"`
	Period2      string                   `json:"period2"`
}

// Parse extracts the JSON object between the first '{' and the last '}' of
// text and validates it against catalog. Every failure is a *ParseError.
func Parse(text string, catalog []analyst.SpecialistInfo) (analyst.IntentDecision, error) {
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return analyst.IntentDecision{}, parseErr(text, errors.New("no JSON object in completion"))
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text[start : end+1])))
	dec.UseNumber()
	var w wireDecision
	if err := dec.Decode(&w); err != nil {
		return analyst.IntentDecision{}, parseErr(text, err)
	}

	d, err := w.decision(catalog)
	if err != nil {
		return analyst.IntentDecision{}, parseErr(text, err)
	}
	return d, nil
}

func (w wireDecision) decision(catalog []analyst.SpecialistInfo) (analyst.IntentDecision, error) {
	if w.Confidence == nil {
		return analyst.IntentDecision{}, errors.New("confidence is missing")
	}
	category := firstNonEmpty(w.Category, w.IntentType)
	switch category {
	case "data_analysis":
		category = string(analyst.CategoryDataQuery)
	case "":
		return analyst.IntentDecision{}, errors.New("category is missing")
	}

	if analyst.Category(category) == analyst.CategoryGeneralChat {
		d := analyst.GeneralChat(*w.Confidence, analyst.SourceLLM)
		d.Reasoning = w.Reasoning
		return d, d.Validate()
	}

	ref := analyst.SpecialistRef(strings.TrimSuffix(firstNonEmpty(w.Specialist, w.Agent), "_agent"))
	info, ok := lookup(catalog, ref)
	if !ok {
		return analyst.IntentDecision{}, fmt.Errorf("specialist %q is not in the registry: %w", ref, analyst.ErrValidation)
	}

	p := w.Parameters
	if p == nil {
		p = w.Extracted
	}
	if p == nil {
		p = &wireParameters{}
	}
	params, err := p.parameters(info)
	if err != nil {
		return analyst.IntentDecision{}, err
	}

	d := analyst.IntentDecision{
		Category:   analyst.Category(category),
		Confidence: analyst.ClampConfidence(*w.Confidence),
		Specialist: ref,
		Parameters: params,
		Reasoning:  w.Reasoning,
		Source:     analyst.SourceLLM,
	}
	return d, d.Validate()
}

func (p wireParameters) parameters(info analyst.SpecialistInfo) (analyst.QueryParameters, error) {
	kind := analyst.QueryKind(firstNonEmpty(p.QueryKind, p.QueryType))
	switch kind {
	case "", "list":
		kind = analyst.QuerySelect
	}

	order, err := parseOrder(p.OrderBy)
	if err != nil {
		return analyst.QueryParameters{}, err
	}

	var aggs map[string]analyst.AggregateOp
	for _, m := range []map[string]string{p.Aggregation, p.Aggregations} {
		for field, op := range m {
			if aggs == nil {
				aggs = make(map[string]analyst.AggregateOp)
			}
			aggs[field] = analyst.AggregateOp(strings.ToLower(op))
		}
	}

	filters := make(map[string]any, len(p.Filters))
	for k, v := range p.Filters {
		if v == nil {
			continue
		}
		filters[k] = normalize(v)
	}
	ranges := make(map[string]analyst.Range, len(p.Ranges))
	for k, r := range p.Ranges {
		ranges[k] = analyst.Range{GT: normalize(r.GT), GTE: normalize(r.GTE), LT: normalize(r.LT), LTE: normalize(r.LTE)}
	}

	return analyst.QueryParameters{
		Kind: kind,
		// The bound table is authoritative; models often paraphrase it.
		Table:        info.Table,
		Fields:       p.Fields,
		Filters:      filters,
		Ranges:       ranges,
		Aggregations: aggs,
		GroupBy:      p.GroupBy,
		OrderBy:      order,
		Limit:        p.Limit,
		Period1:      p.Period1,
		Period2:      p.Period2,
	}, nil
}

// parseOrder accepts "field.desc" or {"field": ..., "direction": ...}.
func parseOrder(raw json.RawMessage) (*analyst.OrderBy, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return analyst.ParseOrderBy(s)
	}
	var o struct {
		Field     string `json:"field"`
		Direction string `json:"direction"`
	}
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("order_by: %w", err)
	}
	if o.Field == "" {
		return nil, nil
	}
	return analyst.ParseOrderBy(o.Field + "." + firstNonEmpty(strings.ToLower(o.Direction), "asc"))
}

// normalize turns json.Number into int64 or float64 so stores bind native
// numeric values.
func normalize(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func lookup(catalog []analyst.SpecialistInfo, ref analyst.SpecialistRef) (analyst.SpecialistInfo, bool) {
	for _, s := range catalog {
		if s.Ref == ref {
			return s, true
		}
	}
	return analyst.SpecialistInfo{}, false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
