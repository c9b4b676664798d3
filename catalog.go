package analyst

import "strings"

// SpecialistInfo describes one registry entry to the intent classifier: the
// data view it answers for, the phrases that trigger it and whether a
// handler is currently bound.
type SpecialistInfo struct {
	Ref         SpecialistRef
	Table       string
	Description string
	Fields      []string
	// Keywords are matched case-insensitively as substrings by the
	// deterministic fallback, in registry order.
	Keywords []string
	Examples []string
	// Metric is the field the fallback aggregates when the utterance asks
	// for a total or an average.
	Metric string
	Bound  bool
}

// MatchKeyword reports whether the lowercased utterance contains one of the
// entry's keywords.
func (s SpecialistInfo) MatchKeyword(utterance string) bool {
	u := strings.ToLower(utterance)
	for _, k := range s.Keywords {
		if k != "" && strings.Contains(u, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
