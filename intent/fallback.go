package intent

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/fwojciec/analyst"
)

const defaultLimit = 10

var (
	countWords = []string{"quantos", "quantas", "quantidade", "número de", "numero de", "how many", "count"}
	totalWords = []string{"total", "soma", "somar", "sum"}
	avgWords   = []string{"média", "media", "average", "avg"}
	rankWords  = []string{"top", "maior", "maiores", "melhor", "melhores"}
	lowWords   = []string{"menor", "menores", "pior", "piores"}

	topN = regexp.MustCompile(`(?i)\btop\s+(\d{1,4})\b`)

	comparisonCues = wordSet("comparar", "compare", "comparação", "comparacao", "comparativo",
		"versus", "vs", "variação", "variacao", "crescimento", "evolução", "evolucao", "trend")
	groupWords = wordSet("cluster", "clusters", "segmento", "segmentos", "grupo", "grupos")
	timeWords  = wordSet("mês", "mes", "meses", "mensal", "trimestre", "ano", "anos",
		"janeiro", "fevereiro", "março", "marco", "abril", "maio", "junho", "julho",
		"agosto", "setembro", "outubro", "novembro", "dezembro")
)

// Fallback classifies utterance by keyword alone. The first catalog entry
// whose keywords occur in the utterance wins; no match is general chat.
// Comparison cues are checked first: they pick the period view unless a
// cluster or segment is named without any time unit. The client view never
// wins when the utterance mentions a cluster. Parameters are inferred from a
// handful of fixed cue words.
func Fallback(utterance string, catalog []analyst.SpecialistInfo) analyst.IntentDecision {
	u := strings.ToLower(utterance)
	words := wordSet(strings.FieldsFunc(u, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})...)

	if words.hasAny(comparisonCues) {
		ref := analyst.SpecialistPeriod
		if words.hasAny(groupWords) && !words.hasAny(timeWords) {
			ref = analyst.SpecialistCluster
		}
		for _, s := range catalog {
			if s.Ref == ref {
				return keywordDecision(u, s, "keyword fallback: comparison")
			}
		}
	}
	for _, s := range catalog {
		if !s.MatchKeyword(utterance) {
			continue
		}
		if s.Ref == analyst.SpecialistClient && strings.Contains(u, "cluster") {
			continue
		}
		return keywordDecision(u, s, "keyword fallback")
	}
	d := analyst.GeneralChat(FallbackConfidence, analyst.SourceKeyword)
	d.Reasoning = "keyword fallback: no specialist keyword"
	return d
}

func keywordDecision(u string, s analyst.SpecialistInfo, reasoning string) analyst.IntentDecision {
	return analyst.IntentDecision{
		Category:   analyst.CategoryDataQuery,
		Confidence: FallbackConfidence,
		Specialist: s.Ref,
		Parameters: fallbackParameters(u, s),
		Reasoning:  reasoning,
		Source:     analyst.SourceKeyword,
	}
}

func fallbackParameters(u string, s analyst.SpecialistInfo) analyst.QueryParameters {
	p := analyst.QueryParameters{
		Kind:  analyst.QuerySelect,
		Table: s.Table,
		Limit: defaultLimit,
	}
	if m := topN.FindStringSubmatch(u); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			p.Limit = n
		}
	}

	switch {
	case containsAny(u, countWords):
		p.Kind = analyst.QueryCount
		p.Limit = 0
	case s.Metric != "" && containsAny(u, avgWords):
		p.Kind = analyst.QueryAggregate
		p.Aggregations = map[string]analyst.AggregateOp{s.Metric: analyst.OpAvg}
	case s.Metric != "" && containsAny(u, totalWords):
		p.Kind = analyst.QueryAggregate
		p.Aggregations = map[string]analyst.AggregateOp{s.Metric: analyst.OpSum}
	case s.Metric != "" && containsAny(u, lowWords):
		p.OrderBy = &analyst.OrderBy{Field: s.Metric, Direction: analyst.Asc}
	case s.Metric != "" && containsAny(u, rankWords):
		p.OrderBy = &analyst.OrderBy{Field: s.Metric, Direction: analyst.Desc}
	}
	if p.Kind == analyst.QueryAggregate {
		p.Limit = 0
	}
	return p
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

type set map[string]struct{}

func wordSet(words ...string) set {
	s := make(set, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func (s set) hasAny(other set) bool {
	for w := range other {
		if _, ok := s[w]; ok {
			return true
		}
	}
	return false
}
