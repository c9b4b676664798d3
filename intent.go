package analyst

// Category is the classified purpose of a user turn.
type Category string

const (
	CategoryDataQuery   Category = "data_query"
	CategoryGeneralChat Category = "general_chat"
)

// SpecialistRef names an entry in the specialist registry.
type SpecialistRef string

const (
	SpecialistNone    SpecialistRef = ""
	SpecialistClient  SpecialistRef = "client_view"
	SpecialistCluster SpecialistRef = "cluster_view"
	SpecialistSale    SpecialistRef = "sale_view"
	SpecialistProduct SpecialistRef = "product_view"
	SpecialistPeriod  SpecialistRef = "period_comparison"
)

// DecisionSource records which path produced an IntentDecision.
type DecisionSource string

const (
	SourceLLM     DecisionSource = "llm"
	SourceKeyword DecisionSource = "keyword"
)

// IntentDecision is the classifier's output for one turn. When Category is
// CategoryGeneralChat, Specialist is SpecialistNone and Parameters are
// ignored downstream.
type IntentDecision struct {
	Category   Category
	Confidence float64
	Specialist SpecialistRef
	Parameters QueryParameters
	Reasoning  string
	Source     DecisionSource
}

// GeneralChat returns a chat decision with the given confidence and source.
func GeneralChat(confidence float64, source DecisionSource) IntentDecision {
	return IntentDecision{
		Category:   CategoryGeneralChat,
		Confidence: ClampConfidence(confidence),
		Source:     source,
	}
}

// ClampConfidence restricts c to [0, 1].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
