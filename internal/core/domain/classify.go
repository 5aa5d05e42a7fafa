package domain

// QueryLabel is the closed set of classification outcomes for a
// question. The classifier delegates to an LLM whose free-text output
// is mapped onto these values; anything unparseable becomes
// LabelUnknown and is treated as company-related downstream.
type QueryLabel string

const (
	// LabelCompany marks questions about the organization that
	// require retrieval from the indexed corpus.
	LabelCompany QueryLabel = "company"

	// LabelGeneral marks free-form conversation that is answered
	// from history alone, without retrieval.
	LabelGeneral QueryLabel = "general"

	// LabelUnknown marks a failed or unparseable classification.
	// It never propagates past the classifier: callers see
	// LabelCompany with a degraded confidence instead.
	LabelUnknown QueryLabel = "unknown"
)

// InDomain reports whether the label requires corpus retrieval.
// Unknown fails open to retrieval.
func (l QueryLabel) InDomain() bool {
	return l != LabelGeneral
}

// Classification is the classifier's judgement for one question.
type Classification struct {
	// Label is the resolved label (never LabelUnknown).
	Label QueryLabel

	// Confidence is the model's self-reported confidence in [0, 1].
	Confidence float64

	// Reason is the model's short explanation, for logging.
	Reason string

	// Degraded is set when the LLM call failed or returned an
	// unparseable label and the heuristic fallback was used.
	Degraded bool
}
