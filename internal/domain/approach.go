package domain

// Approach is the label returned by approach selection.
type Approach string

const (
	ApproachAllopathy  Approach = "Allopathy"
	ApproachHomeopathy Approach = "Homeopathy"
	ApproachAyurveda   Approach = "Ayurveda"
)

// ParseApproach accepts exactly one of the three labels.
func ParseApproach(s string) (Approach, bool) {
	switch a := Approach(s); a {
	case ApproachAllopathy, ApproachHomeopathy, ApproachAyurveda:
		return a, true
	}
	return "", false
}

// DecisionSource records which path produced a decision.
type DecisionSource string

const (
	SourceLLM      DecisionSource = "llm"
	SourceFallback DecisionSource = "fallback"
)

// Decision is the outcome of approach selection.
type Decision struct {
	Approach Approach       `json:"approach"`
	Reason   string         `json:"reason"`
	Source   DecisionSource `json:"source"`
}
