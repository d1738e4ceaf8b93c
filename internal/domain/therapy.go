package domain

import (
	"fmt"
	"strings"
)

// Philosophy is a treatment tradition a therapy belongs to.
type Philosophy string

const (
	Allopathy  Philosophy = "allopathy"
	Homeopathy Philosophy = "homeopathy"
	Ayurveda   Philosophy = "ayurveda"
)

// Philosophies lists every known philosophy in priority order.
var Philosophies = []Philosophy{Allopathy, Homeopathy, Ayurveda}

// Valid reports whether p is one of the known philosophies.
func (p Philosophy) Valid() bool {
	switch p {
	case Allopathy, Homeopathy, Ayurveda:
		return true
	}
	return false
}

// Title returns the capitalized display name, e.g. "Allopathy".
func (p Philosophy) Title() string {
	if p == "" {
		return ""
	}
	s := string(p)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Selector chooses which philosophies a recommendation request covers.
type Selector string

const (
	SelectAllopathy  Selector = "allopathy"
	SelectHomeopathy Selector = "homeopathy"
	SelectAyurveda   Selector = "ayurveda"
	SelectBoth       Selector = "both"
	SelectAll        Selector = "all"
)

// DefaultSelector is used when a results view has no selector recorded.
const DefaultSelector = SelectBoth

// ParseSelector normalizes and validates a selector string.
func ParseSelector(s string) (Selector, error) {
	sel := Selector(strings.ToLower(strings.TrimSpace(s)))
	switch sel {
	case SelectAllopathy, SelectHomeopathy, SelectAyurveda, SelectBoth, SelectAll:
		return sel, nil
	}
	return "", fmt.Errorf("unknown agent type %q", s)
}

// Philosophies expands the selector into the philosophies it requests.
func (s Selector) Philosophies() []Philosophy {
	switch s {
	case SelectAllopathy:
		return []Philosophy{Allopathy}
	case SelectHomeopathy:
		return []Philosophy{Homeopathy}
	case SelectAyurveda:
		return []Philosophy{Ayurveda}
	case SelectBoth:
		return []Philosophy{Allopathy, Homeopathy}
	case SelectAll:
		return []Philosophy{Allopathy, Homeopathy, Ayurveda}
	}
	return nil
}

// TherapyRecord is one recommended treatment. Scores are on a 0-100 scale.
// OverallScore is nil until supplied by the model or computed by the ranker.
type TherapyRecord struct {
	TherapyType        Philosophy `json:"therapy_type"`
	TherapyName        string     `json:"therapy_name"`
	Description        string     `json:"description"`
	EfficacyScore      float64    `json:"efficacy_score"`
	CompatibilityScore float64    `json:"compatibility_score"`
	SafetyScore        float64    `json:"safety_score"`
	CostScore          float64    `json:"cost_score"`
	OverallScore       *float64   `json:"overall_score,omitempty"`
	SideEffects        []string   `json:"side_effects"`
	Contraindications  []string   `json:"contraindications"`
	SupportingEvidence string     `json:"supporting_evidence"`
}

// HasOverall reports whether an overall score is present.
func (r TherapyRecord) HasOverall() bool {
	return r.OverallScore != nil
}

// Overall returns the overall score, or 0 when absent.
func (r TherapyRecord) Overall() float64 {
	if r.OverallScore == nil {
		return 0
	}
	return *r.OverallScore
}

// WithOverall returns a copy carrying the given overall score.
func (r TherapyRecord) WithOverall(score float64) TherapyRecord {
	r.OverallScore = &score
	return r
}

// WithDefaults fills the fields a results view relies on.
func (r TherapyRecord) WithDefaults() TherapyRecord {
	if r.TherapyType == "" {
		r.TherapyType = "unknown"
	}
	if r.TherapyName == "" {
		r.TherapyName = "Unknown Therapy"
	}
	if r.Description == "" {
		r.Description = "No description available"
	}
	if r.OverallScore == nil {
		r = r.WithOverall(0)
	}
	if r.SideEffects == nil {
		r.SideEffects = []string{}
	}
	if r.Contraindications == nil {
		r.Contraindications = []string{}
	}
	return r
}

// Float returns a pointer to v, for building records with an overall score.
func Float(v float64) *float64 {
	return &v
}
