package approach

import (
	"regexp"
	"strings"

	"precision-medicine-server/internal/domain"
)

// Canned reasons returned with fallback decisions.
const (
	allopathyReason  = "Best for acute conditions requiring immediate relief."
	homeopathyReason = "Ideal for chronic or long-term health issues."
	ayurvedaReason   = "Recommended for lifestyle balance and holistic wellness."
)

// acute or urgent indicators
var allopathyPatterns = compile(
	`sudden`, `acute`, `severe`, `pain`, `fever`, `infection`,
	`headache`, `injury`, `wound`, `bleeding`, `broken`, `fracture`,
	`emergency`, `urgent`, `immediate`, `antibiotics`, `surgery`,
	`accident`, `heart attack`, `stroke`, `seizure`,
)

// chronic or recurring indicators
var homeopathyPatterns = compile(
	`chronic`, `long[\s-]*term`, `recurring`, `years`, `months`,
	`persistent`, `asthma`, `arthritis`, `allergy`, `diabetes`,
	`thyroid`, `autoimmune`, `eczema`, `psoriasis`, `migraine`,
	`depression`, `anxiety`, `sleep`, `insomnia`,
)

// wellness, lifestyle and prevention indicators
var ayurvedaPatterns = compile(
	`wellness`, `balance`, `diet`, `lifestyle`, `digestion`,
	`detox`, `cleanse`, `prevention`, `dosha`, `energy`,
	`fatigue`, `stress`, `meditation`, `yoga`, `weight`,
	`metabolism`, `immunity`, `rejuvenation`, `holistic`,
)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// countMatches counts patterns found in s; each pattern counts at most once.
func countMatches(s string, patterns []*regexp.Regexp) int {
	n := 0
	for _, re := range patterns {
		if re.MatchString(s) {
			n++
		}
	}
	return n
}

// Fallback classifies a query by keyword pattern counts. The highest count wins,
// ties between leaders go Allopathy, then Homeopathy, then Ayurveda, and a query
// matching nothing resolves to Ayurveda.
func Fallback(query string) domain.Decision {
	q := strings.ToLower(query)
	allo := countMatches(q, allopathyPatterns)
	homeo := countMatches(q, homeopathyPatterns)
	ayur := countMatches(q, ayurvedaPatterns)

	decision := domain.Decision{Source: domain.SourceFallback}
	switch {
	case allo > 0 && allo >= homeo && allo >= ayur:
		decision.Approach, decision.Reason = domain.ApproachAllopathy, allopathyReason
	case homeo > 0 && homeo >= ayur:
		decision.Approach, decision.Reason = domain.ApproachHomeopathy, homeopathyReason
	default:
		decision.Approach, decision.Reason = domain.ApproachAyurveda, ayurvedaReason
	}
	return decision
}
