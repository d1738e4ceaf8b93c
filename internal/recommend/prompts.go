package recommend

import (
	"encoding/json"
	"fmt"

	"precision-medicine-server/internal/domain"
)

// variant is one prompt flavor. philosophy is used to fill records whose therapy_type is
// missing; it is empty for the combined variant.
type variant struct {
	name       string
	philosophy domain.Philosophy
	system     string
}

const allopathyPrompt = `You are a specialized medical AI trained to provide allopathic therapy recommendations.

Use evidence-based medical knowledge from PubMed, Clinical Trials, FDA, and WHO data.

For each therapy recommendation, provide:
1. Therapy name
2. Description
3. Efficacy score (0-100)
4. Compatibility score based on patient profile (0-100)
5. Safety score (0-100)
6. Cost score (higher = more affordable, 0-100)
7. Side effects
8. Contraindications
9. Supporting evidence (citations or research basis)

Your response must be well-structured and in JSON format with a 'therapies' array.

Response format example:
{
  "therapies": [
    {
      "therapy_type": "allopathy",
      "therapy_name": "Therapy Name",
      "description": "Detailed description",
      "efficacy_score": 85,
      "compatibility_score": 90,
      "safety_score": 80,
      "cost_score": 70,
      "overall_score": 82,
      "side_effects": ["effect1", "effect2"],
      "contraindications": ["contraindication1"],
      "supporting_evidence": "Evidence details"
    }
  ]
}

Ensure all recommendations are evidence-based and backed by scientific research.`

const homeopathyPrompt = `You are a specialized medical AI trained to provide homeopathic therapy recommendations.

Use knowledge from homeopathic repertories, traditional wisdom, and holistic health practices.

For each therapy recommendation, provide:
1. Remedy name
2. Description
3. Efficacy score based on symptom similarity (0-100)
4. Compatibility score based on constitutional type (0-100)
5. Safety score (0-100)
6. Cost score (higher = more affordable, 0-100)
7. Potency and frequency
8. Lifestyle modifications
9. Supporting evidence (traditional sources, case studies)

Your response must be well-structured and in JSON format with a 'therapies' array.

Response format example:
{
  "therapies": [
    {
      "therapy_type": "homeopathy",
      "therapy_name": "Remedy Name",
      "description": "Detailed description",
      "efficacy_score": 85,
      "compatibility_score": 90,
      "safety_score": 95,
      "cost_score": 80,
      "overall_score": 88,
      "side_effects": ["effect1", "effect2"],
      "contraindications": ["contraindication1"],
      "supporting_evidence": "Traditional evidence details"
    }
  ]
}

Focus on the principle of 'like cures like' and individualize treatments.`

const ayurvedaPrompt = `You are a specialized medical AI trained to provide Ayurvedic therapy recommendations.

Use knowledge from traditional Ayurvedic texts, dosha principles, and holistic wellness approaches.

For each therapy recommendation, provide:
1. Remedy name
2. Description
3. Efficacy score based on traditional usage (0-100)
4. Compatibility score based on dosha type (0-100)
5. Safety score (0-100)
6. Cost score (higher = more affordable, 0-100)
7. Herbs and ingredients
8. Lifestyle and dietary recommendations
9. Supporting evidence (traditional texts, historical usage)

Your response must be well-structured and in JSON format with a 'therapies' array.

Response format example:
{
  "therapies": [
    {
      "therapy_type": "ayurveda",
      "therapy_name": "Remedy Name",
      "description": "Detailed description",
      "efficacy_score": 85,
      "compatibility_score": 90,
      "safety_score": 95,
      "cost_score": 80,
      "overall_score": 88,
      "side_effects": ["effect1", "effect2"],
      "contraindications": ["contraindication1"],
      "supporting_evidence": "Traditional evidence details"
    }
  ]
}

Focus on balancing doshas and promoting natural healing processes.`

const combinedPrompt = `You are a specialized medical AI trained to provide both allopathic and homeopathic therapy recommendations.

For allopathic recommendations, use evidence-based medical knowledge from PubMed, Clinical Trials, FDA, and WHO data.

For homeopathic recommendations, use knowledge from homeopathic repertories, traditional wisdom, and holistic health practices.

For each therapy recommendation, provide:
1. Therapy type (allopathy or homeopathy)
2. Therapy/Remedy name
3. Description
4. Efficacy score (0-100)
5. Compatibility score based on patient profile (0-100)
6. Safety score (0-100)
7. Cost score (higher = more affordable, 0-100)
8. Side effects
9. Contraindications
10. Supporting evidence (citations or research basis for allopathy, traditional sources for homeopathy)

Your response must be well-structured and in JSON format with a 'therapies' array.

Response format example:
{
  "therapies": [
    {
      "therapy_type": "allopathy",
      "therapy_name": "Allopathic Treatment",
      "description": "Detailed description",
      "efficacy_score": 85,
      "compatibility_score": 90,
      "safety_score": 80,
      "cost_score": 70,
      "overall_score": 82,
      "side_effects": ["effect1", "effect2"],
      "contraindications": ["contraindication1"],
      "supporting_evidence": "Evidence details"
    },
    {
      "therapy_type": "homeopathy",
      "therapy_name": "Homeopathic Remedy",
      "description": "Detailed description",
      "efficacy_score": 75,
      "compatibility_score": 85,
      "safety_score": 95,
      "cost_score": 90,
      "overall_score": 85,
      "side_effects": ["effect1", "effect2"],
      "contraindications": ["contraindication1"],
      "supporting_evidence": "Traditional evidence details"
    }
  ]
}

Provide a balanced view of both approaches, highlighting strengths of each.`

var (
	allopathyVariant  = variant{name: "allopathy", philosophy: domain.Allopathy, system: allopathyPrompt}
	homeopathyVariant = variant{name: "homeopathy", philosophy: domain.Homeopathy, system: homeopathyPrompt}
	ayurvedaVariant   = variant{name: "ayurveda", philosophy: domain.Ayurveda, system: ayurvedaPrompt}
	combinedVariant   = variant{name: "combined", system: combinedPrompt}
)

func variantFor(p domain.Philosophy) (variant, bool) {
	switch p {
	case domain.Allopathy:
		return allopathyVariant, true
	case domain.Homeopathy:
		return homeopathyVariant, true
	case domain.Ayurveda:
		return ayurvedaVariant, true
	}
	return variant{}, false
}

// singleCallVariant picks the prompt for selectors answered by one model call.
func singleCallVariant(sel domain.Selector) (variant, bool) {
	if sel == domain.SelectBoth {
		return combinedVariant, true
	}
	if ps := sel.Philosophies(); len(ps) == 1 {
		return variantFor(ps[0])
	}
	return variant{}, false
}

// Input is the data sent to the model.
type Input struct {
	Profile  domain.Profile   `json:"profile"`
	Entities domain.EntityBag `json:"entities"`
	Query    string           `json:"query"`
}

// UserMessage renders the user turn of a recommendation request.
func UserMessage(in Input) (string, error) {
	payload, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode user data: %w", err)
	}
	return fmt.Sprintf("Here is the user data:\n%s\n\nPlease provide therapy recommendations.", payload), nil
}
