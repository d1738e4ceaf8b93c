package recommend

import "precision-medicine-server/internal/domain"

// Placeholder records returned when no model provider is configured.
var placeholders = map[domain.Philosophy]domain.TherapyRecord{
	domain.Allopathy: {
		TherapyType:        domain.Allopathy,
		TherapyName:        "Standard Treatment Protocol",
		Description:        "Placeholder allopathic therapy recommendation. No language model provider is configured, so this entry was not generated from your data.",
		EfficacyScore:      80,
		CompatibilityScore: 85,
		SafetyScore:        75,
		CostScore:          60,
		OverallScore:       domain.Float(75),
		SideEffects:        []string{"Common side effect 1", "Common side effect 2"},
		Contraindications:  []string{"Known contraindication"},
		SupportingEvidence: "This would reference medical literature and studies.",
	},
	domain.Homeopathy: {
		TherapyType:        domain.Homeopathy,
		TherapyName:        "Homeopathic Remedy",
		Description:        "Placeholder homeopathic therapy recommendation. No language model provider is configured, so this entry was not generated from your data.",
		EfficacyScore:      70,
		CompatibilityScore: 90,
		SafetyScore:        95,
		CostScore:          80,
		OverallScore:       domain.Float(85),
		SideEffects:        []string{"Minimal side effect 1"},
		Contraindications:  []string{"Rare contraindication"},
		SupportingEvidence: "This would reference traditional homeopathic texts and case studies.",
	},
	domain.Ayurveda: {
		TherapyType:        domain.Ayurveda,
		TherapyName:        "Ayurvedic Balancing Regimen",
		Description:        "Placeholder Ayurvedic therapy recommendation. No language model provider is configured, so this entry was not generated from your data.",
		EfficacyScore:      75,
		CompatibilityScore: 88,
		SafetyScore:        90,
		CostScore:          85,
		OverallScore:       domain.Float(83.5),
		SideEffects:        []string{"Mild digestive discomfort"},
		Contraindications:  []string{"Pregnancy without practitioner guidance"},
		SupportingEvidence: "This would reference classical Ayurvedic texts and practitioner case records.",
	},
}

// Placeholders returns one placeholder record per philosophy, in the given order.
func Placeholders(philosophies []domain.Philosophy) []domain.TherapyRecord {
	out := make([]domain.TherapyRecord, 0, len(philosophies))
	for _, p := range philosophies {
		rec, ok := placeholders[p]
		if !ok {
			continue
		}
		rec.SideEffects = append([]string(nil), rec.SideEffects...)
		rec.Contraindications = append([]string(nil), rec.Contraindications...)
		rec.OverallScore = domain.Float(rec.Overall())
		out = append(out, rec)
	}
	return out
}
