package models

import (
	"gorm.io/datatypes"

	"precision-medicine-server/internal/domain"
)

// Therapy is one ranked recommendation saved for a user. ReportID is set when a report
// had been analyzed before the recommendation was requested.
type Therapy struct {
	BaseModel
	UserID             string                      `gorm:"size:36;index;not null" json:"userId"`
	ReportID           *string                     `gorm:"size:36;index" json:"reportId,omitempty"`
	Selector           string                      `gorm:"size:16" json:"agentType"`
	Position           int                         `json:"position"`
	TherapyType        string                      `gorm:"size:64;not null" json:"therapyType"`
	TherapyName        string                      `gorm:"size:128;not null" json:"therapyName"`
	Description        string                      `gorm:"type:text" json:"description"`
	EfficacyScore      float64                     `json:"efficacyScore"`
	CompatibilityScore float64                     `json:"compatibilityScore"`
	SafetyScore        float64                     `json:"safetyScore"`
	CostScore          float64                     `json:"costScore"`
	OverallScore       float64                     `json:"overallScore"`
	SideEffects        datatypes.JSONSlice[string] `json:"sideEffects"`
	Contraindications  datatypes.JSONSlice[string] `json:"contraindications"`
	SupportingEvidence string                      `gorm:"type:text" json:"supportingEvidence"`
}

// NewTherapy converts a ranked record into a row.
func NewTherapy(userID string, reportID *string, sel domain.Selector, position int, r domain.TherapyRecord) Therapy {
	r = r.WithDefaults()
	return Therapy{
		UserID:             userID,
		ReportID:           reportID,
		Selector:           string(sel),
		Position:           position,
		TherapyType:        string(r.TherapyType),
		TherapyName:        r.TherapyName,
		Description:        r.Description,
		EfficacyScore:      r.EfficacyScore,
		CompatibilityScore: r.CompatibilityScore,
		SafetyScore:        r.SafetyScore,
		CostScore:          r.CostScore,
		OverallScore:       r.Overall(),
		SideEffects:        datatypes.NewJSONSlice(r.SideEffects),
		Contraindications:  datatypes.NewJSONSlice(r.Contraindications),
		SupportingEvidence: r.SupportingEvidence,
	}
}

// Record converts the row back into a therapy record.
func (t *Therapy) Record() domain.TherapyRecord {
	return domain.TherapyRecord{
		TherapyType:        domain.Philosophy(t.TherapyType),
		TherapyName:        t.TherapyName,
		Description:        t.Description,
		EfficacyScore:      t.EfficacyScore,
		CompatibilityScore: t.CompatibilityScore,
		SafetyScore:        t.SafetyScore,
		CostScore:          t.CostScore,
		OverallScore:       domain.Float(t.OverallScore),
		SideEffects:        append([]string{}, t.SideEffects...),
		Contraindications:  append([]string{}, t.Contraindications...),
		SupportingEvidence: t.SupportingEvidence,
	}
}
