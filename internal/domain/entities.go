package domain

// LabValue is a lab test detected in a report. Value is a presence marker, not a magnitude.
type LabValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// EntityBag is the categorized keyword extraction result for one report.
// Within a category entries keep scan order and may repeat.
type EntityBag struct {
	Diseases    []string   `json:"diseases"`
	Symptoms    []string   `json:"symptoms"`
	LabValues   []LabValue `json:"lab_values"`
	Genes       []string   `json:"genes"`
	Medications []string   `json:"medications"`
}

// NewEntityBag returns a bag whose categories are empty, non-nil slices.
func NewEntityBag() EntityBag {
	return EntityBag{
		Diseases:    []string{},
		Symptoms:    []string{},
		LabValues:   []LabValue{},
		Genes:       []string{},
		Medications: []string{},
	}
}

// Clone returns a deep copy with nil categories normalized to empty slices.
func (b EntityBag) Clone() EntityBag {
	return EntityBag{
		Diseases:    append([]string{}, b.Diseases...),
		Symptoms:    append([]string{}, b.Symptoms...),
		LabValues:   append([]LabValue{}, b.LabValues...),
		Genes:       append([]string{}, b.Genes...),
		Medications: append([]string{}, b.Medications...),
	}
}

// IsEmpty reports whether nothing was extracted.
func (b EntityBag) IsEmpty() bool {
	return len(b.Diseases) == 0 && len(b.Symptoms) == 0 && len(b.LabValues) == 0 &&
		len(b.Genes) == 0 && len(b.Medications) == 0
}
