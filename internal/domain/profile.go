package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Measure is a profile value that clients send either as a JSON string or a number.
type Measure string

// UnmarshalJSON accepts strings, numbers and null.
func (m *Measure) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Measure(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("measure must be a string or number: %w", err)
	}
	*m = Measure(n.String())
	return nil
}

// Profile holds the demographic and clinical attributes of one patient.
type Profile struct {
	Age                Measure `json:"age,omitempty"`
	Gender             string  `json:"gender,omitempty"`
	Weight             Measure `json:"weight,omitempty"`
	Height             Measure `json:"height,omitempty"`
	Lifestyle          string  `json:"lifestyle,omitempty"`
	MedicalHistory     string  `json:"medical_history,omitempty"`
	Allergies          string  `json:"allergies,omitempty"`
	CurrentMedications string  `json:"current_medications,omitempty"`
}

// IsEmpty reports whether no profile field has been filled in.
func (p Profile) IsEmpty() bool {
	return p == Profile{}
}

// ProfileField is one labelled profile attribute, in display order.
type ProfileField struct {
	Label string
	Value string
}

// Fields lists the profile attributes in the order reports print them.
func (p Profile) Fields() []ProfileField {
	return []ProfileField{
		{Label: "Age", Value: string(p.Age)},
		{Label: "Gender", Value: p.Gender},
		{Label: "Height", Value: string(p.Height)},
		{Label: "Weight", Value: string(p.Weight)},
		{Label: "Lifestyle", Value: p.Lifestyle},
		{Label: "Medical History", Value: p.MedicalHistory},
		{Label: "Allergies", Value: p.Allergies},
		{Label: "Current Medications", Value: p.CurrentMedications},
	}
}
