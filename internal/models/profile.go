package models

import "precision-medicine-server/internal/domain"

// Profile is the stored health profile of a user.
type Profile struct {
	BaseModel
	UserID             string `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	Age                string `gorm:"size:16" json:"age"`
	Gender             string `gorm:"size:16" json:"gender"`
	Weight             string `gorm:"size:16" json:"weight"`
	Height             string `gorm:"size:16" json:"height"`
	Lifestyle          string `gorm:"size:64" json:"lifestyle"`
	MedicalHistory     string `gorm:"type:text" json:"medicalHistory"`
	Allergies          string `gorm:"type:text" json:"allergies"`
	CurrentMedications string `gorm:"type:text" json:"currentMedications"`
}

// ToDomain converts the row into the profile used by the recommendation pipeline.
func (p *Profile) ToDomain() domain.Profile {
	return domain.Profile{
		Age:                domain.Measure(p.Age),
		Gender:             p.Gender,
		Weight:             domain.Measure(p.Weight),
		Height:             domain.Measure(p.Height),
		Lifestyle:          p.Lifestyle,
		MedicalHistory:     p.MedicalHistory,
		Allergies:          p.Allergies,
		CurrentMedications: p.CurrentMedications,
	}
}

// Apply copies every field of d onto the row.
func (p *Profile) Apply(d domain.Profile) {
	p.Age = string(d.Age)
	p.Gender = d.Gender
	p.Weight = string(d.Weight)
	p.Height = string(d.Height)
	p.Lifestyle = d.Lifestyle
	p.MedicalHistory = d.MedicalHistory
	p.Allergies = d.Allergies
	p.CurrentMedications = d.CurrentMedications
}
