// Package session keeps each user's in-progress workflow state between requests.
package session

import (
	"time"

	"precision-medicine-server/internal/domain"
)

// ReportState is the most recently analyzed report.
type ReportState struct {
	ID       string           `json:"id"`
	Name     string           `json:"name,omitempty"`
	FileName string           `json:"file_name,omitempty"`
	Text     string           `json:"text"`
	Entities domain.EntityBag `json:"entities"`
}

// State is one user's workflow state. Steps derive a new value with the With methods
// and save it wholesale.
type State struct {
	Profile   domain.Profile         `json:"profile"`
	Report    *ReportState           `json:"report,omitempty"`
	Therapies []domain.TherapyRecord `json:"therapies,omitempty"`
	Selector  domain.Selector        `json:"selector,omitempty"`
	Query     string                 `json:"query,omitempty"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// WithProfile returns a copy holding p.
func (s State) WithProfile(p domain.Profile) State {
	s.Profile = p
	s.UpdatedAt = time.Now().UTC()
	return s
}

// WithReport returns a copy holding the analyzed report.
func (s State) WithReport(r ReportState) State {
	r.Entities = r.Entities.Clone()
	s.Report = &r
	s.UpdatedAt = time.Now().UTC()
	return s
}

// WithRecommendations returns a copy holding ranked therapies and the request that
// produced them.
func (s State) WithRecommendations(sel domain.Selector, query string, therapies []domain.TherapyRecord) State {
	s.Therapies = append([]domain.TherapyRecord{}, therapies...)
	s.Selector = sel
	s.Query = query
	s.UpdatedAt = time.Now().UTC()
	return s
}

// Entities returns the current report's entities, or an empty bag.
func (s State) Entities() domain.EntityBag {
	if s.Report == nil {
		return domain.NewEntityBag()
	}
	return s.Report.Entities.Clone()
}

// HasTherapies reports whether recommendations are available.
func (s State) HasTherapies() bool {
	return len(s.Therapies) > 0
}
