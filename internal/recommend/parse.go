package recommend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"precision-medicine-server/internal/domain"
	"precision-medicine-server/internal/llm"
	"precision-medicine-server/internal/ranking"
)

// Parsed is the result of decoding a model reply: either Ok or Malformed.
type Parsed interface {
	// Records returns the decoded therapies; Malformed yields none.
	Records() []domain.TherapyRecord
	parsed()
}

// Ok carries the therapies decoded from a reply.
type Ok struct {
	Therapies []domain.TherapyRecord
	Stage     llm.Stage
}

func (o Ok) Records() []domain.TherapyRecord { return o.Therapies }
func (Ok) parsed()                           {}

// Malformed keeps the raw reply that could not be decoded.
type Malformed struct {
	Raw string
	Err error
}

func (Malformed) Records() []domain.TherapyRecord { return []domain.TherapyRecord{} }
func (Malformed) parsed()                         {}

var errNoTherapies = errors.New("reply has no therapies list")

// ParseTherapies decodes a model reply. The whole reply is tried first, then the
// greedy {...} fragment. An object's "therapies" key is used when present; a bare JSON
// list is accepted too. Records whose therapy_type is missing or unknown get fallback;
// when fallback is empty such records are dropped.
func ParseTherapies(reply string, fallback domain.Philosophy) Parsed {
	raw, stage, err := llm.ExtractJSON(reply)
	if err != nil {
		return Malformed{Raw: reply, Err: err}
	}

	items, err := therapyItems(raw)
	if err != nil {
		return Malformed{Raw: reply, Err: err}
	}

	records := make([]domain.TherapyRecord, 0, len(items))
	for i, item := range items {
		var w wireTherapy
		if err := json.Unmarshal(item, &w); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("skipping undecodable therapy entry")
			continue
		}
		r, ok := w.record(fallback)
		if !ok {
			log.Warn().Int("index", i).Str("therapy_type", w.TherapyType).Msg("dropping therapy with unknown type")
			continue
		}
		records = append(records, r)
	}
	return Ok{Therapies: records, Stage: stage}
}

func therapyItems(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode therapy list: %w", err)
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode reply object: %w", err)
	}
	list, ok := envelope["therapies"]
	if !ok {
		return nil, errNoTherapies
	}
	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, fmt.Errorf("decode therapies: %w", err)
	}
	return items, nil
}

type wireTherapy struct {
	TherapyType        string     `json:"therapy_type"`
	TherapyName        string     `json:"therapy_name"`
	Description        string     `json:"description"`
	EfficacyScore      score      `json:"efficacy_score"`
	CompatibilityScore score      `json:"compatibility_score"`
	SafetyScore        score      `json:"safety_score"`
	CostScore          score      `json:"cost_score"`
	OverallScore       score      `json:"overall_score"`
	SideEffects        stringList `json:"side_effects"`
	Contraindications  stringList `json:"contraindications"`
	SupportingEvidence string     `json:"supporting_evidence"`
}

func (w wireTherapy) record(fallback domain.Philosophy) (domain.TherapyRecord, bool) {
	r := domain.TherapyRecord{
		TherapyType:        domain.Philosophy(strings.ToLower(strings.TrimSpace(w.TherapyType))),
		TherapyName:        w.TherapyName,
		Description:        w.Description,
		EfficacyScore:      ranking.Clamp(w.EfficacyScore.value),
		CompatibilityScore: ranking.Clamp(w.CompatibilityScore.value),
		SafetyScore:        ranking.Clamp(w.SafetyScore.value),
		CostScore:          ranking.Clamp(w.CostScore.value),
		SideEffects:        []string(w.SideEffects),
		Contraindications:  []string(w.Contraindications),
		SupportingEvidence: w.SupportingEvidence,
	}
	if !r.TherapyType.Valid() {
		if !fallback.Valid() {
			return domain.TherapyRecord{}, false
		}
		r.TherapyType = fallback
	}
	if w.OverallScore.set {
		r = r.WithOverall(ranking.Clamp(w.OverallScore.value))
	}
	if r.SideEffects == nil {
		r.SideEffects = []string{}
	}
	if r.Contraindications == nil {
		r.Contraindications = []string{}
	}
	return r, true
}

// score accepts a JSON number or a numeric string. Any other value decodes as missing.
type score struct {
	value float64
	set   bool
}

func (s *score) UnmarshalJSON(data []byte) error {
	*s = score{}
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*s = score{value: n, set: true}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			*s = score{value: n, set: true}
		}
	}
	return nil
}

// stringList accepts a list of values or a single string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*l = stringList{single}
		}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		*l = nil
		return nil
	}
	out := make(stringList, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		out = append(out, string(bytes.TrimSpace(item)))
	}
	*l = out
	return nil
}
