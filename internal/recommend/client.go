// Package recommend asks a language model for therapy recommendations per treatment
// philosophy.
package recommend

import (
	"context"

	"github.com/rs/zerolog/log"

	"precision-medicine-server/internal/domain"
	"precision-medicine-server/internal/llm"
	"precision-medicine-server/internal/metrics"
)

const (
	maxTokens   = 2000
	temperature = 0.2
)

// Outcome describes how one philosophy's recommendations were obtained.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeMalformed Outcome = "malformed"
	OutcomeError     Outcome = "error"
	OutcomeMock      Outcome = "mock"
)

// PhilosophyOutcome pairs a philosophy with its outcome and record count.
type PhilosophyOutcome struct {
	Philosophy domain.Philosophy `json:"philosophy"`
	Outcome    Outcome           `json:"outcome"`
	Count      int               `json:"count"`
}

// Result holds the unranked records and how each requested philosophy fared.
type Result struct {
	Therapies []domain.TherapyRecord `json:"therapies"`
	Outcomes  []PhilosophyOutcome    `json:"outcomes"`
}

// Client fetches recommendations. A nil model yields placeholder records.
type Client struct {
	model   llm.Client
	metrics *metrics.Metrics
}

// NewClient creates a recommendation client. model may be nil.
func NewClient(model llm.Client, m *metrics.Metrics) *Client {
	return &Client{model: model, metrics: m}
}

// Recommend returns records for the philosophies sel covers. Single philosophies and
// "both" use one model call; "all", or any selector when agentMode is set, makes one
// independent call per philosophy so a failure in one does not affect the others.
// Model failures never surface as errors.
func (c *Client) Recommend(ctx context.Context, sel domain.Selector, in Input, agentMode bool) Result {
	philosophies := sel.Philosophies()
	res := Result{Therapies: []domain.TherapyRecord{}, Outcomes: []PhilosophyOutcome{}}

	if c.model == nil {
		log.Warn().Str("agent_type", string(sel)).Msg("no LLM provider configured, returning placeholder recommendations")
		for _, p := range philosophies {
			recs := Placeholders([]domain.Philosophy{p})
			res.Therapies = append(res.Therapies, recs...)
			res.add(c.metrics, p, OutcomeMock, len(recs))
		}
		return res
	}

	if v, ok := singleCallVariant(sel); ok && !agentMode {
		recs, outcome := c.call(ctx, v, in)
		res.Therapies = append(res.Therapies, recs...)
		for _, p := range philosophies {
			res.add(c.metrics, p, outcome, countOf(recs, p, v))
		}
		return res
	}

	for _, p := range philosophies {
		v, _ := variantFor(p)
		recs, outcome := c.call(ctx, v, in)
		res.Therapies = append(res.Therapies, recs...)
		res.add(c.metrics, p, outcome, len(recs))
	}
	return res
}

func (c *Client) call(ctx context.Context, v variant, in Input) ([]domain.TherapyRecord, Outcome) {
	user, err := UserMessage(in)
	if err != nil {
		log.Error().Err(err).Str("variant", v.name).Msg("failed to build recommendation prompt")
		return []domain.TherapyRecord{}, OutcomeError
	}

	reply, err := c.model.Complete(ctx, llm.Request{
		System:      v.system,
		User:        user,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		JSONMode:    true,
	})
	if err != nil {
		log.Warn().Err(err).Str("provider", c.model.Name()).Str("variant", v.name).Msg("recommendation call failed")
		return []domain.TherapyRecord{}, OutcomeError
	}

	parsed := ParseTherapies(reply, v.philosophy)
	if m, ok := parsed.(Malformed); ok {
		log.Warn().Err(m.Err).Str("provider", c.model.Name()).Str("variant", v.name).Msg("malformed recommendation reply")
		return parsed.Records(), OutcomeMalformed
	}
	return parsed.Records(), OutcomeOK
}

func (r *Result) add(m *metrics.Metrics, p domain.Philosophy, o Outcome, count int) {
	r.Outcomes = append(r.Outcomes, PhilosophyOutcome{Philosophy: p, Outcome: o, Count: count})
	if m != nil {
		m.Recommendations.WithLabelValues(string(p), string(o)).Inc()
	}
}

// countOf counts records of philosophy p. A single-philosophy variant owns every record.
func countOf(recs []domain.TherapyRecord, p domain.Philosophy, v variant) int {
	if v.philosophy != "" {
		return len(recs)
	}
	n := 0
	for _, r := range recs {
		if r.TherapyType == p {
			n++
		}
	}
	return n
}
