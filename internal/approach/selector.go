// Package approach recommends a treatment philosophy for a free-text health query.
package approach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"precision-medicine-server/internal/domain"
	"precision-medicine-server/internal/llm"
	"precision-medicine-server/internal/metrics"
)

const systemPrompt = `You are a medical expert specializing in different treatment approaches. Your role is to recommend the most
suitable medical approach (Allopathy, Homeopathy, or Ayurveda) based on a health query.

Guidelines for approach selection:
- Allopathy: Recommend for acute or urgent conditions (e.g., severe pain, fever, infection, injury, emergency situations)
- Homeopathy: Recommend for chronic or long-lasting diseases (e.g., asthma, arthritis, recurring issues, conditions persisting for months/years)
- Ayurveda: Recommend for general wellness, lifestyle issues, digestion, detox, and preventive care

Analyze the health query and respond with ONLY the following JSON format:
{
    "recommended_approach": "APPROACH_NAME",
    "reason": "ONE_LINE_EXPLANATION"
}

Where APPROACH_NAME must be exactly one of: "Allopathy", "Homeopathy", or "Ayurveda".
The reason should be a brief, one-line explanation.`

const (
	maxTokens   = 300
	temperature = 0.1
)

// Selector picks an approach, asking the model first and falling back to keyword
// counting. Select never fails.
type Selector struct {
	client  llm.Client
	cache   *lru.Cache[string, domain.Decision]
	metrics *metrics.Metrics
}

// NewSelector creates a selector. client may be nil, in which case every query uses the
// fallback. cacheSize <= 0 disables caching of model decisions.
func NewSelector(client llm.Client, cacheSize int, m *metrics.Metrics) *Selector {
	s := &Selector{client: client, metrics: m}
	if cacheSize > 0 {
		cache, err := lru.New[string, domain.Decision](cacheSize)
		if err == nil {
			s.cache = cache
		}
	}
	return s
}

// Prompt builds the user message sent for a query.
func Prompt(query string) string {
	return fmt.Sprintf("Health Query: %s\n\nWhat is the most appropriate medical approach for this concern?", query)
}

// Select returns the recommended approach for query.
func (s *Selector) Select(ctx context.Context, query string) domain.Decision {
	decision := s.selectDecision(ctx, query)
	if s.metrics != nil {
		s.metrics.ApproachDecisions.WithLabelValues(string(decision.Approach), string(decision.Source)).Inc()
	}
	return decision
}

func (s *Selector) selectDecision(ctx context.Context, query string) domain.Decision {
	if s.client == nil {
		return Fallback(query)
	}

	key := cacheKey(query)
	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			return d
		}
	}

	reply, err := s.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        Prompt(query),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		JSONMode:    true,
	})
	if err != nil {
		log.Warn().Err(err).Str("provider", s.client.Name()).Msg("approach selection call failed, using fallback")
		return Fallback(query)
	}

	decision, err := ParseDecision(reply)
	if err != nil {
		log.Warn().Err(err).Str("provider", s.client.Name()).Msg("unusable approach reply, using fallback")
		return Fallback(query)
	}
	if s.cache != nil {
		s.cache.Add(key, decision)
	}
	return decision
}

type decisionReply struct {
	RecommendedApproach *string `json:"recommended_approach"`
	Reason              *string `json:"reason"`
}

// ParseDecision decodes a model reply in two stages (whole reply, then embedded
// fragment). Both fields must be present and the approach must be an exact label.
func ParseDecision(reply string) (domain.Decision, error) {
	raw, stage, err := llm.ExtractJSON(reply)
	if err != nil {
		return domain.Decision{}, err
	}

	var parsed decisionReply
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.Decision{}, fmt.Errorf("decode %s reply: %w", stage, err)
	}
	if parsed.RecommendedApproach == nil || parsed.Reason == nil {
		return domain.Decision{}, fmt.Errorf("reply missing recommended_approach or reason")
	}
	approach, ok := domain.ParseApproach(*parsed.RecommendedApproach)
	if !ok {
		return domain.Decision{}, fmt.Errorf("invalid approach %q", *parsed.RecommendedApproach)
	}
	return domain.Decision{Approach: approach, Reason: *parsed.Reason, Source: domain.SourceLLM}, nil
}

func cacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
