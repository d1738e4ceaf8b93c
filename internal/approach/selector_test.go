package approach

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precision-medicine-server/internal/domain"
	"precision-medicine-server/internal/llm"
	"precision-medicine-server/internal/metrics"
)

type fakeLLM struct {
	reply string
	err   error
	calls int
	last  llm.Request
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.calls++
	f.last = req
	return f.reply, f.err
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  domain.Approach
	}{
		{name: "chronic asthma", query: "I have had chronic asthma for 3 years", want: domain.ApproachHomeopathy},
		{name: "no matches", query: "What should I do?", want: domain.ApproachAyurveda},
		{name: "acute", query: "Sudden severe pain after an accident", want: domain.ApproachAllopathy},
		{name: "wellness", query: "I want better digestion and a balanced diet", want: domain.ApproachAyurveda},
		{name: "allopathy wins tie", query: "fever and insomnia", want: domain.ApproachAllopathy},
		{name: "homeopathy beats ayurveda on tie", query: "stress and insomnia", want: domain.ApproachHomeopathy},
		{name: "long-term pattern", query: "LONG-TERM eczema", want: domain.ApproachHomeopathy},
		{name: "repeated keyword counts once", query: "pain pain pain, chronic persistent months", want: domain.ApproachHomeopathy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Fallback(tt.query)
			assert.Equal(t, tt.want, d.Approach)
			assert.Equal(t, domain.SourceFallback, d.Source)
			assert.NotEmpty(t, d.Reason)
		})
	}
}

func TestFallbackChronicAsthmaCounts(t *testing.T) {
	q := "i have had chronic asthma for 3 years"
	assert.Equal(t, 0, countMatches(q, allopathyPatterns))
	assert.Equal(t, 3, countMatches(q, homeopathyPatterns))
	assert.Equal(t, 0, countMatches(q, ayurvedaPatterns))
	assert.Equal(t, homeopathyReason, Fallback(q).Reason)
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    domain.Approach
		wantErr bool
	}{
		{name: "whole", reply: `{"recommended_approach":"Allopathy","reason":"Acute."}`, want: domain.ApproachAllopathy},
		{name: "embedded", reply: "Here you go:\n{\"recommended_approach\": \"Ayurveda\", \"reason\": \"Lifestyle.\"}\nThanks", want: domain.ApproachAyurveda},
		{name: "wrong case label", reply: `{"recommended_approach":"ayurveda","reason":"x"}`, wantErr: true},
		{name: "unknown label", reply: `{"recommended_approach":"Unani","reason":"x"}`, wantErr: true},
		{name: "missing reason", reply: `{"recommended_approach":"Homeopathy"}`, wantErr: true},
		{name: "not json", reply: "Homeopathy", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDecision(tt.reply)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Approach)
			assert.Equal(t, domain.SourceLLM, d.Source)
		})
	}
}

func TestSelectUsesModelReply(t *testing.T) {
	client := &fakeLLM{reply: `{"recommended_approach":"Homeopathy","reason":"Chronic condition."}`}
	s := NewSelector(client, 0, nil)

	d := s.Select(context.Background(), "sudden pain")

	assert.Equal(t, domain.ApproachHomeopathy, d.Approach)
	assert.Equal(t, "Chronic condition.", d.Reason)
	assert.Equal(t, domain.SourceLLM, d.Source)
	assert.Equal(t, "Health Query: sudden pain\n\nWhat is the most appropriate medical approach for this concern?", client.last.User)
	assert.Equal(t, 300, client.last.MaxTokens)
	assert.Equal(t, 0.1, client.last.Temperature)
}

func TestSelectFallsBackOnTransportError(t *testing.T) {
	s := NewSelector(&fakeLLM{err: errors.New("connection refused")}, 0, nil)

	d := s.Select(context.Background(), "I have had chronic asthma for 3 years")

	assert.Equal(t, domain.ApproachHomeopathy, d.Approach)
	assert.Equal(t, domain.SourceFallback, d.Source)
}

func TestSelectFallsBackOnInvalidLabel(t *testing.T) {
	s := NewSelector(&fakeLLM{reply: `{"recommended_approach":"Naturopathy","reason":"x"}`}, 0, nil)

	d := s.Select(context.Background(), "urgent fracture")

	assert.Equal(t, domain.ApproachAllopathy, d.Approach)
	assert.Equal(t, domain.SourceFallback, d.Source)
}

func TestSelectWithoutClientUsesFallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := NewSelector(nil, 16, m)

	d := s.Select(context.Background(), "yoga for stress")

	assert.Equal(t, domain.ApproachAyurveda, d.Approach)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ApproachDecisions.WithLabelValues("Ayurveda", "fallback")))
}

func TestSelectCachesModelDecisions(t *testing.T) {
	client := &fakeLLM{reply: `{"recommended_approach":"Ayurveda","reason":"Wellness."}`}
	s := NewSelector(client, 8, nil)

	first := s.Select(context.Background(), "Improve my  Energy")
	second := s.Select(context.Background(), "improve my energy")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.calls)
}

func TestSelectDoesNotCacheFallbacks(t *testing.T) {
	client := &fakeLLM{reply: "not json"}
	s := NewSelector(client, 8, nil)

	s.Select(context.Background(), "fever")
	s.Select(context.Background(), "fever")

	assert.Equal(t, 2, client.calls)
}
