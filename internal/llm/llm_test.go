package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precision-medicine-server/internal/metrics"
)

func TestOpenAIClient_Complete(t *testing.T) {
	var got openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"therapies\":[]}"}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL, Timeout: time.Second})
	out, err := client.Complete(context.Background(), Request{System: "sys", User: "usr", MaxTokens: 2000, Temperature: 0.2, JSONMode: true})

	require.NoError(t, err)
	assert.Equal(t, `{"therapies":[]}`, out)
	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "usr", got.Messages[1].Content)
	assert.Equal(t, 2000, got.MaxTokens)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestOpenAIClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), Request{User: "x"})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "slow down")
}

func TestGeminiClient_Complete(t *testing.T) {
	var got geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"recommended_approach\":"},{"text":"\"Ayurveda\"}"}]}}]}`))
	}))
	defer server.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "g-key", BaseURL: server.URL})
	out, err := client.Complete(context.Background(), Request{System: "sys", User: "usr", Temperature: 0.1, MaxTokens: 300})

	require.NoError(t, err)
	assert.Equal(t, `{"recommended_approach":"Ayurveda"}`, out)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "sys\n\nusr", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 300, got.GenerationConfig.MaxOutputTokens)
}

func TestGeminiClient_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := NewGeminiClient(GeminiConfig{APIKey: "k", BaseURL: server.URL}).Complete(context.Background(), Request{User: "x"})
	assert.Error(t, err)
}

func TestGeminiClient_TransportErrorOmitsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server watches the connection and cancels
		// the request context when the client gives up.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "SECRET-KEY-123", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Complete(context.Background(), Request{User: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini request")
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestAnthropicClient_Complete(t *testing.T) {
	var calls int32
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "a-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-sonnet-20241022",
			"content":[{"type":"text","text":"{\"therapies\":[]}"}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5}
		}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(AnthropicConfig{APIKey: "a-key", BaseURL: server.URL})
	out, err := client.Complete(context.Background(), Request{System: "sys", User: "usr", MaxTokens: 2000, Temperature: 0.2})

	require.NoError(t, err)
	assert.Equal(t, `{"therapies":[]}`, out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "claude-3-5-sonnet-20241022", body["model"])
	assert.EqualValues(t, 2000, body["max_tokens"])
}

func TestAnthropicClient_DoesNotRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(AnthropicConfig{APIKey: "a-key", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), Request{User: "usr", MaxTokens: 10})

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

type stubClient struct {
	name  string
	out   string
	err   error
	delay time.Duration
	calls int
}

func (s *stubClient) Name() string { return s.name }

func (s *stubClient) Complete(ctx context.Context, _ Request) (string, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.out, s.err
}

func TestResilient_TimesOut(t *testing.T) {
	inner := &stubClient{name: "slow", out: "late", delay: time.Second}
	r := NewResilient(inner, ResilienceConfig{Timeout: 20 * time.Millisecond}, nil)

	_, err := r.Complete(context.Background(), Request{})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inner.calls)
}

func TestResilient_TripsBreaker(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	inner := &stubClient{name: "flaky", err: errors.New("upstream down")}
	r := NewResilient(inner, ResilienceConfig{Timeout: time.Second, MinRequests: 2, FailureRatio: 0.5, OpenTimeout: time.Minute}, m)

	for i := 0; i < 2; i++ {
		_, err := r.Complete(context.Background(), Request{})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, r.State())

	_, err := r.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls, "open breaker must not reach the provider")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LLMRequests.WithLabelValues("flaky", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequests.WithLabelValues("flaky", "rejected")))
}

func TestResilient_PassesThrough(t *testing.T) {
	r := NewResilient(&stubClient{name: "ok", out: "hello"}, ResilienceConfig{}, nil)

	out, err := r.Complete(context.Background(), Request{})

	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "ok", r.Name())
}

func TestNew_ProviderPrecedence(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "anthropic wins", cfg: Config{AnthropicAPIKey: "a", OpenAIAPIKey: "o", GeminiAPIKey: "g"}, want: "anthropic"},
		{name: "openai next", cfg: Config{OpenAIAPIKey: "o", GeminiAPIKey: "g"}, want: "openai"},
		{name: "gemini last", cfg: Config{GeminiAPIKey: "g"}, want: "gemini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.cfg, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.Name())
		})
	}
}

func TestNew_NotConfigured(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
