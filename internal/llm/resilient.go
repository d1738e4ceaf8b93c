package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"precision-medicine-server/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// ResilienceConfig controls the timeout and circuit breaker around a provider.
type ResilienceConfig struct {
	Timeout time.Duration
	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32
	// Interval is the cyclic period of the closed state for clearing counts.
	Interval time.Duration
	// OpenTimeout is how long the breaker stays open before going half-open.
	OpenTimeout time.Duration
	// MinRequests and FailureRatio decide when the breaker trips.
	MinRequests  uint32
	FailureRatio float64
}

// Resilient wraps a Client with a per-call timeout and a circuit breaker.
// Each call is attempted exactly once.
type Resilient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewResilient wraps inner. A nil metrics value disables instrumentation.
func NewResilient(inner Client, cfg ResilienceConfig, m *metrics.Metrics) *Resilient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Interval == 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 3
	}
	if cfg.FailureRatio == 0 {
		cfg.FailureRatio = 0.6
	}

	r := &Resilient{inner: inner, timeout: cfg.Timeout, metrics: m}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("LLM circuit breaker changed state")
			if m != nil {
				m.LLMBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return r
}

// Name implements Client.
func (r *Resilient) Name() string { return r.inner.Name() }

// State exposes the breaker state.
func (r *Resilient) State() gobreaker.State { return r.breaker.State() }

// Complete implements Client.
func (r *Resilient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.inner.Complete(ctx, req)
	})
	r.observe(start, err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%s unavailable: %w", r.inner.Name(), err)
		}
		return "", fmt.Errorf("%s completion: %w", r.inner.Name(), err)
	}
	return out.(string), nil
}

func (r *Resilient) observe(start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	status := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "rejected"
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	case err != nil:
		status = "error"
	}
	r.metrics.LLMRequests.WithLabelValues(r.inner.Name(), status).Inc()
	r.metrics.LLMLatency.WithLabelValues(r.inner.Name()).Observe(time.Since(start).Seconds())
}
