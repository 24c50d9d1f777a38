package ai

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	attemptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vocalis",
		Subsystem: "ai",
		Name:      "provider_attempt_duration_seconds",
		Help:      "Duration of individual provider attempts",
	}, []string{"capability", "provider"})

	attemptFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vocalis",
		Subsystem: "ai",
		Name:      "provider_attempt_failures_total",
		Help:      "Number of failed provider attempts",
	}, []string{"capability", "provider"})

	fallbackResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vocalis",
		Subsystem: "ai",
		Name:      "fallback_results_total",
		Help:      "Number of capability calls answered by the built-in fallback",
	}, []string{"capability"})
)

// Step is one provider attempt within a Chain.
type Step[T any] struct {
	// Provider identifies the backing service in logs and metrics.
	Provider string
	// Call performs the provider request. The context carries the per-attempt
	// timeout configured on the chain.
	Call func(ctx context.Context) (T, error)
}

// Chain invokes an ordered list of providers for one capability and returns
// the first usable result. Provider failures are logged and swallowed; when
// every provider fails (or the list is empty) the chain returns the built-in
// fallback, so callers never observe a hard error from this layer.
type Chain[T any] struct {
	capability string
	steps      []Step[T]
	fallback   func() T
	// validate rejects syntactically valid but semantically empty results,
	// e.g. a generator that returns zero questions. A rejected result counts
	// as a failed attempt and the chain moves on.
	validate func(T) error
	timeout  time.Duration
	logger   zerolog.Logger
}

// ChainOption customises a Chain during construction.
type ChainOption[T any] func(*Chain[T])

// WithValidate installs a semantic validity check applied to each successful
// provider response before it is accepted.
func WithValidate[T any](fn func(T) error) ChainOption[T] {
	return func(c *Chain[T]) { c.validate = fn }
}

// WithAttemptTimeout bounds each individual provider attempt. Default is 20s.
func WithAttemptTimeout[T any](d time.Duration) ChainOption[T] {
	return func(c *Chain[T]) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewChain builds a fallback chain for the named capability. The fallback
// function must be deterministic and must not fail; it is the terminal answer
// when all providers are down.
func NewChain[T any](capability string, steps []Step[T], fallback func() T, logger zerolog.Logger, opts ...ChainOption[T]) *Chain[T] {
	c := &Chain[T]{
		capability: capability,
		steps:      steps,
		fallback:   fallback,
		timeout:    20 * time.Second,
		logger:     logger.With().Str("component", "ai_chain").Str("capability", capability).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke tries each provider in priority order and returns the first usable
// result, or the built-in fallback when none succeed. The returned Meta
// records the winning provider and whether the fallback was used.
func (c *Chain[T]) Invoke(ctx context.Context) Result[T] {
	attempts := 0

	for _, step := range c.steps {
		attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		value, err := step.Call(attemptCtx)
		cancel()

		attemptDuration.WithLabelValues(c.capability, step.Provider).Observe(time.Since(start).Seconds())

		if err == nil && c.validate != nil {
			err = c.validate(value)
		}
		if err != nil {
			attemptFailures.WithLabelValues(c.capability, step.Provider).Inc()
			c.logger.Warn().Err(err).
				Str("provider", step.Provider).
				Dur("elapsed", time.Since(start)).
				Msg("provider attempt failed")
			continue
		}

		c.logger.Debug().
			Str("provider", step.Provider).
			Int("attempts", attempts).
			Msg("provider attempt succeeded")

		return Result[T]{
			Value: value,
			Meta:  Meta{Provider: step.Provider, Attempts: attempts},
		}
	}

	fallbackResults.WithLabelValues(c.capability).Inc()
	c.logger.Info().Int("attempts", attempts).Msg("all providers failed, using built-in fallback")

	return Result[T]{
		Value: c.fallback(),
		Meta:  Meta{Provider: "builtin", Fallback: true, Attempts: attempts},
	}
}
