package ai

import (
	"fmt"

	"neuraresume/internal/config"
	"neuraresume/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// Breaker wraps Gemini calls of one result type with the circuit breaker
// pattern. A nil Breaker runs calls directly.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// tripFunc decides when a breaker opens
type tripFunc func(counts gobreaker.Counts) bool

// ratioTrip opens once minRequests were seen and the failure ratio reaches threshold
func ratioTrip(minRequests uint32, threshold float64) tripFunc {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests == 0 {
			return false
		}
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= minRequests && failureRatio >= threshold
	}
}

// NewBreaker creates a circuit breaker for one Gemini operation. It returns
// nil when the breaker is disabled in cfg.
func NewBreaker[T any](name, operationType string, cfg *config.OperationAIConfig, trip tripFunc, logger *errors.Logger) *Breaker[T] {
	if !cfg.CircuitBreaker.Enabled {
		return nil
	}
	if trip == nil {
		trip = ratioTrip(cfg.CircuitBreaker.MinRequests, cfg.CircuitBreaker.FailureThreshold)
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("%s-%s", name, operationType),
		MaxRequests: cfg.CircuitBreaker.MaxRequests,
		Interval:    cfg.CircuitBreaker.Interval,
		Timeout:     cfg.CircuitBreaker.Timeout,
		ReadyToTrip: trip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation_type", operationType,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.CircuitBreaker.MaxRequests,
				"failure_threshold", cfg.CircuitBreaker.FailureThreshold)
		},
	}

	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn with circuit breaker protection
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns circuit breaker statistics
func (b *Breaker[T]) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// Healthy reports whether the breaker is closed. No breaker counts as healthy.
func (b *Breaker[T]) Healthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
