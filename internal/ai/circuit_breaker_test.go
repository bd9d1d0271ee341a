package ai

import (
	"errors"
	"testing"
	"time"

	"neuraresume/internal/config"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
)

func breakerConfig(maxRequests, minRequests uint32, threshold float64) *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      maxRequests,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      minRequests,
			FailureThreshold: threshold,
		},
	}
}

func TestIndependentCircuitBreakers(t *testing.T) {
	analyzeCB := NewBreaker[*genai.GenerateContentResponse]("gemini", "analyze", breakerConfig(3, 3, 0.6), nil, nil)
	answersCB := NewBreaker[*genai.GenerateContentResponse]("gemini", "answers", breakerConfig(5, 2, 0.7), nil, nil)

	tests := []struct {
		name     string
		breaker  *Breaker[*genai.GenerateContentResponse]
		expected string
	}{
		{"analyze", analyzeCB, "gemini-analyze"},
		{"answers", answersCB, "gemini-answers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := tt.breaker.Stats()

			if name, _ := stats["name"].(string); name != tt.expected {
				t.Errorf("Expected circuit breaker name '%s', got '%s'", tt.expected, name)
			}
			if state, _ := stats["state"].(string); state != "closed" {
				t.Errorf("Expected initial state 'closed', got '%s'", state)
			}
			if enabled, _ := stats["enabled"].(bool); !enabled {
				t.Error("Circuit breaker should be enabled")
			}
			if !tt.breaker.Healthy() {
				t.Error("Circuit breaker should be healthy initially")
			}
		})
	}

	if analyzeCB == answersCB {
		t.Error("Analyze and answers circuit breakers should be different instances")
	}
}

func TestCircuitBreakerTrips(t *testing.T) {
	cb := NewBreaker[int]("gemini", "trip", breakerConfig(1, 2, 0.5), nil, nil)
	failure := errors.New("upstream unavailable")

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(func() (int, error) { return 0, failure }); !errors.Is(err, failure) {
			t.Fatalf("attempt %d: expected upstream error, got %v", i, err)
		}
	}

	if cb.Healthy() {
		t.Fatal("Circuit breaker should be open after repeated failures")
	}

	called := false
	_, err := cb.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	if err == nil {
		t.Fatal("Expected open circuit error")
	}
	if called {
		t.Error("Function should not run while the circuit is open")
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	disabled := &config.OperationAIConfig{
		CircuitBreaker: config.CircuitBreakerConfig{Enabled: false},
	}

	cb := NewBreaker[int]("gemini", "disabled", disabled, nil, nil)
	if cb != nil {
		t.Fatal("Circuit breaker should be nil when disabled")
	}

	got, err := cb.Execute(func() (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Errorf("Nil breaker should run the function directly, got %d, %v", got, err)
	}
	if !cb.Healthy() {
		t.Error("Nil breaker should report healthy")
	}
	if enabled, _ := cb.Stats()["enabled"].(bool); enabled {
		t.Error("Nil breaker should report disabled")
	}
}

func TestRatioTrip(t *testing.T) {
	trip := ratioTrip(3, 0.6)

	tests := []struct {
		name     string
		requests uint32
		failures uint32
		expected bool
	}{
		{"no requests", 0, 0, false},
		{"below minimum", 2, 2, false},
		{"below threshold", 5, 2, false},
		{"at threshold", 5, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := gobreaker.Counts{Requests: tt.requests, TotalFailures: tt.failures}
			if got := trip(counts); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
