package backend

import (
	"context"
	"io"

	"neuraresume/internal/ai"
	"neuraresume/internal/client"
	"neuraresume/internal/config"
	"neuraresume/internal/errors"
	"neuraresume/internal/observability"
	"neuraresume/internal/types"
)

// Backend answers the two calls of the analysis API contract
type Backend interface {
	Analyze(ctx context.Context, input types.AnalyzeInput) (*types.AnalysisResult, error)
	GenerateAnswers(ctx context.Context, req types.GenerateAnswersRequest) ([]types.AnswerItem, error)
}

var (
	_ Backend = (*client.Client)(nil)
	_ Backend = (*ai.Service)(nil)
	_ Backend = (*Instrumented)(nil)
)

// Operation names used for spans and metrics
const (
	OperationAnalyze = "analyze"
	OperationAnswers = "generate_answers"
)

// New builds the backend selected by cfg.Backend.Mode, wrapped with tracing
// and metrics. metrics may be nil.
func New(cfg *config.Config, logger *errors.Logger, metrics *observability.Metrics) (*Instrumented, error) {
	switch cfg.Backend.Mode {
	case config.BackendRemote:
		logger.Info("Using remote analysis backend", "base_url", cfg.Backend.Remote.BaseURL)
		return Instrument(config.BackendRemote, client.New(cfg.Backend.Remote, logger), metrics), nil

	case config.BackendGemini:
		svc, err := ai.NewService(cfg, logger)
		if err != nil {
			return nil, err
		}
		svc.SetUsageHook(func(ctx context.Context, operation string, usage ai.TokenUsage) {
			metrics.RecordTokenUsage(ctx, operation, usage.InputTokens, usage.OutputTokens, usage.TotalTokens)
		})
		logger.Info("Using Gemini backend", "model", cfg.AI.Model)
		return Instrument(config.BackendGemini, svc, metrics), nil

	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Unknown backend mode: "+cfg.Backend.Mode, nil)
	}
}

// Instrumented wraps a Backend with a span and backend metrics per call
type Instrumented struct {
	mode    string
	next    Backend
	metrics *observability.Metrics
}

// Instrument wraps next. mode labels the metrics.
func Instrument(mode string, next Backend, metrics *observability.Metrics) *Instrumented {
	return &Instrumented{mode: mode, next: next, metrics: metrics}
}

// Mode returns the backend mode label
func (b *Instrumented) Mode() string {
	return b.mode
}

func (b *Instrumented) Analyze(ctx context.Context, input types.AnalyzeInput) (*types.AnalysisResult, error) {
	var result *types.AnalysisResult
	err := b.metrics.TrackBackendOperation(ctx, b.mode, OperationAnalyze, func(ctx context.Context) error {
		var err error
		result, err = b.next.Analyze(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (b *Instrumented) GenerateAnswers(ctx context.Context, req types.GenerateAnswersRequest) ([]types.AnswerItem, error) {
	var answers []types.AnswerItem
	err := b.metrics.TrackBackendOperation(ctx, b.mode, OperationAnswers, func(ctx context.Context) error {
		var err error
		answers, err = b.next.GenerateAnswers(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// Stats returns circuit breaker statistics of the wrapped backend, if it has any
func (b *Instrumented) Stats() map[string]any {
	stats := map[string]any{"mode": b.mode}
	if s, ok := b.next.(interface{ Stats() map[string]any }); ok {
		stats["circuitBreakers"] = s.Stats()
	}
	return stats
}

// ModelInfo reports model availability for the Gemini backend, nil otherwise
func (b *Instrumented) ModelInfo(ctx context.Context) map[string]*ai.ModelInfo {
	if svc, ok := b.next.(*ai.Service); ok {
		return svc.ModelInfo(ctx)
	}
	return nil
}

// Close releases the wrapped backend
func (b *Instrumented) Close() error {
	if c, ok := b.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
