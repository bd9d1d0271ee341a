package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"neuraresume/internal/config"
	appErrors "neuraresume/internal/errors"
	"neuraresume/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// modelCheckTimeout bounds the health check against the models endpoint
const modelCheckTimeout = 10 * time.Second

// contentGenerator is the part of the genai client the provider calls
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	models         contentGenerator
	config         *config.OperationAIConfig
	operationType  string
	circuitBreaker *Breaker[*genai.GenerateContentResponse]
	modelBreaker   *Breaker[*genai.Model]
	logger         *appErrors.Logger
	usageHook      UsageHook
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *appErrors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}
	return newGeminiProvider(client.Models, cfg, operationType, logger), nil
}

func newGeminiProvider(models contentGenerator, cfg *config.OperationAIConfig, operationType string, logger *appErrors.Logger) *GeminiProvider {
	return &GeminiProvider{
		models:         models,
		config:         cfg,
		operationType:  operationType,
		circuitBreaker: NewBreaker[*genai.GenerateContentResponse]("gemini", operationType, cfg, nil, logger),
		// Model info is less critical, so use more lenient settings
		modelBreaker: NewBreaker[*genai.Model]("gemini-model", operationType, cfg, ratioTrip(5, 0.8), logger),
		logger:       logger,
	}
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation_type", g.operationType,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// backoffDelay returns the wait before retry attempt n (n >= 1): exponential
// with up to 10% jitter, capped at 30 seconds
func backoffDelay(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitter := time.Duration(0)
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		jitterBig, _ := rand.Int(rand.Reader, big.NewInt(jitterMax))
		jitter = time.Duration(jitterBig.Int64())
	}
	return min(baseDelay+jitter, 30*time.Second)
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := *g.config.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(backoffDelay(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", maxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, maxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Timeouts, refused connections and resets are all worth another attempt
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return retryableStatus(genaiErr.Code)
	}

	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// generationConfig returns a structured-output config for schema
func (g *GeminiProvider) generationConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}
	return cfg
}

// executeAIOperation runs one structured Gemini call with tracing, circuit
// breaking, retries and JSON decoding of the response text
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	if g.config.Timeout != nil && *g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *g.config.Timeout)
		defer cancel()
	}
	tracer := otel.Tracer("neuraresume.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to generate content for "+operationName, err)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, appErrors.NewAIError(appErrors.ErrCodeAIResponseParse,
			"Failed to parse AI response for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
		if g.usageHook != nil {
			g.usageHook(ctx, operationName, *tokenUsage)
		}
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// runModule formats the prompts of kind and runs one analysis module
func runModule[Out any](g *GeminiProvider, ctx context.Context, kind config.PromptKind, operation string, schema *genai.Schema, input ModuleInput) (*Out, *TokenUsage, error) {
	systemPrompt, template := promptsFor(g.config.CustomPrompts, kind)
	output, usage, err := executeAIOperation[Out](
		g,
		ctx,
		operation,
		formatModulePrompt(template, input),
		systemPrompt,
		g.generationConfig(schema),
		attribute.Int("input.resume_length", len(input.ResumeText)),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return nil, nil, err
	}
	return &output, usage, nil
}

// RunAtsAnalyzer implements AIProvider
func (g *GeminiProvider) RunAtsAnalyzer(ctx context.Context, input ModuleInput) (*types.AtsAnalyzer, *TokenUsage, error) {
	out, usage, err := runModule[types.AtsAnalyzer](g, ctx, config.PromptAtsAnalyzer, "ats_analyzer", atsAnalyzerSchema(), input)
	if err != nil {
		return nil, nil, err
	}
	out.AtsScore.Score = math.Max(0, math.Min(100, out.AtsScore.Score))

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Float64("ats.score", out.AtsScore.Score))
	}
	return out, usage, nil
}

// RunAtsOptimizer implements AIProvider
func (g *GeminiProvider) RunAtsOptimizer(ctx context.Context, input ModuleInput) (*types.AtsOptimizer, *TokenUsage, error) {
	return runModule[types.AtsOptimizer](g, ctx, config.PromptAtsOptimizer, "ats_optimizer", atsOptimizerSchema(), input)
}

// RunInterviewCoach implements AIProvider
func (g *GeminiProvider) RunInterviewCoach(ctx context.Context, input ModuleInput) (*types.InterviewCoach, *TokenUsage, error) {
	out, usage, err := runModule[types.InterviewCoach](g, ctx, config.PromptInterviewCoach, "interview_coach", interviewCoachSchema(), input)
	if err != nil {
		return nil, nil, err
	}
	for i := range out.Questions {
		if !out.Questions[i].Difficulty.Valid() {
			out.Questions[i].Difficulty = types.DifficultyMedium
		}
	}
	return out, usage, nil
}

// GenerateAnswers implements AIProvider
func (g *GeminiProvider) GenerateAnswers(ctx context.Context, req types.GenerateAnswersRequest) ([]types.AnswerItem, *TokenUsage, error) {
	systemPrompt, template := promptsFor(g.config.CustomPrompts, config.PromptInterviewAnswers)

	output, usage, err := executeAIOperation[types.GenerateAnswersResponse](
		g,
		ctx,
		"generate_answers",
		formatAnswersPrompt(template, req),
		systemPrompt,
		g.generationConfig(answersSchema()),
		attribute.Int("input.question_count", len(req.Questions)),
	)
	if err != nil {
		return nil, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.answer_count", len(output.Answers)))
	}
	return output.Answers, usage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
		"overall_healthy":  g.circuitBreaker.Healthy() && g.modelBreaker.Healthy(),
	}
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
