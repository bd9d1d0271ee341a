package ai

import (
	"context"
	"fmt"
	"strings"

	"neuraresume/internal/config"
	"neuraresume/internal/errors"
	"neuraresume/internal/types"
	"neuraresume/internal/utils"
)

// Service answers analysis and answer requests with Gemini. Analysis and
// answer generation use separate providers so each has its own model,
// retries and circuit breaker.
type Service struct {
	analyze AIProvider
	answers AIProvider
	logger  *errors.Logger
}

// NewService creates a Gemini service from the operation-specific AI configuration
func NewService(cfg *config.Config, logger *errors.Logger) (*Service, error) {
	analyzeCfg := cfg.GetAnalyzeConfig()
	answersCfg := cfg.GetAnswersConfig()

	analyze, err := newProvider(&analyzeCfg, "analyze", logger)
	if err != nil {
		return nil, err
	}
	answers, err := newProvider(&answersCfg, "answers", logger)
	if err != nil {
		return nil, err
	}

	return NewServiceWithProviders(analyze, answers, logger), nil
}

// NewServiceWithProviders creates a service over already constructed providers
func NewServiceWithProviders(analyze, answers AIProvider, logger *errors.Logger) *Service {
	return &Service{analyze: analyze, answers: answers, logger: logger}
}

func newProvider(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (AIProvider, error) {
	logger.Debug("Initializing AI provider",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)

	switch cfg.Provider {
	case "gemini":
		if cfg.APIKey == "" {
			return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
				"Gemini API key is not configured", nil)
		}
		return NewGeminiProvider(cfg, operationType, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}

// SetUsageHook installs a token usage callback on the Gemini providers
func (s *Service) SetUsageHook(hook UsageHook) {
	for _, p := range []AIProvider{s.analyze, s.answers} {
		if g, ok := p.(*GeminiProvider); ok {
			g.usageHook = hook
		}
	}
}

// Analyze runs every enabled module against the resume and job description.
// A PDF resume is converted to text first; typed text wins when both are given.
func (s *Service) Analyze(ctx context.Context, input types.AnalyzeInput) (*types.AnalysisResult, error) {
	if !input.HasResume() {
		return nil, errors.NewValidationError(errors.ErrCodeMissingResume,
			"Please provide resume text or upload a PDF file.", nil)
	}

	resumeText, err := s.resumeText(input)
	if err != nil {
		return nil, err
	}

	moduleInput := ModuleInput{ResumeText: resumeText, JobDescription: input.JobDescription}
	result := &types.AnalysisResult{}

	if input.Tasks.RunAtsAnalyzer {
		if result.AtsAnalyzer, _, err = s.analyze.RunAtsAnalyzer(ctx, moduleInput); err != nil {
			return nil, err
		}
	}
	if input.Tasks.RunAtsOptimizer {
		if result.AtsOptimizer, _, err = s.analyze.RunAtsOptimizer(ctx, moduleInput); err != nil {
			return nil, err
		}
	}
	if input.Tasks.RunInterviewCoach {
		if result.InterviewCoach, _, err = s.analyze.RunInterviewCoach(ctx, moduleInput); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Analysis completed",
		"ats_analyzer", result.AtsAnalyzer != nil,
		"ats_optimizer", result.AtsOptimizer != nil,
		"interview_coach", result.InterviewCoach != nil,
		"questions", len(result.Questions()))

	return result, nil
}

func (s *Service) resumeText(input types.AnalyzeInput) (string, error) {
	if text := strings.TrimSpace(input.ResumeText); text != "" {
		return text, nil
	}

	text, err := utils.ExtractPDFText(input.ResumeFile.Data)
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidPDF,
			"The uploaded file could not be read as a PDF.", err).
			WithContext("file", input.ResumeFile.Name)
	}
	if text == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidPDF,
			"No text could be extracted from the uploaded PDF.", nil).
			WithContext("file", input.ResumeFile.Name)
	}
	return text, nil
}

// GenerateAnswers writes one model answer per question
func (s *Service) GenerateAnswers(ctx context.Context, req types.GenerateAnswersRequest) ([]types.AnswerItem, error) {
	if len(req.Questions) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeNoQuestions,
			"No interview questions to answer.", nil)
	}

	answers, _, err := s.answers.GenerateAnswers(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Interview answers generated",
		"questions", len(req.Questions),
		"answers", len(answers))
	return answers, nil
}

// ModelInfo reports the availability of the analysis and answer models
func (s *Service) ModelInfo(ctx context.Context) map[string]*ModelInfo {
	return map[string]*ModelInfo{
		"analyze": s.analyze.GetModelInfo(ctx),
		"answers": s.answers.GetModelInfo(ctx),
	}
}

// Stats returns circuit breaker statistics per operation
func (s *Service) Stats() map[string]any {
	stats := map[string]any{}
	for name, p := range map[string]AIProvider{"analyze": s.analyze, "answers": s.answers} {
		if g, ok := p.(*GeminiProvider); ok {
			stats[name] = g.GetCircuitBreakerStats()
		}
	}
	return stats
}

// Close releases both providers
func (s *Service) Close() error {
	if err := s.analyze.Close(); err != nil {
		return err
	}
	return s.answers.Close()
}
