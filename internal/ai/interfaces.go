package ai

import (
	"context"

	"neuraresume/internal/types"
)

// ModuleInput is the plain-text input every analysis module receives
type ModuleInput struct {
	ResumeText     string
	JobDescription string
}

// AIProvider runs the individual analysis modules and answer generation.
// All methods return token usage information; callers may ignore it.
type AIProvider interface {
	RunAtsAnalyzer(ctx context.Context, input ModuleInput) (*types.AtsAnalyzer, *TokenUsage, error)
	RunAtsOptimizer(ctx context.Context, input ModuleInput) (*types.AtsOptimizer, *TokenUsage, error)
	RunInterviewCoach(ctx context.Context, input ModuleInput) (*types.InterviewCoach, *TokenUsage, error)
	GenerateAnswers(ctx context.Context, req types.GenerateAnswersRequest) ([]types.AnswerItem, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// UsageHook receives token usage after each successful Gemini call
type UsageHook func(ctx context.Context, operation string, usage TokenUsage)
