package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"neuraresume/internal/config"
	appErrors "neuraresume/internal/errors"
	"neuraresume/internal/types"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func timePtr(d time.Duration) *time.Duration { return &d }
func intPtr(i int) *int                      { return &i }
func float32Ptr(f float32) *float32          { return &f }
func boolPtr(b bool) *bool                   { return &b }

// fakeModels replays canned responses and records prompts
type fakeModels struct {
	responses []string
	errs      []error
	prompts   []string
	configs   []*genai.GenerateContentConfig
	model     *genai.Model
	calls     int
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	i := f.calls
	f.calls++
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompts = append(f.prompts, contents[0].Parts[0].Text)
	}
	f.configs = append(f.configs, cfg)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	text := ""
	if i < len(f.responses) {
		text = f.responses[i]
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     100,
			CandidatesTokenCount: 40,
			TotalTokenCount:      140,
		},
	}, nil
}

func (f *fakeModels) Get(context.Context, string, *genai.GetModelConfig) (*genai.Model, error) {
	if f.model == nil {
		return nil, errors.New("model not found")
	}
	return f.model, nil
}

func testOperationConfig(retries int) *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider:         "gemini",
		Model:            "test-model",
		Timeout:          timePtr(30 * time.Second),
		APIKey:           "test-key",
		MaxRetries:       intPtr(retries),
		Temperature:      float32Ptr(0.5),
		UseSystemPrompts: boolPtr(true),
	}
}

func newTestProvider(models *fakeModels, cfg *config.OperationAIConfig) *GeminiProvider {
	return newGeminiProvider(models, cfg, "test", appErrors.NewNopLogger())
}

func TestRunAtsAnalyzer(t *testing.T) {
	models := &fakeModels{responses: []string{`{
		"atsScore": {"score": 104},
		"jobSuitability": {"match": "High", "percentage": 88, "reasoning": "Strong Go background"},
		"strengths": ["Go", "Kubernetes"],
		"weaknesses": ["No frontend work"]
	}`}}
	p := newTestProvider(models, testOperationConfig(0))

	var hooked TokenUsage
	p.usageHook = func(_ context.Context, operation string, usage TokenUsage) {
		if operation != "ats_analyzer" {
			t.Errorf("Expected hook for ats_analyzer, got %s", operation)
		}
		hooked = usage
	}

	out, usage, err := p.RunAtsAnalyzer(context.Background(), ModuleInput{ResumeText: "Senior Go engineer", JobDescription: "Platform role"})
	if err != nil {
		t.Fatalf("RunAtsAnalyzer failed: %v", err)
	}

	if out.AtsScore.Score != 100 {
		t.Errorf("Expected score clamped to 100, got %v", out.AtsScore.Score)
	}
	if out.JobSuitability == nil || out.JobSuitability.Match != "High" {
		t.Errorf("Expected High job suitability, got %+v", out.JobSuitability)
	}
	if out.CareerSuggestions != nil {
		t.Error("Expected absent career suggestions to stay nil")
	}
	if usage == nil || usage.TotalTokens != 140 || hooked.TotalTokens != 140 {
		t.Errorf("Expected token usage 140, got %+v / %+v", usage, hooked)
	}

	prompt := models.prompts[0]
	if !strings.Contains(prompt, "Senior Go engineer") || !strings.Contains(prompt, "Platform role") {
		t.Errorf("Prompt should contain resume and job description, got: %s", prompt)
	}
	if models.configs[0].SystemInstruction == nil {
		t.Error("Expected system instruction to be set")
	}
	if models.configs[0].ResponseSchema == nil || models.configs[0].ResponseMIMEType != "application/json" {
		t.Error("Expected structured JSON output config")
	}
}

func TestRunInterviewCoachNormalizesDifficulty(t *testing.T) {
	models := &fakeModels{responses: []string{`{
		"targetRole": "Backend Engineer",
		"questions": [
			{"question": "Tell me about yourself.", "difficulty": "Easy", "category": "Behavioral"},
			{"question": "Design a rate limiter.", "difficulty": "Extreme", "category": "System Design"}
		]
	}`}}
	p := newTestProvider(models, testOperationConfig(0))

	out, _, err := p.RunInterviewCoach(context.Background(), ModuleInput{ResumeText: "resume"})
	if err != nil {
		t.Fatalf("RunInterviewCoach failed: %v", err)
	}

	if out.TargetRole != "Backend Engineer" || len(out.Questions) != 2 {
		t.Fatalf("Unexpected coach output: %+v", out)
	}
	if out.Questions[1].Difficulty != types.DifficultyMedium {
		t.Errorf("Expected unknown difficulty to become Medium, got %s", out.Questions[1].Difficulty)
	}
	if !strings.Contains(models.prompts[0], noJobDescription) {
		t.Error("Expected placeholder for missing job description")
	}
}

func TestGenerateAnswersPrompt(t *testing.T) {
	models := &fakeModels{responses: []string{`{"answers": [
		{"question": "Why Go?", "answer": "Because of its simplicity."},
		{"question": "Why us?", "answer": "Your platform team."}
	]}`}}
	p := newTestProvider(models, testOperationConfig(0))

	answers, _, err := p.GenerateAnswers(context.Background(), types.GenerateAnswersRequest{
		ResumeText: "resume",
		Questions: []types.InterviewQuestion{
			{Question: "Why Go?"},
			{Question: "Why us?"},
		},
	})
	if err != nil {
		t.Fatalf("GenerateAnswers failed: %v", err)
	}
	if len(answers) != 2 || answers[1].Answer != "Your platform team." {
		t.Errorf("Unexpected answers: %+v", answers)
	}
	if !strings.Contains(models.prompts[0], "1. Why Go?\n2. Why us?") {
		t.Errorf("Expected numbered questions in prompt, got: %s", models.prompts[0])
	}
}

func TestCustomPromptsOverrideDefaults(t *testing.T) {
	cfg := testOperationConfig(0)
	cfg.CustomPrompts.UserPrompts.AtsOptimizer = "CUSTOM %s || %s"
	cfg.UseSystemPrompts = boolPtr(false)

	models := &fakeModels{responses: []string{`{"overallStrategy": "x", "skillGapLearningPath": [], "sectionLevelSuggestions": []}`}}
	p := newTestProvider(models, cfg)

	if _, _, err := p.RunAtsOptimizer(context.Background(), ModuleInput{ResumeText: "R", JobDescription: "J"}); err != nil {
		t.Fatalf("RunAtsOptimizer failed: %v", err)
	}
	if models.prompts[0] != "CUSTOM R || J" {
		t.Errorf("Expected custom prompt, got %q", models.prompts[0])
	}
	if models.configs[0].SystemInstruction != nil {
		t.Error("System instruction should be omitted when system prompts are disabled")
	}
}

func TestParseFailureIsAIError(t *testing.T) {
	models := &fakeModels{responses: []string{"not json"}}
	p := newTestProvider(models, testOperationConfig(0))

	_, _, err := p.RunAtsOptimizer(context.Background(), ModuleInput{ResumeText: "R"})
	if !appErrors.HasCode(err, appErrors.ErrCodeAIResponseParse) {
		t.Errorf("Expected parse failure code, got %v", err)
	}
}

func TestRetryOnRetryableError(t *testing.T) {
	models := &fakeModels{
		errs:      []error{&googleapi.Error{Code: 503}},
		responses: []string{"", `{"answers": []}`},
	}
	p := newTestProvider(models, testOperationConfig(1))

	if _, _, err := p.GenerateAnswers(context.Background(), types.GenerateAnswersRequest{}); err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if models.calls != 2 {
		t.Errorf("Expected 2 calls, got %d", models.calls)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	models := &fakeModels{errs: []error{&googleapi.Error{Code: 400}}}
	p := newTestProvider(models, testOperationConfig(3))

	_, _, err := p.GenerateAnswers(context.Background(), types.GenerateAnswersRequest{})
	if !appErrors.HasCode(err, appErrors.ErrCodeAIServiceFailed) {
		t.Errorf("Expected AI service failure, got %v", err)
	}
	if models.calls != 1 {
		t.Errorf("Expected a single call, got %d", models.calls)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"network error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"rate limited", &googleapi.Error{Code: 429}, true},
		{"server error", fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 500}), true},
		{"bad request", &googleapi.Error{Code: 400}, false},
		{"genai unavailable", genai.APIError{Code: 503}, true},
		{"genai forbidden", genai.APIError{Code: 403}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	for attempt, base := range map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second} {
		d := backoffDelay(attempt)
		if d < base || d > base+base/10 {
			t.Errorf("attempt %d: delay %v outside [%v, %v]", attempt, d, base, base+base/10)
		}
	}
	if d := backoffDelay(10); d != 30*time.Second {
		t.Errorf("Expected delay capped at 30s, got %v", d)
	}
}

func TestGetModelInfo(t *testing.T) {
	p := newTestProvider(&fakeModels{model: &genai.Model{DisplayName: "Test Model", Version: "001"}}, testOperationConfig(0))
	info := p.GetModelInfo(context.Background())
	if !info.Available || info.DisplayName != "Test Model" {
		t.Errorf("Expected available model info, got %+v", info)
	}

	p = newTestProvider(&fakeModels{}, testOperationConfig(0))
	info = p.GetModelInfo(context.Background())
	if info.Available || info.Error == "" {
		t.Errorf("Expected unavailable model with error, got %+v", info)
	}
}
