package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"neuraresume/internal/config"
	"neuraresume/internal/errors"
	"neuraresume/internal/types"
)

func testConfig(baseURL string) config.RemoteConfig {
	return config.RemoteConfig{
		BaseURL:         baseURL,
		AnalyzePath:     "/analyze",
		AnswersPath:     "/generate-answers",
		Timeout:         5 * time.Second,
		MaxResponseSize: 1 << 20,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*config.RemoteConfig)) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := testConfig(srv.URL)
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg, errors.NewNopLogger()), srv
}

func TestAnalyzeSendsMultipartForm(t *testing.T) {
	var got struct {
		jobDescription, tasks, fileName, fileType, fileBody, auth, requestID string
		hasResumeText                                                       bool
	}

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		_, got.hasResumeText = r.MultipartForm.Value["resumeText"]
		got.jobDescription = r.FormValue("jobDescription")
		got.tasks = r.FormValue("tasks")
		got.auth = r.Header.Get("Authorization")
		got.requestID = r.Header.Get("X-Request-ID")

		file, header, err := r.FormFile("resumeFile")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		got.fileName = header.Filename
		got.fileType = header.Header.Get("Content-Type")
		got.fileBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"interviewCoach": {"targetRole": "SRE", "questions": [{"question": "Q1", "difficulty": "Easy", "category": "General"}]}}`))
	}, func(cfg *config.RemoteConfig) { cfg.APIToken = "secret-token" })

	result, err := c.Analyze(context.Background(), types.AnalyzeInput{
		ResumeText:     "   ",
		ResumeFile:     &types.FileUpload{Name: "cv.pdf", Data: []byte("%PDF-1.4 fake")},
		JobDescription: "Site reliability",
		Tasks:          types.Tasks{RunInterviewCoach: true},
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if got.hasResumeText {
		t.Error("Whitespace-only resume text should not be sent")
	}
	if got.jobDescription != "Site reliability" {
		t.Errorf("Unexpected job description %q", got.jobDescription)
	}
	var tasks types.Tasks
	if err := json.Unmarshal([]byte(got.tasks), &tasks); err != nil || tasks != (types.Tasks{RunInterviewCoach: true}) {
		t.Errorf("Unexpected tasks field %q", got.tasks)
	}
	if got.fileName != "cv.pdf" || got.fileType != "application/pdf" || got.fileBody != "%PDF-1.4 fake" {
		t.Errorf("Unexpected file part: %q %q %q", got.fileName, got.fileType, got.fileBody)
	}
	if got.auth != "Bearer secret-token" {
		t.Errorf("Expected bearer token, got %q", got.auth)
	}
	if got.requestID == "" {
		t.Error("Expected X-Request-ID header")
	}

	if result.AtsAnalyzer != nil || result.AtsOptimizer != nil {
		t.Error("Only the interview coach should be present")
	}
	if len(result.Questions()) != 1 || result.InterviewCoach.TargetRole != "SRE" {
		t.Errorf("Unexpected result: %+v", result.InterviewCoach)
	}
}

func TestAnalyzeErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		code     string
		expected string
	}{
		{"detail string", http.StatusBadRequest, `{"detail":"bad file"}`, errors.ErrCodeHTTPStatus, "bad file"},
		{"detail list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, errors.ErrCodeHTTPStatus, "Error: Unprocessable Entity"},
		{"empty detail", http.StatusBadRequest, `{"detail":""}`, errors.ErrCodeHTTPStatus, "Error: Bad Request"},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, errors.ErrCodeHTTPStatus, "Error: Bad Gateway"},
		{"server detail", http.StatusInternalServerError, `{"detail":"model overloaded"}`, errors.ErrCodeHTTPStatus, "model overloaded"},
		{"invalid json on success", http.StatusOK, `not json`, errors.ErrCodeInvalidJSON, InvalidJSONMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			result, err := c.Analyze(context.Background(), types.AnalyzeInput{ResumeText: "resume", Tasks: types.DefaultTasks()})
			if result != nil {
				t.Errorf("Expected no result, got %+v", result)
			}
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("Expected code %s, got %v", tt.code, err)
			}
			if msg := errors.UserMessage(err); msg != tt.expected {
				t.Errorf("Expected message %q, got %q", tt.expected, msg)
			}
			if appErr, _ := errors.AsAppError(err); tt.code == errors.ErrCodeHTTPStatus && appErr.Context["status"] != tt.status {
				t.Errorf("Expected upstream status %d in context, got %v", tt.status, appErr.Context["status"])
			}
		})
	}
}

func TestTransportErrorIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(testConfig(url), errors.NewNopLogger())
	_, err := c.Analyze(context.Background(), types.AnalyzeInput{ResumeText: "resume"})
	if !errors.IsType(err, errors.ErrorTypeNetwork) || !errors.HasCode(err, errors.ErrCodeRequestFailed) {
		t.Errorf("Expected network error, got %v", err)
	}
}

func TestCircuitBreakerTripsOnlyOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusBadRequest)

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"detail":"nope"}`))
	}, func(cfg *config.RemoteConfig) {
		cfg.CircuitBreaker = config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			MinRequests:      2,
			FailureThreshold: 0.4,
		}
	})

	input := types.AnalyzeInput{ResumeText: "resume"}
	for i := 0; i < 3; i++ {
		if _, err := c.Analyze(context.Background(), input); !errors.HasCode(err, errors.ErrCodeHTTPStatus) {
			t.Fatalf("4xx attempt %d: expected status error, got %v", i, err)
		}
	}
	if state := c.Stats()["state"]; state != "closed" {
		t.Fatalf("Client errors must not open the circuit, state %v", state)
	}

	status.Store(http.StatusServiceUnavailable)
	for i := 0; i < 2; i++ {
		if _, err := c.Analyze(context.Background(), input); !errors.HasCode(err, errors.ErrCodeHTTPStatus) {
			t.Fatalf("5xx attempt %d: expected status error, got %v", i, err)
		}
	}

	before := calls.Load()
	_, err := c.Analyze(context.Background(), input)
	if !errors.HasCode(err, errors.ErrCodeCircuitOpen) {
		t.Fatalf("Expected open circuit, got %v", err)
	}
	if calls.Load() != before {
		t.Error("No request should be sent while the circuit is open")
	}
}

func TestGenerateAnswers(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate-answers" || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Unexpected request %s %s", r.URL.Path, r.Header.Get("Content-Type"))
		}
		var req types.GenerateAnswersRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		resp := types.GenerateAnswersResponse{}
		for _, q := range req.Questions {
			resp.Answers = append(resp.Answers, types.AnswerItem{Question: q.Question, Answer: "Answer to " + q.Question})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	answers, err := c.GenerateAnswers(context.Background(), types.GenerateAnswersRequest{
		ResumeText: "resume",
		Questions:  []types.InterviewQuestion{{Question: "Q1"}, {Question: "Q2"}},
	})
	if err != nil {
		t.Fatalf("GenerateAnswers failed: %v", err)
	}
	if len(answers) != 2 || answers[1].Answer != "Answer to Q2" {
		t.Errorf("Unexpected answers: %+v", answers)
	}
}

func TestGenerateAnswersFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GenerateAnswers(context.Background(), types.GenerateAnswersRequest{})
	if !errors.HasCode(err, errors.ErrCodeAnswerGenFailed) {
		t.Errorf("Expected answer generation failure, got %v", err)
	}
}

func TestResponseSizeLimit(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"atsAnalyzer": {"strengths": ["` + strings.Repeat("x", 200) + `"]}}`))
	}, func(cfg *config.RemoteConfig) { cfg.MaxResponseSize = 64 })

	_, err := c.Analyze(context.Background(), types.AnalyzeInput{ResumeText: "resume"})
	if !errors.IsType(err, errors.ErrorTypeResponse) || !errors.HasCode(err, errors.ErrCodeResponseTooLarge) {
		t.Errorf("Expected response too large error for oversized body, got %v", err)
	}
}

func TestDetailMessage(t *testing.T) {
	if got := DetailMessage(http.StatusNotFound, nil); got != "Error: Not Found" {
		t.Errorf("Unexpected message %q", got)
	}
	if got := DetailMessage(http.StatusBadRequest, []byte(`{"detail":"bad file"}`)); got != "bad file" {
		t.Errorf("Unexpected message %q", got)
	}
}
