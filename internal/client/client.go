// Package client talks to the remote NeuraResume analysis API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"neuraresume/internal/config"
	"neuraresume/internal/errors"
	"neuraresume/internal/types"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// InvalidJSONMessage is shown when a successful response is not valid JSON
	InvalidJSONMessage = "Received invalid JSON from backend. Check logs for details."

	unavailableMessage = "The analysis service is temporarily unavailable. Please try again later."
	unreachableMessage = "Could not reach the analysis service. Please check your connection and try again."

	// maxLoggedBody bounds how much of an unparseable body goes to the log
	maxLoggedBody = 2048

	requestIDHeader = "X-Request-ID"
)

// rawResponse is a fully read HTTP response
type rawResponse struct {
	status int
	body   []byte
}

// serverError marks a 5xx response so the circuit breaker counts it
type serverError struct {
	resp *rawResponse
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server responded with status %d", e.resp.status)
}

// Client is an HTTP client for the /analyze and /generate-answers endpoints
type Client struct {
	baseURL         string
	analyzePath     string
	answersPath     string
	token           string
	maxResponseSize int64
	httpClient      *http.Client
	breaker         *gobreaker.CircuitBreaker[*rawResponse]
	logger          *errors.Logger
}

// New creates a client from the remote backend configuration
func New(cfg config.RemoteConfig, logger *errors.Logger) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		analyzePath:     cfg.AnalyzePath,
		answersPath:     cfg.AnswersPath,
		token:           cfg.APIToken,
		maxResponseSize: cfg.MaxResponseSize,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}

	if cfg.CircuitBreaker.Enabled {
		cb := cfg.CircuitBreaker
		c.breaker = gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
			Name:        "remote-backend",
			MaxRequests: cb.MaxRequests,
			Interval:    cb.Interval,
			Timeout:     cb.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests == 0 {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= cb.MinRequests && failureRatio >= cb.FailureThreshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Info("Circuit breaker state changed",
					"name", name,
					"from", from.String(),
					"to", to.String())
			},
		})
	}

	return c
}

// Analyze posts the resume, job description and module toggles as a
// multipart form and decodes the analysis result
func (c *Client) Analyze(ctx context.Context, input types.AnalyzeInput) (*types.AnalysisResult, error) {
	ctx, span := otel.Tracer("neuraresume.client").Start(ctx, "client.analyze")
	defer span.End()

	body, contentType, err := encodeAnalyzeForm(input)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "Failed to build the analysis request.", err)
	}
	span.SetAttributes(
		attribute.Bool("input.has_text", strings.TrimSpace(input.ResumeText) != ""),
		attribute.Bool("input.has_file", input.ResumeFile != nil),
		attribute.Int("request.size", body.Len()),
	)

	resp, err := c.do(ctx, c.analyzePath, contentType, body.Bytes())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	if err := c.checkStatus(resp, errors.ErrCodeHTTPStatus); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return nil, err
	}

	var result types.AnalysisResult
	if err := c.decode(resp, &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid json")
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.questions", len(result.Questions())))
	return &result, nil
}

// GenerateAnswers posts the question list as JSON and returns the answers
func (c *Client) GenerateAnswers(ctx context.Context, req types.GenerateAnswersRequest) ([]types.AnswerItem, error) {
	ctx, span := otel.Tracer("neuraresume.client").Start(ctx, "client.generate_answers")
	defer span.End()
	span.SetAttributes(attribute.Int("input.question_count", len(req.Questions)))

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "Failed to build the answers request.", err)
	}

	resp, err := c.do(ctx, c.answersPath, "application/json", payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	if err := c.checkStatus(resp, errors.ErrCodeAnswerGenFailed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return nil, err
	}

	var out types.GenerateAnswersResponse
	if err := c.decode(resp, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid json")
		return nil, err
	}

	span.SetAttributes(attribute.Int("output.answer_count", len(out.Answers)))
	return out.Answers, nil
}

// do sends one POST through the circuit breaker. No retries: every call is
// a single attempt.
func (c *Client) do(ctx context.Context, path, contentType string, payload []byte) (*rawResponse, error) {
	send := func() (*rawResponse, error) {
		resp, err := c.send(ctx, path, contentType, payload)
		if err != nil {
			return nil, err
		}
		if resp.status >= http.StatusInternalServerError {
			return resp, &serverError{resp: resp}
		}
		return resp, nil
	}

	var resp *rawResponse
	var err error
	if c.breaker != nil {
		resp, err = c.breaker.Execute(send)
	} else {
		resp, err = send()
	}

	var srvErr *serverError
	switch {
	case err == nil:
		return resp, nil
	case stderrors.As(err, &srvErr):
		return srvErr.resp, nil
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.Warn("Remote backend circuit is open", "path", path)
		return nil, errors.NewNetworkError(errors.ErrCodeCircuitOpen, unavailableMessage, err)
	default:
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, err
		}
		c.logger.LogError(err, "Remote backend request failed", "path", path)
		return nil, errors.NewNetworkError(errors.ErrCodeRequestFailed, unreachableMessage, err).
			WithContext("path", path)
	}
}

func (c *Client) send(ctx context.Context, path, contentType string, payload []byte) (*rawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "Failed to build the request.", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	reader := io.Reader(resp.Body)
	if c.maxResponseSize > 0 {
		reader = io.LimitReader(resp.Body, c.maxResponseSize+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if c.maxResponseSize > 0 && int64(len(body)) > c.maxResponseSize {
		return nil, errors.NewResponseError(errors.ErrCodeResponseTooLarge,
			"The analysis service returned more data than allowed.", nil).
			WithContext("limit", c.maxResponseSize)
	}

	c.logger.Debug("Remote backend responded",
		"path", path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(requestIDHeader),
		"duration_ms", time.Since(start).Milliseconds(),
		"bytes", len(body))

	return &rawResponse{status: resp.StatusCode, body: body}, nil
}

// checkStatus converts a non-2xx response into an error carrying the
// server's detail message, or "Error: <status text>" without one
func (c *Client) checkStatus(resp *rawResponse, code string) error {
	if resp.status >= 200 && resp.status < 300 {
		return nil
	}

	message := DetailMessage(resp.status, resp.body)
	c.logger.Warn("Remote backend returned an error status",
		"status", resp.status,
		"message", message)

	return errors.NewResponseError(code, message, nil).
		WithContext("status", resp.status)
}

// DetailMessage extracts the user-facing message of an error response
func DetailMessage(status int, body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if detail, ok := payload.Detail.(string); ok && detail != "" {
			return detail
		}
	}
	return "Error: " + http.StatusText(status)
}

func (c *Client) decode(resp *rawResponse, out any) error {
	if err := json.Unmarshal(resp.body, out); err != nil {
		c.logger.LogError(err, "Raw response from backend is not valid JSON",
			"status", resp.status,
			"body", truncate(string(resp.body), maxLoggedBody))
		return errors.NewResponseError(errors.ErrCodeInvalidJSON, InvalidJSONMessage, err)
	}
	return nil
}

// Stats returns circuit breaker statistics
func (c *Client) Stats() map[string]any {
	if c.breaker == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    c.breaker.Name(),
		"state":   c.breaker.State().String(),
		"counts":  c.breaker.Counts(),
		"enabled": true,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}

// encodeAnalyzeForm builds the multipart body. Empty optional fields are
// left out; tasks is always present.
func encodeAnalyzeForm(input types.AnalyzeInput) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if strings.TrimSpace(input.ResumeText) != "" {
		if err := w.WriteField("resumeText", input.ResumeText); err != nil {
			return nil, "", err
		}
	}

	if input.ResumeFile != nil && len(input.ResumeFile.Data) > 0 {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="resumeFile"; filename=%q`, fileName(input.ResumeFile)))
		header.Set("Content-Type", "application/pdf")
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(input.ResumeFile.Data); err != nil {
			return nil, "", err
		}
	}

	if strings.TrimSpace(input.JobDescription) != "" {
		if err := w.WriteField("jobDescription", input.JobDescription); err != nil {
			return nil, "", err
		}
	}

	tasks, err := json.Marshal(input.Tasks)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("tasks", string(tasks)); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func fileName(f *types.FileUpload) string {
	if f.Name == "" {
		return "resume.pdf"
	}
	return f.Name
}
