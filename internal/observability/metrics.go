package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// MetricToggles switches groups of application metrics on or off
type MetricToggles struct {
	Backend         bool
	BackendDuration bool
	TokenUsage      bool
	Business        bool
	RateLimits      bool
	CertReload      bool
}

// AllMetrics enables every metric group
func AllMetrics() MetricToggles {
	return MetricToggles{
		Backend:         true,
		BackendDuration: true,
		TokenUsage:      true,
		Business:        true,
		RateLimits:      true,
		CertReload:      true,
	}
}

// Metrics holds all custom metrics for NeuraResume.
// A nil *Metrics records nothing.
type Metrics struct {
	toggles MetricToggles

	// Backend call metrics
	BackendDuration metric.Float64Histogram
	BackendRequests metric.Int64Counter
	BackendErrors   metric.Int64Counter
	TokenUsage      metric.Int64Histogram

	// Business metrics
	Analyses      metric.Int64Counter
	AnswerExports metric.Int64Counter
	PDFPages      metric.Int64Histogram

	// Infrastructure
	CertReloads   metric.Int64Counter
	CertExpiry    metric.Float64Gauge
	RateLimitHits metric.Int64Counter
}

// NewMetrics creates the application instruments on meter
func NewMetrics(meter metric.Meter, toggles MetricToggles) (*Metrics, error) {
	m := &Metrics{toggles: toggles}
	var err error

	if m.BackendDuration, err = meter.Float64Histogram(
		"neuraresume_backend_duration_seconds",
		metric.WithDescription("Time spent waiting on the analysis backend"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create backend duration metric: %w", err)
	}

	if m.BackendRequests, err = meter.Int64Counter(
		"neuraresume_backend_requests_total",
		metric.WithDescription("Total number of backend requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create backend request count metric: %w", err)
	}

	if m.BackendErrors, err = meter.Int64Counter(
		"neuraresume_backend_errors_total",
		metric.WithDescription("Total number of failed backend requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create backend error count metric: %w", err)
	}

	if m.TokenUsage, err = meter.Int64Histogram(
		"neuraresume_ai_token_usage",
		metric.WithDescription("Token usage for model calls (input, output, total)"),
		metric.WithUnit("tokens"),
	); err != nil {
		return nil, fmt.Errorf("failed to create token usage metric: %w", err)
	}

	if m.Analyses, err = meter.Int64Counter(
		"neuraresume_analyses_total",
		metric.WithDescription("Total number of analysis runs"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analyses metric: %w", err)
	}

	if m.AnswerExports, err = meter.Int64Counter(
		"neuraresume_answer_exports_total",
		metric.WithDescription("Total number of interview guide exports"),
	); err != nil {
		return nil, fmt.Errorf("failed to create answer exports metric: %w", err)
	}

	if m.PDFPages, err = meter.Int64Histogram(
		"neuraresume_pdf_pages",
		metric.WithDescription("Pages per rendered interview guide"),
	); err != nil {
		return nil, fmt.Errorf("failed to create pdf pages metric: %w", err)
	}

	if m.CertReloads, err = meter.Int64Counter(
		"neuraresume_cert_reloads_total",
		metric.WithDescription("Total number of certificate reloads"),
	); err != nil {
		return nil, fmt.Errorf("failed to create certificate reload metric: %w", err)
	}

	if m.CertExpiry, err = meter.Float64Gauge(
		"neuraresume_cert_expiry_seconds",
		metric.WithDescription("Seconds until certificate expiry"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create certificate expiry metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"neuraresume_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limited requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit metric: %w", err)
	}

	return m, nil
}

// TrackBackendOperation instruments one backend call with a span and the
// backend request, error and duration metrics.
func (m *Metrics) TrackBackendOperation(ctx context.Context, backend, operation string, fn func(context.Context) error) error {
	ctx, span := otel.Tracer("neuraresume.backend").Start(ctx, "backend."+operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	attrs := []attribute.KeyValue{
		attribute.String("backend", backend),
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if m == nil || !m.toggles.Backend {
		return err
	}

	opt := metric.WithAttributes(attrs...)
	if m.toggles.BackendDuration {
		m.BackendDuration.Record(ctx, duration, opt)
	}
	m.BackendRequests.Add(ctx, 1, opt)
	if err != nil {
		m.BackendErrors.Add(ctx, 1, opt)
	}
	return err
}

// RecordTokenUsage records model token counts for one call
func (m *Metrics) RecordTokenUsage(ctx context.Context, operation string, input, output, total int64) {
	if m == nil || !m.toggles.TokenUsage {
		return
	}
	for _, t := range []struct {
		kind  string
		value int64
	}{
		{"input", input},
		{"output", output},
		{"total", total},
	} {
		m.TokenUsage.Record(ctx, t.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", t.kind),
		))
	}
}

// RecordAnalysis counts one analysis run
func (m *Metrics) RecordAnalysis(ctx context.Context, success bool, source string) {
	if m == nil || !m.toggles.Business {
		return
	}
	m.Analyses.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
		attribute.String("resume_source", source),
	))
}

// RecordAnswerExport counts one guide export and, on success, its page count
func (m *Metrics) RecordAnswerExport(ctx context.Context, success bool, pages int, policy string) {
	if m == nil || !m.toggles.Business {
		return
	}
	m.AnswerExports.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
		attribute.String("pagination", policy),
	))
	if success {
		m.PDFPages.Record(ctx, int64(pages), metric.WithAttributes(attribute.String("pagination", policy)))
	}
}

// RecordRateLimitHit counts one rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, keyType string) {
	if m == nil || !m.toggles.RateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType)))
}

// RecordCertReload counts one certificate reload attempt
func (m *Metrics) RecordCertReload(ctx context.Context, success bool) {
	if m == nil || !m.toggles.CertReload {
		return
	}
	m.CertReloads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordCertExpiry records the time left on the serving certificate
func (m *Metrics) RecordCertExpiry(ctx context.Context, notAfter time.Time) {
	if m == nil || !m.toggles.CertReload {
		return
	}
	m.CertExpiry.Record(ctx, time.Until(notAfter).Seconds())
}
