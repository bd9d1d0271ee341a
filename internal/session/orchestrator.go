package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"neuraresume/internal/backend"
	"neuraresume/internal/config"
	"neuraresume/internal/errors"
	"neuraresume/internal/observability"
	"neuraresume/internal/pdfexport"
	"neuraresume/internal/types"
	"neuraresume/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// User-facing messages
const (
	MissingResumeMessage = "Please provide resume text or upload a PDF file."
	ExportFailedMessage  = "Failed to generate PDF. Please try again."
	NoQuestionsMessage   = "There are no interview questions to prepare answers for."
	ExportBusyMessage    = "The interview guide is already being prepared. Please wait."
)

// Options configures an Orchestrator
type Options struct {
	MaxFileSize     int64
	VerifyAlignment bool
}

// Orchestrator validates user input, calls the backend and keeps session
// state in step with the outcome
type Orchestrator struct {
	backend  backend.Backend
	exporter *pdfexport.Exporter
	opts     Options
	metrics  *observability.Metrics
	logger   *errors.Logger
}

// NewOrchestrator creates an orchestrator. metrics may be nil.
func NewOrchestrator(b backend.Backend, exporter *pdfexport.Exporter, opts Options, metrics *observability.Metrics, logger *errors.Logger) *Orchestrator {
	return &Orchestrator{
		backend:  b,
		exporter: exporter,
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
	}
}

// New builds an orchestrator from the application configuration
func New(cfg *config.Config, b backend.Backend, metrics *observability.Metrics, logger *errors.Logger) (*Orchestrator, error) {
	exportOpts, err := pdfexport.OptionsFromConfig(cfg.Export)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid export configuration", err)
	}
	return NewOrchestrator(b, pdfexport.NewExporter(exportOpts, logger), Options{
		MaxFileSize:     cfg.App.MaxFileSize,
		VerifyAlignment: cfg.Export.VerifyAlignment,
	}, metrics, logger), nil
}

// ValidateInput checks the request before anything is sent: at least one
// resume input, and an uploaded file must be a readable PDF within the size limit.
func (o *Orchestrator) ValidateInput(input types.AnalyzeInput) error {
	if !input.HasResume() {
		return errors.NewValidationError(errors.ErrCodeMissingResume, MissingResumeMessage, nil)
	}

	file := input.ResumeFile
	if file == nil || len(file.Data) == 0 {
		return nil
	}
	if o.opts.MaxFileSize > 0 && int64(len(file.Data)) > o.opts.MaxFileSize {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("The resume file is larger than %s.", utils.FormatFileSize(o.opts.MaxFileSize)), nil).
			WithContext("file_name", file.Name).
			WithContext("file_size", len(file.Data))
	}
	if _, err := utils.InspectPDF(file.Data); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidPDF,
			"The uploaded resume is not a readable PDF file.", err).
			WithContext("file_name", file.Name)
	}
	return nil
}

// Analyze validates input and runs one analysis without touching session state
func (o *Orchestrator) Analyze(ctx context.Context, input types.AnalyzeInput) (*types.AnalysisResult, error) {
	if err := o.ValidateInput(input); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("neuraresume.session").Start(ctx, "session.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("resume.source", resumeSource(input)),
		attribute.Bool("job_description", strings.TrimSpace(input.JobDescription) != ""),
	)

	result, err := o.backend.Analyze(ctx, input)
	o.metrics.RecordAnalysis(ctx, err == nil, resumeSource(input))
	if err != nil {
		span.RecordError(err)
		o.logger.LogError(err, "Analysis failed")
		return nil, err
	}
	return result, nil
}

// Submit runs an analysis for the session. Validation failures leave the
// previous results in place; once the request is issued the previous results
// are cleared, so a failed run leaves none.
func (o *Orchestrator) Submit(ctx context.Context, st *State, form Form) error {
	if err := st.TryBegin(ActionAnalyze); err != nil {
		return err
	}
	defer st.End(ActionAnalyze)

	st.setForm(form)
	input := form.Input()

	if err := o.ValidateInput(input); err != nil {
		st.setError(errors.UserMessage(err))
		return err
	}

	st.startAttempt()
	result, err := o.Analyze(ctx, input)
	if err != nil {
		st.setError(errors.UserMessage(err))
		return err
	}

	st.setResults(result)
	o.logger.Info("Analysis completed",
		"session", st.ID(),
		"ats_analyzer", result.AtsAnalyzer != nil,
		"ats_optimizer", result.AtsOptimizer != nil,
		"interview_coach", result.InterviewCoach != nil)
	return nil
}

// Reject records a request that could not be read as the session's error,
// leaving any previous results in place
func (o *Orchestrator) Reject(st *State, err error) {
	st.setError(errors.UserMessage(err))
}

// Export requests answers for req.Questions and renders the interview guide
// to w. Nothing is written to w unless every step succeeds.
func (o *Orchestrator) Export(ctx context.Context, req types.GenerateAnswersRequest, targetRole string, w io.Writer) (*pdfexport.Result, error) {
	if len(req.Questions) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeNoQuestions, NoQuestionsMessage, nil)
	}

	ctx, span := otel.Tracer("neuraresume.session").Start(ctx, "session.export")
	defer span.End()
	span.SetAttributes(attribute.Int("questions", len(req.Questions)))

	policy := string(o.exporter.Options().Policy)

	answers, err := o.backend.GenerateAnswers(ctx, req)
	if err != nil {
		span.RecordError(err)
		o.metrics.RecordAnswerExport(ctx, false, 0, policy)
		return nil, err
	}

	if o.opts.VerifyAlignment {
		if err := pdfexport.VerifyAlignment(req.Questions, answers); err != nil {
			span.RecordError(err)
			o.metrics.RecordAnswerExport(ctx, false, 0, policy)
			return nil, err
		}
	}

	result, err := o.RenderAnswers(ctx, targetRole, answers, w)
	if err != nil {
		span.RecordError(err)
		o.metrics.RecordAnswerExport(ctx, false, 0, policy)
		return nil, err
	}
	o.metrics.RecordAnswerExport(ctx, true, result.Pages(), policy)
	return result, nil
}

// RenderAnswers renders an existing answer list without calling the backend
func (o *Orchestrator) RenderAnswers(ctx context.Context, targetRole string, answers []types.AnswerItem, w io.Writer) (*pdfexport.Result, error) {
	return o.exporter.Render(ctx, w, targetRole, answers)
}

// ExportAnswers builds the interview guide for the session's current
// questions. Any failure is reported through the session alert and no
// document is produced; the displayed results are left untouched.
func (o *Orchestrator) ExportAnswers(ctx context.Context, st *State) ([]byte, error) {
	results := st.Results()
	questions := results.Questions()
	if len(questions) == 0 {
		st.setAlert(NoQuestionsMessage)
		return nil, errors.NewValidationError(errors.ErrCodeNoQuestions, NoQuestionsMessage, nil)
	}

	if err := st.TryBegin(ActionExport); err != nil {
		st.setAlert(ExportBusyMessage)
		return nil, err
	}
	defer st.End(ActionExport)

	form := st.Form()
	req := types.GenerateAnswersRequest{
		ResumeText:     o.answerResumeText(form),
		JobDescription: form.JobDescription,
		Questions:      questions,
	}

	var buf bytes.Buffer
	if _, err := o.Export(ctx, req, results.InterviewCoach.TargetRole, &buf); err != nil {
		o.logger.LogError(err, "Interview guide export failed", "session", st.ID())
		st.setAlert(ExportFailedMessage)
		return nil, err
	}
	return buf.Bytes(), nil
}

// answerResumeText returns the typed resume, or the text of the uploaded PDF
// when nothing was typed
func (o *Orchestrator) answerResumeText(form Form) string {
	if text := strings.TrimSpace(form.ResumeText); text != "" || form.ResumeFile == nil {
		return text
	}
	text, err := utils.ExtractPDFText(form.ResumeFile.Data)
	if err != nil {
		o.logger.Warn("Could not extract resume text for answer generation", "error", err.Error())
		return ""
	}
	return text
}

func resumeSource(input types.AnalyzeInput) string {
	switch {
	case strings.TrimSpace(input.ResumeText) != "":
		return "text"
	case input.ResumeFile != nil:
		return "pdf"
	default:
		return "none"
	}
}
