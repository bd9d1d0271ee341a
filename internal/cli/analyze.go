package cli

import (
	"neuraresume/internal/backend"
	"neuraresume/internal/common"
	"neuraresume/internal/errors"
	"neuraresume/internal/session"
	"neuraresume/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a resume, optionally against a job description",
	Long: `Analyze a resume and print the report. The resume is given as text or as a
file; PDF files are uploaded as documents, other files are read as text.

The report contains up to three modules, all enabled by default:
- ATS analyzer: ATS score, job suitability, strengths and weaknesses,
  career suggestions, persona and salary estimate
- ATS optimizer: skill gaps, keywords and per-section rewrites
- Interview coach: likely interview questions for the target role

Save the JSON report with -o to prepare answers later with 'neuraresume answers'.`,
	Example: `  neuraresume analyze --resume-file resume.pdf --job-file job.txt
  neuraresume analyze --resume-text "$(cat resume.md)" --no-ats-optimizer --format markdown
  neuraresume analyze --resume-file resume.pdf --format json -o analysis.json`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

// resumeFlags are the resume and job description inputs shared by analyze and answers
type resumeFlags struct {
	ResumeText     string
	ResumeFile     string
	JobDescription string
	JobFile        string
}

func (f *resumeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ResumeText, "resume-text", "", "Resume as plain text")
	cmd.Flags().StringVar(&f.ResumeFile, "resume-file", "", "Resume file (PDF, or a text/markdown file)")
	cmd.Flags().StringVar(&f.JobDescription, "job-description", "", "Target job description text")
	cmd.Flags().StringVar(&f.JobFile, "job-file", "", "File containing the target job description")
	cmd.MarkFlagsMutuallyExclusive("job-description", "job-file")
	_ = cmd.MarkFlagFilename("resume-file", "pdf", "txt", "md")
	_ = cmd.MarkFlagFilename("job-file", "txt", "md")
}

// jobDescription returns the job description text from either flag
func (f *resumeFlags) jobDescription(fp *common.FileProcessor) (string, error) {
	if f.JobFile == "" {
		return f.JobDescription, nil
	}
	return fp.ReadText(f.JobFile)
}

type analyzeFlags struct {
	resumeFlags
	NoAtsAnalyzer    bool
	NoAtsOptimizer   bool
	NoInterviewCoach bool
}

var (
	analyzeConfig common.CommandConfig
	analyzeOpts   analyzeFlags
)

func init() {
	analyzeOpts.register(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeOpts.NoAtsAnalyzer, "no-ats-analyzer", false, "Skip the ATS analyzer module")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.NoAtsOptimizer, "no-ats-optimizer", false, "Skip the ATS optimizer module")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.NoInterviewCoach, "no-interview-coach", false, "Skip the interview coach module")
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, yaml, text, or markdown")

	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// tasks turns the --no-* flags into a module selection
func (f analyzeFlags) tasks() types.Tasks {
	return types.Tasks{
		RunAtsAnalyzer:    !f.NoAtsAnalyzer,
		RunAtsOptimizer:   !f.NoAtsOptimizer,
		RunInterviewCoach: !f.NoInterviewCoach,
	}
}

// buildAnalyzeInput collects the analysis request from the flags. Presence
// of a resume is checked later by the orchestrator.
func buildAnalyzeInput(f analyzeFlags, fp *common.FileProcessor) (types.AnalyzeInput, error) {
	input := types.AnalyzeInput{
		ResumeText: f.ResumeText,
		Tasks:      f.tasks(),
	}
	if !input.Tasks.Any() {
		return types.AnalyzeInput{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"At least one analysis module must be enabled.", nil)
	}

	if f.ResumeFile != "" {
		text, upload, err := fp.ReadResume(f.ResumeFile)
		if err != nil {
			return types.AnalyzeInput{}, err
		}
		// Typed text wins over a text file
		if input.ResumeText == "" {
			input.ResumeText = text
		}
		input.ResumeFile = upload
	}

	job, err := f.jobDescription(fp)
	if err != nil {
		return types.AnalyzeInput{}, err
	}
	input.JobDescription = job
	return input, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	fp := common.NewFileProcessor(cfg.App.MaxFileSize, logger)
	input, err := buildAnalyzeInput(analyzeOpts, fp)
	if err != nil {
		return err
	}

	b, err := backend.New(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("Failed to close backend", "error", err)
		}
	}()

	orchestrator, err := session.New(cfg, b, nil, logger)
	if err != nil {
		return err
	}

	result, err := orchestrator.Analyze(cmd.Context(), input)
	if err != nil {
		return err
	}

	outputHandler := common.NewOutputHandler(logger)
	outputHandler.SetStdout(cmd.OutOrStdout())
	return outputHandler.HandleOutput(result, analyzeConfig)
}
