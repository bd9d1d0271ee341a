package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"neuraresume/internal/backend"
	"neuraresume/internal/common"
	"neuraresume/internal/config"
	"neuraresume/internal/errors"
	"neuraresume/internal/pdfexport"
	"neuraresume/internal/session"
	"neuraresume/internal/types"
	"neuraresume/internal/utils"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var answersCmd = &cobra.Command{
	Use:   "answers",
	Short: "Generate answers to interview questions and export them as PDF",
	Long: `Generate answers for the interview questions of a saved analysis report and
write them as a paginated "Interview Preparation Guide" PDF.

--from accepts a report written by 'neuraresume analyze' (JSON or YAML). The
resume and job description are sent along so answers can draw on them.

--from also accepts an answer set saved earlier with --save-answers; it is
rendered again without contacting the backend, for example to try another
pagination policy.`,
	Example: `  neuraresume analyze --resume-file resume.pdf --job-file job.txt -o analysis.json
  neuraresume answers --from analysis.json --resume-file resume.pdf --job-file job.txt -o guide.pdf
  neuraresume answers --from answers.json --policy item -o guide.pdf`,
	Args: cobra.NoArgs,
	RunE: runAnswers,
}

type answersFlags struct {
	resumeFlags
	From        string
	Output      string
	Policy      string
	SaveAnswers string
}

var answersOpts answersFlags

func init() {
	answersOpts.register(answersCmd)
	answersCmd.MarkFlagsMutuallyExclusive("resume-text", "resume-file")
	answersCmd.Flags().StringVar(&answersOpts.From, "from", "", "Analysis report or saved answer set (JSON or YAML)")
	answersCmd.Flags().StringVarP(&answersOpts.Output, "output", "o", "", "PDF output path (default from config)")
	answersCmd.Flags().StringVar(&answersOpts.Policy, "policy", "", "Pagination policy: line or item (overrides config)")
	answersCmd.Flags().StringVar(&answersOpts.SaveAnswers, "save-answers", "", "Also write the generated answers to this file (.json, .yaml, .md, .txt)")
	_ = answersCmd.MarkFlagRequired("from")
	_ = answersCmd.MarkFlagFilename("from", "json", "yaml", "yml")

	_ = answersCmd.RegisterFlagCompletionFunc("policy", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(pdfexport.PolicyLine), string(pdfexport.PolicyItem)}, cobra.ShellCompDirectiveNoFileComp
	})
}

// answerSource is either an analysis report or a previously saved answer set
type answerSource struct {
	types.AnalysisResult `yaml:",inline"`
	TargetRole           string             `json:"targetRole" yaml:"targetRole"`
	Answers              []types.AnswerItem `json:"answers" yaml:"answers"`
}

// decodeAnswerSource parses the --from file. YAML is chosen by extension,
// everything else is read as JSON.
func decodeAnswerSource(filename string, data []byte) (*types.AnalysisResult, *types.AnswerSet, error) {
	var src answerSource
	var err error
	switch utils.GetFileExtension(filename) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &src)
	default:
		err = json.Unmarshal(data, &src)
	}
	if err != nil {
		return nil, nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Cannot parse %s", filename), err)
	}

	if src.Answers != nil && src.AnalysisResult.Empty() {
		return nil, &types.AnswerSet{TargetRole: src.TargetRole, Answers: src.Answers}, nil
	}
	if src.AnalysisResult.Empty() {
		return nil, nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("%s contains neither an analysis report nor answers", filename), nil)
	}
	result := src.AnalysisResult
	return &result, nil, nil
}

func targetRole(result *types.AnalysisResult) string {
	if result == nil || result.InterviewCoach == nil {
		return ""
	}
	return result.InterviewCoach.TargetRole
}

// exportConfig applies the --policy override on a copy of cfg
func exportConfig(cfg *config.Config, policy string) *config.Config {
	if policy == "" {
		return cfg
	}
	copied := *cfg
	copied.Export.Pagination = policy
	return &copied
}

func runAnswers(cmd *cobra.Command, args []string) error {
	cfg := exportConfig(getConfigFromContext(cmd.Context()), answersOpts.Policy)
	logger := getLoggerFromContext(cmd.Context())
	ctx := cmd.Context()

	output := answersOpts.Output
	if output == "" {
		output = cfg.Export.FileName
	}

	fp := common.NewFileProcessor(cfg.App.MaxFileSize, logger)
	data, err := fp.ReadFile(answersOpts.From)
	if err != nil {
		return err
	}
	result, saved, err := decodeAnswerSource(answersOpts.From, data)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	var rendered *pdfexport.Result

	if saved != nil {
		orchestrator, err := session.New(cfg, nil, nil, logger)
		if err != nil {
			return err
		}
		logger.Info("Rendering saved answers", "from", answersOpts.From, "answers", len(saved.Answers))
		if rendered, err = orchestrator.RenderAnswers(ctx, saved.TargetRole, saved.Answers, &buf); err != nil {
			return err
		}
	} else {
		req, err := buildAnswersRequest(answersOpts, result, fp)
		if err != nil {
			return err
		}
		if req.ResumeText == "" {
			logger.Warn("No resume given, answers will not be personalized")
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
		if rendered, err = orchestrator.Export(ctx, req, targetRole(result), &buf); err != nil {
			return err
		}
	}

	outputHandler := common.NewOutputHandler(logger)
	outputHandler.SetStdout(cmd.OutOrStdout())

	if answersOpts.SaveAnswers != "" && saved == nil {
		set := types.AnswerSet{TargetRole: targetRole(result), Answers: rendered.Answers}
		if err := outputHandler.HandleOutput(set, common.CommandConfig{
			OutputFile:   answersOpts.SaveAnswers,
			OutputFormat: common.FormatForFile(answersOpts.SaveAnswers, "json"),
		}); err != nil {
			return err
		}
	}

	if err := outputHandler.WriteDocument(output, buf.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Interview guide written to %s (%d pages)\n", output, rendered.Pages())
	return nil
}

// buildAnswersRequest pairs the report's questions with the resume and job
// description given on the command line
func buildAnswersRequest(f answersFlags, result *types.AnalysisResult, fp *common.FileProcessor) (types.GenerateAnswersRequest, error) {
	req := types.GenerateAnswersRequest{
		ResumeText: f.ResumeText,
		Questions:  result.Questions(),
	}
	if len(req.Questions) == 0 {
		return req, errors.NewValidationError(errors.ErrCodeNoQuestions,
			"The analysis report has no interview questions. Run analyze with the interview coach enabled.", nil)
	}

	if f.ResumeFile != "" {
		text, err := fp.ResumeText(f.ResumeFile)
		if err != nil {
			return req, err
		}
		req.ResumeText = text
	}

	job, err := f.jobDescription(fp)
	if err != nil {
		return req, err
	}
	req.JobDescription = job
	return req, nil
}
