package formatters

import (
	"fmt"
	"strings"

	"neuraresume/internal/types"
)

// AnalysisTextFormatter renders an analysis result as plain text. Only the
// modules present in the result are rendered.
type AnalysisTextFormatter struct{}

func (f *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	if result.Empty() {
		return "No analysis modules returned results.\n", nil
	}

	var output strings.Builder
	if a := result.AtsAnalyzer; a != nil {
		writeAnalyzerText(&output, a)
	}
	if o := result.AtsOptimizer; o != nil {
		writeOptimizerText(&output, o)
	}
	if c := result.InterviewCoach; c != nil {
		writeCoachText(&output, c)
	}
	return output.String(), nil
}

func (f *AnalysisTextFormatter) SupportedType() string {
	return typeAnalysis
}

func writeAnalyzerText(output *strings.Builder, a *types.AtsAnalyzer) {
	output.WriteString("=== ATS ANALYSIS ===\n")
	fmt.Fprintf(output, "ATS Score: %s/100 (%s)\n", FormatScore(a.AtsScore.Score), ScoreBand(a.AtsScore.Score))

	if js := a.JobSuitability; js != nil {
		fmt.Fprintf(output, "Job Match: %s (%s%%)\n", js.Match, FormatScore(js.Percentage))
		if js.Reasoning != "" {
			fmt.Fprintf(output, "  %s\n", js.Reasoning)
		}
	}
	output.WriteString("\n")

	if p := a.ResumePersona; p != nil {
		fmt.Fprintf(output, "Resume Persona: %s\n  %s\n\n", p.Tone, p.Impression)
	}
	if s := a.SalaryEstimation; s != nil {
		fmt.Fprintf(output, "Estimated Salary: %s %s\n\n", s.Range, s.Currency)
	}

	writeList(output, "Strengths:", a.Strengths)
	writeList(output, "Weaknesses:", a.Weaknesses)

	if cs := a.CareerSuggestions; cs != nil {
		output.WriteString("Career Suggestions:\n")
		if len(cs.RecommendedRoles) > 0 {
			fmt.Fprintf(output, "  Recommended roles: %s\n", strings.Join(cs.RecommendedRoles, ", "))
		}
		if cs.MarketOutlook != "" {
			fmt.Fprintf(output, "  Market outlook: %s\n", cs.MarketOutlook)
		}
		if len(cs.TopCompaniesToTarget) > 0 {
			fmt.Fprintf(output, "  Companies to target: %s\n", strings.Join(cs.TopCompaniesToTarget, ", "))
		}
		output.WriteString("\n")
	}
}

func writeOptimizerText(output *strings.Builder, o *types.AtsOptimizer) {
	output.WriteString("=== OPTIMIZATION STRATEGY ===\n")
	if o.OverallStrategy != "" {
		output.WriteString(o.OverallStrategy)
		output.WriteString("\n\n")
	}

	if len(o.SkillGapLearningPath) > 0 {
		output.WriteString("Skill Gap Learning Path:\n")
		for _, gap := range o.SkillGapLearningPath {
			fmt.Fprintf(output, "- %s", gap.Skill)
			if len(gap.LearningTopics) > 0 {
				fmt.Fprintf(output, ": %s", strings.Join(gap.LearningTopics, ", "))
			}
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	if len(o.SectionLevelSuggestions) > 0 {
		output.WriteString("Section Suggestions:\n")
		for _, s := range o.SectionLevelSuggestions {
			fmt.Fprintf(output, "[%s]\n", s.Section)
			fmt.Fprintf(output, "  Issue: %s\n", s.Issue)
			fmt.Fprintf(output, "  Suggestion: %s\n", s.Suggestion)
			if s.ExampleRewrite != "" {
				fmt.Fprintf(output, "  Example: %s\n", s.ExampleRewrite)
			}
		}
		output.WriteString("\n")
	}
}

func writeCoachText(output *strings.Builder, c *types.InterviewCoach) {
	output.WriteString("=== INTERVIEW PREPARATION ===\n")
	fmt.Fprintf(output, "Target Role: %s\n\n", orDefault(c.TargetRole, "General"))

	for i, q := range c.Questions {
		fmt.Fprintf(output, "%d. %s\n", i+1, q.Question)
		fmt.Fprintf(output, "   [%s] %s\n", q.Difficulty, q.Category)
		if q.FollowUpHint != "" {
			fmt.Fprintf(output, "   Hint: %s\n", q.FollowUpHint)
		}
	}
	output.WriteString("\n")
}

func writeList(output *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(heading)
	output.WriteString("\n")
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
	output.WriteString("\n")
}

// AnalysisMarkdownFormatter renders an analysis result as Markdown
type AnalysisMarkdownFormatter struct{}

func (f *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Resume Analysis\n\n")

	if result.Empty() {
		output.WriteString("_No analysis modules returned results._\n")
		return output.String(), nil
	}

	if a := result.AtsAnalyzer; a != nil {
		output.WriteString("## ATS Analysis\n\n")
		fmt.Fprintf(&output, "**ATS Score:** %s/100 (%s)\n\n", FormatScore(a.AtsScore.Score), ScoreBand(a.AtsScore.Score))
		if js := a.JobSuitability; js != nil {
			fmt.Fprintf(&output, "**Job Match:** %s (%s%%)\n\n", js.Match, FormatScore(js.Percentage))
			if js.Reasoning != "" {
				fmt.Fprintf(&output, "> %s\n\n", js.Reasoning)
			}
		}
		if p := a.ResumePersona; p != nil {
			fmt.Fprintf(&output, "**Resume Persona:** %s. %s\n\n", p.Tone, p.Impression)
		}
		if s := a.SalaryEstimation; s != nil {
			fmt.Fprintf(&output, "**Estimated Salary:** %s %s\n\n", s.Range, s.Currency)
		}
		writeMarkdownList(&output, "### Strengths", a.Strengths)
		writeMarkdownList(&output, "### Weaknesses", a.Weaknesses)
		if cs := a.CareerSuggestions; cs != nil {
			output.WriteString("### Career Suggestions\n\n")
			writeMarkdownList(&output, "**Recommended roles**", cs.RecommendedRoles)
			if cs.MarketOutlook != "" {
				fmt.Fprintf(&output, "**Market outlook:** %s\n\n", cs.MarketOutlook)
			}
			writeMarkdownList(&output, "**Companies to target**", cs.TopCompaniesToTarget)
		}
	}

	if o := result.AtsOptimizer; o != nil {
		output.WriteString("## Optimization Strategy\n\n")
		if o.OverallStrategy != "" {
			output.WriteString(o.OverallStrategy)
			output.WriteString("\n\n")
		}
		if len(o.SkillGapLearningPath) > 0 {
			output.WriteString("### Skill Gap Learning Path\n\n")
			output.WriteString("| Skill | Learning Topics |\n")
			output.WriteString("|-------|-----------------|\n")
			for _, gap := range o.SkillGapLearningPath {
				fmt.Fprintf(&output, "| %s | %s |\n", escapeCell(gap.Skill), escapeCell(strings.Join(gap.LearningTopics, ", ")))
			}
			output.WriteString("\n")
		}
		if len(o.SectionLevelSuggestions) > 0 {
			output.WriteString("### Section Suggestions\n\n")
			for _, s := range o.SectionLevelSuggestions {
				fmt.Fprintf(&output, "#### %s\n\n", s.Section)
				fmt.Fprintf(&output, "- **Issue:** %s\n", s.Issue)
				fmt.Fprintf(&output, "- **Suggestion:** %s\n", s.Suggestion)
				if s.ExampleRewrite != "" {
					fmt.Fprintf(&output, "- **Example:** _%s_\n", s.ExampleRewrite)
				}
				output.WriteString("\n")
			}
		}
	}

	if c := result.InterviewCoach; c != nil {
		output.WriteString("## Interview Preparation\n\n")
		fmt.Fprintf(&output, "**Target Role:** %s\n\n", orDefault(c.TargetRole, "General"))
		for i, q := range c.Questions {
			fmt.Fprintf(&output, "%d. **%s**  \n   _%s · %s_\n", i+1, q.Question, q.Difficulty, q.Category)
			if q.FollowUpHint != "" {
				fmt.Fprintf(&output, "   Hint: %s\n", q.FollowUpHint)
			}
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (f *AnalysisMarkdownFormatter) SupportedType() string {
	return typeAnalysis
}

func writeMarkdownList(output *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(heading)
	output.WriteString("\n\n")
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
	output.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
