package formatters

import (
	"fmt"
	"strings"

	"neuraresume/internal/types"
)

// AnswersTextFormatter renders generated answers as plain text
type AnswersTextFormatter struct{}

func (f *AnswersTextFormatter) Format(data any) (string, error) {
	set, ok := data.(types.AnswerSet)
	if !ok {
		return "", fmt.Errorf("expected AnswerSet, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== INTERVIEW PREPARATION GUIDE ===\n")
	fmt.Fprintf(&output, "Target Role: %s\n\n", orDefault(set.TargetRole, "General"))

	for i, item := range set.Answers {
		fmt.Fprintf(&output, "Q%d: %s\n", i+1, item.Question)
		output.WriteString(item.Answer)
		output.WriteString("\n\n")
	}
	return output.String(), nil
}

func (f *AnswersTextFormatter) SupportedType() string {
	return typeAnswers
}

// AnswersMarkdownFormatter renders generated answers as Markdown
type AnswersMarkdownFormatter struct{}

func (f *AnswersMarkdownFormatter) Format(data any) (string, error) {
	set, ok := data.(types.AnswerSet)
	if !ok {
		return "", fmt.Errorf("expected AnswerSet, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Interview Preparation Guide\n\n")
	fmt.Fprintf(&output, "**Target Role:** %s\n\n", orDefault(set.TargetRole, "General"))

	for i, item := range set.Answers {
		fmt.Fprintf(&output, "## Q%d: %s\n\n", i+1, item.Question)
		output.WriteString(item.Answer)
		output.WriteString("\n\n")
	}
	return output.String(), nil
}

func (f *AnswersMarkdownFormatter) SupportedType() string {
	return typeAnswers
}
