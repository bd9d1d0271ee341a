package pdfexport

import (
	"fmt"
	"strings"

	appErrors "neuraresume/internal/errors"
	"neuraresume/internal/types"
)

// VerifyAlignment checks that answers line up with the questions they were
// generated for: same count, and each non-empty answer question matches the
// question at the same position.
func VerifyAlignment(questions []types.InterviewQuestion, answers []types.AnswerItem) error {
	if len(questions) != len(answers) {
		return appErrors.NewValidationError(appErrors.ErrCodeAnswerMismatch,
			"Generated answers do not match the interview questions.",
			fmt.Errorf("expected %d answers, got %d", len(questions), len(answers))).
			WithContext("questions", len(questions)).
			WithContext("answers", len(answers))
	}

	for i, answer := range answers {
		if strings.TrimSpace(answer.Question) == "" {
			continue
		}
		if normalizeQuestion(answer.Question) != normalizeQuestion(questions[i].Question) {
			return appErrors.NewValidationError(appErrors.ErrCodeAnswerMismatch,
				"Generated answers do not match the interview questions.",
				fmt.Errorf("answer %d is for %q, expected %q", i+1, answer.Question, questions[i].Question)).
				WithContext("position", i+1)
		}
	}
	return nil
}

func normalizeQuestion(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
