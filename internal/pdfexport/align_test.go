package pdfexport

import (
	"testing"

	appErrors "neuraresume/internal/errors"
	"neuraresume/internal/types"
)

func TestVerifyAlignment(t *testing.T) {
	questions := []types.InterviewQuestion{
		{Question: "Why Go?", Difficulty: types.DifficultyEasy},
		{Question: "Explain the  CAP theorem", Difficulty: types.DifficultyHard},
	}

	tests := []struct {
		name    string
		answers []types.AnswerItem
		wantErr bool
	}{
		{
			name: "aligned",
			answers: []types.AnswerItem{
				{Question: "Why Go?", Answer: "Simplicity"},
				{Question: "Explain the CAP theorem", Answer: "Pick two"},
			},
		},
		{
			name: "case and spacing ignored",
			answers: []types.AnswerItem{
				{Question: "  why go? ", Answer: "Simplicity"},
				{Question: "explain the cap theorem", Answer: "Pick two"},
			},
		},
		{
			name: "empty questions accepted",
			answers: []types.AnswerItem{
				{Answer: "Simplicity"},
				{Answer: "Pick two"},
			},
		},
		{
			name:    "fewer answers",
			answers: []types.AnswerItem{{Question: "Why Go?", Answer: "Simplicity"}},
			wantErr: true,
		},
		{
			name: "swapped order",
			answers: []types.AnswerItem{
				{Question: "Explain the CAP theorem", Answer: "Pick two"},
				{Question: "Why Go?", Answer: "Simplicity"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyAlignment(questions, tt.answers)
			if (err != nil) != tt.wantErr {
				t.Fatalf("VerifyAlignment() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !appErrors.HasCode(err, appErrors.ErrCodeAnswerMismatch) {
					t.Errorf("expected %s, got %v", appErrors.ErrCodeAnswerMismatch, err)
				}
				if !appErrors.IsType(err, appErrors.ErrorTypeValidation) {
					t.Errorf("expected a validation error, got %v", err)
				}
			}
		})
	}
}
