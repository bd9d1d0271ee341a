package pdfexport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"neuraresume/internal/config"
	appErrors "neuraresume/internal/errors"
	"neuraresume/internal/types"
)

type monoMeasurer struct{}

func (monoMeasurer) StringWidth(_ Style, s string) float64 {
	return monoWidth(s)
}

// multiline returns an answer that wraps to exactly n lines
func multiline(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "line"
	}
	return strings.Join(lines, "\n")
}

func optionsWith(policy Policy) Options {
	opts := DefaultOptions()
	opts.Policy = policy
	return opts
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"item", PolicyItem, false},
		{"LINE", PolicyLine, false},
		{"", PolicyLine, false},
		{"page", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := OptionsFromConfig(config.ExportConfig{Pagination: "item", Title: "Prep Notes"})
	if err != nil {
		t.Fatalf("OptionsFromConfig failed: %v", err)
	}
	if opts.Policy != PolicyItem || opts.Title != "Prep Notes" || opts.BreakY != DefaultOptions().BreakY {
		t.Errorf("Unexpected options: policy=%s title=%q breakY=%v", opts.Policy, opts.Title, opts.BreakY)
	}

	opts, err = OptionsFromConfig(config.ExportConfig{Title: "  "})
	if err != nil {
		t.Fatalf("OptionsFromConfig failed: %v", err)
	}
	if opts.Policy != PolicyLine || opts.Title != DefaultOptions().Title {
		t.Errorf("Blank settings should keep defaults, got policy=%s title=%q", opts.Policy, opts.Title)
	}

	if _, err := OptionsFromConfig(config.ExportConfig{Pagination: "page"}); err == nil {
		t.Error("Expected an unknown policy to be rejected")
	}
}

func TestOptionsFromConfigFonts(t *testing.T) {
	dir := t.TempDir()
	regular := filepath.Join(dir, "regular.ttf")
	bold := filepath.Join(dir, "bold.ttf")
	for path, content := range map[string]string{regular: "regular", bold: "bold"} {
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}

	opts, err := OptionsFromConfig(config.ExportConfig{Pagination: "line"})
	if err != nil {
		t.Fatalf("OptionsFromConfig failed: %v", err)
	}
	if opts.RegularFont != nil || opts.BoldFont != nil {
		t.Error("No font file should keep the core font")
	}

	opts, err = OptionsFromConfig(config.ExportConfig{Pagination: "line", FontFile: regular})
	if err != nil {
		t.Fatalf("OptionsFromConfig failed: %v", err)
	}
	if string(opts.RegularFont) != "regular" || string(opts.BoldFont) != "regular" {
		t.Errorf("Bold should default to the regular font, got %q/%q", opts.RegularFont, opts.BoldFont)
	}

	opts, err = OptionsFromConfig(config.ExportConfig{Pagination: "line", FontFile: regular, BoldFontFile: bold})
	if err != nil {
		t.Fatalf("OptionsFromConfig failed: %v", err)
	}
	if string(opts.BoldFont) != "bold" {
		t.Errorf("Expected the bold font file, got %q", opts.BoldFont)
	}

	_, err = OptionsFromConfig(config.ExportConfig{Pagination: "line", FontFile: filepath.Join(dir, "absent.ttf")})
	if !appErrors.HasCode(err, appErrors.ErrCodeInvalidConfig) {
		t.Errorf("Expected %s for a missing font, got %v", appErrors.ErrCodeInvalidConfig, err)
	}
}

func TestPaginateEmptyAnswers(t *testing.T) {
	for _, policy := range []Policy{PolicyItem, PolicyLine} {
		t.Run(string(policy), func(t *testing.T) {
			layout := Paginate(nil, "", monoMeasurer{}, optionsWith(policy))

			if layout.Pages != 1 {
				t.Errorf("expected 1 page, got %d", layout.Pages)
			}
			if len(layout.Lines) != 2 {
				t.Fatalf("expected only the title block, got %d lines", len(layout.Lines))
			}
			if layout.Lines[0].Text != "Interview Preparation Guide" || layout.Lines[0].Y != 22 {
				t.Errorf("unexpected title line: %+v", layout.Lines[0])
			}
			if layout.Lines[1].Text != "Target Role: General" || layout.Lines[1].Y != 32 {
				t.Errorf("unexpected subtitle line: %+v", layout.Lines[1])
			}
		})
	}
}

func TestPaginateTargetRole(t *testing.T) {
	layout := Paginate(nil, "Platform Engineer", monoMeasurer{}, DefaultOptions())
	if got := layout.Lines[1].Text; got != "Target Role: Platform Engineer" {
		t.Errorf("subtitle = %q", got)
	}
}

func TestPaginateItemPolicyBreaksOnlyBetweenItems(t *testing.T) {
	items := []types.AnswerItem{
		{Question: "Tell me about yourself", Answer: multiline(30)},
		{Question: "Why this company", Answer: multiline(30)},
		{Question: "Describe a conflict", Answer: multiline(30)},
	}

	layout := Paginate(items, "SRE", monoMeasurer{}, optionsWith(PolicyItem))

	if layout.Pages != 2 {
		t.Fatalf("expected 2 pages, got %d", layout.Pages)
	}
	for i := range items {
		if pages := layout.ItemPages(i); len(pages) != 1 {
			t.Errorf("item %d split across pages %v", i, pages)
		}
	}
	if got := layout.ItemPages(2); got[0] != 2 {
		t.Errorf("third item should start page 2, got %v", got)
	}

	// The second item starts at y=237, under the 250mm threshold, so its
	// answer runs past the bottom margin.
	overflow := layout.Overflowing()
	if len(overflow) == 0 {
		t.Fatal("expected overflowing lines under the item policy")
	}
	for _, line := range overflow {
		if line.Item != 1 {
			t.Errorf("unexpected overflow from item %d", line.Item)
		}
	}

	first := layout.Lines[2]
	if first.Kind != KindQuestion || first.Y != 40 || first.Text != "Q1: Tell me about yourself" {
		t.Errorf("unexpected first question line: %+v", first)
	}
}

func TestPaginateItemPolicyCursorAdvance(t *testing.T) {
	items := []types.AnswerItem{
		{Question: "One", Answer: multiline(2)},
		{Question: "Two", Answer: "short"},
	}

	layout := Paginate(items, "", monoMeasurer{}, optionsWith(PolicyItem))

	// 40 + 1*7 + 2*6 + 10 = 69
	var second PlacedLine
	for _, line := range layout.Lines {
		if line.Item == 1 && line.Kind == KindQuestion {
			second = line
			break
		}
	}
	if second.Y != 69 {
		t.Errorf("second question placed at %v, want 69", second.Y)
	}
}

func TestPaginateLinePolicyFlowsAnswers(t *testing.T) {
	items := []types.AnswerItem{
		{Question: "Tell me about yourself", Answer: multiline(30)},
		{Question: "Why this company", Answer: multiline(30)},
		{Question: "Describe a conflict", Answer: multiline(30)},
	}

	layout := Paginate(items, "SRE", monoMeasurer{}, optionsWith(PolicyLine))

	if overflow := layout.Overflowing(); len(overflow) != 0 {
		t.Errorf("line policy should not overflow, got %d lines", len(overflow))
	}
	if layout.Pages != 3 {
		t.Errorf("expected 3 pages, got %d", layout.Pages)
	}
	if pages := layout.ItemPages(1); len(pages) != 2 || pages[0] != 1 || pages[1] != 2 {
		t.Errorf("second item should continue from page 1 to page 2, got %v", pages)
	}

	// Continued answer lines start at the top margin
	page2 := layout.LinesOnPage(2)
	if len(page2) == 0 || page2[0].Y != 20 {
		t.Errorf("page 2 should start at the top margin, got %+v", page2)
	}
}

func TestPaginateLinePolicyKeepsQuestionWithAnswer(t *testing.T) {
	longQuestion := strings.TrimSpace(strings.Repeat("abcdefghi ", 50))
	items := []types.AnswerItem{
		{Question: "Warm up", Answer: multiline(30)},
		{Question: longQuestion, Answer: "Because it is simple."},
	}

	layout := Paginate(items, "", monoMeasurer{}, optionsWith(PolicyLine))

	var questionPages []int
	answerPage := 0
	for _, line := range layout.Lines {
		if line.Item != 1 {
			continue
		}
		switch line.Kind {
		case KindQuestion:
			questionPages = append(questionPages, line.Page)
		case KindAnswer:
			if answerPage == 0 {
				answerPage = line.Page
			}
		}
	}

	if len(questionPages) != 8 {
		t.Fatalf("expected 8 question lines, got %d", len(questionPages))
	}
	for _, p := range questionPages {
		if p != 2 || answerPage != 2 {
			t.Fatalf("question block and first answer line should move to page 2, got question %v answer %d", questionPages, answerPage)
		}
	}
	if len(layout.Overflowing()) != 0 {
		t.Error("no line should pass the bottom margin")
	}
}

func TestLayoutNeverSplitsShortQuestions(t *testing.T) {
	items := make([]types.AnswerItem, 12)
	for i := range items {
		items[i] = types.AnswerItem{Question: "How do you handle incidents?", Answer: multiline(9)}
	}

	for _, policy := range []Policy{PolicyItem, PolicyLine} {
		t.Run(string(policy), func(t *testing.T) {
			layout := Paginate(items, "", monoMeasurer{}, optionsWith(policy))
			firstAnswerPage := map[int]int{}
			questionPage := map[int]int{}
			for _, line := range layout.Lines {
				switch line.Kind {
				case KindQuestion:
					questionPage[line.Item] = line.Page
				case KindAnswer:
					if _, ok := firstAnswerPage[line.Item]; !ok {
						firstAnswerPage[line.Item] = line.Page
					}
				}
			}
			for i := range items {
				if questionPage[i] != firstAnswerPage[i] {
					t.Errorf("item %d: question on page %d, first answer line on page %d", i, questionPage[i], firstAnswerPage[i])
				}
			}
		})
	}
}
