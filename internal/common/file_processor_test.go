package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"neuraresume/internal/errors"
	"neuraresume/internal/types"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadResume(t *testing.T) {
	fp := NewFileProcessor(1024, errors.NewNopLogger())

	tests := []struct {
		name       string
		file       string
		content    []byte
		wantText   string
		wantUpload bool
	}{
		{"text resume", "resume.txt", []byte("Go developer"), "Go developer", false},
		{"markdown resume", "resume.md", []byte("# Jane"), "# Jane", false},
		{"pdf by extension", "resume.pdf", []byte("%PDF-1.4 body"), "", true},
		{"pdf by content", "resume.bin", []byte("%PDF-1.7 body"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, tt.file, tt.content)
			text, upload, err := fp.ReadResume(path)
			if err != nil {
				t.Fatalf("ReadResume failed: %v", err)
			}
			if text != tt.wantText {
				t.Errorf("Expected text %q, got %q", tt.wantText, text)
			}
			if (upload != nil) != tt.wantUpload {
				t.Fatalf("Expected upload=%v, got %+v", tt.wantUpload, upload)
			}
			if upload != nil && (upload.Name != tt.file || !bytes.Equal(upload.Data, tt.content)) {
				t.Errorf("Unexpected upload %q (%d bytes)", upload.Name, len(upload.Data))
			}
		})
	}
}

func TestReadFileErrors(t *testing.T) {
	fp := NewFileProcessor(8, errors.NewNopLogger())

	_, err := fp.ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.HasCode(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Expected FILE_NOT_FOUND, got %v", err)
	}

	big := writeTemp(t, "big.txt", []byte("more than eight bytes"))
	if _, err := fp.ReadFile(big); !errors.IsType(err, errors.ErrorTypeValidation) {
		t.Errorf("Expected a validation error for an oversized file, got %v", err)
	}
}

func TestResumeTextRejectsBrokenPDF(t *testing.T) {
	fp := NewFileProcessor(0, errors.NewNopLogger())
	path := writeTemp(t, "resume.pdf", []byte("%PDF-1.4\n1 0 obj"))

	if _, err := fp.ResumeText(path); !errors.HasCode(err, errors.ErrCodeInvalidPDF) {
		t.Errorf("Expected INVALID_PDF, got %v", err)
	}
}

func TestHandleOutput(t *testing.T) {
	set := types.AnswerSet{
		TargetRole: "Backend Engineer",
		Answers:    []types.AnswerItem{{Question: "Why Go?", Answer: "Simplicity."}},
	}

	oh := NewOutputHandler(errors.NewNopLogger())
	var stdout bytes.Buffer
	oh.SetStdout(&stdout)

	if err := oh.HandleOutput(set, CommandConfig{OutputFormat: "text"}); err != nil {
		t.Fatalf("HandleOutput failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "Target Role: Backend Engineer") ||
		!strings.Contains(stdout.String(), "Q1: Why Go?") {
		t.Errorf("Unexpected text output:\n%s", stdout.String())
	}

	out := filepath.Join(t.TempDir(), "nested", "answers.json")
	if err := oh.HandleOutput(&set, CommandConfig{OutputFile: out, OutputFormat: "json"}); err != nil {
		t.Fatalf("HandleOutput to file failed: %v", err)
	}
	written, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(written), `"targetRole": "Backend Engineer"`) {
		t.Errorf("Unexpected JSON output:\n%s", written)
	}

	if err := oh.HandleOutput(set, CommandConfig{OutputFormat: "xml"}); !errors.HasCode(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Expected INVALID_FORMAT, got %v", err)
	}
}
