package common

import (
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "yaml", "text", "markdown"}

	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectedError    string
	}{
		{name: "json", format: "json", supportedFormats: supported},
		{name: "yaml", format: "yaml", supportedFormats: supported},
		{name: "markdown", format: "markdown", supportedFormats: supported},
		{
			name:             "html is not a report format",
			format:           "html",
			supportedFormats: supported,
			expectedError:    "unsupported output format 'html'. Supported formats: [json yaml text markdown]",
		},
		{
			name:             "empty format",
			format:           "",
			supportedFormats: []string{"json"},
			expectedError:    "unsupported output format ''. Supported formats: [json]",
		},
		{name: "no restrictions", format: "anything", supportedFormats: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if tt.expectedError == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tt.expectedError, err.Error())
			}
		})
	}
}

func TestFormatForFile(t *testing.T) {
	tests := []struct {
		filename string
		fallback string
		want     string
	}{
		{"answers.json", "text", "json"},
		{"answers.YML", "text", "yaml"},
		{"out/answers.yaml", "json", "yaml"},
		{"notes.md", "json", "markdown"},
		{"notes.txt", "json", "text"},
		{"answers", "json", "json"},
		{"answers.pdf", "markdown", "markdown"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := FormatForFile(tt.filename, tt.fallback); got != tt.want {
				t.Errorf("FormatForFile(%q, %q) = %q, want %q", tt.filename, tt.fallback, got, tt.want)
			}
		})
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "yaml", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supportedFormats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supportedFormats)
		}
	})
}
