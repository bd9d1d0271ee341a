package pdfexport

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	appErrors "neuraresume/internal/errors"
	"neuraresume/internal/types"
)

func TestExporterRender(t *testing.T) {
	exporter := NewExporter(DefaultOptions(), appErrors.NewNopLogger())

	tests := []struct {
		name      string
		items     []types.AnswerItem
		wantPages int
	}{
		{"title only", nil, 1},
		{"single item", []types.AnswerItem{{Question: "Why Go?", Answer: "A naïve answer would be speed."}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			result, err := exporter.Render(context.Background(), &buf, "Backend Engineer", tt.items)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
				t.Error("output is not a PDF document")
			}
			if result.Pages() != tt.wantPages {
				t.Errorf("Pages() = %d, want %d", result.Pages(), tt.wantPages)
			}
			if result.Bytes != buf.Len() {
				t.Errorf("Bytes = %d, buffer holds %d", result.Bytes, buf.Len())
			}
		})
	}
}

func TestExporterRenderManyItems(t *testing.T) {
	items := make([]types.AnswerItem, 15)
	for i := range items {
		items[i] = types.AnswerItem{
			Question: fmt.Sprintf("Question number %d about distributed systems", i+1),
			Answer:   multiline(8),
		}
	}

	exporter := NewExporter(DefaultOptions(), appErrors.NewNopLogger())
	var buf bytes.Buffer
	result, err := exporter.Render(context.Background(), &buf, "", items)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if result.Pages() < 2 {
		t.Errorf("expected multiple pages, got %d", result.Pages())
	}
	if len(result.Layout.Overflowing()) != 0 {
		t.Error("default policy should keep every line above the bottom margin")
	}
}

const dejaVuSans = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"

func TestExporterRenderUnicodeFont(t *testing.T) {
	font, err := os.ReadFile(dejaVuSans)
	if err != nil {
		t.Skipf("no TrueType font available: %v", err)
	}

	items := []types.AnswerItem{{Question: "Почему Go?", Answer: "简单 and fast. Ελληνικά too."}}

	opts := DefaultOptions()
	opts.RegularFont = font
	var unicodeBuf bytes.Buffer
	if _, err := NewExporter(opts, appErrors.NewNopLogger()).Render(context.Background(), &unicodeBuf, "Инженер", items); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.Contains(unicodeBuf.Bytes(), []byte("/FontFile2")) {
		t.Error("expected the TrueType font to be embedded")
	}

	var coreBuf bytes.Buffer
	if _, err := NewExporter(DefaultOptions(), appErrors.NewNopLogger()).Render(context.Background(), &coreBuf, "Инженер", items); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if bytes.Contains(coreBuf.Bytes(), []byte("/FontFile2")) {
		t.Error("core font output should not embed a font")
	}
}

func TestExporterRenderRejectsBrokenFont(t *testing.T) {
	opts := DefaultOptions()
	opts.RegularFont = []byte("this is not a truetype font")

	var buf bytes.Buffer
	_, err := NewExporter(opts, appErrors.NewNopLogger()).Render(context.Background(), &buf, "", nil)
	if !appErrors.HasCode(err, appErrors.ErrCodePDFRenderFailed) {
		t.Fatalf("expected %s, got %v", appErrors.ErrCodePDFRenderFailed, err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written when the font cannot be loaded")
	}
}
