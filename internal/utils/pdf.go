package utils

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	pdfMagic        = []byte("%PDF-")
	horizontalSpace = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankLines      = regexp.MustCompile(`\n{2,}`)
)

// PDFInfo summarizes an uploaded PDF document
type PDFInfo struct {
	Pages int
	Size  int64
}

// LooksLikePDF reports whether data starts with the PDF header
func LooksLikePDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic)
}

func openPDF(data []byte) (r *pdf.Reader, err error) {
	if !LooksLikePDF(data) {
		return nil, fmt.Errorf("missing PDF header")
	}

	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("malformed PDF: %v", rec)
		}
	}()

	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return r, nil
}

// InspectPDF checks that data is a readable PDF with at least one page
func InspectPDF(data []byte) (*PDFInfo, error) {
	r, err := openPDF(data)
	if err != nil {
		return nil, err
	}

	pages := r.NumPage()
	if pages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	return &PDFInfo{Pages: pages, Size: int64(len(data))}, nil
}

// ExtractPDFText returns the plain text of every page, with runs of
// whitespace collapsed
func ExtractPDFText(data []byte) (text string, err error) {
	r, err := openPDF(data)
	if err != nil {
		return "", err
	}

	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("malformed PDF content: %v", rec)
		}
	}()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	return normalizeWhitespace(sb.String()), nil
}

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
