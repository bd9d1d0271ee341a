package pdfexport

import (
	"bytes"
	"context"
	"fmt"
	"io"

	appErrors "neuraresume/internal/errors"
	"neuraresume/internal/types"

	"github.com/go-pdf/fpdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// fpdfMeasurer measures text with the font metrics of a document
type fpdfMeasurer struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
}

func (m fpdfMeasurer) StringWidth(style Style, s string) float64 {
	m.pdf.SetFont(style.Family, style.Weight, style.Size)
	return m.pdf.GetStringWidth(m.translate(s))
}

// Result describes a rendered document
type Result struct {
	Layout  Layout
	Answers []types.AnswerItem
	Bytes   int
}

// Pages returns the number of pages in the document
func (r *Result) Pages() int {
	return r.Layout.Pages
}

// Exporter renders answer lists into interview guide PDFs
type Exporter struct {
	opts   Options
	logger *appErrors.Logger
}

// NewExporter creates an exporter with the given options
func NewExporter(opts Options, logger *appErrors.Logger) *Exporter {
	return &Exporter{opts: opts, logger: logger}
}

// Options returns the layout options of the exporter
func (e *Exporter) Options() Options {
	return e.opts
}

// unicodeFamily is the family name the configured TrueType fonts are registered under
const unicodeFamily = "guideunicode"

// withUnicodeFont registers the TrueType fonts on pdf and points every style at them
func (o Options) withUnicodeFont(pdf *fpdf.Fpdf) Options {
	bold := o.BoldFont
	if len(bold) == 0 {
		bold = o.RegularFont
	}
	pdf.AddUTF8FontFromBytes(unicodeFamily, "", o.RegularFont)
	pdf.AddUTF8FontFromBytes(unicodeFamily, "B", bold)
	// Selecting both faces records an error on pdf if either failed to parse
	pdf.SetFont(unicodeFamily, "", 12)
	pdf.SetFont(unicodeFamily, "B", 12)

	for _, style := range []*Style{&o.TitleStyle, &o.SubtitleStyle, &o.QuestionStyle, &o.AnswerStyle} {
		style.Family = unicodeFamily
	}
	return o
}

func newDocument(title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("NeuraResume", true)
	pdf.SetAutoPageBreak(false, 0)
	return pdf
}

// Render lays out items and writes the finished PDF to w. Nothing is written
// when layout or rendering fails.
func (e *Exporter) Render(ctx context.Context, w io.Writer, targetRole string, items []types.AnswerItem) (*Result, error) {
	tracer := otel.Tracer("neuraresume.pdfexport")
	_, span := tracer.Start(ctx, "pdfexport.render")
	defer span.End()

	span.SetAttributes(
		attribute.Int("pdf.items", len(items)),
		attribute.String("pdf.policy", string(e.opts.Policy)),
	)

	opts := e.opts
	pdf := newDocument(opts.Title)
	// Core fonts only cover cp1252
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if len(opts.RegularFont) > 0 {
		opts = opts.withUnicodeFont(pdf)
		translate = func(s string) string { return s }
	}
	if err := pdf.Error(); err != nil {
		span.RecordError(err)
		return nil, appErrors.NewExportError(appErrors.ErrCodePDFRenderFailed,
			"Failed to load the PDF font.", err)
	}

	layout := Paginate(items, targetRole, fpdfMeasurer{pdf: pdf, translate: translate}, opts)

	for page := 1; page <= layout.Pages; page++ {
		pdf.AddPage()
		for _, line := range layout.LinesOnPage(page) {
			style := opts.StyleFor(line.Kind)
			pdf.SetFont(style.Family, style.Weight, style.Size)
			pdf.SetTextColor(style.Color[0], style.Color[1], style.Color[2])
			pdf.Text(line.X, line.Y, translate(line.Text))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		span.RecordError(err)
		return nil, appErrors.NewExportError(appErrors.ErrCodePDFRenderFailed,
			"Failed to generate PDF. Please try again.", err)
	}

	if overflow := layout.Overflowing(); len(overflow) > 0 {
		e.logger.Warn("Answer text runs past the bottom margin",
			"policy", e.opts.Policy,
			"lines", len(overflow))
	}

	n, err := buf.WriteTo(w)
	if err != nil {
		span.RecordError(err)
		return nil, appErrors.NewIOError(appErrors.ErrCodeFileNotReadable,
			"Failed to write PDF", fmt.Errorf("write pdf: %w", err))
	}

	span.SetAttributes(
		attribute.Int("pdf.pages", layout.Pages),
		attribute.Int64("pdf.bytes", n),
	)
	e.logger.Debug("Rendered interview guide",
		"items", len(items),
		"pages", layout.Pages,
		"bytes", n)

	return &Result{Layout: layout, Answers: items, Bytes: int(n)}, nil
}
