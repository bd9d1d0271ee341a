package pdfexport

import (
	"fmt"
	"os"
	"strings"

	"neuraresume/internal/config"
	appErrors "neuraresume/internal/errors"
	"neuraresume/internal/types"
)

// Policy selects where page breaks may fall
type Policy string

const (
	// PolicyItem breaks pages only between items. A long answer may run past
	// the bottom of the page.
	PolicyItem Policy = "item"
	// PolicyLine lets answers continue on the next page line by line and keeps
	// each question together with the first line of its answer.
	PolicyLine Policy = "line"
)

// ParsePolicy validates a configured policy name
func ParsePolicy(name string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(name))) {
	case PolicyItem:
		return PolicyItem, nil
	case PolicyLine, "":
		return PolicyLine, nil
	default:
		return "", fmt.Errorf("unknown pagination policy %q (must be 'item' or 'line')", name)
	}
}

// Style describes how a run of text is drawn
type Style struct {
	Family string
	Weight string // "" for regular, "B" for bold
	Size   float64
	Color  [3]int
}

// Measurer reports the rendered width of s in page units
type Measurer interface {
	StringWidth(style Style, s string) float64
}

// LineKind identifies the role of a placed line
type LineKind int

const (
	KindTitle LineKind = iota
	KindSubtitle
	KindQuestion
	KindAnswer
)

func (k LineKind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindSubtitle:
		return "subtitle"
	case KindQuestion:
		return "question"
	case KindAnswer:
		return "answer"
	default:
		return "unknown"
	}
}

// PlacedLine is a single line of text positioned on a page.
// Y is the baseline; Item is the zero-based answer index, -1 for the title block.
type PlacedLine struct {
	Page int
	X    float64
	Y    float64
	Text string
	Kind LineKind
	Item int
}

// Layout is the computed position of every line of the document
type Layout struct {
	Pages  int
	Lines  []PlacedLine
	Bottom float64
}

// LinesOnPage returns the lines placed on page (1-based)
func (l Layout) LinesOnPage(page int) []PlacedLine {
	var out []PlacedLine
	for _, line := range l.Lines {
		if line.Page == page {
			out = append(out, line)
		}
	}
	return out
}

// ItemPages returns the distinct pages item spans, in order
func (l Layout) ItemPages(item int) []int {
	var pages []int
	for _, line := range l.Lines {
		if line.Item != item {
			continue
		}
		if len(pages) == 0 || pages[len(pages)-1] != line.Page {
			pages = append(pages, line.Page)
		}
	}
	return pages
}

// Overflowing returns lines whose baseline lies below the bottom margin
func (l Layout) Overflowing() []PlacedLine {
	var out []PlacedLine
	for _, line := range l.Lines {
		if line.Y > l.Bottom {
			out = append(out, line)
		}
	}
	return out
}

// Options controls the page geometry, in millimetres on A4 portrait
type Options struct {
	Policy Policy

	Title        string
	DefaultRole  string
	PageHeight   float64
	LeftMargin   float64
	ContentWidth float64
	TitleY       float64
	SubtitleY    float64
	StartY       float64
	BreakY       float64 // item policy: a new item starting below this goes to a new page
	TopMargin    float64
	BottomMargin float64

	QuestionLineHeight float64
	AnswerLineHeight   float64
	ItemSpacing        float64

	TitleStyle    Style
	SubtitleStyle Style
	QuestionStyle Style
	AnswerStyle   Style

	// TrueType font data. Without RegularFont the core Helvetica font is
	// used and text outside cp1252 is replaced.
	RegularFont []byte
	BoldFont    []byte
}

// DefaultOptions returns the standard interview guide geometry
func DefaultOptions() Options {
	return Options{
		Policy:             PolicyLine,
		Title:              "Interview Preparation Guide",
		DefaultRole:        "General",
		PageHeight:         297,
		LeftMargin:         14,
		ContentWidth:       180,
		TitleY:             22,
		SubtitleY:          32,
		StartY:             40,
		BreakY:             250,
		TopMargin:          20,
		BottomMargin:       15,
		QuestionLineHeight: 7,
		AnswerLineHeight:   6,
		ItemSpacing:        10,
		TitleStyle:         Style{Family: "Helvetica", Size: 20, Color: [3]int{75, 108, 183}},
		SubtitleStyle:      Style{Family: "Helvetica", Size: 12, Color: [3]int{100, 100, 100}},
		QuestionStyle:      Style{Family: "Helvetica", Weight: "B", Size: 12},
		AnswerStyle:        Style{Family: "Helvetica", Size: 11, Color: [3]int{50, 50, 50}},
	}
}

// OptionsFromConfig applies the configured title and pagination policy to
// the default geometry
func OptionsFromConfig(cfg config.ExportConfig) (Options, error) {
	opts := DefaultOptions()
	policy, err := ParsePolicy(cfg.Pagination)
	if err != nil {
		return Options{}, err
	}
	opts.Policy = policy
	if strings.TrimSpace(cfg.Title) != "" {
		opts.Title = cfg.Title
	}

	if cfg.FontFile == "" {
		return opts, nil
	}
	if opts.RegularFont, err = readFont(cfg.FontFile); err != nil {
		return Options{}, err
	}
	opts.BoldFont = opts.RegularFont
	if cfg.BoldFontFile != "" {
		if opts.BoldFont, err = readFont(cfg.BoldFontFile); err != nil {
			return Options{}, err
		}
	}
	return opts, nil
}

func readFont(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, appErrors.NewConfigError(appErrors.ErrCodeInvalidConfig,
			fmt.Sprintf("Cannot read export font %s", path), err)
	}
	return data, nil
}

// StyleFor returns the style used for lines of kind k
func (o Options) StyleFor(k LineKind) Style {
	switch k {
	case KindTitle:
		return o.TitleStyle
	case KindSubtitle:
		return o.SubtitleStyle
	case KindQuestion:
		return o.QuestionStyle
	default:
		return o.AnswerStyle
	}
}

// QuestionLabel formats the heading of the item at zero-based index i
func QuestionLabel(i int, question string) string {
	return fmt.Sprintf("Q%d: %s", i+1, question)
}

type paginator struct {
	opts   Options
	layout Layout
	page   int
	y      float64
}

func (p *paginator) place(text string, kind LineKind, item int) {
	p.layout.Lines = append(p.layout.Lines, PlacedLine{
		Page: p.page,
		X:    p.opts.LeftMargin,
		Y:    p.y,
		Text: text,
		Kind: kind,
		Item: item,
	})
}

func (p *paginator) newPage() {
	p.page++
	p.layout.Pages = p.page
	p.y = p.opts.TopMargin
}

// Paginate lays out the title block and every answer item
func Paginate(items []types.AnswerItem, targetRole string, m Measurer, opts Options) Layout {
	p := &paginator{opts: opts}
	p.layout.Bottom = opts.PageHeight - opts.BottomMargin
	p.newPage()

	role := strings.TrimSpace(targetRole)
	if role == "" {
		role = opts.DefaultRole
	}
	p.y = opts.TitleY
	p.place(opts.Title, KindTitle, -1)
	p.y = opts.SubtitleY
	p.place("Target Role: "+role, KindSubtitle, -1)
	p.y = opts.StartY

	measureWith := func(style Style) func(string) float64 {
		return func(s string) float64 { return m.StringWidth(style, s) }
	}
	measureQuestion := measureWith(opts.QuestionStyle)
	measureAnswer := measureWith(opts.AnswerStyle)

	for i, item := range items {
		questionLines := Wrap(QuestionLabel(i, item.Question), opts.ContentWidth, measureQuestion)
		answerLines := Wrap(item.Answer, opts.ContentWidth, measureAnswer)

		if p.y > opts.BreakY {
			p.newPage()
		}

		if opts.Policy == PolicyItem {
			p.placeItem(i, questionLines, answerLines)
		} else {
			p.flowItem(i, questionLines, answerLines)
		}
	}

	return p.layout
}

// placeItem writes an item without any break inside it
func (p *paginator) placeItem(i int, questionLines, answerLines []string) {
	for _, line := range questionLines {
		p.place(line, KindQuestion, i)
		p.y += p.opts.QuestionLineHeight
	}
	for _, line := range answerLines {
		p.place(line, KindAnswer, i)
		p.y += p.opts.AnswerLineHeight
	}
	p.y += p.opts.ItemSpacing
}

// flowItem writes an item, moving lines that would cross the bottom margin
// to the next page. The question block and the first answer line stay on
// one page unless they are taller than a whole page.
func (p *paginator) flowItem(i int, questionLines, answerLines []string) {
	bottom := p.layout.Bottom
	block := float64(len(questionLines)) * p.opts.QuestionLineHeight
	if p.y+block > bottom && p.y > p.opts.TopMargin {
		p.newPage()
	}

	for j, line := range questionLines {
		if j > 0 && p.y > bottom {
			p.newPage()
		}
		p.place(line, KindQuestion, i)
		p.y += p.opts.QuestionLineHeight
	}
	for _, line := range answerLines {
		if p.y > bottom {
			p.newPage()
		}
		p.place(line, KindAnswer, i)
		p.y += p.opts.AnswerLineHeight
	}
	p.y += p.opts.ItemSpacing
}
