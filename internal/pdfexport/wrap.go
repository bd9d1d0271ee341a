package pdfexport

import (
	"strings"
)

// Wrap splits text into lines no wider than width as reported by measure.
// Explicit newlines always start a new line, words are packed greedily and a
// word wider than width on its own is broken between characters.
// An empty string yields a single empty line.
func Wrap(text string, width float64, measure func(string) float64) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(paragraph, width, measure)...)
	}
	return lines
}

func wrapParagraph(paragraph string, width float64, measure func(string) float64) []string {
	words := strings.Fields(paragraph)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if measure(candidate) <= width {
			current = candidate
			continue
		}

		if current != "" {
			lines = append(lines, current)
			current = ""
		}

		if measure(word) <= width {
			current = word
			continue
		}

		chunks := breakWord(word, width, measure)
		lines = append(lines, chunks[:len(chunks)-1]...)
		current = chunks[len(chunks)-1]
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// breakWord cuts a word into chunks that each fit width. Every chunk holds at
// least one character so a width smaller than a single glyph still terminates.
func breakWord(word string, width float64, measure func(string) float64) []string {
	var chunks []string
	var chunk []rune
	for _, r := range word {
		if len(chunk) > 0 && measure(string(append(chunk, r))) > width {
			chunks = append(chunks, string(chunk))
			chunk = chunk[:0]
		}
		chunk = append(chunk, r)
	}
	if len(chunk) > 0 {
		chunks = append(chunks, string(chunk))
	}
	return chunks
}
