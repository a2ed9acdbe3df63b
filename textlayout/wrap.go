// Package textlayout breaks caption text into lines that fit a pixel width.
package textlayout

import "strings"

// Measurer returns the rendered width of s under the active font.
type Measurer func(s string) float64

// Wrap greedily packs the space-separated words of text into lines no wider
// than maxWidth. Every returned line keeps the single trailing space that
// follows its last word.
//
// A word that is wider than maxWidth on its own is placed alone on a line
// and never truncated. The result always holds at least one line; an empty
// text yields a single blank line.
func Wrap(text string, maxWidth float64, measure Measurer) []string {
	words := strings.Split(text, " ")
	var lines []string
	line := ""
	for n, word := range words {
		candidate := line + word + " "
		if measure(candidate) > maxWidth && n > 0 {
			lines = append(lines, line)
			line = word + " "
			continue
		}
		line = candidate
	}
	return append(lines, line)
}

// Unwrap joins wrapped lines back into the text they came from.
func Unwrap(lines []string) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = strings.TrimSuffix(l, " ")
	}
	return strings.Join(parts, " ")
}
