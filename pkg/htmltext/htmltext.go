// Package htmltext flattens HTML fragments into plain text.
package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Flatten strips markup from an HTML fragment and returns the text
// content with each line trimmed and blank lines dropped. Input that
// cannot be parsed degrades to the trimmed input rather than an error.
func Flatten(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	return cleanWhitespace(doc.Text())
}

// Line flattens an HTML fragment into a single line, collapsing all
// whitespace runs to single spaces.
func Line(fragment string) string {
	return strings.Join(strings.Fields(Flatten(fragment)), " ")
}

// cleanWhitespace trims each line and drops blank ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
