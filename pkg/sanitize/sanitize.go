// Package sanitize converts display text into filesystem-safe name tokens.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	illegalRe    = regexp.MustCompile(`[\\/*?:"<>|]`)
)

// Name converts display text into a lowercase token safe for use as a
// file or directory name. Whitespace runs collapse to a single underscore
// and characters illegal on common filesystems are removed. The result
// may be empty when the input contains nothing else.
func Name(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = whitespaceRe.ReplaceAllString(s, "_")
	return illegalRe.ReplaceAllString(s, "")
}
