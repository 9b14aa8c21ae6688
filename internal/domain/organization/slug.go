package organization

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonWordRun    = regexp.MustCompile(`[^\w-]+`)
	hyphenRun     = regexp.MustCompile(`--+`)
	lowerCaser    = cases.Lower(language.Und)
)

// Slugify lowercases text, turns whitespace into hyphens, strips non-word
// characters, collapses repeated hyphens and trims hyphens at both ends.
func Slugify(text string) string {
	s := strings.TrimSpace(lowerCaser.String(text))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = nonWordRun.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
