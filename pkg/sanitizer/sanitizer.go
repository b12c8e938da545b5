package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reBlankLines    = regexp.MustCompile(`\n{3,}`)
	reTrailingSpace = regexp.MustCompile(`[ \t]+\n`)
)

func normalizeNewlines(s string) string {
	return strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)
}

// SanitizeText is for single-line values such as names, car make and
// model and pickup locations.
func SanitizeText(input string) string {
	return TrimAndNormalize(input)
}

// SanitizeComment keeps line breaks but trims the ends, strips trailing
// spaces on each line and allows at most one blank line in a row.
func SanitizeComment(input string) string {
	p := Pipeline{
		normalizeNewlines,
		func(s string) string { return reTrailingSpace.ReplaceAllString(s, "\n") },
		func(s string) string { return reBlankLines.ReplaceAllString(s, "\n\n") },
		strings.TrimSpace,
	}
	return p.Apply(input)
}

func SanitizeSlice(values []string, strategy Strategy) []string {
	return NormalizeStringSlice(values, strategy)
}
