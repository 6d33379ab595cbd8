// Package htmlsanitize strips markup from free-text fields before they are
// stored. Officer names and addresses are shown on dispatch dashboards that
// render them as HTML, so nothing tag-like may survive.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of entity encoding are peeled off.
const maxPasses = 4

// PlainText removes every tag and trims surrounding whitespace. Entities are
// decoded so "A&B Rescue" round-trips unchanged, and decoding is repeated
// until it exposes no further markup, so "&lt;b&gt;" cannot come back as a
// tag. Input still changing after maxPasses is returned in its escaped form.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	for range maxPasses {
		clean := strict.Sanitize(s)
		next := html.UnescapeString(clean)
		if next == s {
			return strings.TrimSpace(next)
		}
		s = next
	}
	return strings.TrimSpace(strict.Sanitize(s))
}

// PlainTextAll applies PlainText to every element and drops the ones that
// end up empty.
func PlainTextAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := PlainText(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}
