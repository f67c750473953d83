// Package sanitizer normalizes user-entered text before validation and
// querying: booking and asset names, tags, and free-text search input.
package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reControlChars = regexp.MustCompile(`[\x00-\x1f\x7f]+`)

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}

func stripControlChars(s string) string {
	return reControlChars.ReplaceAllString(s, "")
}

func collapseWhitespace(s string) string {
	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// SanitizeName cleans display names for bookings and assets.
func SanitizeName(input string) string {
	p := Pipeline{
		stripControlChars,
		collapseWhitespace,
		trimSpace,
	}
	return p.Apply(input)
}

// SanitizeTag lowercases and normalizes a tag so filter matching is exact.
func SanitizeTag(input string) string {
	p := Pipeline{
		stripControlChars,
		collapseWhitespace,
		trimSpace,
		strings.ToLower,
	}
	return p.Apply(input)
}

// SanitizeSearch cleans free-text search input before it is quoted into a
// store query. Regex metacharacters are quoted by the filter compiler, not
// here; this only normalizes whitespace and strips control characters.
func SanitizeSearch(input string) string {
	p := Pipeline{
		stripControlChars,
		collapseWhitespace,
		trimSpace,
	}
	return p.Apply(input)
}

// SanitizeTags applies SanitizeTag to every entry, dropping empties and
// duplicates while preserving first-seen order.
func SanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		cleaned := SanitizeTag(t)
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}
