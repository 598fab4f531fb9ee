// Package hashtag extracts and normalizes tag names from post text.
// Tags are `#` followed by word characters or Cyrillic letters; names are
// stored lowercase and deduplicated.
package hashtag

import (
	"regexp"
	"strings"
)

// tagRE matches a '#' followed by one or more word characters or Cyrillic
// letters. The '#' itself is not part of the captured name.
var tagRE = regexp.MustCompile(`#([0-9A-Za-z_\p{Cyrillic}]+)`)

// Extract returns the normalized hashtag names found in text, in order of
// first appearance, without duplicates.
func Extract(text string) []string {
	matches := tagRE.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return Normalize(names)
}

// Normalize trims, lowercases, and deduplicates tag names, preserving first
// appearance order and dropping empties.
func Normalize(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Merge combines explicitly supplied tags with the hashtags extracted from
// text into one normalized, deduplicated set. Explicit tags come first.
func Merge(explicit []string, text string) []string {
	return Normalize(append(Normalize(explicit), Extract(text)...))
}
