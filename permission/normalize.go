package permission

import "strings"

// Normalize canonicalizes an authority fragment: leading/trailing space is
// trimmed, runs of whitespace, hyphens, and dots collapse to a single
// underscore, and the result is uppercased. Colons are preserved because they
// act as separators inside composed authority strings.
//
// Normalization is applied once on ingestion; comparisons never re-derive it.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	pending := false
	for _, r := range s {
		if isCollapsible(r) {
			pending = true
			continue
		}
		if pending {
			if b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
		}
		b.WriteRune(r)
	}

	return strings.ToUpper(b.String())
}

func isCollapsible(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '-', '.':
		return true
	}
	return false
}
