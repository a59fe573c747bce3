package permission

import "sort"

// Universal-grant tokens. A set containing either authorizes every
// resource/action pair.
const (
	grantStar = "*"
	grantAll  = "ALL"
)

// Set is a collection of normalized authority strings. The zero value is an
// empty, usable set. Entries are normalized on insertion; lookups assume
// normalized input and never re-normalize.
type Set map[string]struct{}

// NewSet builds a [Set] from raw authority strings, normalizing each entry.
// The literal "*" is kept verbatim so universal grants survive normalization.
func NewSet(raw []string) Set {
	s := make(Set, len(raw))
	for _, entry := range raw {
		s.Add(entry)
	}
	return s
}

// Add normalizes and inserts a single authority string. Empty entries are
// dropped.
func (s Set) Add(raw string) {
	if raw == grantStar {
		s[grantStar] = struct{}{}
		return
	}
	n := Normalize(raw)
	if n == "" {
		return
	}
	s[n] = struct{}{}
}

// Has reports whether the already-normalized authority is present.
func (s Set) Has(normalized string) bool {
	_, ok := s[normalized]
	return ok
}

// HasUniversal reports whether the set contains a universal-grant token.
func (s Set) HasUniversal() bool {
	return s.Has(grantStar) || s.Has(grantAll)
}

// Len returns the number of entries.
func (s Set) Len() int { return len(s) }

// Values returns the entries in sorted order, suitable for persistence.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}
