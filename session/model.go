package session

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Value is a terminal or business identifier that may be numeric or an
// alphanumeric code. Numeric-looking strings coerce to numbers; everything
// else passes through unchanged.
type Value struct {
	raw     string
	num     int64
	numeric bool
}

// ParseValue builds a [Value], coercing strings matching ^\d+$ to numbers.
func ParseValue(s string) Value {
	if s == "" {
		return Value{}
	}
	if isDigits(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Value{raw: s, num: n, numeric: true}
		}
	}
	return Value{raw: s}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// String returns the original string form.
func (v Value) String() string { return v.raw }

// Int64 returns the numeric form, or false for alphanumeric codes and the
// zero value.
func (v Value) Int64() (int64, bool) { return v.num, v.numeric }

// IsZero reports whether the value is unset.
func (v Value) IsZero() bool { return v.raw == "" }

// Record is the resolved session state: one authoritative value per logical
// field, derived from the store by [Resolver.Resolve]. A Record with an empty
// Token is anonymous regardless of any other populated field.
type Record struct {
	Token           string
	UserID          int64
	Username        string
	Roles           []string
	Permissions     []string
	TerminalID      Value
	BusinessID      Value
	BusinessName    string
	BusinessLogoRef string
}

// Authenticated reports whether the record carries a token. A populated
// UserID without a token does not count.
func (r Record) Authenticated() bool { return r.Token != "" }

// EncodeList serializes a string list for persistence as a JSON array.
func EncodeList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodeList parses a persisted list. JSON arrays are canonical; bare
// comma-separated strings are tolerated for values written by earlier
// releases.
func DecodeList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out
		}
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
