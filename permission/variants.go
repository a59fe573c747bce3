package permission

import "strings"

// variantTemplates is the single source of truth for tolerated authority
// spellings. %R and %A are replaced with the normalized resource and action.
// Call sites never compose spellings inline.
var variantTemplates = []string{
	"%R:%A",
	"%R_%A",
	"PERM_%R:%A",
	"PERM_%R_%A",
	"%R:%A:ALLOW",
	"%R_%A_ALLOW",
	"PERMISSION_%R:%A",
	"PERMISSION_%R_%A",
}

// Variants expands a resource/action pair into every tolerated authority
// spelling. Inputs are normalized first, so callers may pass raw UI strings
// ("Cash_Till", "CASH TILL") and receive an identical expansion.
func Variants(resource, action string) []string {
	r := Normalize(resource)
	a := Normalize(action)

	out := make([]string, 0, len(variantTemplates))
	for _, tpl := range variantTemplates {
		v := strings.ReplaceAll(tpl, "%R", r)
		out = append(out, strings.ReplaceAll(v, "%A", a))
	}
	return out
}
