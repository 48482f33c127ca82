package extract

import "strings"

// Name cleans an extracted person name. Classifiers emit the literal
// string "null" when no name was mentioned; that and whitespace-only
// input count as absent. Internal whitespace is collapsed to single
// spaces.
func Name(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return ""
	}
	return strings.Join(strings.Fields(trimmed), " ")
}
