// Package intent defines the closed set of patient-message categories and
// the reconciliation helpers that turn raw classifier output into values
// the rest of the engine can act on. Classifier output is untrusted: it
// may be a list, a delimited string, or garbage. Nothing in this package
// returns an error; unusable input degrades to a safe default.
package intent

import "strings"

// Category is a closed-set label describing what a patient message is about.
type Category string

const (
	// Session management
	SessionStart   Category = "SESSION_START"
	SessionClosure Category = "SESSION_CLOSURE"

	// Appointment management
	ServiceScheduling   Category = "SERVICE_SCHEDULING"
	ServiceRescheduling Category = "SERVICE_RESCHEDULING"
	ServiceCancellation Category = "SERVICE_CANCELLATION"

	// Clinical
	MedicalAssessment Category = "MEDICAL_ASSESSMENT"
	ProcedureInquiry  Category = "PROCEDURE_INQUIRY"

	// Sales funnel
	AdConversion         Category = "AD_CONVERSION"
	OrganicInquiry       Category = "ORGANIC_INQUIRY"
	OfferConversion      Category = "OFFER_CONVERSION"
	ReengagementRecovery Category = "REENGAGEMENT_RECOVERY"

	// System
	GeneralInfo     Category = "GENERAL_INFO"
	ImageAssessment Category = "IMAGE_ASSESSMENT"
	HumanEscalation Category = "HUMAN_ESCALATION"

	// Unclassified is the guaranteed fallback member: normalization never
	// produces an empty set.
	Unclassified Category = "UNCLASSIFIED"
)

var validCategories = map[Category]struct{}{
	SessionStart:         {},
	SessionClosure:       {},
	ServiceScheduling:    {},
	ServiceRescheduling:  {},
	ServiceCancellation:  {},
	MedicalAssessment:    {},
	ProcedureInquiry:     {},
	AdConversion:         {},
	OrganicInquiry:       {},
	OfferConversion:      {},
	ReengagementRecovery: {},
	GeneralInfo:          {},
	ImageAssessment:      {},
	HumanEscalation:      {},
	Unclassified:         {},
}

// Valid reports whether c is a member of the closed category set.
func Valid(c Category) bool {
	_, ok := validCategories[c]
	return ok
}

// Normalize maps raw classifier output of unknown shape to an ordered,
// de-duplicated set of valid categories. Accepted shapes: a string slice,
// an any slice, or a single (possibly bracket/comma-delimited) string.
// Elements outside the closed set are discarded silently. The result is
// never empty; when nothing survives, it is exactly [UNCLASSIFIED].
func Normalize(raw any) []Category {
	var elements []string

	switch v := raw.(type) {
	case nil:
		// fall through to the UNCLASSIFIED default
	case []Category:
		for _, item := range v {
			elements = append(elements, string(item))
		}
	case []string:
		elements = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				elements = append(elements, s)
			}
		}
	case string:
		elements = splitCategoryList(v)
	}

	seen := make(map[Category]struct{}, len(elements))
	var out []Category
	for _, el := range elements {
		c := Category(strings.ToUpper(strings.TrimSpace(el)))
		if !Valid(c) {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	if len(out) == 0 {
		return []Category{Unclassified}
	}
	return out
}

// splitCategoryList strips list punctuation the classifier tends to emit
// ("['A', 'B']") and splits on commas.
func splitCategoryList(s string) []string {
	cleaned := strings.NewReplacer("[", "", "]", "", "'", "", `"`, "").Replace(s)
	parts := strings.Split(cleaned, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Strings converts a category set to its wire representation.
func Strings(categories []Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}
