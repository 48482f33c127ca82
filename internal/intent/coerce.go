package intent

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// UrgencyMin..UrgencyMax bound the clinical-risk score. 5 means
	// immediate medical attention.
	UrgencyMin = 1
	UrgencyMax = 5
)

var decimalRE = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// CoerceUrgency parses an urgency score out of inconsistently typed
// classifier output and clamps it to [1, 5]. Unparseable input yields the
// minimum.
func CoerceUrgency(raw any) int {
	f, ok := coerceFloat(raw)
	if !ok {
		return UrgencyMin
	}
	n := int(f)
	if n < UrgencyMin {
		return UrgencyMin
	}
	if n > UrgencyMax {
		return UrgencyMax
	}
	return n
}

// CoerceConfidence parses a confidence value and clamps it to [0.0, 1.0].
// Unparseable input yields 0.
func CoerceConfidence(raw any) float64 {
	f, ok := coerceFloat(raw)
	if !ok {
		return 0
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// CoerceBool parses boolean-ish classifier output ("true", "True", actual
// booleans). Anything else yields the default.
func CoerceBool(raw any, def bool) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "sim":
			return true
		case "false", "no", "não", "nao":
			return false
		}
	}
	return def
}

// coerceFloat accepts numeric types directly and pulls the first decimal
// number out of string input.
func coerceFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		match := decimalRE.FindString(strings.TrimSpace(v))
		if match == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
