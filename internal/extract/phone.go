// Package extract derives structured entities (phone contacts, person
// names, date-times) from the free text a classifier hands back. Every
// function degrades to an explicit "absent" result instead of returning
// an error; partially-parsed values are never exposed.
package extract

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// MinPhoneDigits is the canonical minimum digit count for a usable mobile
// contact. Brazilian numbers with area code carry 10-11 digits.
const MinPhoneDigits = 10

// defaultRegion biases libphonenumber parsing; the funnel currently only
// runs against Brazilian clinics.
const defaultRegion = "BR"

var (
	nonDigitRE = regexp.MustCompile(`\D`)
	// Markers that the number is a fixed line, in the languages the
	// funnel operates in. A landline is useless for WhatsApp outreach.
	landlineRE = regexp.MustCompile(`(?i)\b(fixo|landline|fixed[ -]?line)\b`)
)

// Phone extracts a normalized phone contact from raw classifier output.
// It returns the digit string and true when a usable mobile contact was
// found. Numbers explicitly described as fixed lines are rejected even
// when the digit count qualifies.
func Phone(raw string) (string, bool) {
	return PhoneMin(raw, MinPhoneDigits)
}

// PhoneMin is Phone with an explicit minimum digit threshold.
func PhoneMin(raw string, minDigits int) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return "", false
	}
	if landlineRE.MatchString(trimmed) {
		return "", false
	}
	if minDigits <= 0 {
		minDigits = MinPhoneDigits
	}

	// The contact is the full digit string, country code included when
	// the text carried one.
	digits := nonDigitRE.ReplaceAllString(trimmed, "")
	if len(digits) < minDigits {
		return "", false
	}

	// libphonenumber catches fixed lines the text did not label.
	// Unparseable prose skips this check; the digit threshold already
	// vetted it.
	if num, err := phonenumbers.Parse(trimmed, defaultRegion); err == nil && phonenumbers.IsValidNumber(num) {
		if phonenumbers.GetNumberType(num) == phonenumbers.FIXED_LINE {
			return "", false
		}
	}

	return digits, true
}
