package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ISOLayout is the single canonical form every extracted date-time is
// normalized to.
const ISOLayout = "2006-01-02T15:04:05"

// Layouts classifiers have been observed to emit, tried in order.
var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Recovers a date plus hour:minute embedded in noisy text, e.g.
// "confirmed for 2024-01-30 at 15:30 then".
var dateTimeRE = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})[T\s](\d{2}:\d{2})`)

// DateTime parses an extracted date-time guess into canonical ISO-8601.
// It returns ("", false) when nothing parses: never a partial value.
func DateTime(raw string) (string, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" || strings.EqualFold(cleaned, "null") {
		return "", false
	}

	for _, layout := range dateTimeLayouts {
		if parsed, err := time.Parse(layout, cleaned); err == nil {
			return parsed.Format(ISOLayout), true
		}
	}

	if m := dateTimeRE.FindStringSubmatch(cleaned); m != nil {
		candidate := fmt.Sprintf("%s %s", m[1], m[2])
		if parsed, err := time.Parse("2006-01-02 15:04", candidate); err == nil {
			return parsed.Format(ISOLayout), true
		}
	}

	return "", false
}
