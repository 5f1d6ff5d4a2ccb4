package model

import (
	"strings"
	"time"
)

// RecencyWindow is how long after processing a summary counts as new.
const RecencyWindow = 24 * time.Hour

// timestampLayouts are tried in order. The batch job writes Python isoformat
// strings, which RFC3339Nano covers when an offset is present; the zoneless
// variants are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Empty or unparseable input
// returns false.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsRecent reports whether processedAt lies within RecencyWindow of now.
// The boundary is inclusive: exactly 24h old is still recent. Absent or
// unparseable timestamps are never recent. A processedAt after now counts as
// recent.
func IsRecent(processedAt string, now time.Time) bool {
	t, ok := ParseTimestamp(processedAt)
	if !ok {
		return false
	}
	return now.Sub(t) <= RecencyWindow
}
