package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var markupDatePattern = regexp.MustCompile(`/Date\((\d+)`)

// NormalizeDate reduces the site's publish-time formats to a plain
// YYYY-MM-DD string. Two formats occur in the wild: an epoch-milliseconds
// value wrapped in markup, e.g. /Date(1726232792000+0800)/, and a plain
// "YYYY-MM-DD HH:MM:SS" timestamp. The embedded UTC offset is ignored;
// the day is taken in UTC.
func NormalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if match := markupDatePattern.FindStringSubmatch(raw); match != nil {
		ms, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return raw
		}
		return time.UnixMilli(ms).UTC().Format("2006-01-02")
	}

	// Take the date-only prefix of a space-separated timestamp
	if idx := strings.IndexByte(raw, ' '); idx > 0 {
		return raw[:idx]
	}
	return raw
}
