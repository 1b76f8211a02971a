package helpers

import (
	"errors"
	"regexp"
	"strings"
)

var sightURLPattern = regexp.MustCompile(`/t(\d+)\.html`)

// GetSplitPart splits target by separate and returns the part at index
func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// ExtractSightID pulls the numeric sight id out of a detail page URL such as
// https://piao.ctrip.com/ticket/dest/t4081.html. Returns an empty string when
// the URL does not carry one.
func ExtractSightID(url string) string {
	match := sightURLPattern.FindStringSubmatch(url)
	if match == nil {
		return ""
	}
	return match[1]
}

// SafeFileName strips characters that are not safe in output file names
func SafeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		case r > 127: // keep non-ASCII display names as-is
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
