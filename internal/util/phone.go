package util

import (
	"regexp"
	"strings"
)

var (
	nonDialable = regexp.MustCompile(`[^\d\+]+`)
	dialable    = regexp.MustCompile(`^\+?\d{3,15}$`)
)

// NormalizePhone strips separators and rewrites national prefixes into an
// E.164-like form. Input it cannot make sense of is returned stripped.
func NormalizePhone(raw string) string {
	s := nonDialable.ReplaceAllString(strings.TrimSpace(raw), "")

	switch {
	case strings.HasPrefix(s, "00"):
		s = "+" + s[2:]
	case strings.HasPrefix(s, "0") && len(s) == 11:
		s = "+98" + s[1:]
	case strings.HasPrefix(s, "9") && len(s) == 10:
		s = "+98" + s
	case strings.HasPrefix(s, "98"):
		s = "+" + s
	}

	return s
}

// ValidPhone reports whether s looks like a dialable number.
func ValidPhone(s string) bool {
	return dialable.MatchString(s)
}
