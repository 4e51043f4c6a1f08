package archive

import (
	"strconv"
	"strings"
)

func trimText(s string) string {
	return strings.TrimSpace(s)
}

// parseIntOrDefault joins every digit in s into one number (the
// pagination bar renders page numbers as plain text, sometimes with
// surrounding whitespace or a thousands comma) and falls back to def
// if s has no digits.
func parseIntOrDefault(s string, def int) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return def
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return def
	}
	return n
}

func atoiSafe(s string) (int, error) {
	return strconv.Atoi(s)
}
