package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

const maxText = 255

// ID parses a product id: a positive base-10 integer.
func ID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > maxText {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Text validates a required free-text field (product name, store label).
func Text(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxText {
		return "", false
	}
	return s, true
}
