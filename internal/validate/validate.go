package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

const (
	maxQty = 50
	// MaxQueryLen is the longest search accepted, in characters.
	MaxQueryLen = 100
)

// Email trims s and reports whether it looks like an address. An empty
// string is never valid.
func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return s, false
	}
	return s, reEmail.MatchString(s)
}

// Q trims a search query. Any printable text up to MaxQueryLen characters is
// accepted; longer input is rejected, never cut.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !utf8.ValidString(s) || utf8.RuneCountInString(s) > MaxQueryLen {
		return s, false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return s, false
		}
	}
	return s, true
}

// Qty is the quantity for an add: defaults to 1, clamped to avoid abuse.
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > maxQty {
		return maxQty
	}
	return n
}

// SetQty parses the quantity of an update. Zero and negative values pass
// through; only the upper bound is clamped.
func SetQty(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	if n > maxQty {
		n = maxQty
	}
	return n, true
}

// ID validates a simple resource identifier (product ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}
