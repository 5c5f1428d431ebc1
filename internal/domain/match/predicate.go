package match

import (
	"fmt"
	"regexp"
	"strings"
)

// Predicate tests a single string value.
type Predicate func(string) bool

// Equals matches the exact string.
func Equals(expected string) Predicate {
	return func(s string) bool { return s == expected }
}

// Contains matches values containing substr.
func Contains(substr string) Predicate {
	return func(s string) bool { return strings.Contains(s, substr) }
}

// Pattern compiles a regular expression predicate.
func Pattern(expr string) (Predicate, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern %q: %w", expr, err)
	}
	return re.MatchString, nil
}

// Anything matches every value.
func Anything() Predicate {
	return func(string) bool { return true }
}

// ParseValue turns a fixture-style matcher string into a predicate. A leading
// "=" selects exact comparison of the remainder; anything else is a regex.
// The empty string matches everything.
func ParseValue(s string) (Predicate, error) {
	switch {
	case s == "":
		return Anything(), nil
	case strings.HasPrefix(s, "="):
		return Equals(s[1:]), nil
	default:
		return Pattern(s)
	}
}
