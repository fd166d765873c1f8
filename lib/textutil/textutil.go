package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a name and removes all whitespace from it.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

var digitsRegex = regexp.MustCompile(`\d+`)

// FirstInt returns the first run of digits in s.
func FirstInt(s string) (string, bool) {
	match := digitsRegex.FindString(s)
	return match, match != ""
}

// Digits concatenates every run of digits in s, `"2763"` becomes 2763.
func Digits(s string) string {
	return strings.Join(digitsRegex.FindAllString(s, -1), "")
}

var unsafeFilename = regexp.MustCompile(`[^\w\-. ]+`)

// SafeFilename replaces characters that are not safe in a filename.
func SafeFilename(name string) string {
	name = unsafeFilename.ReplaceAllString(name, "_")
	name = strings.Trim(name, " ._")
	if name == "" {
		return "untitled"
	}
	return name
}
