package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a name and removes all whitespace so names can
// be compared regardless of formatting.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// NormalizeWhitespace trims a string and collapses inner runs of
// whitespace (including non-breaking spaces) into a single space.
func NormalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

var nullValues = map[string]struct{}{
	"":     {},
	"nil":  {},
	"na":   {},
	"n/a":  {},
	"null": {},
	"none": {},
	"-":    {},
}

// IsNull reports whether a free text field carries no information.
func IsNull(s string) bool {
	_, ok := nullValues[strings.ToLower(NormalizeWhitespace(s))]
	return ok
}

// Clean normalizes whitespace and maps null-like values to the empty string.
func Clean(s string) string {
	if IsNull(s) {
		return ""
	}
	return NormalizeWhitespace(s)
}

var minorWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "in": {}, "into": {}, "nor": {}, "of": {},
	"on": {}, "or": {}, "the": {}, "to": {}, "with": {},
}

var abbreviations = map[string]struct{}{
	"NUS": {}, "MIT": {}, "IP": {}, "NA": {}, "II": {}, "III": {}, "IV": {},
}

func capitalize(word string) string {
	runes := []rune(strings.ToLower(word))
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
	}
	return string(runes)
}

// Titleize turns an upper or lower case name into title case. Minor words
// stay lowercase unless they start the name, known abbreviations keep
// their capitals and words joined by '-' or '/' are capitalized on both
// sides.
func Titleize(s string) string {
	words := strings.Split(NormalizeWhitespace(s), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		upper := strings.ToUpper(word)
		if _, ok := abbreviations[strings.Trim(upper, "(),.&")]; ok {
			words[i] = upper
			continue
		}
		if _, ok := minorWords[strings.ToLower(word)]; ok && i > 0 {
			words[i] = strings.ToLower(word)
			continue
		}
		words[i] = titleizeCompound(word)
	}
	return strings.Join(words, " ")
}

func titleizeCompound(word string) string {
	for _, sep := range []string{"-", "/"} {
		if strings.Contains(word, sep) {
			parts := strings.Split(word, sep)
			for i, p := range parts {
				parts[i] = capitalize(p)
			}
			return strings.Join(parts, sep)
		}
	}
	return capitalize(word)
}
