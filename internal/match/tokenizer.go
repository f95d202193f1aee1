// Package match tokenizes chunks and evaluates query plans against them.
package match

import (
	"strings"
	"unicode"
)

// Tokenize splits text into lowercase word tokens. Words break on
// non-alphanumeric boundaries, and identifiers additionally split on
// camelCase humps (including acronym runs: "HTTPServer" -> "http", "server").
// snake_case splits for free since '_' is non-alphanumeric.
func Tokenize(text string) []string {
	var tokens []string
	var word []rune

	flush := func() {
		if len(word) == 0 {
			return
		}
		tokens = append(tokens, strings.ToLower(string(word)))
		word = word[:0]
	}

	runes := []rune(text)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(word) > 0 && isCamelBoundary(word[len(word)-1], r, peek(runes, i+1)) {
			flush()
		}
		word = append(word, r)
	}
	flush()

	return tokens
}

func peek(runes []rune, i int) rune {
	if i >= len(runes) {
		return 0
	}
	return runes[i]
}

// isCamelBoundary reports whether a new sub-token starts at next, given the
// previous rune and the one after next.
func isCamelBoundary(prev, next, after rune) bool {
	if unicode.IsLower(prev) && unicode.IsUpper(next) {
		return true // fooBar -> foo|Bar
	}
	if unicode.IsUpper(prev) && unicode.IsUpper(next) && unicode.IsLower(after) {
		return true // HTTPServer -> HTTP|Server
	}
	if unicode.IsDigit(prev) != unicode.IsDigit(next) {
		return true // sha256sum -> sha|256|sum
	}
	return false
}

// Stem strips common English suffixes so that close word forms compare equal
// ("handler", "handles", "handling" all reduce to "handl"). It is a light
// suffix stripper, not a full stemmer.
func Stem(token string) string {
	if len(token) <= 3 {
		return token
	}
	for _, suffix := range []string{"ingly", "edly", "ings", "ers", "ing", "ies", "ed", "er", "es", "ly", "s", "e", "y"} {
		if strings.HasSuffix(token, suffix) && len(token)-len(suffix) >= 3 {
			return token[:len(token)-len(suffix)]
		}
	}
	return token
}

// StemAll maps Stem over tokens.
func StemAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = Stem(t)
	}
	return out
}
