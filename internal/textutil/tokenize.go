package textutil

import (
	"strings"
	"unicode"
)

// minTokenLength filters out articles and stray characters that carry no
// matching signal.
const minTokenLength = 2

// Tokenize lowercases text and splits it into word tokens of at least two
// characters. Letters and digits are kept, including umlauts and ß;
// everything else separates tokens.
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			token := current.String()
			if len([]rune(token)) >= minTokenLength {
				tokens = append(tokens, token)
			}
			current.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// TokenSet returns the unique tokens of text.
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range Tokenize(text) {
		set[token] = struct{}{}
	}
	return set
}
