package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JMJuarez/modulo-pln-vf/internal/inventory"
)

// nearExactScore is the score above which the capitalisation signal is
// ignored: a near-exact phrase match that happens to be capitalised (e.g.
// "Hola") is a match, not a name.
const nearExactScore = 0.98

// minNameRunes and maxNameRunes bound the out-of-vocabulary signal so that
// stray single characters and pasted garbage do not trigger spelling.
const (
	minNameRunes = 2
	maxNameRunes = 20
)

// looksLikeProperNoun reports whether the query shows at least one signal
// that it is a proper noun rather than a misspelled inventory phrase:
//
//  1. every word is written in name capitalisation ("Juan", "Juan Pablo")
//     and no phrase matched near-exactly;
//  2. it is a single token on the known-names list;
//  3. it is a single token absent from the inventory vocabulary, with a
//     plausible name length.
//
// tokens is the normalised (uncorrected) query split into tokens.
func looksLikeProperNoun(query string, tokens []string, bestScore float64, inv *inventory.Inventory) bool {
	if isTitleCased(query) && bestScore < nearExactScore {
		return true
	}

	if len(tokens) != 1 {
		return false
	}
	tok := tokens[0]
	if _, known := knownNameSet[tok]; known {
		return true
	}
	if !inv.Contains(tok) {
		n := utf8.RuneCountInString(tok)
		if n >= minNameRunes && n <= maxNameRunes {
			return true
		}
	}
	return false
}

// isTitleCased reports whether every word of text starts with an uppercase
// letter and contains no further uppercase letters, the typical way names
// are written. Leading punctuation ("¿", "¡") is skipped; a word without
// letters disqualifies the text.
func isTitleCased(text string) bool {
	words := strings.Fields(text)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		sawFirst := false
		ok := false
		for _, r := range w {
			if !unicode.IsLetter(r) {
				continue
			}
			if !sawFirst {
				if !unicode.IsUpper(r) {
					return false
				}
				sawFirst = true
				ok = true
				continue
			}
			if unicode.IsUpper(r) {
				return false
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
