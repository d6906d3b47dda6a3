// Package textnorm canonicalises raw user text before fuzzy correction and
// embedding. Normalisation is a pure function: the same input always yields
// the same output, and normalising twice yields the same result as
// normalising once.
//
// Two entry points are provided:
//
//   - [Normalize] produces the comparison form used by the matching pipeline:
//     diacritics stripped, lower-cased, leet substitutions resolved,
//     punctuation and redundant whitespace collapsed.
//   - [NormalizeLeet] resolves leet substitutions only, preserving the
//     original capitalisation. It is used by the spell-out path, where the
//     display casing of a proper noun must survive.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// leetMap resolves common look-alike substitutions to their plain letters.
// Punctuation-valued leet keys ('!', '$', '+') are deliberately absent: they
// would swallow sentence punctuation before the collapse step and change the
// meaning of inputs like "hola!!!".
var leetMap = map[rune]rune{
	'@': 'a',
	'4': 'a',
	'3': 'e',
	'1': 'i',
	'0': 'o',
	'5': 's',
	'7': 't',
	'8': 'b',
	'9': 'g',
	'6': 'g',
}

// Normalize canonicalises text for the comparison path. Steps, in order:
//
//  1. Strip diacritics (NFD decomposition, combining marks removed).
//  2. Lower-case.
//  3. Resolve leet substitutions via the fixed character map.
//  4. Replace punctuation with spaces and collapse redundant whitespace.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	t := StripDiacritics(text)
	t = strings.ToLower(t)

	var b strings.Builder
	b.Grow(len(t))
	lastSpace := true
	for _, r := range t {
		if mapped, ok := leetMap[r]; ok {
			r = mapped
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			// Punctuation, symbols, and whitespace all collapse to a
			// single separating space.
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// NormalizeLeet resolves leet substitutions while preserving capitalisation.
// A substitution at the first position of the text is upper-cased, so
// "4yud@" becomes "Ayuda" and "Acapulc@" becomes "Acapulca". All other
// characters pass through unchanged.
func NormalizeLeet(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	first := true
	for _, r := range text {
		if mapped, ok := leetMap[unicode.ToLower(r)]; ok {
			if first || unicode.IsUpper(r) {
				mapped = unicode.ToUpper(mapped)
			}
			b.WriteRune(mapped)
		} else {
			b.WriteRune(r)
		}
		first = false
	}
	return b.String()
}

// StripDiacritics removes combining marks from text, mapping accented
// letters to their base form ("médico" → "medico"). Casing is preserved.
func StripDiacritics(text string) string {
	decomposed := norm.NFD.String(text)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tokens splits normalised text into its whitespace-delimited tokens.
// Returns nil for empty or all-whitespace input.
func Tokens(text string) []string {
	return strings.Fields(text)
}
