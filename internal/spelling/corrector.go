// Package spelling provides token-level fuzzy spelling correction against a
// fixed vocabulary. Each whitespace-delimited token is scored against every
// vocabulary entry with a normalised Levenshtein ratio (0–100); when the best
// entry reaches the acceptance threshold the token is replaced.
//
// Ties are broken by the smaller absolute edit distance, then by the entry's
// position in the vocabulary (earlier wins). A Corrector is read-only after
// construction and safe for concurrent use.
package spelling

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// DefaultThreshold is the minimum 0–100 similarity ratio at which a token is
// replaced by a vocabulary entry.
const DefaultThreshold = 80.0

// Option is a functional option for a [Corrector].
type Option func(*Corrector)

// WithThreshold overrides the acceptance ratio. Values outside (0, 100] are
// ignored.
func WithThreshold(ratio float64) Option {
	return func(c *Corrector) {
		if ratio > 0 && ratio <= 100 {
			c.threshold = ratio
		}
	}
}

// WithCasePreservation makes replacements adopt the casing shape of the
// corrected token: an upper-case first letter stays upper-case, a fully
// upper-case token stays upper-case. Comparison is always case-insensitive.
func WithCasePreservation() Option {
	return func(c *Corrector) {
		c.preserveCase = true
	}
}

// Corrector fuzzy-matches tokens against an ordered vocabulary.
type Corrector struct {
	vocab        []string // original entries, in order
	lower        []string // lower-cased entries, aligned with vocab
	exact        map[string]struct{}
	threshold    float64
	preserveCase bool
}

// New builds a Corrector over vocabulary. The order of entries matters: it is
// the final tie-break when two entries score identically.
func New(vocabulary []string, opts ...Option) *Corrector {
	c := &Corrector{
		vocab:     make([]string, 0, len(vocabulary)),
		lower:     make([]string, 0, len(vocabulary)),
		exact:     make(map[string]struct{}, len(vocabulary)),
		threshold: DefaultThreshold,
	}
	for _, v := range vocabulary {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		c.vocab = append(c.vocab, v)
		lv := strings.ToLower(v)
		c.lower = append(c.lower, lv)
		c.exact[lv] = struct{}{}
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Correct applies [Corrector.CorrectToken] to every whitespace-delimited
// token of text and reassembles the result with single spaces.
func (c *Corrector) Correct(text string) string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return strings.TrimSpace(text)
	}
	for i, tok := range tokens {
		if corrected, ok := c.CorrectToken(tok); ok {
			tokens[i] = corrected
		}
	}
	return strings.Join(tokens, " ")
}

// CorrectToken returns the vocabulary entry closest to token and true when
// the best entry reaches the acceptance threshold. Exact (case-insensitive)
// vocabulary members are returned unchanged with ok=false: they need no
// correction.
func (c *Corrector) CorrectToken(token string) (corrected string, ok bool) {
	lowerTok := strings.ToLower(token)
	if _, known := c.exact[lowerTok]; known {
		return token, false
	}

	bestIdx := -1
	bestRatio := 0.0
	bestDist := 0
	for i, entry := range c.lower {
		dist := matchr.Levenshtein(lowerTok, entry)
		ratio := Ratio(lowerTok, entry, dist)
		if ratio < c.threshold {
			continue
		}
		if bestIdx == -1 || ratio > bestRatio || (ratio == bestRatio && dist < bestDist) {
			bestIdx, bestRatio, bestDist = i, ratio, dist
		}
	}
	if bestIdx == -1 {
		return token, false
	}

	result := c.vocab[bestIdx]
	if c.preserveCase {
		result = matchCase(result, token)
	}
	return result, true
}

// Ratio converts an edit distance between a and b into a 0–100 similarity
// score, where 100 means identical. dist must be the Levenshtein distance
// between a and b.
func Ratio(a, b string, dist int) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 100
	}
	return 100 * (1 - float64(dist)/float64(longest))
}

// matchCase reshapes replacement to follow the casing of original: all-caps
// stays all-caps, a leading capital stays a leading capital, anything else is
// returned lower-case.
func matchCase(replacement, original string) string {
	if original == "" {
		return replacement
	}
	allUpper := true
	for _, r := range original {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			allUpper = false
			break
		}
	}
	lower := strings.ToLower(replacement)
	if allUpper && utf8.RuneCountInString(original) > 1 {
		return strings.ToUpper(replacement)
	}
	first, size := utf8.DecodeRuneInString(original)
	if size > 0 && unicode.IsUpper(first) {
		head, headSize := utf8.DecodeRuneInString(lower)
		if headSize > 0 {
			return string(unicode.ToUpper(head)) + lower[headSize:]
		}
	}
	return lower
}
