package matcher

import (
	"strings"
	"unicode/utf8"
)

// scoreContext carries everything a Strategy may consult when adjusting a
// raw cosine similarity.
type scoreContext struct {
	// queryTokens is the normalised, corrected query split into tokens.
	queryTokens []string

	// phrase is the normalised candidate phrase.
	phrase string

	// phraseTokens is the normalised candidate phrase split into tokens.
	phraseTokens []string

	// topGroup reports whether the candidate's group ranked first in the
	// coarse centroid search.
	topGroup bool
}

// Strategy adjusts a raw cosine similarity into the score used for ranking
// and threshold decisions.
type Strategy interface {
	// Adjust returns the adjusted score for a candidate with the given raw
	// cosine similarity. The result is not yet clipped.
	Adjust(raw float64, sc scoreContext) float64
}

var _ Strategy = (*StandardStrategy)(nil)

// StandardStrategy is the default scoring adjustment: multiplicative boosts
// for long phrases and for phrases in the best coarse group, and a length
// penalty that separates short words from similarly-spelled short words.
type StandardStrategy struct {
	// LengthBoost multiplies the score of phrases with at least
	// LengthBoostMinTokens tokens. Longer phrases produce more diffuse
	// embeddings; the boost compensates.
	LengthBoost float64

	// LengthBoostMinTokens is the minimum token count for LengthBoost.
	LengthBoostMinTokens int

	// MidLengthBoost multiplies the score of two-token phrases, a softer
	// step below LengthBoost so multi-word phrases outrank single words.
	// Values <= 0 disable it.
	MidLengthBoost float64

	// GroupBoost multiplies the score of candidates whose group won the
	// coarse centroid search.
	GroupBoost float64

	// LengthPenaltyPerChar is subtracted per character of length difference
	// when both the query and the candidate are single tokens and their
	// lengths differ by more than one character.
	LengthPenaltyPerChar float64
}

// NewStandardStrategy returns the default adjustment parameters.
func NewStandardStrategy() *StandardStrategy {
	return &StandardStrategy{
		LengthBoost:          1.15,
		LengthBoostMinTokens: 3,
		MidLengthBoost:       1.08,
		GroupBoost:           1.05,
		LengthPenaltyPerChar: 0.05,
	}
}

// Adjust implements Strategy.
func (s *StandardStrategy) Adjust(raw float64, sc scoreContext) float64 {
	score := raw
	switch {
	case len(sc.phraseTokens) >= s.LengthBoostMinTokens:
		score *= s.LengthBoost
	case len(sc.phraseTokens) == 2 && s.MidLengthBoost > 0:
		score *= s.MidLengthBoost
	}
	if sc.topGroup {
		score *= s.GroupBoost
	}
	if len(sc.queryTokens) == 1 && len(sc.phraseTokens) == 1 {
		qLen := utf8.RuneCountInString(sc.queryTokens[0])
		pLen := utf8.RuneCountInString(strings.TrimSpace(sc.phrase))
		diff := qLen - pLen
		if diff < 0 {
			diff = -diff
		}
		if diff > 1 {
			score -= float64(diff) * s.LengthPenaltyPerChar
		}
	}
	return score
}
