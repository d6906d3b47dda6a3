package matcher

// Kind discriminates the two possible outcomes of a match request.
type Kind string

const (
	// KindMatched means a phrase from the inventory was selected.
	KindMatched Kind = "matched"

	// KindSpelledOut means the query looked like a proper noun with no
	// sufficiently close phrase, so it was spelled out character by
	// character instead.
	KindSpelledOut Kind = "spelled_out"
)

// Result is the outcome of one match request. Exactly one of the two field
// sets is populated: Group/Phrase for KindMatched, Letters and
// TotalCharacters for KindSpelledOut. Score is carried either way.
type Result struct {
	// Kind selects which field set below is meaningful.
	Kind Kind

	// Query is the original input text, verbatim.
	Query string

	// Group is the ID of the group the selected phrase belongs to.
	Group string

	// Phrase is the selected inventory phrase, verbatim as configured.
	Phrase string

	// Score is the adjusted similarity of the best candidate phrase, clipped
	// to [0, 1]. For spelled-out results it is the (rejected) best similarity
	// that fell under the group's spell-out threshold.
	Score float64

	// BelowThreshold marks a matched result whose score did not reach the
	// group's similarity threshold. Callers may present these as tentative.
	BelowThreshold bool

	// Letters holds the spoken form of each character for a spelled-out
	// result, in input order.
	Letters []string

	// TotalCharacters counts the spelled characters (digraphs count once).
	TotalCharacters int
}
