// Package inventory holds the static phrase inventory: topical groups with
// their ordered phrase lists and per-group decision thresholds. The inventory
// is loaded once at startup, validated, and immutable afterwards; every
// accessor is safe for unbounded concurrent use.
package inventory

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/JMJuarez/modulo-pln-vf/internal/textnorm"
)

// Group is a curated topical bucket of phrases with its own acceptance
// thresholds. Stricter (conversational) groups carry higher thresholds than
// urgent groups, biasing toward over-triggering matches where a false
// negative is costlier.
type Group struct {
	// ID is the short group identifier, e.g. "A".
	ID string `yaml:"id"`

	// Label is a human-readable description, e.g. "Emergencias".
	Label string `yaml:"label"`

	// SimilarityThreshold is the minimum score at which a match in this
	// group is accepted outright.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// SpellOutThreshold is the score below which, combined with the
	// proper-noun signals, spelling out is preferred over a weak match.
	SpellOutThreshold float64 `yaml:"spell_out_threshold"`

	// Phrases is the ordered phrase list. Order is significant: it is the
	// final tie-break during ranking.
	Phrases []string `yaml:"phrases"`
}

// extraVocabulary supplements the phrase-derived vocabulary with common words
// users type that no inventory phrase contains verbatim.
var extraVocabulary = []string{
	"ayuda", "hola", "gracias", "bien", "mal", "si", "no", "vale", "ok",
	"perdon", "espera", "entiendo", "auxilio", "socorro", "doctor",
	"hospital", "salida", "fuego", "urgente", "alto", "emergencia",
}

// Inventory is the validated, immutable set of groups.
type Inventory struct {
	groups   []Group
	byID     map[string]int
	vocab    []string
	vocabSet map[string]struct{}
	hash     string
	total    int
}

// New validates groups and builds an Inventory. It returns an error when the
// set is empty, a group has no phrases or a duplicate ID, or thresholds are
// incoherent (outside (0, 1] or spell_out below similarity).
func New(groups []Group) (*Inventory, error) {
	if len(groups) == 0 {
		return nil, errors.New("inventory: no groups defined")
	}

	inv := &Inventory{
		groups:   make([]Group, len(groups)),
		byID:     make(map[string]int, len(groups)),
		vocabSet: make(map[string]struct{}),
	}
	copy(inv.groups, groups)

	var errs []error
	for i, g := range inv.groups {
		prefix := fmt.Sprintf("inventory: group[%d]", i)
		if g.ID == "" {
			errs = append(errs, fmt.Errorf("%s: id is required", prefix))
			continue
		}
		if prev, dup := inv.byID[g.ID]; dup {
			errs = append(errs, fmt.Errorf("%s: id %q duplicates group[%d]", prefix, g.ID, prev))
			continue
		}
		inv.byID[g.ID] = i
		if len(g.Phrases) == 0 {
			errs = append(errs, fmt.Errorf("%s (%s): no phrases", prefix, g.ID))
		}
		if g.SimilarityThreshold <= 0 || g.SimilarityThreshold > 1 {
			errs = append(errs, fmt.Errorf("%s (%s): similarity_threshold %.2f out of range (0, 1]", prefix, g.ID, g.SimilarityThreshold))
		}
		if g.SpellOutThreshold <= 0 || g.SpellOutThreshold > 1 {
			errs = append(errs, fmt.Errorf("%s (%s): spell_out_threshold %.2f out of range (0, 1]", prefix, g.ID, g.SpellOutThreshold))
		}
		if g.SpellOutThreshold < g.SimilarityThreshold {
			errs = append(errs, fmt.Errorf("%s (%s): spell_out_threshold %.2f below similarity_threshold %.2f", prefix, g.ID, g.SpellOutThreshold, g.SimilarityThreshold))
		}
		inv.total += len(g.Phrases)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	inv.buildVocabulary()
	inv.hash = contentHash(inv.groups)
	return inv, nil
}

// buildVocabulary collects the ordered unique normalised tokens of every
// phrase plus the fixed extras.
func (inv *Inventory) buildVocabulary() {
	add := func(word string) {
		if word == "" {
			return
		}
		if _, seen := inv.vocabSet[word]; seen {
			return
		}
		inv.vocabSet[word] = struct{}{}
		inv.vocab = append(inv.vocab, word)
	}
	for _, g := range inv.groups {
		for _, p := range g.Phrases {
			for _, tok := range textnorm.Tokens(textnorm.Normalize(p)) {
				add(tok)
			}
		}
	}
	for _, w := range extraVocabulary {
		add(w)
	}
}

// contentHash returns a stable hex digest over the inventory content:
// group IDs, thresholds, and phrases in their canonical order. Any change to
// the inventory changes the hash, which invalidates persisted vectors.
func contentHash(groups []Group) string {
	h := xxhash.New()
	for _, g := range groups {
		fmt.Fprintf(h, "%s\x1f%.4f\x1f%.4f\x1e", g.ID, g.SimilarityThreshold, g.SpellOutThreshold)
		for _, p := range g.Phrases {
			h.WriteString(p)
			h.Write([]byte{'\x1f'})
		}
		h.Write([]byte{'\x1e'})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Groups returns the groups in canonical order. The returned slice must not
// be modified.
func (inv *Inventory) Groups() []Group { return inv.groups }

// Group returns the group with the given ID.
func (inv *Inventory) Group(id string) (Group, bool) {
	i, ok := inv.byID[id]
	if !ok {
		return Group{}, false
	}
	return inv.groups[i], true
}

// Hash returns the content hash computed at load time.
func (inv *Inventory) Hash() string { return inv.hash }

// TotalPhrases returns the number of phrases across all groups.
func (inv *Inventory) TotalPhrases() int { return inv.total }

// Vocabulary returns the ordered unique normalised tokens of all phrases
// plus a fixed list of common words. The returned slice must not be modified.
func (inv *Inventory) Vocabulary() []string { return inv.vocab }

// Contains reports whether the normalised word appears in the vocabulary.
func (inv *Inventory) Contains(word string) bool {
	_, ok := inv.vocabSet[word]
	return ok
}

// ListPhrases returns a fresh group-ID → phrases mapping for read-only
// introspection. Phrase slices are copies; callers may retain them.
func (inv *Inventory) ListPhrases() map[string][]string {
	out := make(map[string][]string, len(inv.groups))
	for _, g := range inv.groups {
		phrases := make([]string, len(g.Phrases))
		copy(phrases, g.Phrases)
		out[g.ID] = phrases
	}
	return out
}
