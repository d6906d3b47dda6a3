package matcher

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/JMJuarez/modulo-pln-vf/internal/inventory"
	"github.com/JMJuarez/modulo-pln-vf/internal/vectorcache"
	"github.com/JMJuarez/modulo-pln-vf/pkg/provider/embeddings/mock"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := New(mock.New(256), testInventory(t), opts...)
	if err := e.Warmup(context.Background()); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	return e
}

func TestMatchExactPhrase(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	res, err := e.Match(context.Background(), "Hola")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Kind != KindMatched {
		t.Fatalf("Kind = %q, want matched", res.Kind)
	}
	if res.Group != "B" || res.Phrase != "Hola" {
		t.Errorf("got group %q phrase %q, want B / Hola", res.Group, res.Phrase)
	}
	if res.Score < 0.99 {
		t.Errorf("Score = %f, want ~1.0 for exact phrase", res.Score)
	}
	if res.BelowThreshold {
		t.Error("exact phrase flagged BelowThreshold")
	}
	if res.Letters != nil || res.TotalCharacters != 0 {
		t.Error("matched result carries spell-out fields")
	}
}

func TestMatchCorrectsMisspelling(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	res, err := e.Match(context.Background(), "holaa")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Kind != KindMatched || res.Phrase != "Hola" {
		t.Errorf("got kind %q phrase %q, want matched / Hola", res.Kind, res.Phrase)
	}
	if res.Score < 0.99 {
		t.Errorf("Score = %f, want ~1.0 after correction", res.Score)
	}
}

func TestMatchSpellsOutProperNoun(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	res, err := e.Match(context.Background(), "Juan")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Kind != KindSpelledOut {
		t.Fatalf("Kind = %q, want spelled_out", res.Kind)
	}
	want := []string{"J", "U", "A", "N"}
	if !reflect.DeepEqual(res.Letters, want) {
		t.Errorf("Letters = %v, want %v", res.Letters, want)
	}
	if res.TotalCharacters != 4 {
		t.Errorf("TotalCharacters = %d, want 4", res.TotalCharacters)
	}
	if res.Group != "" || res.Phrase != "" {
		t.Error("spelled-out result carries match fields")
	}
	if res.Score < 0 || res.Score >= 0.85 {
		t.Errorf("Score = %f, want the rejected similarity under the spell-out threshold", res.Score)
	}
}

func TestMatchSpellsOutLeetName(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	res, err := e.Match(context.Background(), "Acapulc@")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Kind != KindSpelledOut {
		t.Fatalf("Kind = %q, want spelled_out", res.Kind)
	}
	want := []string{"A", "C", "A", "P", "U", "L", "C", "O"}
	if !reflect.DeepEqual(res.Letters, want) {
		t.Errorf("Letters = %v, want %v", res.Letters, want)
	}
	if res.TotalCharacters != 8 {
		t.Errorf("TotalCharacters = %d, want 8", res.TotalCharacters)
	}
}

func TestMatchDegradedStillMatches(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	// Multi-token lowercase input never triggers spell-out; with no phrase
	// anywhere near it the best candidate is still returned, flagged.
	res, err := e.Match(context.Background(), "zzz qqq www")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Kind != KindMatched {
		t.Fatalf("Kind = %q, want matched", res.Kind)
	}
	if !res.BelowThreshold {
		t.Error("expected BelowThreshold for an unrelated query")
	}
	if res.Group == "" || res.Phrase == "" {
		t.Error("degraded match is missing group or phrase")
	}
}

// flatStrategy pins every candidate's adjusted score so decision tests can
// place the score exactly relative to the group thresholds.
type flatStrategy struct{ score float64 }

func (f flatStrategy) Adjust(float64, scoreContext) float64 { return f.score }

func TestMatchThresholdsSteerDecision(t *testing.T) {
	t.Parallel()

	newEngine := func(t *testing.T, simT, spellT float64) *Engine {
		t.Helper()
		inv, err := inventory.New([]inventory.Group{{
			ID:                  "G",
			Label:               "Prueba",
			SimilarityThreshold: simT,
			SpellOutThreshold:   spellT,
			Phrases:             []string{"Hola", "Buenos dias"},
		}})
		if err != nil {
			t.Fatalf("inventory.New: %v", err)
		}
		e := New(mock.New(64), inv, WithStrategy(flatStrategy{score: 0.5}))
		if err := e.Warmup(context.Background()); err != nil {
			t.Fatalf("Warmup: %v", err)
		}
		return e
	}

	// Every candidate scores exactly 0.5. Raising thresholds may only flip a
	// name from matched to spelled out, and a plain phrase from reached to
	// below threshold; never the other direction.
	tests := []struct {
		name         string
		query        string
		simT, spellT float64
		wantKind     Kind
		wantBelow    bool
	}{
		{"name above spell-out threshold matches", "Madrid", 0.30, 0.40, KindMatched, false},
		{"raised spell-out threshold flips name to spell-out", "Madrid", 0.30, 0.60, KindSpelledOut, false},
		{"raised similarity threshold keeps name spelled out", "Madrid", 0.55, 0.60, KindSpelledOut, false},
		{"plain phrase above both thresholds matches", "hola que tal amigo", 0.30, 0.40, KindMatched, false},
		{"raised thresholds only degrade a plain phrase", "hola que tal amigo", 0.60, 0.70, KindMatched, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEngine(t, tt.simT, tt.spellT)
			res, err := e.Match(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Match(%q): %v", tt.query, err)
			}
			if res.Kind != tt.wantKind {
				t.Fatalf("Kind = %q, want %q", res.Kind, tt.wantKind)
			}
			if res.Kind == KindMatched && res.BelowThreshold != tt.wantBelow {
				t.Errorf("BelowThreshold = %v, want %v", res.BelowThreshold, tt.wantBelow)
			}
			if res.Kind == KindSpelledOut && len(res.Letters) == 0 {
				t.Error("spelled-out result has no letters")
			}
		})
	}
}

func TestMatchTieBreaksOnInventoryOrder(t *testing.T) {
	t.Parallel()

	// "Nos vemos" appears verbatim in both groups, so the deterministic
	// provider gives both copies identical vectors. The second group's
	// centroid is closer to the query (it holds nothing else) and wins the
	// coarse ranking, but the full tie in the fine search must resolve to
	// the group that comes first in the inventory.
	inv, err := inventory.New([]inventory.Group{
		{
			ID:                  "X",
			Label:               "Primero",
			SimilarityThreshold: 0.50,
			SpellOutThreshold:   0.60,
			Phrases:             []string{"Nos vemos", "Cierra la puerta despacio"},
		},
		{
			ID:                  "Y",
			Label:               "Segundo",
			SimilarityThreshold: 0.50,
			SpellOutThreshold:   0.60,
			Phrases:             []string{"Nos vemos"},
		},
	})
	if err != nil {
		t.Fatalf("inventory.New: %v", err)
	}

	neutral := &StandardStrategy{LengthBoost: 1, LengthBoostMinTokens: 3, GroupBoost: 1}
	e := New(mock.New(128), inv, WithStrategy(neutral))
	if err := e.Warmup(context.Background()); err != nil {
		t.Fatalf("Warmup: %v", err)
	}

	res, err := e.Match(context.Background(), "Nos vemos")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Kind != KindMatched || res.Phrase != "Nos vemos" {
		t.Fatalf("got kind %q phrase %q, want matched / Nos vemos", res.Kind, res.Phrase)
	}
	if res.Group != "X" {
		t.Errorf("Group = %q, want the earlier group X", res.Group)
	}
}

func TestMatchEmptyQuery(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	for _, q := range []string{"", "   ", "!!! ..."} {
		if _, err := e.Match(context.Background(), q); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Match(%q) err = %v, want ErrEmptyQuery", q, err)
		}
	}
}

func TestMatchBeforeWarmup(t *testing.T) {
	t.Parallel()

	e := New(mock.New(64), testInventory(t))
	if _, err := e.Match(context.Background(), "hola"); !errors.Is(err, ErrNotReady) {
		t.Errorf("err = %v, want ErrNotReady", err)
	}
}

func TestMatchIsDeterministic(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	first, err := e.Match(context.Background(), "nesecito un medico")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	for range 5 {
		again, err := e.Match(context.Background(), "nesecito un medico")
		if err != nil {
			t.Fatalf("Match: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("results differ: %+v vs %+v", first, again)
		}
	}
}

func TestWarmupFailsWhenProviderDown(t *testing.T) {
	t.Parallel()

	p := mock.New(64)
	p.EmbedErr = errors.New("backend down")
	e := New(p, testInventory(t))
	if err := e.Warmup(context.Background()); err == nil {
		t.Fatal("expected Warmup to fail when embedding is unavailable")
	}
}

func TestWarmupUsesCachedVectors(t *testing.T) {
	t.Parallel()

	store, err := vectorcache.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	inv := testInventory(t)

	first := New(mock.New(128), inv, WithStore(store))
	if err := first.Warmup(context.Background()); err != nil {
		t.Fatalf("first Warmup: %v", err)
	}

	cold := mock.New(128)
	second := New(cold, inv, WithStore(store))
	if err := second.Warmup(context.Background()); err != nil {
		t.Fatalf("second Warmup: %v", err)
	}
	if got := cold.Calls.Load(); got != 0 {
		t.Errorf("provider called %d times despite warm cache", got)
	}

	res, err := second.Match(context.Background(), "Gracias")
	if err != nil {
		t.Fatalf("Match after cached warmup: %v", err)
	}
	if res.Kind != KindMatched || res.Phrase != "Gracias" {
		t.Errorf("got kind %q phrase %q, want matched / Gracias", res.Kind, res.Phrase)
	}
}

func TestWarmupRecomputesOnModelChange(t *testing.T) {
	t.Parallel()

	store, err := vectorcache.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	inv := testInventory(t)

	stale := &vectorcache.Artifact{
		Version:       vectorcache.ArtifactVersion,
		ModelID:       "other-model",
		InventoryHash: inv.Hash(),
		Dimensions:    2,
		Groups: []vectorcache.GroupVectors{
			{GroupID: "A", Phrases: [][]float32{{1, 0}}, Centroid: []float32{1, 0}},
		},
	}
	if err := store.Save(context.Background(), stale); err != nil {
		t.Fatalf("seed stale artifact: %v", err)
	}

	p := mock.New(128)
	e := New(p, inv, WithStore(store))
	if err := e.Warmup(context.Background()); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	if p.Calls.Load() == 0 {
		t.Error("expected vectors to be recomputed after model change")
	}
}

func TestListGroups(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	groups := e.ListGroups()
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	if len(groups["B"]) == 0 || groups["B"][0] != "Hola" {
		t.Errorf("group B = %v", groups["B"])
	}
}

func TestSpell(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	letters, total := e.Spell("Hola Mundo", true)
	if total != 10 {
		t.Errorf("total with spaces = %d, want 10", total)
	}
	if letters[4] != "espacio" {
		t.Errorf("letters[4] = %q, want espacio", letters[4])
	}

	_, total = e.Spell("Hola Mundo", false)
	if total != 9 {
		t.Errorf("total without spaces = %d, want 9", total)
	}

	letters, total = e.Spell("llave", true)
	if total != 4 {
		t.Errorf("digraph total = %d, want 4 (LL counts once)", total)
	}
	if letters[0] != "LL" {
		t.Errorf("letters[0] = %q, want LL", letters[0])
	}
}
