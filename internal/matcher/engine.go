// Package matcher implements the phrase matching engine: normalised queries
// are fuzzy-corrected against the inventory vocabulary, embedded, matched
// hierarchically (group centroids first, then phrases inside the best
// groups), and either resolved to an inventory phrase or spelled out
// character by character when the query looks like a proper noun.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JMJuarez/modulo-pln-vf/internal/inventory"
	"github.com/JMJuarez/modulo-pln-vf/internal/observe"
	"github.com/JMJuarez/modulo-pln-vf/internal/speller"
	"github.com/JMJuarez/modulo-pln-vf/internal/spelling"
	"github.com/JMJuarez/modulo-pln-vf/internal/textnorm"
	"github.com/JMJuarez/modulo-pln-vf/internal/vectorcache"
	"github.com/JMJuarez/modulo-pln-vf/pkg/provider/embeddings"
)

// DefaultGroupTopK is how many groups survive the coarse centroid search.
const DefaultGroupTopK = 3

var (
	// ErrEmptyQuery reports an input that is empty or contains no letters or
	// digits after normalisation.
	ErrEmptyQuery = errors.New("matcher: query is empty")

	// ErrNotReady reports a Match call before a successful Warmup.
	ErrNotReady = errors.New("matcher: engine not warmed up")
)

// groupVectors is the in-memory working set for one group: the group
// definition plus everything precomputed from it.
type groupVectors struct {
	group        inventory.Group
	normPhrases  []string
	phraseTokens [][]string
	vectors      [][]float32
	centroid     []float32
}

// Engine is the matching engine. Construct with New, call Warmup once, then
// Match from any number of goroutines.
type Engine struct {
	provider      embeddings.Provider
	inv           *inventory.Inventory
	store         vectorcache.Store
	strategy      Strategy
	log           *slog.Logger
	groupTopK     int
	corrector     *spelling.Corrector
	nameCorrector *spelling.Corrector

	mu     sync.RWMutex
	groups []groupVectors
}

// Option is a functional option for New.
type Option func(*Engine)

// WithStore attaches a persistent vector cache. Without one every Warmup
// recomputes all vectors through the provider.
func WithStore(s vectorcache.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithStrategy replaces the default scoring adjustment.
func WithStrategy(s Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithGroupTopK overrides how many groups survive the coarse search.
// Values below 1 are ignored.
func WithGroupTopK(k int) Option {
	return func(e *Engine) {
		if k >= 1 {
			e.groupTopK = k
		}
	}
}

// WithCorrectionThreshold overrides the fuzzy correction acceptance ratio
// (0–100) for the vocabulary corrector.
func WithCorrectionThreshold(ratio float64) Option {
	return func(e *Engine) {
		e.corrector = spelling.New(e.inv.Vocabulary(), spelling.WithThreshold(ratio))
	}
}

// New builds an Engine over the given provider and inventory. The engine is
// not usable until Warmup succeeds.
func New(provider embeddings.Provider, inv *inventory.Inventory, opts ...Option) *Engine {
	e := &Engine{
		provider:      provider,
		inv:           inv,
		strategy:      NewStandardStrategy(),
		log:           slog.Default(),
		groupTopK:     DefaultGroupTopK,
		corrector:     spelling.New(inv.Vocabulary()),
		nameCorrector: spelling.New(knownNames, spelling.WithCasePreservation()),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Warmup loads the precomputed phrase and centroid vectors from the attached
// store, or computes them through the provider when nothing valid is cached.
// A failed embedding backend makes Warmup fail: the engine never starts with
// partial vectors.
func (e *Engine) Warmup(ctx context.Context) error {
	key := vectorcache.Key{ModelID: e.provider.ModelID(), InventoryHash: e.inv.Hash()}

	if e.store != nil {
		artifact, err := e.store.Load(ctx, key)
		switch {
		case err == nil:
			if err := e.install(artifact); err == nil {
				observe.RecordCacheEvent(ctx, "hit")
				e.log.Info("vector cache hit",
					slog.String("model", key.ModelID),
					slog.String("inventory_hash", key.InventoryHash))
				return nil
			}
			observe.RecordCacheEvent(ctx, "mismatch")
		case errors.Is(err, vectorcache.ErrNotFound):
			observe.RecordCacheEvent(ctx, "miss")
		case errors.Is(err, vectorcache.ErrMismatch):
			observe.RecordCacheEvent(ctx, "mismatch")
			e.log.Info("vector cache invalidated", slog.String("reason", err.Error()))
		default:
			e.log.Warn("vector cache load failed", slog.String("error", err.Error()))
		}
	}

	artifact, err := e.compute(ctx, key)
	if err != nil {
		return err
	}
	if err := e.install(artifact); err != nil {
		return fmt.Errorf("matcher: warmup: %w", err)
	}

	if e.store != nil {
		if err := e.store.Save(ctx, artifact); err != nil {
			// Saving is best-effort: the engine already holds the vectors.
			observe.RecordCacheEvent(ctx, "save_error")
			e.log.Warn("vector cache save failed", slog.String("error", err.Error()))
		} else {
			observe.RecordCacheEvent(ctx, "saved")
		}
	}
	return nil
}

// compute embeds every phrase of every group, one batch per group, groups in
// parallel.
func (e *Engine) compute(ctx context.Context, key vectorcache.Key) (*vectorcache.Artifact, error) {
	groups := e.inv.Groups()
	vectors := make([][][]float32, len(groups))

	eg, gctx := errgroup.WithContext(ctx)
	for i, g := range groups {
		eg.Go(func() error {
			texts := make([]string, len(g.Phrases))
			for j, p := range g.Phrases {
				texts[j] = textnorm.Normalize(p)
			}
			start := time.Now()
			vecs, err := e.provider.EmbedBatch(gctx, texts)
			observe.RecordEmbed(gctx, e.provider.ModelID(), time.Since(start), err)
			if err != nil {
				return fmt.Errorf("matcher: embed group %s: %w", g.ID, err)
			}
			vectors[i] = vecs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	artifact := &vectorcache.Artifact{
		Version:       vectorcache.ArtifactVersion,
		ModelID:       key.ModelID,
		InventoryHash: key.InventoryHash,
		Dimensions:    e.provider.Dimensions(),
		Groups:        make([]vectorcache.GroupVectors, len(groups)),
	}
	for i, g := range groups {
		artifact.Groups[i] = vectorcache.GroupVectors{
			GroupID:  g.ID,
			Phrases:  vectors[i],
			Centroid: mean(vectors[i]),
		}
	}
	if err := artifact.Validate(key); err != nil {
		return nil, fmt.Errorf("matcher: computed vectors are inconsistent: %w", err)
	}
	return artifact, nil
}

// install builds the in-memory working set from an artifact, checking that
// it lines up with the current inventory group by group.
func (e *Engine) install(artifact *vectorcache.Artifact) error {
	groups := e.inv.Groups()
	if len(artifact.Groups) != len(groups) {
		return fmt.Errorf("matcher: artifact has %d groups, inventory has %d", len(artifact.Groups), len(groups))
	}

	working := make([]groupVectors, len(groups))
	for i, g := range groups {
		ag := artifact.Groups[i]
		if ag.GroupID != g.ID {
			return fmt.Errorf("matcher: artifact group %q at position %d, expected %q", ag.GroupID, i, g.ID)
		}
		if len(ag.Phrases) != len(g.Phrases) {
			return fmt.Errorf("matcher: artifact group %s has %d vectors, inventory has %d phrases", g.ID, len(ag.Phrases), len(g.Phrases))
		}
		w := groupVectors{
			group:        g,
			normPhrases:  make([]string, len(g.Phrases)),
			phraseTokens: make([][]string, len(g.Phrases)),
			vectors:      ag.Phrases,
			centroid:     ag.Centroid,
		}
		for j, p := range g.Phrases {
			w.normPhrases[j] = textnorm.Normalize(p)
			w.phraseTokens[j] = textnorm.Tokens(w.normPhrases[j])
		}
		working[i] = w
	}

	e.mu.Lock()
	e.groups = working
	e.mu.Unlock()
	return nil
}

// candidate tracks the running best phrase during the fine search.
type candidate struct {
	groupIdx  int
	phraseIdx int
	raw       float64
	adjusted  float64
}

// Match resolves query to either an inventory phrase or a spelled-out form.
func (e *Engine) Match(ctx context.Context, query string) (Result, error) {
	start := time.Now()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return Result{}, ErrEmptyQuery
	}

	e.mu.RLock()
	groups := e.groups
	e.mu.RUnlock()
	if groups == nil {
		return Result{}, ErrNotReady
	}

	ctx, span := observe.Tracer().Start(ctx, "matcher.Match")
	defer span.End()

	norm := textnorm.Normalize(trimmed)
	if norm == "" {
		return Result{}, ErrEmptyQuery
	}
	rawTokens := textnorm.Tokens(norm)
	corrected := e.corrector.Correct(norm)
	queryTokens := textnorm.Tokens(corrected)

	embedStart := time.Now()
	qvec, err := e.provider.Embed(ctx, corrected)
	observe.RecordEmbed(ctx, e.provider.ModelID(), time.Since(embedStart), err)
	if err != nil {
		return Result{}, fmt.Errorf("matcher: embed query: %w", err)
	}

	ranked := e.rankGroups(groups, qvec)
	k := e.groupTopK
	if k > len(ranked) {
		k = len(ranked)
	}
	topGroup := ranked[0]

	// The shortlist is walked in inventory order, not coarse-rank order, so
	// the final tie-break in better falls to the inventory's canonical order.
	shortlist := append([]int(nil), ranked[:k]...)
	sort.Ints(shortlist)

	best := candidate{groupIdx: -1}
	for _, gi := range shortlist {
		g := &groups[gi]
		for pi := range g.vectors {
			raw := cosine(qvec, g.vectors[pi])
			adjusted := e.strategy.Adjust(raw, scoreContext{
				queryTokens:  queryTokens,
				phrase:       g.normPhrases[pi],
				phraseTokens: g.phraseTokens[pi],
				topGroup:     gi == topGroup,
			})
			if e.better(candidate{gi, pi, raw, adjusted}, best, groups) {
				best = candidate{gi, pi, raw, adjusted}
			}
		}
	}

	bestGroup := groups[best.groupIdx]
	score := clip01(best.adjusted)

	if score < bestGroup.group.SpellOutThreshold && looksLikeProperNoun(trimmed, rawTokens, score, e.inv) {
		letters, total := e.Spell(trimmed, true)
		observe.RecordMatch(ctx, string(KindSpelledOut), "", time.Since(start))
		e.log.Debug("query spelled out",
			slog.String("query", trimmed),
			slog.Float64("best_score", score))
		return Result{
			Kind:            KindSpelledOut,
			Query:           query,
			Score:           score,
			Letters:         letters,
			TotalCharacters: total,
		}, nil
	}

	result := Result{
		Kind:           KindMatched,
		Query:          query,
		Group:          bestGroup.group.ID,
		Phrase:         bestGroup.group.Phrases[best.phraseIdx],
		Score:          score,
		BelowThreshold: score < bestGroup.group.SimilarityThreshold,
	}
	observe.RecordMatch(ctx, string(KindMatched), result.Group, time.Since(start))
	e.log.Debug("query matched",
		slog.String("query", trimmed),
		slog.String("group", result.Group),
		slog.String("phrase", result.Phrase),
		slog.Float64("score", score),
		slog.Bool("below_threshold", result.BelowThreshold))
	return result, nil
}

// rankGroups orders group indices by descending centroid similarity.
// Equal similarities keep inventory order.
func (e *Engine) rankGroups(groups []groupVectors, qvec []float32) []int {
	scores := make([]float64, len(groups))
	order := make([]int, len(groups))
	for i := range groups {
		scores[i] = cosine(qvec, groups[i].centroid)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}

// better reports whether a beats b: higher adjusted score, then higher raw
// score, then the shorter phrase. Remaining ties keep the earlier candidate;
// the fine search visits candidates in inventory order, so that order decides.
func (e *Engine) better(a, b candidate, groups []groupVectors) bool {
	if b.groupIdx == -1 {
		return true
	}
	if a.adjusted != b.adjusted {
		return a.adjusted > b.adjusted
	}
	if a.raw != b.raw {
		return a.raw > b.raw
	}
	return len(groups[a.groupIdx].normPhrases[a.phraseIdx]) < len(groups[b.groupIdx].normPhrases[b.phraseIdx])
}

// Spell returns the spoken form of each character of text plus the spelled
// character count. Leet substitutions are resolved case-preservingly and
// single tokens close to a known name snap to its canonical spelling first,
// so "Acapulc@" is spelled A-C-A-P-U-L-C-O.
func (e *Engine) Spell(text string, includeSpaces bool) ([]string, int) {
	prepped := e.prepareForSpelling(text)
	return speller.Spell(prepped, includeSpaces)
}

// prepareForSpelling resolves leet and snaps name-like tokens to their
// canonical spelling while keeping the original casing shape.
func (e *Engine) prepareForSpelling(text string) string {
	t := textnorm.NormalizeLeet(strings.TrimSpace(text))
	tokens := strings.Fields(t)
	for i, tok := range tokens {
		if corrected, ok := e.nameCorrector.CorrectToken(textnorm.StripDiacritics(tok)); ok {
			tokens[i] = corrected
		}
	}
	return strings.Join(tokens, " ")
}

// Ready reports whether the engine has been warmed up. Returns ErrNotReady
// otherwise.
func (e *Engine) Ready() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.groups == nil {
		return ErrNotReady
	}
	return nil
}

// ListGroups returns a fresh group-ID → phrases mapping for read-only
// introspection.
func (e *Engine) ListGroups() map[string][]string { return e.inv.ListPhrases() }

// Inventory exposes the engine's phrase inventory for read-only
// introspection.
func (e *Engine) Inventory() *inventory.Inventory { return e.inv }
