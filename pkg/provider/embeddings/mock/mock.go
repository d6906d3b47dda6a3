// Package mock provides a deterministic in-process embeddings provider for
// tests. Vectors are derived from character trigram counts, so identical
// texts embed identically (cosine 1.0) and texts sharing no trigrams score
// near zero.
package mock

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/JMJuarez/modulo-pln-vf/pkg/provider/embeddings"
)

var _ embeddings.Provider = (*Provider)(nil)

// Provider is a fake embeddings.Provider backed by trigram hashing.
type Provider struct {
	dimensions int

	// EmbedErr, when set, is returned by every Embed and EmbedBatch call.
	EmbedErr error

	// Calls counts backend invocations (Embed and EmbedBatch each count as
	// one).
	Calls atomic.Int64
}

// New returns a mock Provider producing unit vectors of the given length.
func New(dimensions int) *Provider {
	if dimensions <= 0 {
		dimensions = 64
	}
	return &Provider{dimensions: dimensions}
}

// Embed implements embeddings.Provider.
func (p *Provider) Embed(_ context.Context, text string) ([]float32, error) {
	p.Calls.Add(1)
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	return p.vector(text), nil
}

// EmbedBatch implements embeddings.Provider.
func (p *Provider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	p.Calls.Add(1)
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.vector(t)
	}
	return out, nil
}

// Dimensions implements embeddings.Provider.
func (p *Provider) Dimensions() int { return p.dimensions }

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string { return "mock-trigram" }

// vector hashes each character trigram of text into a bucket and returns the
// L2-normalised bucket counts. Short texts fall back to the whole string as a
// single trigram.
func (p *Provider) vector(text string) []float32 {
	v := make([]float32, p.dimensions)
	runes := []rune(text)
	if len(runes) < 3 {
		bucket := xxhash.Sum64String(text) % uint64(p.dimensions)
		v[bucket] = 1
		return v
	}
	for i := 0; i+3 <= len(runes); i++ {
		bucket := xxhash.Sum64String(string(runes[i:i+3])) % uint64(p.dimensions)
		v[bucket]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range v {
			v[i] = float32(float64(v[i]) / norm)
		}
	}
	return v
}
