// Package vectorcache persists precomputed phrase and centroid vectors so
// that restarts do not re-embed an unchanged inventory. A cached artifact is
// only valid for the exact (model, inventory) pair it was computed from;
// any mismatch is treated as a miss and the vectors are recomputed.
package vectorcache

import (
	"context"
	"errors"
	"fmt"
)

// ArtifactVersion is bumped whenever the serialised artifact layout changes.
const ArtifactVersion = 1

// ErrMismatch reports that a stored artifact exists but was computed for a
// different model, inventory, or artifact version. Callers treat it as a
// cache miss.
var ErrMismatch = errors.New("vectorcache: artifact does not match current model and inventory")

// ErrNotFound reports that no artifact is stored for the requested key.
var ErrNotFound = errors.New("vectorcache: artifact not found")

// Key identifies the exact artifact a caller needs.
type Key struct {
	// ModelID is the embedding model that produced the vectors.
	ModelID string

	// InventoryHash is the content hash of the phrase inventory.
	InventoryHash string
}

// GroupVectors holds the precomputed vectors of one group: one vector per
// phrase (in inventory order) plus the group centroid.
type GroupVectors struct {
	GroupID  string      `json:"group_id"`
	Phrases  [][]float32 `json:"phrases"`
	Centroid []float32   `json:"centroid"`
}

// Artifact is the full persisted vector set for one (model, inventory) pair.
type Artifact struct {
	Version       int            `json:"version"`
	ModelID       string         `json:"model_id"`
	InventoryHash string         `json:"inventory_hash"`
	Dimensions    int            `json:"dimensions"`
	Groups        []GroupVectors `json:"groups"`
}

// Validate checks the artifact against key: version, model, inventory hash,
// and per-vector dimensionality must all agree. Any discrepancy returns an
// error wrapping ErrMismatch so the caller recomputes instead of serving
// stale vectors.
func (a *Artifact) Validate(key Key) error {
	if a.Version != ArtifactVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrMismatch, a.Version, ArtifactVersion)
	}
	if a.ModelID != key.ModelID {
		return fmt.Errorf("%w: model %q, want %q", ErrMismatch, a.ModelID, key.ModelID)
	}
	if a.InventoryHash != key.InventoryHash {
		return fmt.Errorf("%w: inventory hash %q, want %q", ErrMismatch, a.InventoryHash, key.InventoryHash)
	}
	if a.Dimensions <= 0 {
		return fmt.Errorf("%w: dimensions %d", ErrMismatch, a.Dimensions)
	}
	for _, g := range a.Groups {
		if len(g.Centroid) != a.Dimensions {
			return fmt.Errorf("%w: group %s centroid has %d dimensions, want %d", ErrMismatch, g.GroupID, len(g.Centroid), a.Dimensions)
		}
		for i, v := range g.Phrases {
			if len(v) != a.Dimensions {
				return fmt.Errorf("%w: group %s phrase %d has %d dimensions, want %d", ErrMismatch, g.GroupID, i, len(v), a.Dimensions)
			}
		}
	}
	return nil
}

// Store persists and retrieves artifacts. Implementations must be safe for
// concurrent use.
type Store interface {
	// Load returns the artifact for key. ErrNotFound when nothing is stored;
	// an error wrapping ErrMismatch when a stored artifact fails validation.
	Load(ctx context.Context, key Key) (*Artifact, error)

	// Save persists the artifact, replacing any previous one for a different
	// key. Save validates the artifact against its own embedded key first.
	Save(ctx context.Context, artifact *Artifact) error
}
