// Package postgres implements a vectorcache.Store on PostgreSQL with the
// pgvector extension, for deployments where several replicas share one
// precomputed vector set instead of each keeping a local file.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/JMJuarez/modulo-pln-vf/internal/vectorcache"
)

var _ vectorcache.Store = (*Store)(nil)

// Store persists vector artifacts in two tables keyed by (model_id,
// inventory_hash). Saving an artifact removes rows for any other key, so
// the tables always hold at most one artifact.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL, registers the pgvector types, and runs the
// schema migration. dimensions fixes the vector column width; changing the
// embedding model to one with a different width requires dropping the tables.
func New(ctx context.Context, dsn string, dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("vectorcache postgres: dimensions must be positive, got %d", dimensions)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorcache postgres: parse dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("vectorcache postgres: connect: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx, dimensions); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the extension and tables if they do not exist.
func (s *Store) migrate(ctx context.Context, dimensions int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS phrase_vectors (
			model_id       TEXT        NOT NULL,
			inventory_hash TEXT        NOT NULL,
			group_id       TEXT        NOT NULL,
			phrase_index   INT         NOT NULL,
			embedding      vector(%d)  NOT NULL,
			PRIMARY KEY (model_id, inventory_hash, group_id, phrase_index)
		)`, dimensions),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS group_centroids (
			model_id       TEXT        NOT NULL,
			inventory_hash TEXT        NOT NULL,
			group_id       TEXT        NOT NULL,
			group_index    INT         NOT NULL,
			embedding      vector(%d)  NOT NULL,
			PRIMARY KEY (model_id, inventory_hash, group_id)
		)`, dimensions),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("vectorcache postgres: migrate: %w", err)
		}
	}
	return nil
}

// Load implements vectorcache.Store.
func (s *Store) Load(ctx context.Context, key vectorcache.Key) (*vectorcache.Artifact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT group_id, group_index, embedding
		   FROM group_centroids
		  WHERE model_id = $1 AND inventory_hash = $2
		  ORDER BY group_index`,
		key.ModelID, key.InventoryHash)
	if err != nil {
		return nil, fmt.Errorf("vectorcache postgres: load centroids: %w", err)
	}
	defer rows.Close()

	artifact := &vectorcache.Artifact{
		Version:       vectorcache.ArtifactVersion,
		ModelID:       key.ModelID,
		InventoryHash: key.InventoryHash,
	}
	for rows.Next() {
		var (
			g   vectorcache.GroupVectors
			idx int
			vec pgvector.Vector
		)
		if err := rows.Scan(&g.GroupID, &idx, &vec); err != nil {
			return nil, fmt.Errorf("vectorcache postgres: scan centroid: %w", err)
		}
		g.Centroid = vec.Slice()
		artifact.Groups = append(artifact.Groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorcache postgres: load centroids: %w", err)
	}
	if len(artifact.Groups) == 0 {
		return nil, vectorcache.ErrNotFound
	}
	artifact.Dimensions = len(artifact.Groups[0].Centroid)

	for i := range artifact.Groups {
		g := &artifact.Groups[i]
		prows, err := s.pool.Query(ctx,
			`SELECT embedding
			   FROM phrase_vectors
			  WHERE model_id = $1 AND inventory_hash = $2 AND group_id = $3
			  ORDER BY phrase_index`,
			key.ModelID, key.InventoryHash, g.GroupID)
		if err != nil {
			return nil, fmt.Errorf("vectorcache postgres: load phrases for %s: %w", g.GroupID, err)
		}
		for prows.Next() {
			var vec pgvector.Vector
			if err := prows.Scan(&vec); err != nil {
				prows.Close()
				return nil, fmt.Errorf("vectorcache postgres: scan phrase for %s: %w", g.GroupID, err)
			}
			g.Phrases = append(g.Phrases, vec.Slice())
		}
		err = prows.Err()
		prows.Close()
		if err != nil {
			return nil, fmt.Errorf("vectorcache postgres: load phrases for %s: %w", g.GroupID, err)
		}
	}

	if err := artifact.Validate(key); err != nil {
		return nil, err
	}
	return artifact, nil
}

// Save implements vectorcache.Store. The whole write runs in one
// transaction: stale rows for other keys are deleted, then the new vectors
// inserted, so readers never observe a half-written artifact.
func (s *Store) Save(ctx context.Context, artifact *vectorcache.Artifact) error {
	key := vectorcache.Key{ModelID: artifact.ModelID, InventoryHash: artifact.InventoryHash}
	if err := artifact.Validate(key); err != nil {
		return fmt.Errorf("vectorcache postgres: refusing to save invalid artifact: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("vectorcache postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"phrase_vectors", "group_centroids"} {
		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE model_id <> $1 OR inventory_hash <> $2`, table),
			key.ModelID, key.InventoryHash); err != nil {
			return fmt.Errorf("vectorcache postgres: delete stale %s: %w", table, err)
		}
	}

	for gi, g := range artifact.Groups {
		if _, err := tx.Exec(ctx,
			`INSERT INTO group_centroids (model_id, inventory_hash, group_id, group_index, embedding)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (model_id, inventory_hash, group_id)
			 DO UPDATE SET group_index = EXCLUDED.group_index, embedding = EXCLUDED.embedding`,
			key.ModelID, key.InventoryHash, g.GroupID, gi, pgvector.NewVector(g.Centroid)); err != nil {
			return fmt.Errorf("vectorcache postgres: save centroid for %s: %w", g.GroupID, err)
		}
		for pi, vec := range g.Phrases {
			if _, err := tx.Exec(ctx,
				`INSERT INTO phrase_vectors (model_id, inventory_hash, group_id, phrase_index, embedding)
				 VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (model_id, inventory_hash, group_id, phrase_index)
				 DO UPDATE SET embedding = EXCLUDED.embedding`,
				key.ModelID, key.InventoryHash, g.GroupID, pi, pgvector.NewVector(vec)); err != nil {
				return fmt.Errorf("vectorcache postgres: save phrase %d for %s: %w", pi, g.GroupID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("vectorcache postgres: commit: %w", err)
	}
	return nil
}

// Ping verifies the database connection, for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("vectorcache postgres: ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
