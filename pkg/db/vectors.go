package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/fylr-platform/core/pkg/domain"
)

// VectorRepo persists domain.DocumentVector rows.
type VectorRepo struct {
	conn *sql.DB
}

func NewVectorRepo(conn *sql.DB) *VectorRepo {
	return &VectorRepo{conn: conn}
}

// ReplaceForSource deletes every existing vector row for sourceID and
// inserts vectors in its place, all inside one transaction, so a re-ingest
// never leaves the table in a half-updated state (spec.md §4.F stage 5,
// DocumentVector invariant (c)).
func (r *VectorRepo) ReplaceForSource(ctx context.Context, sourceID string, vectors []*domain.DocumentVector) error {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db: begin replace vectors tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE file_id = $1`, sourceID); err != nil {
		return fmt.Errorf("db: delete existing vectors for %s: %w", sourceID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (id, file_id, embedding, content, chunk_index)
		VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("db: prepare vector insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range vectors {
		if len(v.Embedding) != domain.EmbeddingDimensions {
			return fmt.Errorf("db: vector %s has dimension %d, want %d", v.ID, len(v.Embedding), domain.EmbeddingDimensions)
		}
		if _, err := stmt.ExecContext(ctx, v.ID, sourceID, pgvector.NewVector(v.Embedding), v.Content, v.ChunkIndex); err != nil {
			return fmt.Errorf("db: insert vector %s: %w", v.ID, err)
		}
	}

	return tx.Commit()
}

// OrderedForSource returns a Source's vectors ordered by chunk_index, the
// shape the re-ingestion worker re-embeds in place (spec.md §4.F
// re-ingestion variant: existing chunk content is kept, only the
// embedding column changes).
func (r *VectorRepo) OrderedForSource(ctx context.Context, sourceID string) ([]*domain.DocumentVector, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT id, content, chunk_index
		FROM vectors WHERE file_id = $1
		ORDER BY chunk_index`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("db: load ordered vectors for %s: %w", sourceID, err)
	}
	defer rows.Close()

	var out []*domain.DocumentVector
	for rows.Next() {
		v := &domain.DocumentVector{SourceID: sourceID}
		if err := rows.Scan(&v.ID, &v.Content, &v.ChunkIndex); err != nil {
			return nil, fmt.Errorf("db: scan ordered vector row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateEmbeddings overwrites the embedding column of each given vector
// ID in place, inside one transaction, without touching content or
// chunk_index — the re-ingestion path never deletes or reinserts rows,
// unlike ReplaceForSource.
func (r *VectorRepo) UpdateEmbeddings(ctx context.Context, vectors []*domain.DocumentVector) error {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db: begin update embeddings tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE vectors SET embedding = $2 WHERE id = $1`)
	if err != nil {
		return fmt.Errorf("db: prepare embedding update: %w", err)
	}
	defer stmt.Close()

	for _, v := range vectors {
		if len(v.Embedding) != domain.EmbeddingDimensions {
			return fmt.Errorf("db: vector %s has dimension %d, want %d", v.ID, len(v.Embedding), domain.EmbeddingDimensions)
		}
		if _, err := stmt.ExecContext(ctx, v.ID, pgvector.NewVector(v.Embedding)); err != nil {
			return fmt.Errorf("db: update embedding %s: %w", v.ID, err)
		}
	}

	return tx.Commit()
}

// NearestNeighbor is one row of a k-NN search result: the chunk, its
// owning Source's id/name, and its cosine distance from the query.
type NearestNeighbor struct {
	VectorID   string
	Content    string
	ChunkIndex int
	SourceID   string
	SourceName string
	Distance   float64
}

// SearchLibrary returns the topN nearest chunks (ascending cosine
// distance) among every Source belonging to libraryID (spec.md §4.G).
func (r *VectorRepo) SearchLibrary(ctx context.Context, libraryID string, query []float32, topN int) ([]NearestNeighbor, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT v.id, v.content, v.chunk_index, s.id, s.name,
		       v.embedding <=> $1 AS distance
		FROM vectors v
		JOIN sources s ON s.id = v.file_id
		WHERE s.library_id = $2
		ORDER BY v.embedding <=> $1
		LIMIT $3`, pgvector.NewVector(query), libraryID, topN)
	if err != nil {
		return nil, fmt.Errorf("db: search library %s: %w", libraryID, err)
	}
	defer rows.Close()

	var out []NearestNeighbor
	for rows.Next() {
		var n NearestNeighbor
		if err := rows.Scan(&n.VectorID, &n.Content, &n.ChunkIndex, &n.SourceID, &n.SourceName, &n.Distance); err != nil {
			return nil, fmt.Errorf("db: scan search row: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// SourceWithVectors is a Source plus its chunks ordered by chunk_index,
// used by the podcast generator to assemble its clustering corpus
// (spec.md §4.J step 1).
type SourceWithVectors struct {
	Source  *domain.Source
	Vectors []*domain.DocumentVector
}

// LibraryCorpus loads every Source in libraryID along with its vectors,
// ordered by chunk_index within each Source.
func (r *VectorRepo) LibraryCorpus(ctx context.Context, libraryID string) ([]SourceWithVectors, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT s.id, s.name, v.id, v.content, v.chunk_index, v.embedding
		FROM sources s
		JOIN vectors v ON v.file_id = s.id
		WHERE s.library_id = $1
		ORDER BY s.id, v.chunk_index`, libraryID)
	if err != nil {
		return nil, fmt.Errorf("db: load library corpus %s: %w", libraryID, err)
	}
	defer rows.Close()

	bySource := make(map[string]*SourceWithVectors)
	var order []string

	for rows.Next() {
		var sourceID, sourceName string
		var vec domain.DocumentVector
		var embedding pgvector.Vector
		if err := rows.Scan(&sourceID, &sourceName, &vec.ID, &vec.Content, &vec.ChunkIndex, &embedding); err != nil {
			return nil, fmt.Errorf("db: scan corpus row: %w", err)
		}
		vec.SourceID = sourceID
		vec.Embedding = embedding.Slice()

		entry, ok := bySource[sourceID]
		if !ok {
			entry = &SourceWithVectors{Source: &domain.Source{ID: sourceID, Name: sourceName}}
			bySource[sourceID] = entry
			order = append(order, sourceID)
		}
		entry.Vectors = append(entry.Vectors, &vec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]SourceWithVectors, 0, len(order))
	for _, id := range order {
		out = append(out, *bySource[id])
	}
	return out, nil
}
