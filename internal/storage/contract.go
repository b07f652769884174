package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/spark-cjbot/axon/internal/graph"
)

// ErrCypherUnsupported is returned by backends without a Cypher executor.
var ErrCypherUnsupported = errors.New("cypher queries are not supported by this backend")

// StorageError wraps a fatal backend failure so callers can distinguish it
// from per-item conditions.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// The methods below are the adapter-facing contract the pipeline hands a
// finalized graph to. All operations are atomic per call and idempotent:
// upserts key on node ID / (source, target, type, role), index creation is
// re-creatable.

// UpsertNodes inserts or replaces nodes of one kind, idempotent by node ID.
func (b *BadgerBackend) UpsertNodes(ctx context.Context, kind graph.NodeLabel, rows []*graph.GraphNode) error {
	filtered := filterNodesByKind(kind, rows)
	if err := b.AddNodes(ctx, filtered); err != nil {
		return &StorageError{Op: "upsert_nodes", Err: err}
	}
	return nil
}

// UpsertEdges inserts or replaces edges of one type, idempotent by
// (source, target, type, role).
func (b *BadgerBackend) UpsertEdges(ctx context.Context, relType graph.RelType, rows []*graph.GraphRelationship) error {
	filtered := filterEdgesByType(relType, rows)
	if err := b.AddRelationships(ctx, filtered); err != nil {
		return &StorageError{Op: "upsert_edges", Err: err}
	}
	return nil
}

// CreateFTSIndex (re)builds the full-text index over the given node kind.
// The Badger backend maintains one token index across kinds, so this simply
// rebuilds it.
func (b *BadgerBackend) CreateFTSIndex(ctx context.Context, kind graph.NodeLabel, fields []string) error {
	if err := b.RebuildFTSIndexes(ctx); err != nil {
		return &StorageError{Op: "create_fts_index", Err: err}
	}
	return nil
}

// CreateVectorIndex declares the vector search space. The Badger backend
// scans embeddings brute-force, so the call only validates parameters.
func (b *BadgerBackend) CreateVectorIndex(ctx context.Context, kind graph.NodeLabel, field string, dim int, metric string) error {
	if dim <= 0 {
		return &StorageError{Op: "create_vector_index", Err: fmt.Errorf("invalid dimension %d", dim)}
	}
	if metric != "" && metric != "cosine" {
		return &StorageError{Op: "create_vector_index", Err: fmt.Errorf("unsupported metric %q", metric)}
	}
	return nil
}

// QueryCypher is read-only per the contract; the Badger backend carries no
// Cypher executor and refuses.
func (b *BadgerBackend) QueryCypher(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return nil, ErrCypherUnsupported
}

// UpsertNodes implements the contract for the in-memory backend.
func (m *MemoryBackend) UpsertNodes(ctx context.Context, kind graph.NodeLabel, rows []*graph.GraphNode) error {
	return m.AddNodes(ctx, filterNodesByKind(kind, rows))
}

// UpsertEdges implements the contract for the in-memory backend.
func (m *MemoryBackend) UpsertEdges(ctx context.Context, relType graph.RelType, rows []*graph.GraphRelationship) error {
	return m.AddRelationships(ctx, filterEdgesByType(relType, rows))
}

// CreateFTSIndex implements the contract for the in-memory backend.
func (m *MemoryBackend) CreateFTSIndex(ctx context.Context, kind graph.NodeLabel, fields []string) error {
	return m.RebuildFTSIndexes(ctx)
}

// CreateVectorIndex implements the contract for the in-memory backend.
func (m *MemoryBackend) CreateVectorIndex(ctx context.Context, kind graph.NodeLabel, field string, dim int, metric string) error {
	return nil
}

// QueryCypher implements the contract for the in-memory backend.
func (m *MemoryBackend) QueryCypher(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return nil, ErrCypherUnsupported
}

// RelationshipCount reports zero: the in-memory backend stores nodes only.
func (m *MemoryBackend) RelationshipCount() int {
	return 0
}

func filterNodesByKind(kind graph.NodeLabel, rows []*graph.GraphNode) []*graph.GraphNode {
	if kind == "" {
		return rows
	}
	filtered := make([]*graph.GraphNode, 0, len(rows))
	for _, row := range rows {
		if row.Label == kind {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func filterEdgesByType(relType graph.RelType, rows []*graph.GraphRelationship) []*graph.GraphRelationship {
	if relType == "" {
		return rows
	}
	filtered := make([]*graph.GraphRelationship, 0, len(rows))
	for _, row := range rows {
		if row.Type == relType {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
