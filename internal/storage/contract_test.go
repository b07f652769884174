package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spark-cjbot/axon/internal/graph"
)

func TestBadgerContractOps(t *testing.T) {
	t.Parallel()

	newStore := func(t *testing.T) *BadgerBackend {
		t.Helper()
		store := NewBadgerBackend()
		require.NoError(t, store.Initialize(filepath.Join(t.TempDir(), "badger"), false))
		t.Cleanup(func() { _ = store.Close() })
		return store
	}

	t.Run("UpsertNodesIdempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		rows := []*graph.GraphNode{
			{ID: "function:a.py:f", Label: graph.NodeFunction, Name: "f", FilePath: "a.py"},
		}
		require.NoError(t, store.UpsertNodes(ctx, graph.NodeFunction, rows))
		require.NoError(t, store.UpsertNodes(ctx, graph.NodeFunction, rows))

		node, err := store.GetNode(ctx, "function:a.py:f")
		require.NoError(t, err)
		require.NotNil(t, node)
		assert.Equal(t, "f", node.Name)
	})

	t.Run("UpsertNodesFiltersKind", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		rows := []*graph.GraphNode{
			{ID: "function:a.py:f", Label: graph.NodeFunction, Name: "f"},
			{ID: "class:a.py:C", Label: graph.NodeClass, Name: "C"},
		}
		require.NoError(t, store.UpsertNodes(ctx, graph.NodeClass, rows))

		fn, _ := store.GetNode(ctx, "function:a.py:f")
		assert.Nil(t, fn)
		class, _ := store.GetNode(ctx, "class:a.py:C")
		assert.NotNil(t, class)
	})

	t.Run("UpsertEdges", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		nodes := []*graph.GraphNode{
			{ID: "function:a.py:f", Label: graph.NodeFunction, Name: "f"},
			{ID: "function:b.py:g", Label: graph.NodeFunction, Name: "g"},
		}
		require.NoError(t, store.UpsertNodes(ctx, "", nodes))

		edges := []*graph.GraphRelationship{
			{
				ID:         graph.EdgeID(graph.RelCalls, "function:a.py:f", "function:b.py:g", ""),
				Type:       graph.RelCalls,
				Source:     "function:a.py:f",
				Target:     "function:b.py:g",
				Properties: map[string]any{"confidence": 1.0},
			},
		}
		require.NoError(t, store.UpsertEdges(ctx, graph.RelCalls, edges))
		require.NoError(t, store.UpsertEdges(ctx, graph.RelCalls, edges))

		callers, err := store.GetCallers(ctx, "function:b.py:g")
		require.NoError(t, err)
		require.Len(t, callers, 1)
		assert.Equal(t, "f", callers[0].Name)
	})

	t.Run("CreateIndexes", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		assert.NoError(t, store.CreateFTSIndex(ctx, graph.NodeFunction, []string{"name", "content"}))
		assert.NoError(t, store.CreateVectorIndex(ctx, graph.NodeFunction, "embedding", 384, "cosine"))
		assert.Error(t, store.CreateVectorIndex(ctx, graph.NodeFunction, "embedding", 0, "cosine"))
		assert.Error(t, store.CreateVectorIndex(ctx, graph.NodeFunction, "embedding", 384, "dotproduct"))
	})

	t.Run("QueryCypherUnsupported", func(t *testing.T) {
		store := newStore(t)
		_, err := store.QueryCypher(context.Background(), "MATCH (n) RETURN n", nil)
		assert.ErrorIs(t, err, ErrCypherUnsupported)
	})
}

func TestWriteAndReadMeta(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	err := WriteMeta(tmpDir, Meta{
		Commit:       "abc123",
		PhaseTimings: map[string]float64{"parse": 0.5},
		Counts:       map[string]int{"nodes": 10},
	})
	require.NoError(t, err)

	meta, err := ReadMeta(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, meta.SchemaVersion)
	assert.Equal(t, "abc123", meta.Commit)
	assert.Equal(t, 0.5, meta.PhaseTimings["parse"])
	assert.Equal(t, 10, meta.Counts["nodes"])
	assert.False(t, meta.IndexedAt.IsZero())
}
