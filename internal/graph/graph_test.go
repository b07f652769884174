package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph() *KnowledgeGraph {
	g := NewKnowledgeGraph()
	g.AddNode(&GraphNode{ID: "file:a.py", Label: NodeFile, Name: "a.py", FilePath: "a.py"})
	g.AddNode(&GraphNode{ID: "function:a.py:f", Label: NodeFunction, Name: "f", FilePath: "a.py"})
	g.AddNode(&GraphNode{ID: "function:b.py:g", Label: NodeFunction, Name: "g", FilePath: "b.py"})
	g.AddRelationship(&GraphRelationship{
		ID:     "calls:function:a.py:f>function:b.py:g",
		Type:   RelCalls,
		Source: "function:a.py:f",
		Target: "function:b.py:g",
	})
	return g
}

func TestKnowledgeGraph_AddAndGet(t *testing.T) {
	t.Parallel()

	g := newTestGraph()

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 1, g.RelationshipCount())

	node := g.GetNode("function:a.py:f")
	require.NotNil(t, node)
	assert.Equal(t, "f", node.Name)

	assert.Nil(t, g.GetNode("function:missing.py:x"))
}

func TestKnowledgeGraph_Indexes(t *testing.T) {
	t.Parallel()

	g := newTestGraph()

	functions := g.GetNodesByLabel(NodeFunction)
	assert.Len(t, functions, 2)

	byName := g.GetSymbolsByName("g")
	require.Len(t, byName, 1)
	assert.Equal(t, "function:b.py:g", byName[0].ID)

	calls := g.GetRelationshipsByType(RelCalls)
	assert.Len(t, calls, 1)

	assert.True(t, g.HasIncoming("function:b.py:g", RelCalls))
	assert.False(t, g.HasIncoming("function:a.py:f", RelCalls))
}

func TestKnowledgeGraph_Adjacency(t *testing.T) {
	t.Parallel()

	g := newTestGraph()

	callees := g.GetCallees("function:a.py:f")
	require.Len(t, callees, 1)
	assert.Equal(t, "g", callees[0].Name)

	callers := g.GetCallers("function:b.py:g")
	require.Len(t, callers, 1)
	assert.Equal(t, "f", callers[0].Name)
}

func TestKnowledgeGraph_RemoveNode(t *testing.T) {
	t.Parallel()

	g := newTestGraph()

	removed := g.RemoveNode("function:b.py:g")
	assert.True(t, removed)

	// Cascade removed the CALLS edge.
	assert.Equal(t, 0, g.RelationshipCount())
	assert.Empty(t, g.GetOutgoing("function:a.py:f"))

	assert.False(t, g.RemoveNode("function:b.py:g"))
}

func TestKnowledgeGraph_RemoveNodesByFile(t *testing.T) {
	t.Parallel()

	g := newTestGraph()

	count := g.RemoveNodesByFile("a.py")
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, 0, g.RelationshipCount())
}

func TestKnowledgeGraph_SortedSnapshots(t *testing.T) {
	t.Parallel()

	g := newTestGraph()

	nodes := g.Nodes()
	for i := 1; i < len(nodes); i++ {
		assert.Less(t, nodes[i-1].ID, nodes[i].ID)
	}

	symbols := g.SymbolNodes()
	assert.Len(t, symbols, 2)
	for _, s := range symbols {
		assert.True(t, IsSymbolLabel(s.Label))
	}
}

func TestKnowledgeGraph_ReplaceNodeUpdatesIndexes(t *testing.T) {
	t.Parallel()

	g := NewKnowledgeGraph()
	g.AddNode(&GraphNode{ID: "x", Label: NodeFunction, Name: "old"})
	g.AddNode(&GraphNode{ID: "x", Label: NodeMethod, Name: "new"})

	assert.Equal(t, 0, g.CountNodesByLabel(NodeFunction))
	assert.Equal(t, 1, g.CountNodesByLabel(NodeMethod))
	assert.Empty(t, g.GetSymbolsByName("old"))
	assert.Len(t, g.GetSymbolsByName("new"), 1)
}

func TestWriter(t *testing.T) {
	t.Parallel()

	t.Run("DrainsAllRecords", func(t *testing.T) {
		g := NewKnowledgeGraph()
		w := NewWriter(g)

		for i := 0; i < 100; i++ {
			w.EnqueueNode(&GraphNode{
				ID:    GenerateID(NodeFunction, "f.py", string(rune('a'+i%26))+string(rune('0'+i/26))),
				Label: NodeFunction,
			})
		}
		w.EnqueueRelationship(&GraphRelationship{ID: "r1", Type: RelCalls, Source: "a", Target: "b"})
		w.Close()

		nodes, rels := w.Counts()
		assert.Equal(t, 100, nodes)
		assert.Equal(t, 1, rels)
		assert.Equal(t, 1, g.RelationshipCount())
	})

	t.Run("ConcurrentProducers", func(t *testing.T) {
		g := NewKnowledgeGraph()
		w := NewWriter(g)

		done := make(chan struct{})
		for p := 0; p < 4; p++ {
			go func(p int) {
				defer func() { done <- struct{}{} }()
				for i := 0; i < 50; i++ {
					w.EnqueueNode(&GraphNode{
						ID:    GenerateID(NodeFunction, "f.py", string(rune('a'+p))+"_"+string(rune('a'+i%26))+string(rune('0'+i/26))),
						Label: NodeFunction,
					})
				}
			}(p)
		}
		for p := 0; p < 4; p++ {
			<-done
		}
		w.Close()

		assert.Equal(t, 200, g.NodeCount())
	})
}
