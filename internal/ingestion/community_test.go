package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spark-cjbot/axon/internal/graph"
)

func addCall(g *graph.KnowledgeGraph, src, tgt *graph.GraphNode) {
	g.AddRelationship(&graph.GraphRelationship{
		ID:         graph.EdgeID(graph.RelCalls, src.ID, tgt.ID, ""),
		Type:       graph.RelCalls,
		Source:     src.ID,
		Target:     tgt.ID,
		Properties: map[string]any{"confidence": 1.0},
	})
}

// twoClusterGraph builds two internally-connected triangles with no edges
// between them.
func twoClusterGraph() (*graph.KnowledgeGraph, []*graph.GraphNode, []*graph.GraphNode) {
	g := graph.NewKnowledgeGraph()

	var a, b []*graph.GraphNode
	for _, name := range []string{"a1", "a2", "a3"} {
		a = append(a, addFunction(g, "src/auth/"+name+".py", name))
	}
	for _, name := range []string{"b1", "b2", "b3"} {
		b = append(b, addFunction(g, "src/billing/"+name+".py", name))
	}

	addCall(g, a[0], a[1])
	addCall(g, a[1], a[2])
	addCall(g, a[2], a[0])
	addCall(g, b[0], b[1])
	addCall(g, b[1], b[2])
	addCall(g, b[2], b[0])

	return g, a, b
}

func TestDetectCommunities(t *testing.T) {
	t.Parallel()

	t.Run("SeparatesDisconnectedClusters", func(t *testing.T) {
		g, a, b := twoClusterGraph()

		count := DetectCommunities(g)
		assert.Equal(t, 2, count)

		communityOf := func(n *graph.GraphNode) string {
			rels := g.GetOutgoing(n.ID, graph.RelMemberOf)
			require.Len(t, rels, 1)
			return rels[0].Target
		}

		assert.Equal(t, communityOf(a[0]), communityOf(a[1]))
		assert.Equal(t, communityOf(a[0]), communityOf(a[2]))
		assert.Equal(t, communityOf(b[0]), communityOf(b[1]))
		assert.NotEqual(t, communityOf(a[0]), communityOf(b[0]))
	})

	t.Run("CohesionIsOneForIsolatedCluster", func(t *testing.T) {
		g, _, _ := twoClusterGraph()
		DetectCommunities(g)

		for _, comm := range g.GetNodesByLabel(graph.NodeCommunity) {
			cohesion, ok := comm.Properties["cohesion"].(float64)
			require.True(t, ok)
			assert.Equal(t, 1.0, cohesion)
		}
	})

	t.Run("LabelFromPathPrefix", func(t *testing.T) {
		g, _, _ := twoClusterGraph()
		DetectCommunities(g)

		var labels []string
		for _, comm := range g.GetNodesByLabel(graph.NodeCommunity) {
			labels = append(labels, comm.Name)
		}
		assert.Contains(t, labels, "src/auth")
		assert.Contains(t, labels, "src/billing")
	})

	t.Run("SingletonsGoToMisc", func(t *testing.T) {
		g, _, _ := twoClusterGraph()
		loner := addFunction(g, "src/misc/loner.py", "loner")

		DetectCommunities(g)

		rels := g.GetOutgoing(loner.ID, graph.RelMemberOf)
		require.Len(t, rels, 1)
		misc := g.GetNode(rels[0].Target)
		require.NotNil(t, misc)
		assert.Equal(t, "misc", misc.Name)
	})

	t.Run("EmptyGraph", func(t *testing.T) {
		g := graph.NewKnowledgeGraph()
		assert.Equal(t, 0, DetectCommunities(g))
	})

	t.Run("DeterministicAcrossRuns", func(t *testing.T) {
		collectIDs := func() []string {
			g, _, _ := twoClusterGraph()
			DetectCommunities(g)
			var ids []string
			for _, comm := range g.GetNodesByLabel(graph.NodeCommunity) {
				ids = append(ids, comm.ID)
			}
			return ids
		}

		assert.Equal(t, collectIDs(), collectIDs())
	})
}
