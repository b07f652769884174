package ingestion

import (
	"github.com/spark-cjbot/axon/internal/graph"
)

// ProcessHeritage turns each class's syntactic base list into EXTENDS edges
// (base resolves to a Class) and IMPLEMENTS edges (base resolves to an
// Interface). Unresolved bases are dropped silently. Returns the number of
// edges written.
func ProcessHeritage(g *graph.KnowledgeGraph) int {
	count := 0
	for _, class := range g.GetNodesByLabel(graph.NodeClass) {
		for _, base := range class.BasesSyntactic {
			target := resolveBase(g, base, class.FilePath)
			if target == nil {
				continue
			}

			relType := graph.RelExtends
			if target.Label == graph.NodeInterface {
				relType = graph.RelImplements
			}

			edgeID := graph.EdgeID(relType, class.ID, target.ID, "")
			if g.GetRelationship(edgeID) != nil {
				continue
			}
			g.AddRelationship(&graph.GraphRelationship{
				ID:     edgeID,
				Type:   relType,
				Source: class.ID,
				Target: target.ID,
			})
			count++
		}
	}
	return count
}

// resolveBase finds the Class or Interface a base name refers to, preferring
// a same-file definition over the rest of the repo.
func resolveBase(g *graph.KnowledgeGraph, base, fromFile string) *graph.GraphNode {
	name := bareName(base)

	var candidates []*graph.GraphNode
	for _, node := range g.GetSymbolsByName(name) {
		if node.Label == graph.NodeClass || node.Label == graph.NodeInterface {
			candidates = append(candidates, node)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	for _, c := range candidates {
		if c.FilePath == fromFile {
			return c
		}
	}
	return candidates[0]
}
