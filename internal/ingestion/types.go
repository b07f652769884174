package ingestion

import (
	"sort"

	"github.com/spark-cjbot/axon/internal/graph"
)

// typeTargetLabels is the candidate pool for type-reference resolution.
var typeTargetLabels = map[graph.NodeLabel]bool{
	graph.NodeClass:     true,
	graph.NodeInterface: true,
	graph.NodeTypeAlias: true,
	graph.NodeEnum:      true,
}

// ProcessTypes resolves recorded type annotations to symbols, emitting
// USES_TYPE edges with the role the occurrence came from. A single
// (source, target, role) triple is written at most once. Returns the number
// of edges written.
func ProcessTypes(parseData *ParseData, g *graph.KnowledgeGraph) int {
	paths := make([]string, 0, len(parseData.Files))
	for p := range parseData.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	count := 0
	for _, filePath := range paths {
		result := parseData.Files[filePath]
		for _, ref := range result.TypeRefs {
			sourceID := graph.GenerateID(ref.OwnerKind, filePath, ref.Owner)
			if g.GetNode(sourceID) == nil {
				continue
			}

			target := resolveTypeName(g, ref.Name, filePath)
			if target == nil || target.ID == sourceID {
				continue
			}

			edgeID := graph.EdgeID(graph.RelUsesType, sourceID, target.ID, ref.Role)
			if g.GetRelationship(edgeID) != nil {
				continue
			}
			g.AddRelationship(&graph.GraphRelationship{
				ID:     edgeID,
				Type:   graph.RelUsesType,
				Source: sourceID,
				Target: target.ID,
				Properties: map[string]any{
					"role": ref.Role,
				},
			})
			count++
		}
	}
	return count
}

// resolveTypeName finds the type symbol a name refers to, restricted to
// Class/Interface/TypeAlias/Enum, preferring same-file definitions.
func resolveTypeName(g *graph.KnowledgeGraph, name, fromFile string) *graph.GraphNode {
	var candidates []*graph.GraphNode
	for _, node := range g.GetSymbolsByName(bareName(name)) {
		if typeTargetLabels[node.Label] {
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
