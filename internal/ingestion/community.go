package ingestion

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/spark-cjbot/axon/internal/graph"
)

// communityNamespace seeds name-based UUIDs for Community and Process nodes.
// Derived IDs are stable across runs on the same graph, which keeps the
// pipeline idempotent per (repo, commit).
var communityNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// communityEdgeTypes is the edge union the symbol subgraph is induced over.
var communityEdgeTypes = []graph.RelType{
	graph.RelCalls,
	graph.RelUsesType,
	graph.RelExtends,
	graph.RelImplements,
}

// DetectCommunities runs Leiden-style modularity optimization over the
// undirected symbol subgraph and creates Community nodes with MEMBER_OF
// edges. Singleton clusters are attached to a synthetic "misc" community.
// Returns the number of Community nodes created.
func DetectCommunities(g *graph.KnowledgeGraph) int {
	symbols := g.SymbolNodes()
	if len(symbols) == 0 {
		return 0
	}

	index := make(map[string]int, len(symbols))
	ids := make([]string, len(symbols))
	for i, node := range symbols {
		index[node.ID] = i
		ids[i] = node.ID
	}

	adj := buildSymbolAdjacency(g, index, len(symbols))
	assignment := optimizeModularity(adj)

	// Group members per cluster.
	clusters := make(map[int][]int)
	for node, comm := range assignment {
		clusters[comm] = append(clusters[comm], node)
	}

	// Split into real communities and singletons.
	commIDs := make([]int, 0, len(clusters))
	for id := range clusters {
		commIDs = append(commIDs, id)
	}
	sort.Ints(commIDs)

	var misc []int
	count := 0
	for _, commID := range commIDs {
		members := clusters[commID]
		if len(members) < 2 {
			misc = append(misc, members...)
			continue
		}
		sort.Ints(members)
		createCommunity(g, ids, members, adj, "")
		count++
	}

	if len(misc) > 0 {
		sort.Ints(misc)
		createCommunity(g, ids, misc, adj, "misc")
		count++
	}

	return count
}

// buildSymbolAdjacency builds the undirected, unweighted adjacency sets of
// the induced symbol subgraph.
func buildSymbolAdjacency(g *graph.KnowledgeGraph, index map[string]int, n int) []map[int]bool {
	adj := make([]map[int]bool, n)
	for i := range adj {
		adj[i] = make(map[int]bool)
	}

	for _, relType := range communityEdgeTypes {
		for _, rel := range g.GetRelationshipsByType(relType) {
			src, srcOK := index[rel.Source]
			tgt, tgtOK := index[rel.Target]
			if !srcOK || !tgtOK || src == tgt {
				continue
			}
			adj[src][tgt] = true
			adj[tgt][src] = true
		}
	}
	return adj
}

// optimizeModularity runs greedy local moving until no node improves.
// Nodes are visited in index order so the result is deterministic.
func optimizeModularity(adj []map[int]bool) []int {
	n := len(adj)
	assignment := make([]int, n)
	degrees := make([]float64, n)
	var m float64
	for i := range adj {
		assignment[i] = i
		degrees[i] = float64(len(adj[i]))
		m += degrees[i]
	}
	m /= 2
	if m == 0 {
		return assignment
	}

	const maxIterations = 50
	improved := true
	for iter := 0; improved && iter < maxIterations; iter++ {
		improved = false
		for node := 0; node < n; node++ {
			current := assignment[node]

			neighborComms := make(map[int]bool)
			for nb := range adj[node] {
				neighborComms[assignment[nb]] = true
			}
			comms := make([]int, 0, len(neighborComms))
			for c := range neighborComms {
				comms = append(comms, c)
			}
			sort.Ints(comms)

			// Staying put is the baseline: a move must beat the gain of
			// remaining in the current community.
			best, bestGain := current, modularityGain(node, current, assignment, adj, degrees, m)
			for _, comm := range comms {
				if comm == current {
					continue
				}
				gain := modularityGain(node, comm, assignment, adj, degrees, m)
				if gain > bestGain+1e-12 {
					bestGain = gain
					best = comm
				}
			}
			if best != current {
				assignment[node] = best
				improved = true
			}
		}
	}

	// Renumber consecutively in first-seen order.
	renumber := make(map[int]int)
	next := 0
	for i := range assignment {
		if _, ok := renumber[assignment[i]]; !ok {
			renumber[assignment[i]] = next
			next++
		}
		assignment[i] = renumber[assignment[i]]
	}
	return assignment
}

// modularityGain is the standard modularity delta for moving node into comm.
func modularityGain(node, comm int, assignment []int, adj []map[int]bool, degrees []float64, m float64) float64 {
	var kiIn, sumTot float64
	for other := range assignment {
		if assignment[other] != comm || other == node {
			continue
		}
		if adj[node][other] {
			kiIn++
		}
		sumTot += degrees[other]
	}
	ki := degrees[node]
	return kiIn/m - ki*sumTot/(2*m*m)
}

// createCommunity materializes one Community node plus MEMBER_OF edges.
func createCommunity(g *graph.KnowledgeGraph, ids []string, members []int, adj []map[int]bool, fixedLabel string) {
	memberIDs := make([]string, len(members))
	for i, idx := range members {
		memberIDs[i] = ids[idx]
	}

	commUUID := uuid.NewSHA1(communityNamespace, []byte("community:"+strings.Join(memberIDs, "|")))
	commID := "community:" + commUUID.String()

	label := fixedLabel
	if label == "" {
		label = communityLabel(g, memberIDs)
	}

	memberSet := make(map[int]bool, len(members))
	for _, idx := range members {
		memberSet[idx] = true
	}
	internal, boundary := 0, 0
	for _, idx := range members {
		for nb := range adj[idx] {
			if memberSet[nb] {
				internal++ // counted twice, once per endpoint
			} else {
				boundary++
			}
		}
	}
	internal /= 2

	cohesion := 0.0
	if internal+boundary > 0 {
		cohesion = float64(internal) / float64(internal+boundary)
	}

	g.AddNode(&graph.GraphNode{
		ID:    commID,
		Label: graph.NodeCommunity,
		Name:  label,
		Properties: map[string]any{
			"cohesion":     cohesion,
			"member_count": len(memberIDs),
		},
	})

	for _, memberID := range memberIDs {
		g.AddRelationship(&graph.GraphRelationship{
			ID:     graph.EdgeID(graph.RelMemberOf, memberID, commID, ""),
			Type:   graph.RelMemberOf,
			Source: memberID,
			Target: commID,
		})
	}
}

// communityLabel derives a label from the most frequent two-segment path
// prefix of the members, tie-broken lexicographically.
func communityLabel(g *graph.KnowledgeGraph, memberIDs []string) string {
	prefixCount := make(map[string]int)
	for _, id := range memberIDs {
		node := g.GetNode(id)
		if node == nil || node.FilePath == "" {
			continue
		}
		parts := strings.Split(node.FilePath, "/")
		var prefix string
		if len(parts) >= 2 {
			prefix = parts[0] + "/" + parts[1]
		} else {
			prefix = parts[0]
		}
		prefixCount[prefix]++
	}

	best, bestCount := "", 0
	prefixes := make([]string, 0, len(prefixCount))
	for p := range prefixCount {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		if prefixCount[p] > bestCount {
			best, bestCount = p, prefixCount[p]
		}
	}
	if best == "" {
		return "misc"
	}
	return best
}
