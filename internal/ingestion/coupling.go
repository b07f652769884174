package ingestion

import (
	"log/slog"
	"sort"
	"time"

	"github.com/spark-cjbot/axon/internal/graph"
)

// Change-coupling thresholds.
const (
	couplingWindowDays  = 180
	minCoChanges        = 3
	minCouplingStrength = 0.3
)

// maxCommitFiles skips bulk refactor/merge commits that would couple
// everything to everything.
const maxCommitFiles = 50

// ProcessCoupling reads the repo's version-control log over a sliding window
// and emits one COUPLED_WITH edge per unordered file pair that co-changes in
// at least minCoChanges commits with strength >= minCouplingStrength, where
//
//	strength(A,B) = co_changes(A,B) / max(changes(A), changes(B))
//
// The edge is written once per pair and treated as undirected. Absent
// version-control metadata the phase is a no-op. Returns the edge count.
func ProcessCoupling(g *graph.KnowledgeGraph, repoPath string, log ChangeLog, windowDays int) int {
	if windowDays <= 0 {
		windowDays = couplingWindowDays
	}
	since := time.Now().AddDate(0, 0, -windowDays)

	commits, err := log.Log(repoPath, since)
	if err != nil {
		slog.Warn("coupling.log", "err", err)
		return 0
	}
	if len(commits) == 0 {
		return 0
	}

	totalChanges := make(map[string]int)
	pairCount := make(map[[2]string]int)

	for _, commit := range commits {
		files := commit.ChangedPaths
		if len(files) > maxCommitFiles {
			continue
		}
		for _, f := range files {
			totalChanges[f]++
		}
		for i := 0; i < len(files); i++ {
			for j := i + 1; j < len(files); j++ {
				a, b := files[i], files[j]
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a
				}
				pairCount[[2]string{a, b}]++
			}
		}
	}

	pairs := make([][2]string, 0, len(pairCount))
	for pair := range pairCount {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	edgeCount := 0
	for _, pair := range pairs {
		coChanges := pairCount[pair]
		if coChanges < minCoChanges {
			continue
		}

		strength := couplingStrength(coChanges, totalChanges[pair[0]], totalChanges[pair[1]])
		if strength < minCouplingStrength {
			continue
		}

		nodeA := g.GetNode(graph.GenerateID(graph.NodeFile, pair[0], ""))
		nodeB := g.GetNode(graph.GenerateID(graph.NodeFile, pair[1], ""))
		if nodeA == nil || nodeB == nil {
			continue
		}

		g.AddRelationship(&graph.GraphRelationship{
			ID:     graph.EdgeID(graph.RelCoupledWith, nodeA.ID, nodeB.ID, ""),
			Type:   graph.RelCoupledWith,
			Source: nodeA.ID,
			Target: nodeB.ID,
			Properties: map[string]any{
				"strength":   strength,
				"co_changes": coChanges,
			},
		})
		edgeCount++
	}

	return edgeCount
}

// couplingStrength normalizes co-change frequency by the busier file.
func couplingStrength(coChanges, totalA, totalB int) float64 {
	maxTotal := totalA
	if totalB > maxTotal {
		maxTotal = totalB
	}
	if maxTotal == 0 {
		return 0
	}
	return float64(coChanges) / float64(maxTotal)
}
