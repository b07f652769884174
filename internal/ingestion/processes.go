package ingestion

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/spark-cjbot/axon/internal/graph"
)

// DefaultFlowDepth bounds process BFS traversal.
const DefaultFlowDepth = 6

// ProcessFlows detects framework-aware entry points and traces an execution
// flow from each over CALLS edges, bounded by maxDepth and cycle-aware.
// Every visited symbol becomes a STEP_IN_PROCESS with step_number equal to
// its BFS distance. Runs after community detection so each Process can be
// tagged intra-community or cross-community. Returns the number of Process
// nodes created.
func ProcessFlows(parseData *ParseData, g *graph.KnowledgeGraph, maxDepth int) int {
	if maxDepth <= 0 {
		maxDepth = DefaultFlowDepth
	}

	markEntryPoints(parseData, g)

	var entries []*graph.GraphNode
	for _, node := range g.SymbolNodes() {
		if node.IsEntryPoint {
			entries = append(entries, node)
		}
	}

	communities := memberCommunities(g)

	count := 0
	for _, entry := range entries {
		steps := traceFlow(g, entry.ID, maxDepth)
		if len(steps) == 0 {
			continue
		}

		processUUID := uuid.NewSHA1(communityNamespace, []byte("process:"+entry.ID))
		processID := "process:" + processUUID.String()

		kind := "intra-community"
		seen := make(map[string]bool)
		for _, step := range steps {
			for _, comm := range communities[step.nodeID] {
				seen[comm] = true
			}
		}
		if len(seen) > 1 {
			kind = "cross-community"
		}

		g.AddNode(&graph.GraphNode{
			ID:    processID,
			Label: graph.NodeProcess,
			Name:  "Flow from " + entry.Name,
			Properties: map[string]any{
				"entry_symbol_id": entry.ID,
				"kind":            kind,
				"step_count":      len(steps),
			},
		})
		count++

		for _, step := range steps {
			g.AddRelationship(&graph.GraphRelationship{
				ID:     graph.EdgeID(graph.RelStepInProcess, step.nodeID, processID, ""),
				Type:   graph.RelStepInProcess,
				Source: step.nodeID,
				Target: processID,
				Properties: map[string]any{
					"step_number": step.depth,
				},
			})
		}
	}

	return count
}

// flowStep is one visited symbol with its BFS distance.
type flowStep struct {
	nodeID string
	depth  int
}

// traceFlow performs a cycle-aware BFS over CALLS edges.
func traceFlow(g *graph.KnowledgeGraph, startID string, maxDepth int) []flowStep {
	visited := map[string]bool{startID: true}
	steps := []flowStep{{nodeID: startID, depth: 0}}
	frontier := []flowStep{{nodeID: startID, depth: 0}}

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		if current.depth >= maxDepth {
			continue
		}

		for _, callee := range g.GetCallees(current.nodeID) {
			if visited[callee.ID] {
				continue
			}
			visited[callee.ID] = true
			step := flowStep{nodeID: callee.ID, depth: current.depth + 1}
			steps = append(steps, step)
			frontier = append(frontier, step)
		}
	}

	return steps
}

// memberCommunities maps symbol IDs to the communities they belong to.
func memberCommunities(g *graph.KnowledgeGraph) map[string][]string {
	members := make(map[string][]string)
	for _, rel := range g.GetRelationshipsByType(graph.RelMemberOf) {
		members[rel.Source] = append(members[rel.Source], rel.Target)
	}
	return members
}

// markEntryPoints applies the per-language entry-point rules and flips
// IsEntryPoint on matching symbols.
func markEntryPoints(parseData *ParseData, g *graph.KnowledgeGraph) {
	for _, node := range g.SymbolNodes() {
		if node.Label != graph.NodeFunction && node.Label != graph.NodeMethod {
			continue
		}
		if isEntryPoint(node) {
			node.IsEntryPoint = true
		}
	}

	markMainGuardEntries(parseData, g)
}

// isEntryPoint applies the framework-aware pattern match for one symbol.
func isEntryPoint(node *graph.GraphNode) bool {
	switch node.Language {
	case "python":
		return isPythonEntryPoint(node)
	case "typescript", "javascript":
		return isEcmaEntryPoint(node)
	case "csharp":
		return isCSharpEntryPoint(node)
	}
	return false
}

func isPythonEntryPoint(node *graph.GraphNode) bool {
	for _, d := range node.Decorators {
		switch {
		case strings.HasSuffix(d, ".route"),
			d == "click.command", strings.HasSuffix(d, ".command"):
			return true
		case strings.HasPrefix(d, "router.") || strings.HasPrefix(d, "app."):
			verb := d[strings.LastIndex(d, ".")+1:]
			switch verb {
			case "get", "post", "put", "delete", "patch":
				return true
			}
		}
	}
	return strings.HasPrefix(bareName(node.Name), "test_")
}

func isEcmaEntryPoint(node *graph.GraphNode) bool {
	name := bareName(node.Name)
	if node.IsExported && (name == "handler" || name == "middleware") {
		return true
	}
	if isDefault, ok := node.Properties["default_export"].(bool); ok && isDefault {
		return true
	}

	// Express handler signature: (req, res) or (req, res, next).
	params, ok := node.Properties["param_names"].([]string)
	if !ok || len(params) < 2 || len(params) > 3 {
		return false
	}
	if params[0] != "req" || params[1] != "res" {
		return false
	}
	return len(params) == 2 || params[2] == "next"
}

var csEntryAttributes = map[string]bool{
	"HttpGet": true, "HttpPost": true, "HttpPut": true, "HttpDelete": true,
	"HttpPatch": true, "Route": true, "ApiController": true,
	"Fact": true, "Theory": true, "Test": true, "TestMethod": true,
}

func isCSharpEntryPoint(node *graph.GraphNode) bool {
	if bareName(node.Name) == "Main" {
		return true
	}
	for _, d := range node.Decorators {
		if csEntryAttributes[d] {
			return true
		}
	}
	return false
}

// markMainGuardEntries marks same-file functions invoked from module-level
// code inside a Python `if __name__ == "__main__"` block.
func markMainGuardEntries(parseData *ParseData, g *graph.KnowledgeGraph) {
	paths := make([]string, 0, len(parseData.Files))
	for p := range parseData.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, filePath := range paths {
		result := parseData.Files[filePath]
		if !result.HasMainGuard {
			continue
		}
		for _, call := range result.Calls {
			if !call.InMainGuard {
				continue
			}
			target := g.GetNode(graph.GenerateID(graph.NodeFunction, filePath, call.Callee))
			if target != nil {
				target.IsEntryPoint = true
			}
		}
	}
}
