package ingestion

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/spark-cjbot/axon/internal/graph"
	"github.com/spark-cjbot/axon/internal/parsers"
)

// Call-binding confidence ladder.
const (
	confidenceLocal     = 1.0 // unique match in same file or imported module
	confidenceReceiver  = 0.8 // method resolved via known receiver type
	confidenceGlobal    = 0.6 // unique symbol globally by name
	confidenceFuzzy     = 0.5 // edit distance <= 2, unique
	confidenceAmbiguous = 0.4 // multiple candidates, capped
)

// maxAmbiguousEdges caps how many edges one ambiguous call site produces.
const maxAmbiguousEdges = 3

// maxFuzzyDistance is the edit-distance bound for typo-tolerant binding.
const maxFuzzyDistance = 2

// callResolver binds raw call sites against the frozen symbol table.
type callResolver struct {
	g      *graph.KnowledgeGraph
	byBare map[string][]*graph.GraphNode
	bares  []string
}

func newCallResolver(g *graph.KnowledgeGraph) *callResolver {
	r := &callResolver{g: g, byBare: make(map[string][]*graph.GraphNode)}
	for _, node := range g.SymbolNodes() {
		bare := bareName(node.Name)
		r.byBare[bare] = append(r.byBare[bare], node)
	}
	for bare := range r.byBare {
		r.bares = append(r.bares, bare)
	}
	sort.Strings(r.bares)
	return r
}

// bareName strips a "Class." qualifier from a symbol name.
func bareName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// binding is one resolved callee with its confidence.
type binding struct {
	target     *graph.GraphNode
	confidence float64
}

// ProcessCalls binds every raw call site to callee symbols and writes CALLS
// edges with confidence scores. Returns the number of edges written.
func ProcessCalls(parseData *ParseData, g *graph.KnowledgeGraph) int {
	resolver := newCallResolver(g)

	paths := make([]string, 0, len(parseData.Files))
	for p := range parseData.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	count := 0
	for _, filePath := range paths {
		result := parseData.Files[filePath]
		imported := importedSymbolFiles(g, filePath)

		for _, call := range result.Calls {
			if call.Caller == "" {
				// Module-level calls have no caller symbol; entry-point
				// detection picks the main-guard ones up separately.
				continue
			}
			if callBlocklist[call.Callee] {
				continue
			}

			callerID := graph.GenerateID(call.CallerKind, filePath, call.Caller)
			caller := g.GetNode(callerID)
			if caller == nil {
				continue
			}

			for _, b := range resolver.resolve(call, filePath, imported) {
				if b.target.ID == callerID && !selfLoopAllowed(call, caller) {
					continue
				}
				if writeCallEdge(g, callerID, b.target.ID, b.confidence) {
					count++
				}
			}
		}
	}
	return count
}

// resolve applies the confidence ladder to one call site.
func (r *callResolver) resolve(call parsers.CallSite, filePath string, imported map[string]map[string]bool) []binding {
	// Receiver with a locally-determined static type: bind to the matching
	// class's method and stop.
	if call.ReceiverType != "" {
		qualified := call.ReceiverType + "." + call.Callee
		if targets := r.g.GetSymbolsByName(qualified); len(targets) > 0 {
			return r.capped(targets, confidenceReceiver)
		}
	}

	// Qualified callee names (constructor calls) match the full symbol name.
	if strings.Contains(call.Callee, ".") {
		if targets := r.g.GetSymbolsByName(call.Callee); len(targets) > 0 {
			return r.capped(targets, confidenceReceiver)
		}
		return nil
	}

	candidates := r.byBare[call.Callee]

	// Unique candidate in the same file or an imported module.
	var local []*graph.GraphNode
	for _, c := range candidates {
		if c.FilePath == filePath {
			local = append(local, c)
			continue
		}
		if symbols, ok := imported[c.FilePath]; ok {
			if len(symbols) == 0 || symbols[bareName(c.Name)] || symbols["*"] {
				local = append(local, c)
			}
		}
	}
	if len(local) == 1 {
		return []binding{{target: local[0], confidence: confidenceLocal}}
	}

	// Unique candidate globally.
	if len(candidates) == 1 {
		return []binding{{target: candidates[0], confidence: confidenceGlobal}}
	}

	// No candidate at all: try a typo-tolerant match.
	if len(candidates) == 0 {
		if target := r.fuzzyMatch(call.Callee); target != nil {
			return []binding{{target: target, confidence: confidenceFuzzy}}
		}
		return nil
	}

	// Ambiguous: several candidates share the name.
	pool := local
	if len(pool) == 0 {
		pool = candidates
	}
	return r.capped(pool, confidenceAmbiguous)
}

// fuzzyMatch finds the unique symbol name within edit distance 2.
func (r *callResolver) fuzzyMatch(callee string) *graph.GraphNode {
	var match string
	for _, bare := range r.bares {
		if abs(len(bare)-len(callee)) > maxFuzzyDistance {
			continue
		}
		if levenshtein.ComputeDistance(callee, bare) > maxFuzzyDistance {
			continue
		}
		if match != "" {
			return nil // not unique
		}
		match = bare
	}
	if match == "" {
		return nil
	}
	nodes := r.byBare[match]
	if len(nodes) != 1 {
		return nil
	}
	return nodes[0]
}

// capped sorts targets for determinism and bounds the emitted bindings.
func (r *callResolver) capped(targets []*graph.GraphNode, confidence float64) []binding {
	sorted := append([]*graph.GraphNode(nil), targets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	limit := len(sorted)
	if confidence == confidenceAmbiguous && limit > maxAmbiguousEdges {
		limit = maxAmbiguousEdges
	}
	if confidence != confidenceAmbiguous && limit > 1 {
		// Multiple exact hits on one qualified name degrade to ambiguous.
		confidence = confidenceAmbiguous
		if limit > maxAmbiguousEdges {
			limit = maxAmbiguousEdges
		}
	}

	bindings := make([]binding, 0, limit)
	for _, t := range sorted[:limit] {
		bindings = append(bindings, binding{target: t, confidence: confidence})
	}
	return bindings
}

// selfLoopAllowed permits a self-edge only when the receiver's static type
// differs from the caller's owning class.
func selfLoopAllowed(call parsers.CallSite, caller *graph.GraphNode) bool {
	return call.ReceiverType != "" && call.ReceiverType != caller.ClassName
}

// writeCallEdge inserts a CALLS edge, keeping the maximum confidence when
// the (caller, callee) pair already has one. Returns true for a new edge.
func writeCallEdge(g *graph.KnowledgeGraph, sourceID, targetID string, confidence float64) bool {
	edgeID := graph.EdgeID(graph.RelCalls, sourceID, targetID, "")
	if existing := g.GetRelationship(edgeID); existing != nil {
		if confidence > existing.Confidence() {
			existing.Properties["confidence"] = confidence
		}
		return false
	}

	g.AddRelationship(&graph.GraphRelationship{
		ID:     edgeID,
		Type:   graph.RelCalls,
		Source: sourceID,
		Target: targetID,
		Properties: map[string]any{
			"confidence": confidence,
		},
	})
	return true
}

// importedSymbolFiles maps target file paths imported by filePath to the
// set of imported symbol names (empty set = wholesale import).
func importedSymbolFiles(g *graph.KnowledgeGraph, filePath string) map[string]map[string]bool {
	fileID := graph.GenerateID(graph.NodeFile, filePath, "")
	imported := make(map[string]map[string]bool)

	for _, rel := range g.GetOutgoing(fileID, graph.RelImports) {
		target := g.GetNode(rel.Target)
		if target == nil {
			continue
		}
		symbols := make(map[string]bool)
		if list, ok := rel.Properties["symbols"].([]string); ok {
			for _, s := range list {
				symbols[s] = true
			}
		}
		imported[target.FilePath] = symbols
	}
	return imported
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
