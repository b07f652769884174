package ingestion

import (
	"path"
	"sort"
	"strings"

	"github.com/spark-cjbot/axon/internal/graph"
	"github.com/spark-cjbot/axon/internal/parsers"
)

// Extension ladders tried, in order, when a specifier has no extension.
var (
	ecmaExtensions   = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
	pythonExtensions = []string{".py"}
)

// candidateKind ranks how a resolution candidate matched, for tie-breaking:
// explicit extension match > directory-index match > lexicographic.
type candidateKind int

const (
	matchExplicit candidateKind = iota
	matchExtension
	matchIndex
)

type importCandidate struct {
	path string
	kind candidateKind
}

// ProcessImports resolves raw imports to File nodes, emitting IMPORTS edges
// carrying the imported symbol names. Bare specifiers that resolve to no
// in-repo file produce no edge and no error.
func ProcessImports(parseData *ParseData, g *graph.KnowledgeGraph, sourceRoots []string) {
	known := knownFiles(g)

	paths := make([]string, 0, len(parseData.Files))
	for p := range parseData.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, filePath := range paths {
		result := parseData.Files[filePath]
		sourceFileID := graph.GenerateID(graph.NodeFile, filePath, "")

		for _, imp := range result.Imports {
			target := resolveImport(filePath, imp, result.Language, sourceRoots, known)
			if target == "" {
				continue
			}

			targetFileID := graph.GenerateID(graph.NodeFile, target, "")
			edgeID := graph.EdgeID(graph.RelImports, sourceFileID, targetFileID, "")

			if existing := g.GetRelationship(edgeID); existing != nil {
				existing.Properties["symbols"] = mergeSymbolLists(existing.Properties["symbols"], imp.Symbols)
				continue
			}

			g.AddRelationship(&graph.GraphRelationship{
				ID:     edgeID,
				Type:   graph.RelImports,
				Source: sourceFileID,
				Target: targetFileID,
				Properties: map[string]any{
					"symbols": append([]string(nil), imp.Symbols...),
				},
			})
		}
	}
}

// resolveImport maps one import specifier to a repo-relative file path, or ""
// when it does not resolve in-repo.
func resolveImport(
	fromFile string, imp parsers.ImportStatement,
	language string, sourceRoots []string, known map[string]bool,
) string {
	var candidates []importCandidate

	switch language {
	case "python":
		candidates = pythonCandidates(fromFile, imp, sourceRoots, known)
	case "typescript", "javascript":
		candidates = ecmaCandidates(fromFile, imp, sourceRoots, known)
	case "csharp":
		// C# using directives name namespaces, not files; they resolve
		// through no path mapping and never produce IMPORTS edges.
		return ""
	}

	return pickCandidate(candidates)
}

// pickCandidate applies the tie-break ordering: explicit extension match
// beats directory-index match beats lexicographic path order.
func pickCandidate(candidates []importCandidate) string {
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].kind != candidates[j].kind {
			return candidates[i].kind < candidates[j].kind
		}
		return candidates[i].path < candidates[j].path
	})
	return candidates[0].path
}

func ecmaCandidates(
	fromFile string, imp parsers.ImportStatement,
	sourceRoots []string, known map[string]bool,
) []importCandidate {
	var bases []string
	if imp.IsRelative {
		bases = []string{path.Join(path.Dir(fromFile), imp.Spec)}
	} else {
		for _, root := range sourceRoots {
			bases = append(bases, path.Join(root, imp.Spec))
		}
	}

	var candidates []importCandidate
	for _, base := range bases {
		if hasKnownExtension(base) && known[base] {
			candidates = append(candidates, importCandidate{path: base, kind: matchExplicit})
			continue
		}
		for _, ext := range ecmaExtensions {
			if known[base+ext] {
				candidates = append(candidates, importCandidate{path: base + ext, kind: matchExtension})
			}
		}
		for _, ext := range ecmaExtensions {
			idx := base + "/index" + ext
			if known[idx] {
				candidates = append(candidates, importCandidate{path: idx, kind: matchIndex})
			}
		}
	}
	return candidates
}

func pythonCandidates(
	fromFile string, imp parsers.ImportStatement,
	sourceRoots []string, known map[string]bool,
) []importCandidate {
	var bases []string

	if imp.IsRelative {
		// Leading dots walk up from the importing file's directory:
		// one dot is the current package, each further dot one level up.
		spec := imp.Spec
		dots := 0
		for dots < len(spec) && spec[dots] == '.' {
			dots++
		}
		dir := path.Dir(fromFile)
		for i := 1; i < dots; i++ {
			dir = path.Dir(dir)
		}
		rest := strings.ReplaceAll(spec[dots:], ".", "/")
		bases = []string{path.Join(dir, rest)}
	} else {
		rel := strings.ReplaceAll(imp.Spec, ".", "/")
		for _, root := range sourceRoots {
			bases = append(bases, path.Join(root, rel))
		}
	}

	var candidates []importCandidate
	for _, base := range bases {
		base = strings.TrimSuffix(base, "/")
		if base == "" || base == "." {
			continue
		}
		for _, ext := range pythonExtensions {
			if known[base+ext] {
				candidates = append(candidates, importCandidate{path: base + ext, kind: matchExtension})
			}
		}
		init := base + "/__init__.py"
		if known[init] {
			candidates = append(candidates, importCandidate{path: init, kind: matchIndex})
		}
	}
	return candidates
}

func hasKnownExtension(p string) bool {
	ext := path.Ext(p)
	_, ok := supportedExtensions[ext]
	return ok
}

func knownFiles(g *graph.KnowledgeGraph) map[string]bool {
	files := g.GetNodesByLabel(graph.NodeFile)
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f.FilePath] = true
	}
	return known
}

func mergeSymbolLists(existing any, more []string) []string {
	var merged []string
	if prev, ok := existing.([]string); ok {
		merged = prev
	}
	seen := make(map[string]bool, len(merged))
	for _, s := range merged {
		seen[s] = true
	}
	for _, s := range more {
		if !seen[s] {
			merged = append(merged, s)
			seen[s] = true
		}
	}
	return merged
}
