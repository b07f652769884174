package ingestion

import (
	"strings"

	"github.com/spark-cjbot/axon/internal/graph"
)

// ProcessDeadCode runs the multi-pass unreachability analysis and flips
// is_dead flags. Returns the count of dead symbols.
//
// Passes:
//  1. Initial scan — functions and methods with no incoming CALLS and not
//     imported by any file are candidate-dead.
//  2. Exemptions — entry points, exports, constructors, dunder methods,
//     package-init files, test code, decorated symbols, properties.
//  3. Override pass — methods overriding a non-dead ancestor method
//     (name + arity) survive.
//  4. Protocol conformance — methods implementing an interface-declared
//     method survive.
//  5. Protocol stubs — interface method declarations are contracts, never
//     dead.
func ProcessDeadCode(g *graph.KnowledgeGraph) int {
	importedSymbols := collectImportedSymbols(g)

	// Pass 1: initial unreachability scan.
	for _, node := range g.SymbolNodes() {
		if node.Label != graph.NodeFunction && node.Label != graph.NodeMethod {
			continue
		}
		if g.HasIncoming(node.ID, graph.RelCalls) {
			continue
		}
		if importedSymbols[node.FilePath][bareName(node.Name)] {
			continue
		}
		node.IsDead = true
	}

	// Pass 2: exemptions.
	for _, node := range g.SymbolNodes() {
		if node.IsDead && isDeadCodeExempt(node) {
			node.IsDead = false
		}
	}

	// Pass 3: override pass.
	for _, node := range g.SymbolNodes() {
		if node.IsDead && node.Label == graph.NodeMethod && overridesLiveAncestorMethod(g, node) {
			node.IsDead = false
		}
	}

	// Pass 4: protocol conformance.
	for _, node := range g.SymbolNodes() {
		if node.IsDead && node.Label == graph.NodeMethod && implementsInterfaceMethod(g, node) {
			node.IsDead = false
		}
	}

	// Pass 5: protocol stubs.
	for _, node := range g.SymbolNodes() {
		if !node.IsDead || node.Label != graph.NodeMethod {
			continue
		}
		if node.IsStub || isInterfaceOwned(g, node) {
			node.IsDead = false
		}
	}

	count := 0
	for _, node := range g.SymbolNodes() {
		if node.IsDead {
			count++
		}
	}
	return count
}

// collectImportedSymbols maps file path -> set of symbol names some other
// file imports from it.
func collectImportedSymbols(g *graph.KnowledgeGraph) map[string]map[string]bool {
	imported := make(map[string]map[string]bool)
	for _, rel := range g.GetRelationshipsByType(graph.RelImports) {
		target := g.GetNode(rel.Target)
		if target == nil {
			continue
		}
		symbols, ok := rel.Properties["symbols"].([]string)
		if !ok {
			continue
		}
		if imported[target.FilePath] == nil {
			imported[target.FilePath] = make(map[string]bool)
		}
		for _, s := range symbols {
			imported[target.FilePath][s] = true
		}
	}
	return imported
}

// isDeadCodeExempt applies the pass-2 exemption list.
func isDeadCodeExempt(node *graph.GraphNode) bool {
	if node.IsEntryPoint || node.IsExported || node.IsCtor || node.IsProperty {
		return true
	}
	if isDunderName(bareName(node.Name)) {
		return true
	}
	if strings.HasSuffix(node.FilePath, "__init__.py") {
		return true
	}
	if node.IsTest || isTestPath(node.FilePath) {
		return true
	}
	if len(node.Decorators) > 0 {
		return true
	}
	return false
}

func isDunderName(name string) bool {
	return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") && len(name) > 4
}

func isTestPath(path string) bool {
	base := path
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.HasPrefix(base, "test_") ||
		strings.Contains(base, "_test.") ||
		strings.Contains(base, ".test.") ||
		strings.Contains(base, ".spec.") ||
		strings.Contains(path, "__tests__/")
}

// overridesLiveAncestorMethod walks EXTENDS ancestors breadth-first looking
// for a non-dead method with the same bare name and arity.
func overridesLiveAncestorMethod(g *graph.KnowledgeGraph, method *graph.GraphNode) bool {
	if method.ClassName == "" {
		return false
	}
	class := findOwningClass(g, method)
	if class == nil {
		return false
	}

	name := bareName(method.Name)

	visited := map[string]bool{class.ID: true}
	queue := ancestorClasses(g, class)
	for len(queue) > 0 {
		ancestor := queue[0]
		queue = queue[1:]
		if visited[ancestor.ID] {
			continue
		}
		visited[ancestor.ID] = true

		if base := methodOnClass(g, ancestor, name); base != nil &&
			!base.IsDead && base.Arity == method.Arity {
			return true
		}
		queue = append(queue, ancestorClasses(g, ancestor)...)
	}
	return false
}

// implementsInterfaceMethod reports whether the method's class IMPLEMENTS an
// interface declaring the method's bare name.
func implementsInterfaceMethod(g *graph.KnowledgeGraph, method *graph.GraphNode) bool {
	class := findOwningClass(g, method)
	if class == nil {
		return false
	}
	name := bareName(method.Name)

	for _, rel := range g.GetOutgoing(class.ID, graph.RelImplements) {
		iface := g.GetNode(rel.Target)
		if iface == nil {
			continue
		}
		for _, declared := range iface.MethodsDeclared {
			if declared == name {
				return true
			}
		}
	}
	return false
}

// isInterfaceOwned reports whether the method's owner is an Interface node.
func isInterfaceOwned(g *graph.KnowledgeGraph, method *graph.GraphNode) bool {
	owner := g.GetNode(graph.GenerateID(graph.NodeInterface, method.FilePath, method.ClassName))
	return owner != nil
}

// findOwningClass resolves a method's class node, same file first.
func findOwningClass(g *graph.KnowledgeGraph, method *graph.GraphNode) *graph.GraphNode {
	if method.ClassName == "" {
		return nil
	}
	if class := g.GetNode(graph.GenerateID(graph.NodeClass, method.FilePath, method.ClassName)); class != nil {
		return class
	}
	for _, node := range g.GetSymbolsByName(method.ClassName) {
		if node.Label == graph.NodeClass {
			return node
		}
	}
	return nil
}

// ancestorClasses returns the direct EXTENDS targets of a class.
func ancestorClasses(g *graph.KnowledgeGraph, class *graph.GraphNode) []*graph.GraphNode {
	var ancestors []*graph.GraphNode
	for _, rel := range g.GetOutgoing(class.ID, graph.RelExtends) {
		if base := g.GetNode(rel.Target); base != nil && base.Label == graph.NodeClass {
			ancestors = append(ancestors, base)
		}
	}
	return ancestors
}

// methodOnClass finds a method with the bare name on the given class.
func methodOnClass(g *graph.KnowledgeGraph, class *graph.GraphNode, name string) *graph.GraphNode {
	return g.GetNode(graph.GenerateID(graph.NodeMethod, class.FilePath, class.Name+"."+name))
}

// GetDeadCodeList returns all nodes marked as dead code.
func GetDeadCodeList(g *graph.KnowledgeGraph) []*graph.GraphNode {
	var deadCode []*graph.GraphNode
	for _, node := range g.SymbolNodes() {
		if node.IsDead {
			deadCode = append(deadCode, node)
		}
	}
	return deadCode
}
