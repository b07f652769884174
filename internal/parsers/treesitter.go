package parsers

import (
	"fmt"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c_sharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// grammarKey selects a tree-sitter grammar. TSX gets its own grammar
// because the TypeScript grammar cannot parse JSX.
type grammarKey string

const (
	grammarPython     grammarKey = "python"
	grammarTypeScript grammarKey = "typescript"
	grammarTSX        grammarKey = "tsx"
	grammarJavaScript grammarKey = "javascript"
	grammarCSharp     grammarKey = "csharp"
)

var (
	grammarsOnce sync.Once
	grammars     map[grammarKey]*tree_sitter.Language
	parserPools  map[grammarKey]*sync.Pool
)

// initGrammars builds the process-wide parser cache. It is immutable after
// init; parsers are pooled per grammar via sync.Pool to avoid per-file
// allocation.
func initGrammars() {
	grammarsOnce.Do(func() {
		grammars = map[grammarKey]*tree_sitter.Language{
			grammarPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
			grammarTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			grammarTSX:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
			grammarJavaScript: tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
			grammarCSharp:     tree_sitter.NewLanguage(tree_sitter_c_sharp.Language()),
		}

		parserPools = make(map[grammarKey]*sync.Pool, len(grammars))
		for key, lang := range grammars {
			lang := lang
			parserPools[key] = &sync.Pool{
				New: func() any {
					p := tree_sitter.NewParser()
					if err := p.SetLanguage(lang); err != nil {
						panic(fmt.Sprintf("set language: %v", err))
					}
					return p
				},
			}
		}
	})
}

// parseTree parses source into a syntax tree using a pooled parser.
// The caller must Close the returned tree.
func parseTree(key grammarKey, source []byte) (*tree_sitter.Tree, error) {
	initGrammars()

	pool, ok := parserPools[key]
	if !ok {
		return nil, fmt.Errorf("no grammar registered for %s", key)
	}

	p, _ := pool.Get().(*tree_sitter.Parser)
	if p == nil {
		return nil, fmt.Errorf("acquiring parser for %s", key)
	}
	tree := p.Parse(source, nil)
	pool.Put(p)

	if tree == nil {
		return nil, fmt.Errorf("parse produced no tree for %s", key)
	}
	return tree, nil
}

// walk traverses the syntax tree depth-first. Returning false from fn skips
// the node's children.
func walk(node *tree_sitter.Node, fn func(*tree_sitter.Node) bool) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil {
			walk(child, fn)
		}
	}
}

// text returns the source text of a node.
func text(node *tree_sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// line converts a tree-sitter row to a 1-based line number.
func line(row uint) int {
	return int(row) + 1
}

// childOfKind returns the first direct child with the given kind, or nil.
func childOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// namedChildren returns all named children of a node.
func namedChildren(node *tree_sitter.Node) []*tree_sitter.Node {
	count := node.NamedChildCount()
	children := make([]*tree_sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if child := node.NamedChild(i); child != nil {
			children = append(children, child)
		}
	}
	return children
}

// hasChildToken reports whether the node has a direct child whose text
// equals tok (used for modifier checks like "public" or "override").
func hasChildToken(node *tree_sitter.Node, source []byte, tok string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if text(child, source) == tok {
			return true
		}
		// C# wraps modifiers in a modifier node; TS uses accessibility_modifier.
		if child.Kind() == "modifier" || child.Kind() == "accessibility_modifier" {
			if strings.TrimSpace(text(child, source)) == tok {
				return true
			}
		}
	}
	return false
}

// identifiersIn collects identifier-ish tokens inside a type expression,
// in document order. Generic wrappers contribute their own name too
// (`Optional[User]` yields Optional and User); the resolver's candidate
// pool filters out the noise.
func identifiersIn(node *tree_sitter.Node, source []byte) []string {
	var names []string
	walk(node, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "identifier", "type_identifier", "predefined_type":
			names = append(names, text(n, source))
		}
		return true
	})
	return names
}

// snippetOf returns the node's source text, truncated to a bounded length
// so class bodies don't bloat the graph.
func snippetOf(node *tree_sitter.Node, source []byte) string {
	const maxSnippet = 2000
	s := text(node, source)
	if len(s) > maxSnippet {
		return s[:maxSnippet]
	}
	return s
}

// stripArgs removes a trailing call-argument list from a decorator
// expression: `app.route("/x")` becomes `app.route`.
func stripArgs(s string) string {
	if idx := strings.Index(s, "("); idx >= 0 {
		return s[:idx]
	}
	return s
}
