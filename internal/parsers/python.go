package parsers

import (
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/spark-cjbot/axon/internal/graph"
)

// PythonParser parses Python source files.
type PythonParser struct{}

// Language returns the language this parser handles.
func (p *PythonParser) Language() string {
	return "python"
}

// pyContext carries traversal state: the enclosing class and function.
type pyContext struct {
	class string
	owner string
	kind  graph.NodeLabel
	guard bool
}

// Parse parses Python source code and extracts symbols, imports, calls, etc.
func (p *PythonParser) Parse(filePath string, content []byte) (*ParseResult, error) {
	tree, err := parseTree(grammarPython, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &ParseResult{
		Language: "python",
		VarTypes: make(map[string]string),
	}

	isTestFile := pyIsTestFile(filePath)
	p.extractBlock(tree.RootNode(), content, pyContext{}, nil, isTestFile, result)

	for _, sym := range result.Symbols {
		if sym.IsExported && sym.ClassName == "" {
			result.Exports = append(result.Exports, sym.Name)
		}
	}

	return result, nil
}

// extractBlock walks one statement sequence, collecting decorated and plain
// definitions, imports, annotated assignments, and call sites.
func (p *PythonParser) extractBlock(
	node *tree_sitter.Node, source []byte,
	ctx pyContext, decorators []string, isTestFile bool, result *ParseResult,
) {
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "decorated_definition":
			decs := pyDecorators(child, source)
			if def := child.ChildByFieldName("definition"); def != nil {
				p.extractDefinition(def, source, ctx, decs, isTestFile, result)
			}

		case "function_definition", "class_definition":
			p.extractDefinition(child, source, ctx, decorators, isTestFile, result)

		case "import_statement", "import_from_statement":
			p.extractImport(child, source, result)

		case "if_statement":
			guardCtx := ctx
			if ctx.owner == "" && pyIsMainGuard(child, source) {
				result.HasMainGuard = true
				guardCtx.guard = true
			}
			p.extractStatements(child, source, guardCtx, isTestFile, result)

		default:
			p.extractStatements(child, source, ctx, isTestFile, result)
		}
	}
}

// extractDefinition handles one def or class statement.
func (p *PythonParser) extractDefinition(
	def *tree_sitter.Node, source []byte,
	ctx pyContext, decorators []string, isTestFile bool, result *ParseResult,
) {
	switch def.Kind() {
	case "function_definition":
		p.extractFunction(def, source, ctx, decorators, isTestFile, result)
	case "class_definition":
		p.extractClass(def, source, decorators, isTestFile, result)
	}
}

func (p *PythonParser) extractFunction(
	def *tree_sitter.Node, source []byte,
	ctx pyContext, decorators []string, isTestFile bool, result *ParseResult,
) {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := text(nameNode, source)

	kind := graph.NodeFunction
	qualified := name
	if ctx.class != "" {
		kind = graph.NodeMethod
		qualified = ctx.class + "." + name
	}

	paramsNode := def.ChildByFieldName("parameters")
	paramNames, arity := pyParams(paramsNode, source)

	sym := Symbol{
		Name:       qualified,
		Kind:       kind,
		ClassName:  ctx.class,
		StartLine:  line(def.StartPosition().Row),
		EndLine:    line(def.EndPosition().Row),
		Signature:  pySignature(def, source),
		Snippet:    snippetOf(def, source),
		Decorators: decorators,
		ParamNames: paramNames,
		Arity:      arity,
		IsExported: !strings.HasPrefix(name, "_") || pyIsDunder(name),
		IsTest:     isTestFile || strings.HasPrefix(name, "test_"),
		IsCtor:     name == "__init__",
		IsProperty: pyHasPropertyDecorator(decorators),
	}
	result.Symbols = append(result.Symbols, sym)

	p.extractAnnotations(def, paramsNode, source, qualified, kind, result)

	// Body: calls and annotated locals.
	inner := pyContext{class: ctx.class, owner: qualified, kind: kind}
	if body := def.ChildByFieldName("body"); body != nil {
		p.extractBlock(body, source, inner, nil, isTestFile, result)
	}
}

func (p *PythonParser) extractClass(
	def *tree_sitter.Node, source []byte,
	decorators []string, isTestFile bool, result *ParseResult,
) {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := text(nameNode, source)

	var bases []string
	if supers := def.ChildByFieldName("superclasses"); supers != nil {
		for _, arg := range namedChildren(supers) {
			switch arg.Kind() {
			case "identifier", "attribute":
				bases = append(bases, text(arg, source))
			}
		}
	}

	result.Symbols = append(result.Symbols, Symbol{
		Name:       name,
		Kind:       graph.NodeClass,
		StartLine:  line(def.StartPosition().Row),
		EndLine:    line(def.EndPosition().Row),
		Signature:  "class " + name,
		Snippet:    snippetOf(def, source),
		Decorators: decorators,
		Bases:      bases,
		IsExported: !strings.HasPrefix(name, "_"),
		IsTest:     isTestFile,
	})

	if body := def.ChildByFieldName("body"); body != nil {
		p.extractBlock(body, source, pyContext{class: name}, nil, isTestFile, result)
	}
}

// extractAnnotations records parameter and return type annotations.
func (p *PythonParser) extractAnnotations(
	def, paramsNode *tree_sitter.Node, source []byte,
	owner string, kind graph.NodeLabel, result *ParseResult,
) {
	if paramsNode != nil {
		for _, param := range namedChildren(paramsNode) {
			typeNode := param.ChildByFieldName("type")
			if typeNode == nil {
				continue
			}
			for _, tn := range identifiersIn(typeNode, source) {
				result.TypeRefs = append(result.TypeRefs, TypeRef{
					Owner: owner, OwnerKind: kind,
					Name: tn, Role: graph.RoleParam,
					StartLine: line(param.StartPosition().Row),
				})
			}
			if nameNode := pyParamName(param); nameNode != nil {
				result.VarTypes[text(nameNode, source)] = pyBaseType(typeNode, source)
			}
		}
	}

	if ret := def.ChildByFieldName("return_type"); ret != nil {
		for _, tn := range identifiersIn(ret, source) {
			result.TypeRefs = append(result.TypeRefs, TypeRef{
				Owner: owner, OwnerKind: kind,
				Name: tn, Role: graph.RoleReturn,
				StartLine: line(ret.StartPosition().Row),
			})
		}
	}
}

// extractStatements walks arbitrary statement subtrees for calls and
// annotated assignments, without descending into nested definitions
// (those are handled by extractBlock).
func (p *PythonParser) extractStatements(
	node *tree_sitter.Node, source []byte,
	ctx pyContext, isTestFile bool, result *ParseResult,
) {
	walk(node, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "function_definition", "class_definition", "decorated_definition":
			// Nested definition: re-enter block extraction with context.
			p.extractBlockForNested(n, source, ctx, isTestFile, result)
			return false

		case "call":
			p.extractCall(n, source, ctx, result)
			return true

		case "assignment":
			if typeNode := n.ChildByFieldName("type"); typeNode != nil {
				p.extractAnnotatedAssignment(n, typeNode, source, ctx, result)
			}
			return true
		}
		return true
	})
}

// extractBlockForNested dispatches one nested definition node through the
// regular block machinery.
func (p *PythonParser) extractBlockForNested(
	n *tree_sitter.Node, source []byte,
	ctx pyContext, isTestFile bool, result *ParseResult,
) {
	switch n.Kind() {
	case "decorated_definition":
		decs := pyDecorators(n, source)
		if def := n.ChildByFieldName("definition"); def != nil {
			p.extractDefinition(def, source, ctx, decs, isTestFile, result)
		}
	default:
		p.extractDefinition(n, source, ctx, nil, isTestFile, result)
	}
}

func (p *PythonParser) extractCall(
	n *tree_sitter.Node, source []byte,
	ctx pyContext, result *ParseResult,
) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}

	call := CallSite{
		Caller:      ctx.owner,
		CallerKind:  ctx.kind,
		InMainGuard: ctx.guard && ctx.owner == "",
		StartLine:   line(n.StartPosition().Row),
		EndLine:     line(n.EndPosition().Row),
	}

	switch fn.Kind() {
	case "identifier":
		call.Callee = text(fn, source)
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		obj := fn.ChildByFieldName("object")
		if attr == nil {
			return
		}
		call.Callee = text(attr, source)
		call.Receiver = text(obj, source)
		call.ReceiverType = pyReceiverType(call.Receiver, result.VarTypes)
	default:
		return
	}

	if call.Callee != "" {
		result.Calls = append(result.Calls, call)
	}
}

func (p *PythonParser) extractAnnotatedAssignment(
	n, typeNode *tree_sitter.Node, source []byte,
	ctx pyContext, result *ParseResult,
) {
	owner := ctx.owner
	kind := ctx.kind
	for _, tn := range identifiersIn(typeNode, source) {
		result.TypeRefs = append(result.TypeRefs, TypeRef{
			Owner: owner, OwnerKind: kind,
			Name: tn, Role: graph.RoleVariable,
			StartLine: line(n.StartPosition().Row),
		})
	}
	if left := n.ChildByFieldName("left"); left != nil {
		target := text(left, source)
		target = strings.TrimPrefix(target, "self.")
		result.VarTypes[target] = pyBaseType(typeNode, source)
	}
}

func (p *PythonParser) extractImport(node *tree_sitter.Node, source []byte, result *ParseResult) {
	imp := ImportStatement{StartLine: line(node.StartPosition().Row)}

	if node.Kind() == "import_from_statement" {
		module := node.ChildByFieldName("module_name")
		if module == nil {
			return
		}
		imp.Spec = text(module, source)
		imp.IsRelative = strings.HasPrefix(imp.Spec, ".")

		// Named imports follow the module name: dotted_name, aliased_import,
		// or wildcard_import children.
		for _, child := range namedChildren(node) {
			if child.Id() == module.Id() {
				continue
			}
			switch child.Kind() {
			case "dotted_name":
				imp.Symbols = append(imp.Symbols, text(child, source))
			case "aliased_import":
				if name := child.ChildByFieldName("name"); name != nil {
					imp.Symbols = append(imp.Symbols, text(name, source))
				}
			case "wildcard_import":
				imp.Symbols = append(imp.Symbols, "*")
			}
		}
		result.Imports = append(result.Imports, imp)
		return
	}

	// import a.b, c as d — one statement per module path.
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "dotted_name":
			result.Imports = append(result.Imports, ImportStatement{
				Spec:      text(child, source),
				StartLine: imp.StartLine,
			})
		case "aliased_import":
			entry := ImportStatement{StartLine: imp.StartLine}
			if name := child.ChildByFieldName("name"); name != nil {
				entry.Spec = text(name, source)
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				entry.Alias = text(alias, source)
			}
			if entry.Spec != "" {
				result.Imports = append(result.Imports, entry)
			}
		}
	}
}

// Helpers

func pyDecorators(decorated *tree_sitter.Node, source []byte) []string {
	var decs []string
	for _, child := range namedChildren(decorated) {
		if child.Kind() != "decorator" {
			continue
		}
		d := strings.TrimPrefix(text(child, source), "@")
		decs = append(decs, stripArgs(strings.TrimSpace(d)))
	}
	return decs
}

func pyParams(paramsNode *tree_sitter.Node, source []byte) (names []string, arity int) {
	if paramsNode == nil {
		return nil, 0
	}
	for _, param := range namedChildren(paramsNode) {
		var nameNode *tree_sitter.Node
		switch param.Kind() {
		case "identifier":
			nameNode = param
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			nameNode = pyParamName(param)
		case "list_splat_pattern", "dictionary_splat_pattern":
			nameNode = childOfKind(param, "identifier")
		default:
			continue
		}
		if nameNode == nil {
			continue
		}
		name := text(nameNode, source)
		if name == "self" || name == "cls" {
			continue
		}
		names = append(names, name)
		arity++
	}
	return names, arity
}

// pyParamName finds the identifier that names a parameter node.
func pyParamName(param *tree_sitter.Node) *tree_sitter.Node {
	if name := param.ChildByFieldName("name"); name != nil {
		return name
	}
	if param.Kind() == "identifier" {
		return param
	}
	return childOfKind(param, "identifier")
}

// pyBaseType extracts the head identifier of a type expression:
// `Optional[User]` yields Optional; `user.User` yields user.User.
func pyBaseType(typeNode *tree_sitter.Node, source []byte) string {
	t := text(typeNode, source)
	if idx := strings.IndexAny(t, "[("); idx > 0 {
		t = t[:idx]
	}
	return strings.TrimSpace(t)
}

// pyReceiverType maps a receiver expression to its annotated type.
// "self.x" and plain "x" both resolve through the file's VarTypes table.
func pyReceiverType(receiver string, varTypes map[string]string) string {
	key := strings.TrimPrefix(receiver, "self.")
	if t, ok := varTypes[key]; ok {
		// Strip a trailing module qualifier: models.User → User.
		if idx := strings.LastIndex(t, "."); idx >= 0 {
			return t[idx+1:]
		}
		return t
	}
	return ""
}

func pySignature(def *tree_sitter.Node, source []byte) string {
	name := text(def.ChildByFieldName("name"), source)
	params := text(def.ChildByFieldName("parameters"), source)
	sig := "def " + name + params
	if ret := def.ChildByFieldName("return_type"); ret != nil {
		sig += " -> " + text(ret, source)
	}
	return sig
}

func pyIsMainGuard(ifStmt *tree_sitter.Node, source []byte) bool {
	cond := ifStmt.ChildByFieldName("condition")
	if cond == nil {
		return false
	}
	t := text(cond, source)
	return strings.Contains(t, "__name__") && strings.Contains(t, "__main__")
}

func pyIsDunder(name string) bool {
	return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") && len(name) > 4
}

func pyHasPropertyDecorator(decorators []string) bool {
	for _, d := range decorators {
		if d == "property" || strings.HasSuffix(d, ".setter") || strings.HasSuffix(d, ".getter") {
			return true
		}
	}
	return false
}

func pyIsTestFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py")
}
