package parsers

import (
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/spark-cjbot/axon/internal/graph"
)

// TypeScriptParser parses TypeScript and TSX source files.
type TypeScriptParser struct{}

// Language returns the language this parser handles.
func (p *TypeScriptParser) Language() string {
	return "typescript"
}

// Parse parses TypeScript source code and extracts symbols, imports, calls, etc.
func (p *TypeScriptParser) Parse(filePath string, content []byte) (*ParseResult, error) {
	grammar := grammarTypeScript
	if strings.HasSuffix(filePath, ".tsx") {
		grammar = grammarTSX
	}

	tree, err := parseTree(grammar, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	ex := &ecmaExtractor{
		source: content,
		result: &ParseResult{Language: "typescript", VarTypes: make(map[string]string)},
		isTest: ecmaIsTestFile(filePath),
	}
	ex.extractProgram(tree.RootNode())
	return ex.result, nil
}

// ecmaExtractor is the shared TS/TSX/JS extraction engine. The two grammars
// share their node vocabulary; JavaScript simply never produces the
// type-annotation nodes.
type ecmaExtractor struct {
	source []byte
	result *ParseResult
	isTest bool
}

// ecmaContext carries the enclosing class/symbol during traversal.
type ecmaContext struct {
	class string
	owner string
	kind  graph.NodeLabel
}

func (ex *ecmaExtractor) extractProgram(root *tree_sitter.Node) {
	for _, child := range namedChildren(root) {
		ex.extractStatement(child, false, false)
	}
}

// extractStatement handles one top-level statement. exported and
// defaultExport reflect an enclosing export_statement.
func (ex *ecmaExtractor) extractStatement(node *tree_sitter.Node, exported, defaultExport bool) {
	switch node.Kind() {
	case "import_statement":
		ex.extractImport(node)

	case "export_statement":
		isDefault := childOfKind(node, "default") != nil || strings.HasPrefix(text(node, ex.source), "export default")
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			ex.extractStatement(decl, true, isDefault)
			return
		}
		// export { a, b } — mark the names; export default <expr> — calls only.
		if clause := childOfKind(node, "export_clause"); clause != nil {
			for _, spec := range namedChildren(clause) {
				if name := spec.ChildByFieldName("name"); name != nil {
					ex.result.Exports = append(ex.result.Exports, text(name, ex.source))
				}
			}
			return
		}
		ex.walkBody(node, ecmaContext{})

	case "function_declaration", "generator_function_declaration":
		ex.extractFunction(node, exported, defaultExport)

	case "class_declaration", "abstract_class_declaration":
		ex.extractClass(node, exported)

	case "interface_declaration":
		ex.extractInterface(node, exported)

	case "type_alias_declaration":
		ex.extractTypeAlias(node, exported)

	case "enum_declaration":
		ex.extractEnum(node, exported)

	case "lexical_declaration", "variable_declaration":
		for _, decl := range namedChildren(node) {
			if decl.Kind() == "variable_declarator" {
				ex.extractDeclarator(decl, exported, defaultExport)
			}
		}

	default:
		// Module-level statements: record calls with empty caller.
		ex.walkBody(node, ecmaContext{})
	}
}

func (ex *ecmaExtractor) extractFunction(node *tree_sitter.Node, exported, defaultExport bool) {
	name := text(node.ChildByFieldName("name"), ex.source)
	if name == "" {
		if !defaultExport {
			return
		}
		name = "default"
	}

	paramsNode := node.ChildByFieldName("parameters")
	paramNames := ex.paramNames(paramsNode)

	sym := Symbol{
		Name:            name,
		Kind:            graph.NodeFunction,
		StartLine:       line(node.StartPosition().Row),
		EndLine:         line(node.EndPosition().Row),
		Signature:       ex.signature(node, name),
		Snippet:         snippetOf(node, ex.source),
		ParamNames:      paramNames,
		Arity:           len(paramNames),
		IsExported:      exported,
		IsDefaultExport: defaultExport,
		IsTest:          ex.isTest,
	}
	ex.result.Symbols = append(ex.result.Symbols, sym)
	if exported {
		ex.result.Exports = append(ex.result.Exports, name)
	}

	ex.annotations(node, paramsNode, name, graph.NodeFunction)

	if body := node.ChildByFieldName("body"); body != nil {
		ex.walkBody(body, ecmaContext{owner: name, kind: graph.NodeFunction})
	}
}

// extractDeclarator handles `const f = () => {}` style definitions and
// module-level annotated variables.
func (ex *ecmaExtractor) extractDeclarator(decl *tree_sitter.Node, exported, defaultExport bool) {
	nameNode := decl.ChildByFieldName("name")
	value := decl.ChildByFieldName("value")
	name := text(nameNode, ex.source)
	if name == "" {
		return
	}

	if typeNode := decl.ChildByFieldName("type"); typeNode != nil {
		ex.recordVarType(name, typeNode)
	}

	if value != nil && (value.Kind() == "arrow_function" || value.Kind() == "function_expression" || value.Kind() == "function") {
		paramsNode := value.ChildByFieldName("parameters")
		paramNames := ex.paramNames(paramsNode)
		if paramsNode == nil {
			// Single-parameter arrow without parens: x => ...
			if param := value.ChildByFieldName("parameter"); param != nil {
				paramNames = []string{text(param, ex.source)}
			}
		}

		sym := Symbol{
			Name:            name,
			Kind:            graph.NodeFunction,
			StartLine:       line(decl.StartPosition().Row),
			EndLine:         line(decl.EndPosition().Row),
			Signature:       "const " + name + " = " + text(paramsNode, ex.source) + " => …",
			Snippet:         snippetOf(decl, ex.source),
			ParamNames:      paramNames,
			Arity:           len(paramNames),
			IsExported:      exported,
			IsDefaultExport: defaultExport,
			IsTest:          ex.isTest,
		}
		ex.result.Symbols = append(ex.result.Symbols, sym)
		if exported {
			ex.result.Exports = append(ex.result.Exports, name)
		}

		ex.annotations(value, paramsNode, name, graph.NodeFunction)
		if body := value.ChildByFieldName("body"); body != nil {
			ex.walkBody(body, ecmaContext{owner: name, kind: graph.NodeFunction})
		}
		return
	}

	if value != nil {
		ex.walkBody(value, ecmaContext{})
	}
}

func (ex *ecmaExtractor) extractClass(node *tree_sitter.Node, exported bool) {
	name := text(node.ChildByFieldName("name"), ex.source)
	if name == "" {
		return
	}

	var bases []string
	// TS: class_heritage → extends_clause / implements_clause.
	// JS: class_heritage directly wraps `extends <expr>`.
	if heritage := childOfKind(node, "class_heritage"); heritage != nil {
		if ext := childOfKind(heritage, "extends_clause"); ext != nil || childOfKind(heritage, "implements_clause") != nil {
			if ext != nil {
				bases = append(bases, ecmaHeritageNames(ext, ex.source)...)
			}
			if impl := childOfKind(heritage, "implements_clause"); impl != nil {
				bases = append(bases, ecmaHeritageNames(impl, ex.source)...)
			}
		} else {
			bases = append(bases, ecmaHeritageNames(heritage, ex.source)...)
		}
	}

	ex.result.Symbols = append(ex.result.Symbols, Symbol{
		Name:       name,
		Kind:       graph.NodeClass,
		StartLine:  line(node.StartPosition().Row),
		EndLine:    line(node.EndPosition().Row),
		Signature:  "class " + name,
		Snippet:    snippetOf(node, ex.source),
		Decorators: ex.decorators(node),
		Bases:      bases,
		IsExported: exported,
		IsTest:     ex.isTest,
	})
	if exported {
		ex.result.Exports = append(ex.result.Exports, name)
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for _, member := range namedChildren(body) {
		switch member.Kind() {
		case "method_definition":
			ex.extractMethod(member, name)
		case "public_field_definition", "field_definition":
			ex.extractField(member, name)
		}
	}
}

func (ex *ecmaExtractor) extractMethod(member *tree_sitter.Node, className string) {
	nameNode := member.ChildByFieldName("name")
	methodName := text(nameNode, ex.source)
	if methodName == "" {
		return
	}

	qualified := className + "." + methodName
	paramsNode := member.ChildByFieldName("parameters")
	paramNames := ex.paramNames(paramsNode)
	isCtor := methodName == "constructor"

	ex.result.Symbols = append(ex.result.Symbols, Symbol{
		Name:       qualified,
		Kind:       graph.NodeMethod,
		ClassName:  className,
		StartLine:  line(member.StartPosition().Row),
		EndLine:    line(member.EndPosition().Row),
		Signature:  ex.signature(member, methodName),
		Snippet:    snippetOf(member, ex.source),
		Decorators: ex.decorators(member),
		ParamNames: paramNames,
		Arity:      len(paramNames),
		IsCtor:     isCtor,
		IsProperty: childOfKind(member, "get") != nil || childOfKind(member, "set") != nil,
		IsTest:     ex.isTest,
	})

	ex.annotations(member, paramsNode, qualified, graph.NodeMethod)
	if body := member.ChildByFieldName("body"); body != nil {
		ex.walkBody(body, ecmaContext{class: className, owner: qualified, kind: graph.NodeMethod})
	}
}

// extractField handles class fields: annotated fields feed the receiver-type
// table, arrow-function fields become methods.
func (ex *ecmaExtractor) extractField(member *tree_sitter.Node, className string) {
	nameNode := member.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = member.ChildByFieldName("property")
	}
	fieldName := text(nameNode, ex.source)
	if fieldName == "" {
		return
	}

	if typeNode := member.ChildByFieldName("type"); typeNode != nil {
		ex.recordVarType(fieldName, typeNode)
		for _, tn := range identifiersIn(typeNode, ex.source) {
			ex.result.TypeRefs = append(ex.result.TypeRefs, TypeRef{
				Owner: className, OwnerKind: graph.NodeClass,
				Name: tn, Role: graph.RoleVariable,
				StartLine: line(member.StartPosition().Row),
			})
		}
	}

	value := member.ChildByFieldName("value")
	if value != nil && value.Kind() == "arrow_function" {
		qualified := className + "." + fieldName
		paramsNode := value.ChildByFieldName("parameters")
		paramNames := ex.paramNames(paramsNode)

		ex.result.Symbols = append(ex.result.Symbols, Symbol{
			Name:       qualified,
			Kind:       graph.NodeMethod,
			ClassName:  className,
			StartLine:  line(member.StartPosition().Row),
			EndLine:    line(member.EndPosition().Row),
			Signature:  fieldName + text(paramsNode, ex.source),
			Snippet:    snippetOf(member, ex.source),
			ParamNames: paramNames,
			Arity:      len(paramNames),
			IsTest:     ex.isTest,
		})

		ex.annotations(value, paramsNode, qualified, graph.NodeMethod)
		if body := value.ChildByFieldName("body"); body != nil {
			ex.walkBody(body, ecmaContext{class: className, owner: qualified, kind: graph.NodeMethod})
		}
	}
}

func (ex *ecmaExtractor) extractInterface(node *tree_sitter.Node, exported bool) {
	name := text(node.ChildByFieldName("name"), ex.source)
	if name == "" {
		return
	}

	var declared []string
	if body := node.ChildByFieldName("body"); body != nil {
		for _, member := range namedChildren(body) {
			switch member.Kind() {
			case "method_signature":
				if mn := member.ChildByFieldName("name"); mn != nil {
					declared = append(declared, text(mn, ex.source))
				}
			case "property_signature":
				// Function-typed properties count as declared methods.
				if tn := member.ChildByFieldName("type"); tn != nil && strings.Contains(text(tn, ex.source), "=>") {
					if mn := member.ChildByFieldName("name"); mn != nil {
						declared = append(declared, text(mn, ex.source))
					}
				}
			}
		}
	}

	ex.result.Symbols = append(ex.result.Symbols, Symbol{
		Name:            name,
		Kind:            graph.NodeInterface,
		StartLine:       line(node.StartPosition().Row),
		EndLine:         line(node.EndPosition().Row),
		Signature:       "interface " + name,
		Snippet:         snippetOf(node, ex.source),
		MethodsDeclared: declared,
		IsExported:      exported,
		IsTest:          ex.isTest,
	})
	if exported {
		ex.result.Exports = append(ex.result.Exports, name)
	}
}

func (ex *ecmaExtractor) extractTypeAlias(node *tree_sitter.Node, exported bool) {
	name := text(node.ChildByFieldName("name"), ex.source)
	if name == "" {
		return
	}
	ex.result.Symbols = append(ex.result.Symbols, Symbol{
		Name:            name,
		Kind:            graph.NodeTypeAlias,
		StartLine:       line(node.StartPosition().Row),
		EndLine:         line(node.EndPosition().Row),
		Signature:       "type " + name,
		Snippet:         snippetOf(node, ex.source),
		TargetSyntactic: text(node.ChildByFieldName("value"), ex.source),
		IsExported:      exported,
		IsTest:          ex.isTest,
	})
	if exported {
		ex.result.Exports = append(ex.result.Exports, name)
	}
}

func (ex *ecmaExtractor) extractEnum(node *tree_sitter.Node, exported bool) {
	name := text(node.ChildByFieldName("name"), ex.source)
	if name == "" {
		return
	}
	var variants []string
	if body := node.ChildByFieldName("body"); body != nil {
		for _, member := range namedChildren(body) {
			switch member.Kind() {
			case "enum_assignment":
				if mn := member.ChildByFieldName("name"); mn != nil {
					variants = append(variants, text(mn, ex.source))
				}
			case "property_identifier":
				variants = append(variants, text(member, ex.source))
			}
		}
	}
	ex.result.Symbols = append(ex.result.Symbols, Symbol{
		Name:       name,
		Kind:       graph.NodeEnum,
		StartLine:  line(node.StartPosition().Row),
		EndLine:    line(node.EndPosition().Row),
		Signature:  "enum " + name,
		Snippet:    snippetOf(node, ex.source),
		Variants:   variants,
		IsExported: exported,
		IsTest:     ex.isTest,
	})
	if exported {
		ex.result.Exports = append(ex.result.Exports, name)
	}
}

func (ex *ecmaExtractor) extractImport(node *tree_sitter.Node) {
	source := node.ChildByFieldName("source")
	if source == nil {
		return
	}
	spec := strings.Trim(text(source, ex.source), `"'`)

	imp := ImportStatement{
		Spec:       spec,
		IsRelative: strings.HasPrefix(spec, "."),
		StartLine:  line(node.StartPosition().Row),
	}

	if clause := childOfKind(node, "import_clause"); clause != nil {
		for _, child := range namedChildren(clause) {
			switch child.Kind() {
			case "identifier":
				imp.Symbols = append(imp.Symbols, text(child, ex.source))
			case "named_imports":
				for _, spec := range namedChildren(child) {
					if spec.Kind() != "import_specifier" {
						continue
					}
					if name := spec.ChildByFieldName("name"); name != nil {
						imp.Symbols = append(imp.Symbols, text(name, ex.source))
					}
				}
			case "namespace_import":
				if id := childOfKind(child, "identifier"); id != nil {
					imp.Alias = text(id, ex.source)
				}
			}
		}
	}

	ex.result.Imports = append(ex.result.Imports, imp)
}

// walkBody scans a statement subtree for call sites, JSX component usage,
// and annotated locals. Nested function/class definitions are skipped: the
// teacher of record for those is the statement-level extraction, and nested
// closures attribute their calls to the enclosing symbol.
func (ex *ecmaExtractor) walkBody(node *tree_sitter.Node, ctx ecmaContext) {
	walk(node, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "call_expression":
			ex.extractCall(n, ctx)
			return true

		case "new_expression":
			if ctor := n.ChildByFieldName("constructor"); ctor != nil && ctor.Kind() == "identifier" {
				ex.result.Calls = append(ex.result.Calls, CallSite{
					Caller: ctx.owner, CallerKind: ctx.kind,
					Callee:    text(ctor, ex.source),
					StartLine: line(n.StartPosition().Row),
					EndLine:   line(n.EndPosition().Row),
				})
			}
			return true

		case "jsx_opening_element", "jsx_self_closing_element":
			// JSX usage is an ordinary call to the component symbol.
			name := text(n.ChildByFieldName("name"), ex.source)
			if name != "" && name[0] >= 'A' && name[0] <= 'Z' {
				ex.result.Calls = append(ex.result.Calls, CallSite{
					Caller: ctx.owner, CallerKind: ctx.kind,
					Callee:    name,
					StartLine: line(n.StartPosition().Row),
					EndLine:   line(n.EndPosition().Row),
				})
			}
			return true

		case "variable_declarator":
			if typeNode := n.ChildByFieldName("type"); typeNode != nil {
				name := text(n.ChildByFieldName("name"), ex.source)
				ex.recordVarType(name, typeNode)
				for _, tn := range identifiersIn(typeNode, ex.source) {
					ex.result.TypeRefs = append(ex.result.TypeRefs, TypeRef{
						Owner: ctx.owner, OwnerKind: ctx.kind,
						Name: tn, Role: graph.RoleVariable,
						StartLine: line(n.StartPosition().Row),
					})
				}
			}
			return true
		}
		return true
	})
}

func (ex *ecmaExtractor) extractCall(n *tree_sitter.Node, ctx ecmaContext) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}

	call := CallSite{
		Caller: ctx.owner, CallerKind: ctx.kind,
		StartLine: line(n.StartPosition().Row),
		EndLine:   line(n.EndPosition().Row),
	}

	switch fn.Kind() {
	case "identifier":
		call.Callee = text(fn, ex.source)
	case "member_expression":
		prop := fn.ChildByFieldName("property")
		obj := fn.ChildByFieldName("object")
		if prop == nil {
			return
		}
		call.Callee = text(prop, ex.source)
		call.Receiver = text(obj, ex.source)
		call.ReceiverType = ex.receiverType(call.Receiver)
	default:
		return
	}

	if call.Callee != "" {
		ex.result.Calls = append(ex.result.Calls, call)
	}
}

// receiverType resolves "this.repo" or "repo" through the recorded
// annotations.
func (ex *ecmaExtractor) receiverType(receiver string) string {
	key := strings.TrimPrefix(receiver, "this.")
	if t, ok := ex.result.VarTypes[key]; ok {
		return t
	}
	return ""
}

func (ex *ecmaExtractor) recordVarType(name string, typeNode *tree_sitter.Node) {
	t := strings.TrimSpace(strings.TrimPrefix(text(typeNode, ex.source), ":"))
	if idx := strings.IndexAny(t, "<["); idx > 0 {
		t = t[:idx]
	}
	t = strings.TrimSpace(t)
	if name != "" && t != "" {
		ex.result.VarTypes[name] = t
	}
}

// annotations records param/return type refs for a function-like node.
func (ex *ecmaExtractor) annotations(node, paramsNode *tree_sitter.Node, owner string, kind graph.NodeLabel) {
	if paramsNode != nil {
		for _, param := range namedChildren(paramsNode) {
			typeNode := param.ChildByFieldName("type")
			if typeNode == nil {
				continue
			}
			for _, tn := range identifiersIn(typeNode, ex.source) {
				ex.result.TypeRefs = append(ex.result.TypeRefs, TypeRef{
					Owner: owner, OwnerKind: kind,
					Name: tn, Role: graph.RoleParam,
					StartLine: line(param.StartPosition().Row),
				})
			}
			if pn := param.ChildByFieldName("pattern"); pn != nil {
				ex.recordVarType(text(pn, ex.source), typeNode)
			}
		}
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		for _, tn := range identifiersIn(ret, ex.source) {
			ex.result.TypeRefs = append(ex.result.TypeRefs, TypeRef{
				Owner: owner, OwnerKind: kind,
				Name: tn, Role: graph.RoleReturn,
				StartLine: line(ret.StartPosition().Row),
			})
		}
	}
}

func (ex *ecmaExtractor) paramNames(paramsNode *tree_sitter.Node) []string {
	if paramsNode == nil {
		return nil
	}
	var names []string
	for _, param := range namedChildren(paramsNode) {
		switch param.Kind() {
		case "identifier":
			names = append(names, text(param, ex.source))
		case "required_parameter", "optional_parameter":
			if pn := param.ChildByFieldName("pattern"); pn != nil {
				names = append(names, text(pn, ex.source))
			}
		case "rest_pattern":
			if id := childOfKind(param, "identifier"); id != nil {
				names = append(names, text(id, ex.source))
			}
		}
	}
	return names
}

func (ex *ecmaExtractor) decorators(node *tree_sitter.Node) []string {
	var decs []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "decorator" {
			continue
		}
		d := strings.TrimPrefix(text(child, ex.source), "@")
		decs = append(decs, stripArgs(strings.TrimSpace(d)))
	}
	return decs
}

func (ex *ecmaExtractor) signature(node *tree_sitter.Node, name string) string {
	sig := name + text(node.ChildByFieldName("parameters"), ex.source)
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		sig += text(ret, ex.source)
	}
	return sig
}

// ecmaHeritageNames extracts base names from an extends/implements clause.
func ecmaHeritageNames(clause *tree_sitter.Node, source []byte) []string {
	var names []string
	for _, child := range namedChildren(clause) {
		switch child.Kind() {
		case "identifier", "type_identifier", "member_expression", "nested_type_identifier":
			names = append(names, text(child, source))
		case "generic_type":
			if name := child.ChildByFieldName("name"); name != nil {
				names = append(names, text(name, source))
			}
		}
	}
	return names
}

func ecmaIsTestFile(path string) bool {
	base := filepath.Base(path)
	return strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") ||
		strings.Contains(path, "__tests__/")
}
