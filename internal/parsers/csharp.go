package parsers

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/spark-cjbot/axon/internal/graph"
)

// CSharpParser parses C# source files.
type CSharpParser struct{}

// Language returns the language this parser handles.
func (p *CSharpParser) Language() string {
	return "csharp"
}

// Parse parses C# source code and extracts symbols, imports, calls, etc.
func (p *CSharpParser) Parse(filePath string, content []byte) (*ParseResult, error) {
	content = stripBOM(content)

	tree, err := parseTree(grammarCSharp, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &ParseResult{
		Language: "csharp",
		VarTypes: make(map[string]string),
	}

	p.extractDeclarations(tree.RootNode(), content, result)

	for _, sym := range result.Symbols {
		if sym.IsExported && sym.ClassName == "" {
			result.Exports = append(result.Exports, sym.Name)
		}
	}

	return result, nil
}

// extractDeclarations recursively walks namespaces and type declarations.
func (p *CSharpParser) extractDeclarations(node *tree_sitter.Node, source []byte, result *ParseResult) {
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "namespace_declaration", "file_scoped_namespace_declaration":
			if body := child.ChildByFieldName("body"); body != nil {
				p.extractDeclarations(body, source, result)
			} else {
				p.extractDeclarations(child, source, result)
			}

		case "using_directive":
			spec := csUsingSpec(child, source)
			if spec != "" {
				result.Imports = append(result.Imports, ImportStatement{
					Spec:      spec,
					StartLine: line(child.StartPosition().Row),
				})
			}

		case "class_declaration", "struct_declaration", "record_declaration":
			p.extractClass(child, source, result)

		case "interface_declaration":
			p.extractInterface(child, source, result)

		case "enum_declaration":
			p.extractEnum(child, source, result)
		}
	}
}

func (p *CSharpParser) extractClass(node *tree_sitter.Node, source []byte, result *ParseResult) {
	name := text(node.ChildByFieldName("name"), source)
	if name == "" {
		return
	}

	result.Symbols = append(result.Symbols, Symbol{
		Name:       name,
		Kind:       graph.NodeClass,
		StartLine:  line(node.StartPosition().Row),
		EndLine:    line(node.EndPosition().Row),
		Signature:  "class " + name,
		Snippet:    snippetOf(node, source),
		Decorators: csAttributes(node, source),
		Bases:      csBases(node, source),
		IsExported: hasChildToken(node, source, "public"),
	})

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}

	for _, member := range namedChildren(body) {
		switch member.Kind() {
		case "method_declaration":
			p.extractMethod(member, source, name, false, result)
		case "constructor_declaration":
			p.extractCtor(member, source, name, result)
		case "property_declaration":
			p.extractProperty(member, source, name, result)
		case "field_declaration":
			p.recordFieldTypes(member, source, result)
		case "class_declaration", "struct_declaration", "interface_declaration", "enum_declaration":
			// Nested types are extracted flat, like top-level ones.
			p.extractDeclarations(body, source, result)
		}
	}
}

func (p *CSharpParser) extractInterface(node *tree_sitter.Node, source []byte, result *ParseResult) {
	name := text(node.ChildByFieldName("name"), source)
	if name == "" {
		return
	}

	iface := Symbol{
		Name:       name,
		Kind:       graph.NodeInterface,
		StartLine:  line(node.StartPosition().Row),
		EndLine:    line(node.EndPosition().Row),
		Signature:  "interface " + name,
		Snippet:    snippetOf(node, source),
		Decorators: csAttributes(node, source),
		Bases:      csBases(node, source),
		IsExported: hasChildToken(node, source, "public"),
	}

	if body := node.ChildByFieldName("body"); body != nil {
		for _, member := range namedChildren(body) {
			if member.Kind() != "method_declaration" {
				continue
			}
			methodName := text(member.ChildByFieldName("name"), source)
			if methodName == "" {
				continue
			}
			iface.MethodsDeclared = append(iface.MethodsDeclared, methodName)
			p.extractMethod(member, source, name, true, result)
		}
	}

	result.Symbols = append(result.Symbols, iface)
}

func (p *CSharpParser) extractMethod(
	member *tree_sitter.Node, source []byte,
	owner string, isStub bool, result *ParseResult,
) {
	methodName := text(member.ChildByFieldName("name"), source)
	if methodName == "" {
		return
	}

	qualified := owner + "." + methodName
	paramsNode := member.ChildByFieldName("parameters")
	paramNames := p.extractParams(paramsNode, source, qualified, graph.NodeMethod, result)

	returns := member.ChildByFieldName("returns")
	if returns == nil {
		returns = member.ChildByFieldName("type")
	}

	attrs := csAttributes(member, source)
	result.Symbols = append(result.Symbols, Symbol{
		Name:       qualified,
		Kind:       graph.NodeMethod,
		ClassName:  owner,
		StartLine:  line(member.StartPosition().Row),
		EndLine:    line(member.EndPosition().Row),
		Signature:  strings.TrimSpace(text(returns, source) + " " + methodName + text(paramsNode, source)),
		Snippet:    snippetOf(member, source),
		Decorators: attrs,
		ParamNames: paramNames,
		Arity:      len(paramNames),
		IsExported: hasChildToken(member, source, "public"),
		IsOverride: hasChildToken(member, source, "override"),
		IsStub:     isStub,
		IsTest:     csHasTestAttribute(attrs),
	})

	if returns != nil {
		for _, tn := range identifiersIn(returns, source) {
			result.TypeRefs = append(result.TypeRefs, TypeRef{
				Owner: qualified, OwnerKind: graph.NodeMethod,
				Name: tn, Role: graph.RoleReturn,
				StartLine: line(returns.StartPosition().Row),
			})
		}
	}

	if body := member.ChildByFieldName("body"); body != nil {
		p.extractBody(body, source, qualified, result)
	}
}

// extractCtor stores constructors under "ClassName.ctor" so their node IDs
// cannot collide with the class node.
func (p *CSharpParser) extractCtor(
	member *tree_sitter.Node, source []byte,
	owner string, result *ParseResult,
) {
	qualified := owner + ".ctor"
	paramsNode := member.ChildByFieldName("parameters")
	paramNames := p.extractParams(paramsNode, source, qualified, graph.NodeMethod, result)

	result.Symbols = append(result.Symbols, Symbol{
		Name:       qualified,
		Kind:       graph.NodeMethod,
		ClassName:  owner,
		StartLine:  line(member.StartPosition().Row),
		EndLine:    line(member.EndPosition().Row),
		Signature:  owner + text(paramsNode, source),
		Snippet:    snippetOf(member, source),
		Decorators: csAttributes(member, source),
		ParamNames: paramNames,
		Arity:      len(paramNames),
		IsExported: hasChildToken(member, source, "public"),
		IsCtor:     true,
	})

	if body := member.ChildByFieldName("body"); body != nil {
		p.extractBody(body, source, qualified, result)
	}
}

func (p *CSharpParser) extractProperty(
	member *tree_sitter.Node, source []byte,
	owner string, result *ParseResult,
) {
	propName := text(member.ChildByFieldName("name"), source)
	if propName == "" {
		return
	}

	qualified := owner + "." + propName
	typeNode := member.ChildByFieldName("type")

	result.Symbols = append(result.Symbols, Symbol{
		Name:       qualified,
		Kind:       graph.NodeMethod,
		ClassName:  owner,
		StartLine:  line(member.StartPosition().Row),
		EndLine:    line(member.EndPosition().Row),
		Signature:  strings.TrimSpace(text(typeNode, source) + " " + propName),
		Snippet:    snippetOf(member, source),
		Decorators: csAttributes(member, source),
		IsExported: hasChildToken(member, source, "public"),
		IsProperty: true,
	})

	if typeNode != nil {
		result.VarTypes[propName] = csBaseType(typeNode, source)
	}
}

// recordFieldTypes feeds `private IUserRepository _repo;` style fields into
// the receiver-type table.
func (p *CSharpParser) recordFieldTypes(member *tree_sitter.Node, source []byte, result *ParseResult) {
	varDecl := childOfKind(member, "variable_declaration")
	if varDecl == nil {
		return
	}
	typeNode := varDecl.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	fieldType := csBaseType(typeNode, source)
	for _, declarator := range namedChildren(varDecl) {
		if declarator.Kind() != "variable_declarator" {
			continue
		}
		name := text(declarator.ChildByFieldName("name"), source)
		if name == "" {
			if id := childOfKind(declarator, "identifier"); id != nil {
				name = text(id, source)
			}
		}
		if name != "" {
			result.VarTypes[name] = fieldType
		}
	}
}

func (p *CSharpParser) extractEnum(node *tree_sitter.Node, source []byte, result *ParseResult) {
	name := text(node.ChildByFieldName("name"), source)
	if name == "" {
		return
	}
	var variants []string
	if body := node.ChildByFieldName("body"); body != nil {
		for _, member := range namedChildren(body) {
			if member.Kind() != "enum_member_declaration" {
				continue
			}
			if mn := member.ChildByFieldName("name"); mn != nil {
				variants = append(variants, text(mn, source))
			}
		}
	}
	result.Symbols = append(result.Symbols, Symbol{
		Name:       name,
		Kind:       graph.NodeEnum,
		StartLine:  line(node.StartPosition().Row),
		EndLine:    line(node.EndPosition().Row),
		Signature:  "enum " + name,
		Snippet:    snippetOf(node, source),
		Variants:   variants,
		IsExported: hasChildToken(node, source, "public"),
	})
}

// extractBody scans a method body for invocations and typed locals.
func (p *CSharpParser) extractBody(
	body *tree_sitter.Node, source []byte,
	qualified string, result *ParseResult,
) {
	walk(body, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "invocation_expression":
			p.extractInvocation(n, source, qualified, result)
			return true

		case "object_creation_expression":
			if typeNode := n.ChildByFieldName("type"); typeNode != nil {
				result.Calls = append(result.Calls, CallSite{
					Caller: qualified, CallerKind: graph.NodeMethod,
					Callee:    csBaseType(typeNode, source) + ".ctor",
					StartLine: line(n.StartPosition().Row),
					EndLine:   line(n.EndPosition().Row),
				})
			}
			return true

		case "variable_declaration":
			p.recordLocalTypes(n, source, qualified, result)
			return true
		}
		return true
	})
}

func (p *CSharpParser) extractInvocation(
	n *tree_sitter.Node, source []byte,
	qualified string, result *ParseResult,
) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}

	call := CallSite{
		Caller: qualified, CallerKind: graph.NodeMethod,
		StartLine: line(n.StartPosition().Row),
		EndLine:   line(n.EndPosition().Row),
	}

	switch fn.Kind() {
	case "identifier":
		call.Callee = text(fn, source)
	case "member_access_expression":
		nameNode := fn.ChildByFieldName("name")
		exprNode := fn.ChildByFieldName("expression")
		if nameNode == nil {
			return
		}
		call.Callee = text(nameNode, source)
		call.Receiver = text(exprNode, source)
		recv := strings.TrimPrefix(call.Receiver, "this.")
		if t, ok := result.VarTypes[recv]; ok {
			call.ReceiverType = t
		}
	default:
		return
	}

	if call.Callee != "" {
		result.Calls = append(result.Calls, call)
	}
}

func (p *CSharpParser) recordLocalTypes(
	n *tree_sitter.Node, source []byte,
	owner string, result *ParseResult,
) {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	baseType := csBaseType(typeNode, source)
	if baseType == "var" {
		return
	}

	for _, tn := range identifiersIn(typeNode, source) {
		result.TypeRefs = append(result.TypeRefs, TypeRef{
			Owner: owner, OwnerKind: graph.NodeMethod,
			Name: tn, Role: graph.RoleVariable,
			StartLine: line(n.StartPosition().Row),
		})
	}

	for _, declarator := range namedChildren(n) {
		if declarator.Kind() != "variable_declarator" {
			continue
		}
		name := text(declarator.ChildByFieldName("name"), source)
		if name == "" {
			if id := childOfKind(declarator, "identifier"); id != nil {
				name = text(id, source)
			}
		}
		if name != "" {
			result.VarTypes[name] = baseType
		}
	}
}

// extractParams records parameter names, types, and type refs.
func (p *CSharpParser) extractParams(
	paramsNode *tree_sitter.Node, source []byte,
	owner string, kind graph.NodeLabel, result *ParseResult,
) []string {
	if paramsNode == nil {
		return nil
	}
	var names []string
	for _, param := range namedChildren(paramsNode) {
		if param.Kind() != "parameter" {
			continue
		}
		name := text(param.ChildByFieldName("name"), source)
		if name != "" {
			names = append(names, name)
		}
		if typeNode := param.ChildByFieldName("type"); typeNode != nil {
			for _, tn := range identifiersIn(typeNode, source) {
				result.TypeRefs = append(result.TypeRefs, TypeRef{
					Owner: owner, OwnerKind: kind,
					Name: tn, Role: graph.RoleParam,
					StartLine: line(param.StartPosition().Row),
				})
			}
			if name != "" {
				result.VarTypes[name] = csBaseType(typeNode, source)
			}
		}
	}
	return names
}

// Helpers

func csUsingSpec(node *tree_sitter.Node, source []byte) string {
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "qualified_name", "identifier":
			return text(child, source)
		}
	}
	return ""
}

// csBases returns base type names from a class/interface base_list.
func csBases(node *tree_sitter.Node, source []byte) []string {
	baseList := childOfKind(node, "base_list")
	if baseList == nil {
		return nil
	}
	var bases []string
	for _, child := range namedChildren(baseList) {
		switch child.Kind() {
		case "identifier", "qualified_name":
			bases = append(bases, text(child, source))
		case "generic_name":
			if id := childOfKind(child, "identifier"); id != nil {
				bases = append(bases, text(id, source))
			}
		}
	}
	return bases
}

// csAttributes returns attribute names ([HttpGet], [Route("/x")]) declared
// on a node, without arguments or brackets.
func csAttributes(node *tree_sitter.Node, source []byte) []string {
	var attrs []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "attribute_list" {
			continue
		}
		for _, attr := range namedChildren(child) {
			if attr.Kind() != "attribute" {
				continue
			}
			if name := attr.ChildByFieldName("name"); name != nil {
				attrs = append(attrs, text(name, source))
			}
		}
	}
	return attrs
}

func csBaseType(typeNode *tree_sitter.Node, source []byte) string {
	t := text(typeNode, source)
	if idx := strings.IndexAny(t, "<["); idx > 0 {
		t = t[:idx]
	}
	return strings.TrimSpace(t)
}

var csTestAttributes = map[string]bool{
	"Fact":       true,
	"Theory":     true,
	"Test":       true,
	"TestCase":   true,
	"TestMethod": true,
}

func csHasTestAttribute(attrs []string) bool {
	for _, a := range attrs {
		if csTestAttributes[a] {
			return true
		}
	}
	return false
}

// stripBOM removes a UTF-8 byte order mark (common in Windows-generated C#).
func stripBOM(source []byte) []byte {
	if len(source) >= 3 && source[0] == 0xEF && source[1] == 0xBB && source[2] == 0xBF {
		return source[3:]
	}
	return source
}
