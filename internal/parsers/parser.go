// Package parsers provides tree-sitter based code parsers for Python,
// TypeScript, JavaScript, and C#.
//
// A parser consumes one file's byte content plus its syntax tree and emits
// symbol definitions, raw call sites, raw imports, heritage declarations,
// type annotations, decorators, and export markers. Parsers never resolve
// anything cross-file; that is the job of the resolver phases.
package parsers

import "github.com/spark-cjbot/axon/internal/graph"

// Symbol represents a code entity extracted from source.
type Symbol struct {
	// Name is the symbol name. Methods are qualified as "Class.method";
	// constructors as "Class.ctor" (C#) to keep node IDs collision-free.
	Name string

	// Kind is the symbol kind (function, class, method, interface, etc.)
	Kind graph.NodeLabel

	// StartLine is the starting line number (1-based).
	StartLine int

	// EndLine is the ending line number (1-based).
	EndLine int

	// Snippet is the source text of the definition, truncated for large bodies.
	Snippet string

	// Signature is the declaration header (name, params, return type).
	Signature string

	// ClassName is the owning class name (for methods).
	ClassName string

	// IsExported indicates if the symbol is exported/public.
	IsExported bool

	// IsTest marks test functions/methods.
	IsTest bool

	// IsCtor marks constructors.
	IsCtor bool

	// IsProperty marks property accessors (@property, C# properties).
	IsProperty bool

	// IsOverride marks methods carrying an explicit override modifier.
	IsOverride bool

	// IsStub marks interface method declarations without a body.
	IsStub bool

	// IsDefaultExport marks TS/JS default exports.
	IsDefaultExport bool

	// Decorators contains decorator/attribute names, without arguments.
	Decorators []string

	// ParamNames lists declared parameter names in order.
	ParamNames []string

	// Arity is the declared parameter count (implicit receivers excluded).
	Arity int

	// Bases holds base names as written, for classes. Whether a base is an
	// EXTENDS or IMPLEMENTS target is decided by the heritage resolver.
	Bases []string

	// MethodsDeclared holds method names declared by an interface.
	MethodsDeclared []string

	// Variants holds enum member names.
	Variants []string

	// TargetSyntactic is the aliased type expression, for type aliases.
	TargetSyntactic string
}

// ImportStatement represents a raw import statement.
type ImportStatement struct {
	// Spec is the import specifier as written ("./util", "src.models.user",
	// "react").
	Spec string

	// Symbols is the list of imported symbol names, when named.
	Symbols []string

	// Alias is the import alias (if any).
	Alias string

	// IsRelative indicates a relative specifier ("./x", "../y", ".sibling").
	IsRelative bool

	// StartLine is the line number of the import.
	StartLine int
}

// CallSite represents a raw function/method call before resolution.
type CallSite struct {
	// Caller is the qualified name of the enclosing symbol, or "" for
	// module-level code.
	Caller string

	// CallerKind is the node label of the enclosing symbol.
	CallerKind graph.NodeLabel

	// Callee is the called name as written (without receiver).
	Callee string

	// Receiver is the receiver expression text, if any ("self._repo", "db").
	Receiver string

	// ReceiverType is the receiver's static type where locally determinable.
	ReceiverType string

	// InMainGuard marks module-level calls inside a __main__ check (Python).
	InMainGuard bool

	// StartLine and EndLine give the source span of the call.
	StartLine int
	EndLine   int
}

// TypeRef represents a type annotation occurrence inside a symbol.
type TypeRef struct {
	// Owner is the qualified name of the symbol the annotation belongs to.
	Owner string

	// OwnerKind is the node label of the owner.
	OwnerKind graph.NodeLabel

	// Name is the referenced type name.
	Name string

	// Role is one of graph.RoleParam, graph.RoleReturn, graph.RoleVariable.
	Role string

	// StartLine is the line number of the annotation.
	StartLine int
}

// ParseResult contains all information extracted from one source file.
type ParseResult struct {
	// Language is the parser's language identifier.
	Language string

	// Symbols extracted from the file.
	Symbols []Symbol

	// Imports found in the file.
	Imports []ImportStatement

	// Calls found in the file, with caller attribution.
	Calls []CallSite

	// TypeRefs found in the file.
	TypeRefs []TypeRef

	// Exports lists exported symbol names.
	Exports []string

	// VarTypes maps variable/field/parameter names to their annotated type,
	// where locally determinable. Used by the call tracer for receiver
	// resolution.
	VarTypes map[string]string

	// HasMainGuard reports a module-level `if __name__ == "__main__"` block.
	HasMainGuard bool
}

// Parser defines the interface for language-specific parsers.
type Parser interface {
	// Parse parses source code and extracts symbols, imports, calls, etc.
	Parse(filePath string, content []byte) (*ParseResult, error)

	// Language returns the language this parser handles.
	Language() string
}

// ForLanguage returns the parser registered for a language, or nil.
// Parsers are stateless wrappers over pooled tree-sitter parsers, so the
// returned values are safe for concurrent use.
func ForLanguage(language string) Parser {
	switch language {
	case "python":
		return &PythonParser{}
	case "typescript":
		return &TypeScriptParser{}
	case "javascript":
		return &JavaScriptParser{}
	case "csharp":
		return &CSharpParser{}
	default:
		return nil
	}
}
