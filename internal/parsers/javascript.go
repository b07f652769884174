package parsers

// JavaScriptParser parses JavaScript and JSX source files.
//
// The JavaScript grammar shares its node vocabulary with the TypeScript
// grammar (minus type annotations), so extraction is delegated to the same
// engine the TypeScript parser uses.
type JavaScriptParser struct{}

// Language returns the language this parser handles.
func (p *JavaScriptParser) Language() string {
	return "javascript"
}

// Parse parses JavaScript source code and extracts symbols, imports, calls, etc.
func (p *JavaScriptParser) Parse(filePath string, content []byte) (*ParseResult, error) {
	tree, err := parseTree(grammarJavaScript, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	ex := &ecmaExtractor{
		source: content,
		result: &ParseResult{Language: "javascript", VarTypes: make(map[string]string)},
		isTest: ecmaIsTestFile(filePath),
	}
	ex.extractProgram(tree.RootNode())
	return ex.result, nil
}
