package ingestion

// callBlocklist holds callee names excluded from the call graph: language
// builtins, web/runtime globals, framework hook names, and base-class-library
// noise. It is immutable after init.
var callBlocklist = map[string]bool{}

func init() {
	for _, name := range blockedCalleeNames {
		callBlocklist[name] = true
	}
}

var blockedCalleeNames = []string{
	// Python builtins
	"print", "len", "isinstance", "issubclass", "range", "enumerate", "zip",
	"map", "filter", "sorted", "reversed", "sum", "min", "max", "abs", "round",
	"int", "float", "str", "bool", "list", "dict", "set", "tuple", "frozenset",
	"bytes", "bytearray", "type", "repr", "hash", "id", "iter", "next", "open",
	"input", "format", "getattr", "setattr", "hasattr", "delattr", "super",
	"staticmethod", "classmethod", "property", "callable", "all", "any",
	"append", "extend", "join", "split", "strip", "replace", "startswith",
	"endswith", "items", "keys", "values", "get", "update", "pop", "add",
	"remove",

	// JS / web runtime globals
	"console", "log", "warn", "error", "info", "debug", "setTimeout",
	"setInterval", "clearTimeout", "clearInterval", "fetch", "require",
	"parseInt", "parseFloat", "encodeURIComponent", "decodeURIComponent",
	"JSON", "stringify", "parse", "isArray", "from", "push", "shift", "slice",
	"concat", "indexOf", "includes", "find", "forEach", "reduce", "some",
	"then", "catch", "finally", "resolve", "reject", "bind", "apply", "call",

	// React / framework hooks
	"useState", "useEffect", "useContext", "useReducer", "useCallback",
	"useMemo", "useRef",

	// C# BCL and LINQ noise
	"WriteLine", "Write", "ReadLine", "ToString", "Equals", "GetHashCode",
	"GetType", "Parse", "TryParse", "Format", "Join", "IsNullOrEmpty",
	"Select", "Where", "First", "FirstOrDefault", "Any", "All", "Count",
	"ToList", "ToArray", "ToDictionary", "OrderBy", "OrderByDescending",
	"Contains", "Add", "Remove", "Dispose",
}
