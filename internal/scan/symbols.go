package scan

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/ctxprimer/ctxprimer/internal/index"
)

// grammars maps languages to tree-sitter grammars. Languages outside this
// map fall back to regex extraction.
var grammars = map[string]func() *sitter.Language{
	"go":         golang.GetLanguage,
	"python":     python.GetLanguage,
	"javascript": javascript.GetLanguage,
}

// symbolNodeTypes maps per-language AST node types to symbol kinds. The
// symbol name is the node's "name" field.
var symbolNodeTypes = map[string]map[string]string{
	"go": {
		"function_declaration": "function",
		"method_declaration":   "method",
		"type_spec":            "type",
		"const_spec":           "constant",
	},
	"python": {
		"function_definition": "function",
		"class_definition":    "type",
	},
	"javascript": {
		"function_declaration": "function",
		"class_declaration":    "type",
		"method_definition":    "method",
	},
}

// ExtractSymbols pulls symbol definitions and, for Go, call edges out of one
// file. Tree-sitter does the real parsing; a regex pass covers languages
// without a wired grammar. Parse failures degrade to the regex pass so one
// unparseable file cannot sink a scan.
func ExtractSymbols(ctx context.Context, language, path string, content []byte) ([]index.SymbolRecord, []index.CallEdge) {
	grammar, ok := grammars[language]
	if !ok {
		return extractRegex(language, path, content), nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammar())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return extractRegex(language, path, content), nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return extractRegex(language, path, content), nil
	}

	var symbols []index.SymbolRecord
	var edges []index.CallEdge
	nodeTypes := symbolNodeTypes[language]

	var walk func(node *sitter.Node, enclosing string)
	walk = func(node *sitter.Node, enclosing string) {
		kind, isSymbol := nodeTypes[node.Type()]
		if isSymbol {
			if name := fieldText(node, "name", content); name != "" {
				symbols = append(symbols, index.SymbolRecord{
					Name:      name,
					Kind:      kind,
					File:      path,
					Line:      int(node.StartPoint().Row) + 1,
					Signature: signatureOf(node, content),
				})
				if kind == "function" || kind == "method" {
					enclosing = name
				}
			}
		}
		if language == "go" && node.Type() == "call_expression" && enclosing != "" {
			if callee := calleeName(node, content); callee != "" && callee != enclosing {
				edges = append(edges, index.CallEdge{Caller: enclosing, Callee: callee, File: path})
			}
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i), enclosing)
		}
	}
	walk(root, "")
	return symbols, edges
}

func fieldText(node *sitter.Node, field string, content []byte) string {
	n := node.ChildByFieldName(field)
	if n == nil {
		return ""
	}
	return string(content[n.StartByte():n.EndByte()])
}

// signatureOf returns the declaration's first line, which for every wired
// grammar is the human-readable signature.
func signatureOf(node *sitter.Node, content []byte) string {
	text := string(content[node.StartByte():node.EndByte()])
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSuffix(strings.TrimSpace(text), "{")
}

// calleeName resolves a Go call_expression to the called symbol's base name.
// pkg.Func and recv.Method both report the rightmost identifier.
func calleeName(node *sitter.Node, content []byte) string {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return string(content[fn.StartByte():fn.EndByte()])
	case "selector_expression":
		return fieldText(fn, "field", content)
	}
	return ""
}

// ─── Regex fallback ──────────────────────────────────────────────────────────

// fallbackPatterns are coarse definition matchers for languages without a
// wired grammar. Group 1 is the symbol name.
var fallbackPatterns = map[string][]struct {
	kind string
	re   *regexp.Regexp
}{
	"typescript": {
		{"function", regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)`)},
		{"type", regexp.MustCompile(`^\s*(?:export\s+)?(?:class|interface|enum)\s+(\w+)`)},
		{"constant", regexp.MustCompile(`^\s*(?:export\s+)?const\s+([A-Z][A-Z0-9_]*)\b`)},
	},
	"rust": {
		{"function", regexp.MustCompile(`^\s*(?:pub\s+)?(?:async\s+)?fn\s+(\w+)`)},
		{"type", regexp.MustCompile(`^\s*(?:pub\s+)?(?:struct|enum|trait)\s+(\w+)`)},
		{"constant", regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)`)},
	},
	"java": {
		{"type", regexp.MustCompile(`^\s*(?:public\s+|private\s+|protected\s+)?(?:abstract\s+|final\s+)?(?:class|interface|enum)\s+(\w+)`)},
	},
	"ruby": {
		{"function", regexp.MustCompile(`^\s*def\s+(\w+)`)},
		{"type", regexp.MustCompile(`^\s*(?:class|module)\s+([A-Z]\w*)`)},
	},
}

func extractRegex(language, path string, content []byte) []index.SymbolRecord {
	patterns, ok := fallbackPatterns[language]
	if !ok {
		return nil
	}
	var symbols []index.SymbolRecord
	for lineNo, line := range strings.Split(string(content), "\n") {
		for _, p := range patterns {
			if m := p.re.FindStringSubmatch(line); m != nil {
				symbols = append(symbols, index.SymbolRecord{
					Name:      m[1],
					Kind:      p.kind,
					File:      path,
					Line:      lineNo + 1,
					Signature: strings.TrimSpace(line),
				})
				break
			}
		}
	}
	return symbols
}
