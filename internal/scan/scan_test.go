package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctxprimer/ctxprimer/internal/index"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

const goSource = `// @ctx:domain auth
// @ctx:purpose session handling
package auth

func NewSession(id string) error {
	return IssueToken(id)
}

func IssueToken(id string) error {
	return nil
}
`

func TestProjectScan(t *testing.T) {
	root := writeTree(t, map[string]string{
		"internal/auth/session.go": goSource,
		"internal/auth/token.go": `// @ctx:lock frozen - security review pending
// @ctx:domain auth
package auth

func ValidateToken(tok string) bool { return tok != "" }
`,
		"scripts/deploy.py": `# @ctx:hack skips health check expires=2020-01-01
def deploy():
    pass
`,
		"README.md":              "# not source",
		"node_modules/dep/x.js":  "function hidden() {}",
		".git/hooks/pre-commit":  "#!/bin/sh",
		"vendor/lib/vendored.go": "package lib",
	})

	res, err := Project(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	if res.PrimaryLanguage != "go" {
		t.Errorf("PrimaryLanguage = %q, want go", res.PrimaryLanguage)
	}
	if len(res.Files) != 3 {
		t.Fatalf("got %d files, want 3 (skip dirs and non-source): %+v", len(res.Files), res.Files)
	}

	byPath := make(map[string]index.FileRecord)
	for _, f := range res.Files {
		byPath[f.Path] = f
	}
	tok, ok := byPath["internal/auth/token.go"]
	if !ok || tok.LockLevel != "frozen" {
		t.Errorf("token.go = %+v", tok)
	}
	sess := byPath["internal/auth/session.go"]
	if sess.Domain != "auth" || sess.Purpose != "session handling" {
		t.Errorf("session.go = %+v", sess)
	}

	if len(res.Domains) != 1 || res.Domains[0].Name != "auth" || res.Domains[0].FileCount != 2 {
		t.Errorf("domains = %+v", res.Domains)
	}
	if len(res.Hacks) != 1 || res.Hacks[0].File != "scripts/deploy.py" {
		t.Errorf("hacks = %+v", res.Hacks)
	}

	names := make(map[string]bool)
	for _, s := range res.Symbols {
		names[s.Name] = true
	}
	for _, want := range []string{"NewSession", "IssueToken", "ValidateToken", "deploy"} {
		if !names[want] {
			t.Errorf("symbol %q not extracted (got %v)", want, res.Symbols)
		}
	}
	if names["hidden"] {
		t.Error("node_modules should be skipped")
	}

	foundEdge := false
	for _, e := range res.Edges {
		if e.Caller == "NewSession" && e.Callee == "IssueToken" {
			foundEdge = true
		}
	}
	if !foundEdge {
		t.Errorf("missing call edge NewSession->IssueToken: %v", res.Edges)
	}
}

func TestProjectScanIgnoreGlobs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go":         "package main\nfunc main() {}\n",
		"thing.gen.go":    "package main\nfunc generated() {}\n",
		"sub/also.gen.go": "package main\nfunc alsoGenerated() {}\n",
	})

	res, err := Project(context.Background(), root, Options{Ignore: []string{"*.gen.go"}})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0].Path != "main.go" {
		t.Errorf("ignore glob not applied: %+v", res.Files)
	}
}

func TestExtractSymbolsGo(t *testing.T) {
	src := []byte(`package p

type Store struct{}

const MaxRetries = 3

func (s *Store) Close() error { return nil }

func Open(path string) (*Store, error) {
	helper()
	return nil, nil
}
`)
	symbols, edges := ExtractSymbols(context.Background(), "go", "p.go", src)

	byName := make(map[string]index.SymbolRecord)
	for _, s := range symbols {
		byName[s.Name] = s
	}
	if s := byName["Store"]; s.Kind != "type" {
		t.Errorf("Store = %+v", s)
	}
	if s := byName["MaxRetries"]; s.Kind != "constant" {
		t.Errorf("MaxRetries = %+v", s)
	}
	if s := byName["Close"]; s.Kind != "method" {
		t.Errorf("Close = %+v", s)
	}
	open := byName["Open"]
	if open.Kind != "function" || open.Line == 0 {
		t.Errorf("Open = %+v", open)
	}
	if open.Signature == "" || open.Signature[len(open.Signature)-1] == '{' {
		t.Errorf("signature = %q", open.Signature)
	}

	found := false
	for _, e := range edges {
		if e.Caller == "Open" && e.Callee == "helper" {
			found = true
		}
	}
	if !found {
		t.Errorf("edges = %v", edges)
	}
}

func TestExtractSymbolsPython(t *testing.T) {
	src := []byte("class Deployer:\n    def run(self):\n        pass\n\ndef main():\n    pass\n")
	symbols, _ := ExtractSymbols(context.Background(), "python", "d.py", src)

	kinds := make(map[string]string)
	for _, s := range symbols {
		kinds[s.Name] = s.Kind
	}
	if kinds["Deployer"] != "type" || kinds["run"] != "function" || kinds["main"] != "function" {
		t.Errorf("symbols = %v", symbols)
	}
}

func TestExtractSymbolsRegexFallback(t *testing.T) {
	src := []byte("pub fn handle(req: Request) -> Response {\n}\npub struct Router {\n}\n")
	symbols, edges := ExtractSymbols(context.Background(), "rust", "r.rs", src)
	if edges != nil {
		t.Errorf("fallback should not produce edges: %v", edges)
	}
	kinds := make(map[string]string)
	for _, s := range symbols {
		kinds[s.Name] = s.Kind
	}
	if kinds["handle"] != "function" || kinds["Router"] != "type" {
		t.Errorf("symbols = %v", symbols)
	}
}

func TestLanguageOf(t *testing.T) {
	cases := map[string]string{
		"a/b/c.go":  "go",
		"x.py":      "python",
		"ui.tsx":    "typescript",
		"README.md": "",
		"Makefile":  "",
	}
	for path, want := range cases {
		if got := LanguageOf(path); got != want {
			t.Errorf("LanguageOf(%q) = %q, want %q", path, got, want)
		}
	}
}
