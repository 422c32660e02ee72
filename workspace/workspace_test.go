package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dhamidi/jccflow/check"
	"github.com/dhamidi/jccflow/ebnfimport"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const leftRecJSON = `{"name": "leftrec", "declarations": [
  {"production": {"name": "A", "line": 2, "column": 3, "body": {"alt": [
    {"seq": [{"ref": "A", "line": 3, "column": 14}, {"token": {"literal": "x"}}]},
    {"token": {"literal": "y"}}
  ]}}},
  {"production": {"name": "B", "line": 6, "column": 3, "body": {"optional": {"token": {"literal": "b"}}}}}
]}`

const exprEBNF = `Expr = Term { "+" Term } .
Term = number | "(" Expr ")" .
number = digit { digit } .
digit = "0" … "9" .
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUpdateFile(t *testing.T) {
	w := New(t.TempDir(), Options{})
	f := w.UpdateFile("leftrec.json", []byte(leftRecJSON))
	if f.LoadErr != nil {
		t.Fatal(f.LoadErr)
	}
	if !check.HasErrors(f.Diagnostics) {
		t.Errorf("diagnostics = %v, want a left-recursion error", f.Diagnostics)
	}
	if len(f.Report.Productions) != 2 {
		t.Errorf("report productions = %d, want 2", len(f.Report.Productions))
	}
	if w.GetFile("leftrec.json") != f {
		t.Errorf("GetFile did not return the updated file")
	}

	w.RemoveFile("leftrec.json")
	if w.GetFile("leftrec.json") != nil {
		t.Errorf("file still present after RemoveFile")
	}
}

func TestUpdateFileLoadError(t *testing.T) {
	w := New(t.TempDir(), Options{})
	f := w.UpdateFile("broken.json", []byte(`{"declarations": [{}]}`))
	if f.LoadErr == nil {
		t.Fatal("LoadErr = nil for a broken grammar")
	}
	diags := toProtocolDiagnostics(f)
	if len(diags) != 1 || *diags[0].Severity != protocol.DiagnosticSeverityError {
		t.Errorf("protocol diagnostics = %+v", diags)
	}
}

func TestScanAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "leftrec.json", leftRecJSON)
	writeFile(t, dir, "expr.ebnf", exprEBNF)
	writeFile(t, dir, "notes.txt", "not a grammar")
	if err := os.Mkdir(filepath.Join(dir, ".hidden"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, ".hidden"), "skip.json", leftRecJSON)

	w := New(dir, Options{EBNF: ebnfimport.Options{}})
	if err := w.ScanAll(); err != nil {
		t.Fatal(err)
	}
	paths := w.Paths()
	want := []string{filepath.Join(dir, "expr.ebnf"), filepath.Join(dir, "leftrec.json")}
	if strings.Join(paths, "\n") != strings.Join(want, "\n") {
		t.Errorf("paths = %v, want %v", paths, want)
	}

	expr := w.GetFile(want[0])
	if expr.LoadErr != nil {
		t.Fatal(expr.LoadErr)
	}
	if check.HasErrors(expr.Diagnostics) {
		t.Errorf("expr.ebnf diagnostics = %v", expr.Diagnostics)
	}
}

func TestProtocolDiagnostics(t *testing.T) {
	w := New(t.TempDir(), Options{})
	f := w.UpdateFile("leftrec.json", []byte(leftRecJSON))

	diags := toProtocolDiagnostics(f)
	if len(diags) != len(f.Diagnostics) {
		t.Fatalf("protocol diagnostics = %d, want %d", len(diags), len(f.Diagnostics))
	}
	first := diags[0]
	if first.Range.Start.Line != 1 || first.Range.Start.Character != 2 {
		t.Errorf("first range = %+v, want line 1 character 2", first.Range)
	}
	if first.Code == nil || first.Code.Value != string(check.LeftRecursion) {
		t.Errorf("first code = %+v", first.Code)
	}
}

func TestFileWatcherScan(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "leftrec.json", leftRecJSON)

	w := New(dir, Options{})
	fw := NewFileWatcher(w, time.Hour)
	var updated, removed []string
	fw.OnUpdate = func(f *File) { updated = append(updated, f.Path) }
	fw.OnRemove = func(path string) { removed = append(removed, path) }

	fw.scan()
	if len(updated) != 1 || updated[0] != path {
		t.Fatalf("updated = %v, want [%s]", updated, path)
	}

	fw.scan()
	if len(updated) != 1 {
		t.Errorf("unchanged file reloaded: %v", updated)
	}

	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	fw.scan()
	if len(updated) != 2 {
		t.Errorf("touched file not reloaded: %v", updated)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	fw.scan()
	if len(removed) != 1 || w.GetFile(path) != nil {
		t.Errorf("removed = %v, file still loaded: %v", removed, w.GetFile(path) != nil)
	}
}

func TestURIToPath(t *testing.T) {
	tests := []struct {
		uri, want string
	}{
		{"file:///tmp/g/expr.ebnf", "/tmp/g/expr.ebnf"},
		{"file:///tmp/with%20space.json", "/tmp/with space.json"},
		{"relative.json", "relative.json"},
	}
	for _, tt := range tests {
		got, err := uriToPath(tt.uri)
		if err != nil || got != tt.want {
			t.Errorf("uriToPath(%q) = %q, %v, want %q", tt.uri, got, err, tt.want)
		}
	}
}
