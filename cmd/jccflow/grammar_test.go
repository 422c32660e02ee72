package main

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/dhamidi/jccflow/ebnfimport"
)

func TestGrammarPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.ebnf", "c.txt", filepath.Join("sub", "d.json")} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := grammarPaths([]string{dir, filepath.Join(dir, "c.txt")})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.ebnf"),
		filepath.Join(dir, "sub", "d.json"),
		filepath.Join(dir, "c.txt"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("grammarPaths = %v, want %v", got, want)
	}

	if _, err := grammarPaths([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Errorf("grammarPaths of a missing path succeeded")
	}
}

func TestLoadGrammar(t *testing.T) {
	dir := t.TempDir()
	ebnfPath := filepath.Join(dir, "g.ebnf")
	if err := os.WriteFile(ebnfPath, []byte(`S = "a" word . word = "w" .`), 0o644); err != nil {
		t.Fatal(err)
	}
	jsonPath := filepath.Join(dir, "g.json")
	if err := os.WriteFile(jsonPath, []byte(`{"name": "g", "declarations": [{"production": {"name": "S", "body": {"token": {"literal": "a"}}}}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path    string
		wantErr string
	}{
		{ebnfPath, ""},
		{jsonPath, ""},
		{filepath.Join(dir, "g.jj"), "unsupported file type"},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			g, err := loadGrammar(tt.path, ebnfimport.Options{Start: "S"})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if _, ok := g.LookupProduction("S"); !ok {
				t.Errorf("production S missing")
			}
		})
	}
}
