// Package workspace keeps the grammars of a directory loaded and checked, and
// serves them to the language server and the watch command.
package workspace

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dhamidi/jccflow/cfa"
	"github.com/dhamidi/jccflow/check"
	"github.com/dhamidi/jccflow/ebnfimport"
	"github.com/dhamidi/jccflow/format"
	"github.com/dhamidi/jccflow/grammar"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("jccflow.workspace")

type Options struct {
	Check check.Options
	EBNF  ebnfimport.Options
}

type Workspace struct {
	mu      sync.RWMutex
	rootDir string
	opts    Options
	files   map[string]*File
}

// File is the state of one grammar file. Grammar and Report are nil when the
// file could not be loaded, in which case LoadErr is set.
type File struct {
	Path        string
	Content     []byte
	Grammar     *grammar.Grammar
	Report      *format.Report
	Diagnostics []check.Diagnostic
	LoadErr     error
}

func New(rootDir string, opts Options) *Workspace {
	return &Workspace{
		rootDir: rootDir,
		opts:    opts,
		files:   make(map[string]*File),
	}
}

func (w *Workspace) RootDir() string {
	return w.rootDir
}

// IsGrammarFile reports whether path has an extension the workspace loads.
func IsGrammarFile(path string) bool {
	switch filepath.Ext(path) {
	case ".json", ".ebnf":
		return true
	}
	return false
}

func (w *Workspace) ScanAll() error {
	return filepath.Walk(w.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != w.rootDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsGrammarFile(path) {
			w.ScanFile(path)
		}
		return nil
	})
}

func (w *Workspace) ScanFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return w.UpdateFile(path, content), nil
}

// UpdateFile loads content as the new text of path and checks it.
func (w *Workspace) UpdateFile(path string, content []byte) *File {
	f := w.load(path, content)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[path] = f
	return f
}

func (w *Workspace) load(path string, content []byte) *File {
	f := &File{Path: path, Content: content}

	var err error
	switch filepath.Ext(path) {
	case ".ebnf":
		f.Grammar, err = ebnfimport.Parse(path, bytes.NewReader(content), w.opts.EBNF)
	default:
		f.Grammar, err = grammar.DecodeJSON(path, bytes.NewReader(content))
	}
	if err != nil {
		log.Debugf("load %s: %v", path, err)
		f.LoadErr = err
		return f
	}

	a := cfa.New(f.Grammar, nil)
	f.Diagnostics = check.Run(a, w.opts.Check)
	f.Report, err = format.NewReport(a, format.ReportOptions{})
	if err != nil {
		f.LoadErr = err
		return f
	}
	log.Infof("checked %s: %d productions, %d diagnostics", path, len(f.Report.Productions), len(f.Diagnostics))
	return f
}

func (w *Workspace) RemoveFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.files, path)
}

func (w *Workspace) GetFile(path string) *File {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.files[path]
}

// Paths returns the paths of all loaded files in lexical order.
func (w *Workspace) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.files))
	for path := range w.files {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}
