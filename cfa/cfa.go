// Package cfa computes flow facts about grammar productions: whether a
// construct can match the empty input, which tokens can start it, how many
// tokens it consumes at most, and which productions are left-recursive.
//
// An Analyzer holds the caches of one analysis run. It is not safe for
// concurrent use; concurrent runs over the same grammar each use their own
// Analyzer. A grammar that changes needs a new Analyzer.
package cfa

import (
	"math"

	"github.com/dhamidi/jccflow/grammar"
	"github.com/dhamidi/jccflow/lexical"
)

type Analyzer struct {
	g   *grammar.Grammar
	lex *lexical.Grammar

	prodNull []Nullability
	exprNull []Nullability

	starts    [2][]*StartSet
	maxTokens []maxEntry

	defects    []Defect
	defectSeen map[grammar.RegexID]bool
}

// New returns an analyzer for g. lex is the lexical model used to resolve
// token units; if nil it is built from g.
func New(g *grammar.Grammar, lex *lexical.Grammar) *Analyzer {
	if lex == nil {
		lex = lexical.New(g)
	}
	n := len(g.Productions())
	return &Analyzer{
		g:          g,
		lex:        lex,
		prodNull:   make([]Nullability, n),
		exprNull:   make([]Nullability, g.NumExprs()),
		starts:     [2][]*StartSet{make([]*StartSet, n), make([]*StartSet, n)},
		maxTokens:  make([]maxEntry, n),
		defectSeen: make(map[grammar.RegexID]bool),
	}
}

func (a *Analyzer) Grammar() *grammar.Grammar {
	return a.g
}

func (a *Analyzer) Lexical() *lexical.Grammar {
	return a.lex
}

// Defect is a malformed node met during analysis. The analysis still
// returns a definite answer for it.
type Defect struct {
	Regex   grammar.RegexID
	Pos     grammar.Pos
	Message string
}

// Defects returns the defects found so far, in the order they were met.
func (a *Analyzer) Defects() []Defect {
	return a.defects
}

func (a *Analyzer) defect(r *grammar.Regex, msg string) {
	if a.defectSeen[r.ID] {
		return
	}
	a.defectSeen[r.ID] = true
	a.defects = append(a.defects, Defect{Regex: r.ID, Pos: r.Pos, Message: msg})
}

type pathKind uint8

const (
	onProduction pathKind = iota
	onExpr
)

// path is the chain of recursion points currently being computed, innermost
// first. It is never mutated, so a call can hand it down and keep its own.
type path struct {
	kind  pathKind
	id    int32
	depth int
	next  *path
}

// noLow is the lowlink of a computation that met no node in progress.
const noLow = math.MaxInt

func (p *path) push(kind pathKind, id int32) *path {
	depth := 0
	if p != nil {
		depth = p.depth + 1
	}
	return &path{kind: kind, id: id, depth: depth, next: p}
}

// find returns the depth of the node if it is in progress.
func (p *path) find(kind pathKind, id int32) (int, bool) {
	for ; p != nil; p = p.next {
		if p.kind == kind && p.id == id {
			return p.depth, true
		}
	}
	return 0, false
}
