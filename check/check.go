// Package check runs inspections over a grammar and reports problems as
// positioned diagnostics.
package check

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dhamidi/jccflow/cfa"
	"github.com/dhamidi/jccflow/grammar"
	"github.com/dhamidi/jccflow/lexical"
)

type Severity uint8

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", s)
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Code identifies the inspection that produced a diagnostic.
type Code string

const (
	LeftRecursion           Code = "left-recursion"
	EmptyChoice             Code = "empty-choice"
	EmptyLoop               Code = "empty-loop"
	RegexMatchesEmpty       Code = "regex-matches-empty"
	EmptyCharClass          Code = "empty-char-class"
	InvalidPattern          Code = "invalid-pattern"
	UndefinedProduction     Code = "undefined-production"
	UndefinedToken          Code = "undefined-token"
	RegexLoop               Code = "regex-loop"
	TokenNeverMatched       Code = "token-never-matched"
	StringNeverMatched      Code = "string-never-matched"
	UnusedProduction        Code = "unused-production"
	UnreachableProduction   Code = "unreachable-production"
	UnusedPrivateRegex      Code = "unused-private-regex"
	UnreachablePrivateRegex Code = "unreachable-private-regex"
)

type Diagnostic struct {
	Pos      grammar.Pos `json:"pos"`
	Severity Severity    `json:"severity"`
	Code     Code        `json:"code"`
	Message  string      `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Pos, d.Severity, d.Message, d.Code)
}

// Options select and tune the inspections.
type Options struct {
	// Disabled lists inspections that are not run.
	Disabled []Code
	// Roots names productions that count as used even if nothing refers to
	// them. The first production of the grammar is always a root.
	Roots []string
}

type inspection struct {
	codes []Code
	run   func(c *checker)
}

// inspections run in this order; it also orders diagnostics at the same
// position.
var inspections = []inspection{
	{[]Code{LeftRecursion}, (*checker).leftRecursion},
	{[]Code{EmptyChoice, EmptyLoop}, (*checker).emptyExpansions},
	{[]Code{UndefinedProduction, UndefinedToken}, (*checker).undefinedReferences},
	{[]Code{UnusedProduction, UnreachableProduction}, (*checker).unusedProductions},
	{[]Code{EmptyCharClass}, (*checker).emptyCharClasses},
	{[]Code{InvalidPattern}, (*checker).invalidPatterns},
	{[]Code{RegexMatchesEmpty}, (*checker).regexMatchesEmpty},
	{[]Code{RegexLoop}, (*checker).regexLoops},
	{[]Code{TokenNeverMatched}, (*checker).tokensNeverMatched},
	{[]Code{StringNeverMatched}, (*checker).stringsNeverMatched},
	{[]Code{UnusedPrivateRegex, UnreachablePrivateRegex}, (*checker).unusedPrivateRegexes},
}

type checker struct {
	a     *cfa.Analyzer
	g     *grammar.Grammar
	lex   *lexical.Grammar
	opts  Options
	diags []Diagnostic
}

// Grammar analyzes g and runs every enabled inspection on it.
func Grammar(g *grammar.Grammar, opts Options) []Diagnostic {
	return Run(cfa.New(g, nil), opts)
}

// Run runs every enabled inspection using the caches of a. The diagnostics
// are sorted by position.
func Run(a *cfa.Analyzer, opts Options) []Diagnostic {
	c := &checker{
		a:    a,
		g:    a.Grammar(),
		lex:  a.Lexical(),
		opts: opts,
	}
	for _, in := range inspections {
		if c.enabled(in.codes) {
			in.run(c)
		}
	}
	slices.SortStableFunc(c.diags, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Pos.Filename, y.Pos.Filename),
			cmp.Compare(x.Pos.Line, y.Pos.Line),
			cmp.Compare(x.Pos.Column, y.Pos.Column),
			cmp.Compare(x.Pos.Offset, y.Pos.Offset),
		)
	})
	return c.diags
}

func (c *checker) enabled(codes []Code) bool {
	for _, code := range codes {
		if !slices.Contains(c.opts.Disabled, code) {
			return true
		}
	}
	return false
}

func (c *checker) report(pos grammar.Pos, sev Severity, code Code, format string, args ...any) {
	if slices.Contains(c.opts.Disabled, code) {
		return
	}
	c.diags = append(c.diags, Diagnostic{
		Pos:      pos,
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	return slices.ContainsFunc(diags, func(d Diagnostic) bool {
		return d.Severity == Error
	})
}
