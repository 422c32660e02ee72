package format

import (
	"encoding"
	"fmt"
	"strings"

	"github.com/dhamidi/jccflow/cfa"
	"github.com/dhamidi/jccflow/check"
	"github.com/dhamidi/jccflow/grammar"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(report *Report) error
}

type DiagnosticEncoder interface {
	encoding.TextMarshaler
	Encode(diags []check.Diagnostic) error
}

// Report holds the flow facts of a set of productions.
type Report struct {
	Grammar     string
	GroupUnary  bool
	Productions []ProductionReport
	Cycles      []string
	Tokens      []TokenReport
}

type ProductionReport struct {
	Name        string
	Pos         grammar.Pos
	Kind        grammar.ProductionKind
	Nullability cfa.Nullability
	MaxTokens   int
	Bounded     bool
	StartSet    []string
}

type TokenReport struct {
	Name       string
	Kind       grammar.TokenKind
	Explicit   bool
	Private    bool
	IgnoreCase bool
	// States is empty for a token active in all states.
	States     []string
	Transition string
	Pattern    string
	Pos        grammar.Pos
}

// ReportOptions select what a report contains.
type ReportOptions struct {
	// Productions names the productions to report, all of them if empty.
	Productions []string
	GroupUnary  bool
	Tokens      bool
}

// NewReport runs the analyses of a for the selected productions.
func NewReport(a *cfa.Analyzer, opts ReportOptions) (*Report, error) {
	g := a.Grammar()
	r := &Report{Grammar: g.Name(), GroupUnary: opts.GroupUnary}

	var ids []grammar.ProductionID
	if len(opts.Productions) == 0 {
		for _, p := range g.Productions() {
			ids = append(ids, p.ID)
		}
	}
	for _, name := range opts.Productions {
		id, ok := g.LookupProduction(name)
		if !ok {
			return nil, fmt.Errorf("lookup production: no production named %q", name)
		}
		ids = append(ids, id)
	}

	for _, id := range ids {
		p := g.Production(id)
		n, bounded := a.ProductionMaxTokens(id)
		start := a.ProductionStartSet(id, opts.GroupUnary)
		pr := ProductionReport{
			Name:        p.Name,
			Pos:         p.Pos,
			Kind:        p.Kind,
			Nullability: a.ProductionNullable(id),
			MaxTokens:   n,
			Bounded:     bounded,
		}
		for _, u := range start.Units() {
			pr.StartSet = append(pr.StartSet, a.Describe(u))
		}
		r.Productions = append(r.Productions, pr)
	}

	for _, c := range a.LeftRecursionCycles() {
		r.Cycles = append(r.Cycles, c.Describe(g))
	}

	if opts.Tokens {
		for _, t := range a.Lexical().Tokens() {
			tr := TokenReport{
				Name:       t.String(),
				Kind:       t.Kind,
				Explicit:   t.Explicit,
				Private:    t.Private,
				IgnoreCase: t.IgnoreCase,
				States:     t.States,
				Transition: t.Transition,
				Pos:        t.Pos,
			}
			if re := t.Pattern(); re != nil {
				tr.Pattern = re.String()
			}
			r.Tokens = append(r.Tokens, tr)
		}
	}
	return r, nil
}

func orDash(parts []string) string {
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}
