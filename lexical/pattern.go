package lexical

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dhamidi/jccflow/grammar"
)

// patternWriter renders a regular expression tree as Go regexp syntax.
// References to named regular expressions are inlined; visiting guards
// against expressions that refer to themselves.
type patternWriter struct {
	g          *grammar.Grammar
	sb         strings.Builder
	visiting   map[grammar.ExprID]bool
	unresolved bool
}

func exprSource(g *grammar.Grammar, x grammar.ExprID) (string, bool) {
	w := &patternWriter{g: g, visiting: make(map[grammar.ExprID]bool)}
	w.expr(x)
	if w.unresolved {
		return "", false
	}
	return w.sb.String(), true
}

func (w *patternWriter) expr(x grammar.ExprID) {
	if w.visiting[x] {
		w.unresolved = true
		return
	}
	w.visiting[x] = true
	defer delete(w.visiting, x)

	e := w.g.Expr(x)
	switch e.Form {
	case grammar.FormReference:
		w.reference(e.Name)
	case grammar.FormEOF:
		w.sb.WriteString("$")
	default:
		w.regex(e.Root)
	}
}

func (w *patternWriter) reference(name string) {
	target, ok := w.g.LookupNamedExpr(name)
	if !ok {
		w.unresolved = true
		return
	}
	w.sb.WriteString("(?:")
	w.expr(target)
	w.sb.WriteString(")")
}

func (w *patternWriter) regex(id grammar.RegexID) {
	if id == grammar.NoRegex {
		w.unresolved = true
		return
	}
	r := w.g.Regex(id)
	switch r.Kind {
	case grammar.RegexLiteral:
		w.sb.WriteString(regexp.QuoteMeta(r.Value))
	case grammar.RegexCharClass:
		w.class(r)
	case grammar.RegexSequence:
		for _, c := range r.Children {
			w.regex(c)
		}
	case grammar.RegexAlternative:
		w.sb.WriteString("(?:")
		for i, c := range r.Children {
			if i > 0 {
				w.sb.WriteString("|")
			}
			w.regex(c)
		}
		w.sb.WriteString(")")
	case grammar.RegexParenthesized:
		w.sb.WriteString("(?:")
		w.regex(r.Child())
		w.sb.WriteString(")")
		w.sb.WriteString(quantifier(r.Occurrence))
	case grammar.RegexReference:
		w.reference(r.Name)
	}
}

func (w *patternWriter) class(r *grammar.Regex) {
	switch {
	case r.IsAnyChar():
		w.sb.WriteString("(?s:.)")
		return
	case r.IsEmptyClass():
		// Matches nothing.
		w.sb.WriteString(`[^\x00-\x{10FFFF}]`)
		return
	}
	w.sb.WriteString("[")
	if r.Negated {
		w.sb.WriteString("^")
	}
	for _, cr := range r.Ranges {
		fmt.Fprintf(&w.sb, `\x{%x}`, cr.Lo)
		if cr.Hi != cr.Lo {
			fmt.Fprintf(&w.sb, `-\x{%x}`, cr.Hi)
		}
	}
	w.sb.WriteString("]")
}

func quantifier(o grammar.Occurrence) string {
	switch o.Kind {
	case grammar.Range:
		if o.Max < 0 {
			return fmt.Sprintf("{%d,}", o.Min)
		}
		return fmt.Sprintf("{%d,%d}", o.Min, o.Max)
	default:
		return o.String()
	}
}
