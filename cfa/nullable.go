package cfa

import (
	"fmt"

	"github.com/dhamidi/jccflow/grammar"
)

// Nullability tells whether a construct can match the empty input.
type Nullability uint8

const (
	// Unknown is never returned; it marks cache slots not yet computed.
	Unknown Nullability = iota
	Nullable
	NotNullable
	// Unresolved means the answer depends on a reference that does not
	// resolve.
	Unresolved
)

func (n Nullability) String() string {
	switch n {
	case Unknown:
		return "unknown"
	case Nullable:
		return "nullable"
	case NotNullable:
		return "not nullable"
	case Unresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("Nullability(%d)", n)
	}
}

// seqNullability combines the nullability of all parts of a sequence.
func seqNullability(acc, n Nullability) Nullability {
	switch {
	case acc == NotNullable || n == NotNullable:
		return NotNullable
	case acc == Unresolved || n == Unresolved:
		return Unresolved
	default:
		return Nullable
	}
}

// altNullability combines the nullability of the branches of an alternative.
func altNullability(acc, n Nullability) Nullability {
	switch {
	case acc == Nullable || n == Nullable:
		return Nullable
	case acc == Unresolved || n == Unresolved:
		return Unresolved
	default:
		return NotNullable
	}
}

// IsNullable reports whether the expansion can match zero tokens. It is false
// for Unresolved.
func (a *Analyzer) IsNullable(e grammar.ExpansionID) bool {
	return a.Nullability(e) == Nullable
}

func (a *Analyzer) Nullability(e grammar.ExpansionID) Nullability {
	n, _ := a.expansionNullable(e, nil)
	return n
}

func (a *Analyzer) ProductionNullable(p grammar.ProductionID) Nullability {
	n, _ := a.productionNullable(p, nil)
	return n
}

// ExprNullable reports whether a regular expression can match the empty
// string.
func (a *Analyzer) ExprNullable(x grammar.ExprID) Nullability {
	n, _ := a.exprNullable(x, nil)
	return n
}

func (a *Analyzer) RegexNullable(r grammar.RegexID) Nullability {
	n, _ := a.regexNullable(r, nil)
	return n
}

// The helpers below return the nullability and the depth of the outermost
// node in progress that the answer relied on. A production or regular
// expression is memoized only when its answer is Nullable or did not rely on
// a node in progress above it; otherwise it is recomputed on the next query.

func (a *Analyzer) productionNullable(id grammar.ProductionID, on *path) (Nullability, int) {
	p := a.g.Production(id)
	if p.Kind == grammar.Opaque {
		return NotNullable, noLow
	}
	if n := a.prodNull[id]; n != Unknown {
		return n, noLow
	}
	if depth, ok := on.find(onProduction, int32(id)); ok {
		return NotNullable, depth
	}

	here := on.push(onProduction, int32(id))
	n, low := a.expansionNullable(p.Body, here)
	if n == Nullable || low >= here.depth {
		a.prodNull[id] = n
		return n, noLow
	}
	return n, low
}

func (a *Analyzer) expansionNullable(id grammar.ExpansionID, on *path) (Nullability, int) {
	if id == grammar.NoExpansion {
		return Nullable, noLow
	}
	e := a.g.Expansion(id)
	switch e.Kind {
	case grammar.ExpAction, grammar.ExpLookahead, grammar.ExpOptional:
		return Nullable, noLow

	case grammar.ExpToken:
		return NotNullable, noLow

	case grammar.ExpSequence:
		acc, low := Nullable, noLow
		for _, c := range e.Children {
			n, l := a.expansionNullable(c, on)
			low = min(low, l)
			acc = seqNullability(acc, n)
			if acc == NotNullable {
				break
			}
		}
		return acc, low

	case grammar.ExpAlternative:
		acc, low := NotNullable, noLow
		for _, c := range e.Children {
			n, l := a.expansionNullable(c, on)
			low = min(low, l)
			acc = altNullability(acc, n)
			if acc == Nullable {
				break
			}
		}
		return acc, low

	case grammar.ExpParenthesized:
		if e.Occurrence.AllowsZero() {
			return Nullable, noLow
		}
		return a.expansionNullable(e.Child(), on)

	case grammar.ExpNonTerminal:
		target, ok := a.g.ResolveProduction(id)
		if !ok {
			return Unresolved, noLow
		}
		return a.productionNullable(target, on)

	case grammar.ExpTryCatch, grammar.ExpScoped, grammar.ExpAssigned:
		return a.expansionNullable(e.Child(), on)
	}
	panic(fmt.Sprintf("cfa: unhandled expansion kind %v", e.Kind))
}

func (a *Analyzer) exprNullable(id grammar.ExprID, on *path) (Nullability, int) {
	if n := a.exprNull[id]; n != Unknown {
		return n, noLow
	}
	if depth, ok := on.find(onExpr, int32(id)); ok {
		return NotNullable, depth
	}

	x := a.g.Expr(id)
	here := on.push(onExpr, int32(id))
	var n Nullability
	low := noLow
	switch x.Form {
	case grammar.FormEOF:
		n = NotNullable
	case grammar.FormReference:
		n, low = a.referenceNullable(x.Name, here)
	default:
		n, low = a.regexNullable(x.Root, here)
	}

	if n == Nullable || low >= here.depth {
		a.exprNull[id] = n
		return n, noLow
	}
	return n, low
}

func (a *Analyzer) referenceNullable(name string, on *path) (Nullability, int) {
	target, ok := a.g.LookupNamedExpr(name)
	if !ok {
		return Unresolved, noLow
	}
	return a.exprNullable(target, on)
}

func (a *Analyzer) regexNullable(id grammar.RegexID, on *path) (Nullability, int) {
	if id == grammar.NoRegex {
		return Unresolved, noLow
	}
	r := a.g.Regex(id)
	switch r.Kind {
	case grammar.RegexLiteral:
		if r.Value == "" {
			return Nullable, noLow
		}
		return NotNullable, noLow

	case grammar.RegexCharClass:
		if r.IsEmptyClass() {
			a.defect(r, "empty character class matches nothing")
		}
		return NotNullable, noLow

	case grammar.RegexSequence:
		acc, low := Nullable, noLow
		for _, c := range r.Children {
			n, l := a.regexNullable(c, on)
			low = min(low, l)
			acc = seqNullability(acc, n)
			if acc == NotNullable {
				break
			}
		}
		return acc, low

	case grammar.RegexAlternative:
		acc, low := NotNullable, noLow
		for _, c := range r.Children {
			n, l := a.regexNullable(c, on)
			low = min(low, l)
			acc = altNullability(acc, n)
			if acc == Nullable {
				break
			}
		}
		return acc, low

	case grammar.RegexParenthesized:
		if r.Occurrence.AllowsZero() {
			return Nullable, noLow
		}
		return a.regexNullable(r.Child(), on)

	case grammar.RegexReference:
		return a.referenceNullable(r.Name, on)
	}
	panic(fmt.Sprintf("cfa: unhandled regex kind %v", r.Kind))
}
