package cfa

import (
	"fmt"
	"math"

	"github.com/dhamidi/jccflow/grammar"
)

type maxEntry struct {
	done    bool
	bounded bool
	n       int
}

// bound is an upper bound on a number of tokens. ok is false for unbounded.
// A bound too large for an int is unbounded.
type bound struct {
	n  int
	ok bool
}

var unbounded = bound{}

func bounded(n int) bound {
	return bound{n: n, ok: true}
}

func (b bound) plus(o bound) bound {
	if !b.ok || !o.ok {
		return unbounded
	}
	if b.n > math.MaxInt-o.n {
		return unbounded
	}
	return bounded(b.n + o.n)
}

func (b bound) max(o bound) bound {
	if !b.ok || !o.ok {
		return unbounded
	}
	return bounded(max(b.n, o.n))
}

func (b bound) times(k int) bound {
	if !b.ok {
		return unbounded
	}
	if k > 0 && b.n > math.MaxInt/k {
		return unbounded
	}
	return bounded(b.n * k)
}

// MaxTokens returns an upper bound on the number of tokens the expansion can
// consume. ok is false when the expansion is unbounded: it repeats without
// limit, calls a JAVACODE production, or is recursive.
func (a *Analyzer) MaxTokens(e grammar.ExpansionID) (n int, ok bool) {
	b := a.expansionMax(e, nil)
	return b.n, b.ok
}

func (a *Analyzer) ProductionMaxTokens(p grammar.ProductionID) (n int, ok bool) {
	b := a.productionMax(p, nil)
	return b.n, b.ok
}

// A production met again while its bound is being computed makes the bound
// unbounded. Such a production is on a cycle, so the answer does not depend
// on the path that reached it and is always memoized.
func (a *Analyzer) productionMax(id grammar.ProductionID, on *path) bound {
	p := a.g.Production(id)
	if p.Kind == grammar.Opaque {
		return unbounded
	}
	if m := a.maxTokens[id]; m.done {
		return bound{n: m.n, ok: m.bounded}
	}
	if _, ok := on.find(onProduction, int32(id)); ok {
		return unbounded
	}

	b := a.expansionMax(p.Body, on.push(onProduction, int32(id)))
	a.maxTokens[id] = maxEntry{done: true, bounded: b.ok, n: b.n}
	return b
}

func (a *Analyzer) expansionMax(id grammar.ExpansionID, on *path) bound {
	if id == grammar.NoExpansion {
		return bounded(0)
	}
	e := a.g.Expansion(id)
	switch e.Kind {
	case grammar.ExpLookahead, grammar.ExpAction:
		return bounded(0)

	case grammar.ExpToken:
		return bounded(1)

	case grammar.ExpSequence:
		acc := bounded(0)
		for _, c := range e.Children {
			if acc = acc.plus(a.expansionMax(c, on)); !acc.ok {
				return unbounded
			}
		}
		return acc

	case grammar.ExpAlternative:
		acc := bounded(0)
		for _, c := range e.Children {
			if acc = acc.max(a.expansionMax(c, on)); !acc.ok {
				return unbounded
			}
		}
		return acc

	case grammar.ExpParenthesized:
		occ := e.Occurrence
		if occ.Unbounded() {
			return unbounded
		}
		body := a.expansionMax(e.Child(), on)
		if occ.Kind == grammar.Range {
			return body.times(occ.Max)
		}
		return body

	case grammar.ExpNonTerminal:
		target, ok := a.g.ResolveProduction(id)
		if !ok {
			return unbounded
		}
		return a.productionMax(target, on)

	case grammar.ExpOptional, grammar.ExpTryCatch, grammar.ExpScoped, grammar.ExpAssigned:
		return a.expansionMax(e.Child(), on)
	}
	panic(fmt.Sprintf("cfa: unhandled expansion kind %v", e.Kind))
}
