package cfa

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/dhamidi/jccflow/grammar"
	"github.com/dhamidi/jccflow/lexical"
)

type AtomKind uint8

const (
	// AtomToken is a token of the lexical grammar.
	AtomToken AtomKind = iota
	// AtomUnresolvedToken is a token reference that names no token.
	AtomUnresolvedToken
	// AtomUnresolvedProduction is a non-terminal that names no production.
	AtomUnresolvedProduction
	// AtomProduction is a production that is not expanded further: a
	// JAVACODE production, a production met again on a left-recursive path,
	// or with groupUnary a production matching at most one token.
	AtomProduction
	// AtomEOF is the end of input.
	AtomEOF
)

func (k AtomKind) String() string {
	switch k {
	case AtomToken:
		return "token"
	case AtomUnresolvedToken:
		return "unresolved token"
	case AtomUnresolvedProduction:
		return "unresolved production"
	case AtomProduction:
		return "production"
	case AtomEOF:
		return "eof"
	default:
		return fmt.Sprintf("AtomKind(%d)", k)
	}
}

// AtomicUnit is an element of a start set. Only the fields relevant to the
// kind are set, the others are -1, so units compare with ==.
type AtomicUnit struct {
	Kind       AtomKind
	Token      lexical.TokenID
	Production grammar.ProductionID
	// Unit is the unresolved reference.
	Unit grammar.ExpansionID
}

func tokenAtom(t lexical.TokenID) AtomicUnit {
	return AtomicUnit{Kind: AtomToken, Token: t, Production: -1, Unit: grammar.NoExpansion}
}

func productionAtom(p grammar.ProductionID) AtomicUnit {
	return AtomicUnit{Kind: AtomProduction, Token: -1, Production: p, Unit: grammar.NoExpansion}
}

func unresolvedAtom(kind AtomKind, unit grammar.ExpansionID) AtomicUnit {
	return AtomicUnit{Kind: kind, Token: -1, Production: -1, Unit: unit}
}

var eofAtom = AtomicUnit{Kind: AtomEOF, Token: -1, Production: -1, Unit: grammar.NoExpansion}

// StartSet is an immutable set of atomic units.
type StartSet struct {
	units map[AtomicUnit]struct{}
}

func newStartSet(units ...AtomicUnit) *StartSet {
	s := &StartSet{units: make(map[AtomicUnit]struct{}, len(units))}
	for _, u := range units {
		s.units[u] = struct{}{}
	}
	return s
}

func (s *StartSet) Len() int {
	return len(s.units)
}

func (s *StartSet) Contains(u AtomicUnit) bool {
	_, ok := s.units[u]
	return ok
}

func (s *StartSet) ContainsToken(t lexical.TokenID) bool {
	return s.Contains(tokenAtom(t))
}

func (s *StartSet) ContainsProduction(p grammar.ProductionID) bool {
	return s.Contains(productionAtom(p))
}

// Units returns the units sorted by kind, then by identity.
func (s *StartSet) Units() []AtomicUnit {
	out := make([]AtomicUnit, 0, len(s.units))
	for u := range s.units {
		out = append(out, u)
	}
	slices.SortFunc(out, func(x, y AtomicUnit) int {
		return cmp.Or(
			cmp.Compare(x.Kind, y.Kind),
			cmp.Compare(x.Token, y.Token),
			cmp.Compare(x.Production, y.Production),
			cmp.Compare(x.Unit, y.Unit),
		)
	})
	return out
}

func (s *StartSet) addAll(o *StartSet) {
	for u := range o.units {
		s.units[u] = struct{}{}
	}
}

// Describe renders a unit for people: a token name or literal, a production
// name, or the unresolved name.
func (a *Analyzer) Describe(u AtomicUnit) string {
	switch u.Kind {
	case AtomToken:
		return a.lex.Token(u.Token).String()
	case AtomProduction:
		return a.g.Production(u.Production).Name + "()"
	case AtomUnresolvedToken:
		return a.g.ExprName(a.g.Expansion(u.Unit).Expr) + "?"
	case AtomUnresolvedProduction:
		return a.g.Expansion(u.Unit).Name + "()?"
	case AtomEOF:
		return "<EOF>"
	}
	return u.Kind.String()
}

// DescribeSet renders a start set as {a, b, c}.
func (a *Analyzer) DescribeSet(s *StartSet) string {
	parts := make([]string, 0, s.Len())
	for _, u := range s.Units() {
		parts = append(parts, a.Describe(u))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// StartSet returns the units that can begin a match of the expansion. With
// groupUnary, productions that match at most one token appear as a single
// AtomProduction instead of being expanded.
func (a *Analyzer) StartSet(e grammar.ExpansionID, groupUnary bool) *StartSet {
	acc := newStartSet()
	a.expansionStart(e, nil, groupUnary, acc)
	return acc
}

// ProductionStartSet returns the start set of a production's body. The
// production itself is always expanded, even with groupUnary: a production
// bounded by one token still reports its tokens rather than itself. Only the
// productions it refers to are grouped. A JAVACODE production is its own
// start set.
func (a *Analyzer) ProductionStartSet(p grammar.ProductionID, groupUnary bool) *StartSet {
	s, _ := a.productionStart(p, nil, groupUnary)
	return s
}

func cacheIndex(groupUnary bool) int {
	if groupUnary {
		return 1
	}
	return 0
}

// productionStart returns the start set of a production and the depth of
// the outermost production in progress it relied on. A production met again
// on the path stands for itself. Like nullability, a set is memoized only when
// it did not rely on a production in progress above it, so the set of a
// production does not depend on which query reached it first.
func (a *Analyzer) productionStart(id grammar.ProductionID, on *path, groupUnary bool) (*StartSet, int) {
	p := a.g.Production(id)
	if p.Kind == grammar.Opaque {
		return newStartSet(productionAtom(id)), noLow
	}
	cache := a.starts[cacheIndex(groupUnary)]
	if s := cache[id]; s != nil {
		return s, noLow
	}
	if depth, ok := on.find(onProduction, int32(id)); ok {
		return newStartSet(productionAtom(id)), depth
	}

	here := on.push(onProduction, int32(id))
	acc := newStartSet()
	low := a.expansionStart(p.Body, here, groupUnary, acc)
	if low >= here.depth {
		cache[id] = acc
		return acc, noLow
	}
	return acc, low
}

// referenceStart is the start set contributed by a non-terminal.
func (a *Analyzer) referenceStart(id grammar.ProductionID, on *path, groupUnary bool) (*StartSet, int) {
	if groupUnary {
		// The bound is computed on its own path, so it never sees the
		// productions in progress here.
		if n, ok := a.ProductionMaxTokens(id); ok && n <= 1 {
			return newStartSet(productionAtom(id)), noLow
		}
	}
	return a.productionStart(id, on, groupUnary)
}

func (a *Analyzer) expansionStart(id grammar.ExpansionID, on *path, groupUnary bool, acc *StartSet) int {
	if id == grammar.NoExpansion {
		return noLow
	}
	e := a.g.Expansion(id)
	switch e.Kind {
	case grammar.ExpLookahead, grammar.ExpAction:
		return noLow

	case grammar.ExpToken:
		acc.units[a.unitAtom(e)] = struct{}{}
		return noLow

	case grammar.ExpSequence:
		low := noLow
		for _, c := range e.Children {
			low = min(low, a.expansionStart(c, on, groupUnary, acc))
			if !a.IsNullable(c) {
				break
			}
		}
		return low

	case grammar.ExpAlternative:
		low := noLow
		for _, c := range e.Children {
			low = min(low, a.expansionStart(c, on, groupUnary, acc))
		}
		return low

	case grammar.ExpOptional, grammar.ExpParenthesized, grammar.ExpTryCatch, grammar.ExpScoped, grammar.ExpAssigned:
		return a.expansionStart(e.Child(), on, groupUnary, acc)

	case grammar.ExpNonTerminal:
		target, ok := a.g.ResolveProduction(id)
		if !ok {
			acc.units[unresolvedAtom(AtomUnresolvedProduction, id)] = struct{}{}
			return noLow
		}
		s, low := a.referenceStart(target, on, groupUnary)
		acc.addAll(s)
		return low
	}
	panic(fmt.Sprintf("cfa: unhandled expansion kind %v", e.Kind))
}

func (a *Analyzer) unitAtom(e *grammar.Expansion) AtomicUnit {
	if a.g.Expr(e.Expr).Form == grammar.FormEOF {
		return eofAtom
	}
	if t, ok := a.lex.TokenForUnit(e.ID); ok {
		return tokenAtom(t.ID)
	}
	return unresolvedAtom(AtomUnresolvedToken, e.ID)
}
