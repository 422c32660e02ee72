package cfa

import (
	"strings"

	"github.com/dhamidi/jccflow/grammar"
)

// LeftMost returns the non-terminals of a production that can be reached
// without consuming a token, in document order. It reports false for a
// JAVACODE production.
func (a *Analyzer) LeftMost(p grammar.ProductionID) ([]grammar.ExpansionID, bool) {
	prod := a.g.Production(p)
	if prod.Kind == grammar.Opaque {
		return nil, false
	}
	var units []grammar.ExpansionID
	a.leftMost(prod.Body, &units)
	return units, true
}

func (a *Analyzer) leftMost(id grammar.ExpansionID, units *[]grammar.ExpansionID) {
	if id == grammar.NoExpansion {
		return
	}
	e := a.g.Expansion(id)
	switch e.Kind {
	case grammar.ExpNonTerminal:
		*units = append(*units, id)
	case grammar.ExpSequence:
		for _, c := range e.Children {
			a.leftMost(c, units)
			if !a.IsNullable(c) {
				return
			}
		}
	case grammar.ExpAlternative:
		for _, c := range e.Children {
			a.leftMost(c, units)
		}
	case grammar.ExpOptional, grammar.ExpParenthesized, grammar.ExpTryCatch, grammar.ExpScoped, grammar.ExpAssigned:
		a.leftMost(e.Child(), units)
	}
}

// Cycle is a left-recursive path. Productions starts and ends with the same
// production; Units[i] is the non-terminal of Productions[i] that leads to
// Productions[i+1].
type Cycle struct {
	Productions []grammar.ProductionID
	Units       []grammar.ExpansionID
}

// Describe renders the cycle as A -> B -> A.
func (c Cycle) Describe(g *grammar.Grammar) string {
	names := make([]string, len(c.Productions))
	for i, p := range c.Productions {
		names[i] = g.Production(p).Name
	}
	return strings.Join(names, " -> ")
}

type visitStatus uint8

const (
	notVisited visitStatus = iota
	beingVisited
	visited
)

// LeftRecursionCycles returns the left-recursive cycles of the grammar. Every
// production is reported on at most one cycle, and a cycle is reported once,
// starting at the first of its productions reached in declaration order.
func (a *Analyzer) LeftRecursionCycles() []Cycle {
	c := &cycleFinder{
		a:      a,
		status: make([]visitStatus, len(a.g.Productions())),
	}
	for _, p := range a.g.Productions() {
		if c.status[p.ID] == notVisited {
			c.visit(p.ID, []grammar.ProductionID{p.ID}, nil)
		}
	}
	return c.cycles
}

type cycleFinder struct {
	a      *Analyzer
	status []visitStatus
	cycles []Cycle
}

func (c *cycleFinder) visit(p grammar.ProductionID, prods []grammar.ProductionID, units []grammar.ExpansionID) {
	c.status[p] = beingVisited
	defer func() { c.status[p] = visited }()

	refs, ok := c.a.LeftMost(p)
	if !ok {
		return
	}
	for _, ref := range refs {
		target, ok := c.a.g.ResolveProduction(ref)
		if !ok {
			continue
		}
		switch c.status[target] {
		case notVisited:
			c.visit(target, append(prods[:len(prods):len(prods)], target), append(units[:len(units):len(units)], ref))
		case beingVisited:
			start := -1
			for i, q := range prods {
				if q == target {
					start = i
					break
				}
			}
			if start < 0 {
				continue
			}
			cycle := Cycle{
				Productions: append(append([]grammar.ProductionID(nil), prods[start:]...), target),
				Units:       append(append([]grammar.ExpansionID(nil), units[start:]...), ref),
			}
			c.cycles = append(c.cycles, cycle)
			for _, q := range cycle.Productions {
				c.status[q] = visited
			}
			return
		}
	}
}
