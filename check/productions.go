package check

import (
	"slices"

	"github.com/dhamidi/jccflow/cfa"
	"github.com/dhamidi/jccflow/grammar"
)

func (c *checker) leftRecursion() {
	for _, cycle := range c.a.LeftRecursionCycles() {
		head := c.g.Production(cycle.Productions[0])
		c.report(head.Pos, Error, LeftRecursion, "Left-recursion detected: %s", cycle.Describe(c.g))
		for _, u := range cycle.Units {
			c.report(c.g.Expansion(u).Pos, Error, LeftRecursion, "Part of a left-recursive cycle")
		}
	}
}

// bodies calls fn for every expansion of every BNF production.
func (c *checker) bodies(fn func(e *grammar.Expansion)) {
	for _, p := range c.g.Productions() {
		if p.Kind != grammar.BNF {
			continue
		}
		grammar.WalkExpansion(c.g, p.Body, func(e *grammar.Expansion) bool {
			fn(e)
			return true
		})
	}
}

func (c *checker) emptyExpansions() {
	c.bodies(func(e *grammar.Expansion) {
		switch e.Kind {
		case grammar.ExpAlternative:
			last := len(e.Children) - 1
			for _, branch := range e.Children[:max(last, 0)] {
				if c.a.Nullability(branch) == cfa.Nullable {
					c.report(c.g.Expansion(branch).Pos, Warning, EmptyChoice,
						"This choice can expand to the empty token sequence and will therefore always be taken in favor of the choices after it")
				}
			}

		case grammar.ExpOptional:
			if c.a.Nullability(e.Child()) == cfa.Nullable {
				c.report(e.Pos, Warning, EmptyLoop, `Expansion within "[...]" can be matched by empty string`)
			}

		case grammar.ExpParenthesized:
			occ := e.Occurrence
			if occ.Kind == grammar.Once || c.a.Nullability(e.Child()) != cfa.Nullable {
				return
			}
			sev := Warning
			if occ.Unbounded() {
				sev = Error
			}
			c.report(e.Pos, sev, EmptyLoop, `Expansion within "(...)%s" can be matched by empty string`, occ)
		}
	})
}

func (c *checker) undefinedReferences() {
	c.bodies(func(e *grammar.Expansion) {
		switch e.Kind {
		case grammar.ExpNonTerminal:
			if _, ok := c.g.ResolveProduction(e.ID); !ok {
				c.report(e.Pos, Error, UndefinedProduction, "Undefined production %q", e.Name)
			}
		case grammar.ExpToken:
			x := c.g.Expr(e.Expr)
			if x.Form != grammar.FormReference {
				return
			}
			if _, ok := c.lex.TokenForUnit(e.ID); !ok {
				c.report(x.Pos, Error, UndefinedToken, "Undefined lexical token name %q", x.Name)
			}
		}
	})
	for i := range c.g.NumRegexes() {
		r := c.g.Regex(grammar.RegexID(i))
		if r.Kind != grammar.RegexReference {
			continue
		}
		if _, ok := c.g.LookupNamedExpr(r.Name); !ok {
			c.report(r.Pos, Error, UndefinedToken, "Undefined lexical token name %q", r.Name)
		}
	}
}

// unusedProductions reports productions that no expansion refers to, and
// productions that cannot be reached from a root.
func (c *checker) unusedProductions() {
	prods := c.g.Productions()
	if len(prods) == 0 {
		return
	}

	referenced := make(map[grammar.ProductionID]bool)
	c.bodies(func(e *grammar.Expansion) {
		if target, ok := c.g.ResolveProduction(e.ID); ok {
			referenced[target] = true
		}
	})

	reachable := make(map[grammar.ProductionID]bool)
	var work []grammar.ProductionID
	mark := func(p grammar.ProductionID) {
		if !reachable[p] {
			reachable[p] = true
			work = append(work, p)
		}
	}
	mark(prods[0].ID)
	for _, name := range c.opts.Roots {
		if p, ok := c.g.LookupProduction(name); ok {
			mark(p)
		}
	}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		if c.g.Production(p).Kind != grammar.BNF {
			continue
		}
		for _, u := range grammar.NonTerminals(c.g, p) {
			if target, ok := c.g.ResolveProduction(u); ok {
				mark(target)
			}
		}
	}

	for _, p := range prods[1:] {
		if slices.Contains(c.opts.Roots, p.Name) {
			continue
		}
		switch {
		case !referenced[p.ID]:
			c.report(p.Pos, Warning, UnusedProduction, "Unused production %q", p.Name)
		case !reachable[p.ID]:
			c.report(p.Pos, Warning, UnreachableProduction, "Unreachable production %q", p.Name)
		}
	}
}
