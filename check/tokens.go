package check

import (
	"strings"

	"github.com/dhamidi/jccflow/cfa"
	"github.com/dhamidi/jccflow/grammar"
	"github.com/dhamidi/jccflow/lexical"
)

func (c *checker) emptyCharClasses() {
	for i := range c.g.NumRegexes() {
		r := c.g.Regex(grammar.RegexID(i))
		if r.IsEmptyClass() {
			c.report(r.Pos, Error, EmptyCharClass, "Empty character set is not allowed as it will not match any character")
		}
	}
}

// invalidPatterns reports tokens whose regular expression does not compile,
// so they can never match.
func (c *checker) invalidPatterns() {
	for _, t := range c.lex.Tokens() {
		if err := t.PatternErr(); err != nil {
			c.report(t.Pos, Error, InvalidPattern, "Regular expression cannot be matched: %v", err)
		}
	}
}

// unwrap skips groups that occur exactly once.
func (c *checker) unwrap(id grammar.RegexID) *grammar.Regex {
	r := c.g.Regex(id)
	for r.Kind == grammar.RegexParenthesized && r.Occurrence.Kind == grammar.Once {
		r = c.g.Regex(r.Child())
	}
	return r
}

func statesPhrase(states []string) string {
	switch len(states) {
	case 0:
		return "in all lexical states"
	case 1:
		return "in lexical state " + states[0]
	}
	return "in lexical states " + strings.Join(states, ", ")
}

// regexMatchesEmpty reports tokens that can match the empty string. A token
// that is only a reference to another one is reported at its target.
func (c *checker) regexMatchesEmpty() {
	for _, t := range c.lex.Tokens() {
		x := c.g.Expr(t.Expr)
		if t.Private || x.Root == grammar.NoRegex {
			continue
		}
		root := c.unwrap(x.Root)
		if root.Kind == grammar.RegexReference {
			continue
		}
		if c.a.ExprNullable(x.ID) != cfa.Nullable {
			continue
		}
		subject := ""
		if t.Name != "" {
			subject = " for " + t.Name
		}
		c.report(c.g.Regex(x.Root).Pos, Warning, RegexMatchesEmpty,
			"Regular expression%s can match the empty string %s. This can result in an endless loop of empty string matches.",
			subject, statesPhrase(t.States))
	}
}

// regexLoops reports named regular expressions that refer to themselves,
// directly or through other references.
func (c *checker) regexLoops() {
	status := make(map[grammar.ExprID]visitStatus)
	for _, t := range c.lex.Tokens() {
		if t.Explicit && status[t.Expr] != visited {
			c.regexLoop(t.Expr, []grammar.ExprID{t.Expr}, status)
		}
	}
}

type visitStatus uint8

const (
	notVisited visitStatus = iota
	beingVisited
	visited
)

func (c *checker) regexLoop(x grammar.ExprID, path []grammar.ExprID, status map[grammar.ExprID]visitStatus) {
	status[x] = beingVisited
	defer func() { status[x] = visited }()

	for _, name := range c.references(x) {
		target, ok := c.g.LookupNamedExpr(name)
		if !ok {
			continue
		}
		switch status[target] {
		case notVisited:
			c.regexLoop(target, append(path[:len(path):len(path)], target), status)
		case beingVisited:
			start := -1
			for i, y := range path {
				if y == target {
					start = i
					break
				}
			}
			if start < 0 {
				continue
			}
			names := make([]string, 0, len(path)-start+1)
			for _, y := range path[start:] {
				names = append(names, c.g.Expr(y).Name)
			}
			names = append(names, c.g.Expr(target).Name)
			c.report(c.g.Expr(target).Pos, Error, RegexLoop,
				"Loop detected in regular expression: %s", strings.Join(names, " -> "))
			return
		}
	}
}

// references returns the names referenced inside a regular expression.
func (c *checker) references(x grammar.ExprID) []string {
	var names []string
	grammar.WalkRegex(c.g, c.g.Expr(x).Root, func(r *grammar.Regex) bool {
		if r.Kind == grammar.RegexReference {
			names = append(names, r.Name)
		}
		return true
	})
	return names
}

// tokensNeverMatched reports string tokens shadowed by a token declared
// before them that matches the same input. For a token that is an
// alternative of strings, each string is checked on its own.
func (c *checker) tokensNeverMatched() {
	for _, t := range c.lex.Tokens() {
		if !t.Explicit || t.Private {
			continue
		}
		x := c.g.Expr(t.Expr)
		if x.Root == grammar.NoRegex {
			continue
		}
		root := c.unwrap(x.Root)
		switch root.Kind {
		case grammar.RegexLiteral:
			if other := c.shadowedBy(t, root.Value); other != nil {
				c.report(t.Pos, Warning, TokenNeverMatched,
					"This token can never be matched, %s matches its input instead", other)
			}
		case grammar.RegexAlternative:
			for _, id := range root.Children {
				branch := c.g.Regex(id)
				if branch.Kind != grammar.RegexLiteral {
					continue
				}
				if other := c.shadowedBy(t, branch.Value); other != nil {
					c.report(branch.Pos, Warning, TokenNeverMatched,
						"This token can never be matched, %s matches its input instead", other)
				}
			}
		}
	}
}

// shadowedBy returns the explicit token that matches literal instead of t
// in one of the states of t.
func (c *checker) shadowedBy(t *lexical.Token, literal string) *lexical.Token {
	if literal == "" {
		return nil
	}
	for _, s := range c.lex.StatesOf(t) {
		winner, n := s.Match(literal, lexical.AllKinds)
		if winner != nil && winner != t && winner.Explicit && n == len(literal) {
			return winner
		}
	}
	return nil
}

// stringsNeverMatched reports string units of BNF productions whose input
// the token manager matches as a different token.
func (c *checker) stringsNeverMatched() {
	def := c.lex.DefaultState()
	c.bodies(func(e *grammar.Expansion) {
		if e.Kind != grammar.ExpToken {
			return
		}
		lit, ok := c.unitLiteral(e)
		if !ok || lit == "" {
			return
		}
		mine, ok := c.lex.TokenForUnit(e.ID)
		if !ok || mine.Private || !def.Contains(mine) {
			return
		}
		winner, n := def.Match(lit, lexical.JustToken)
		if winner == nil || winner == mine || n != len(lit) {
			return
		}
		expected := "a string literal token"
		if mine.Name != "" {
			expected = "the string literal token <" + mine.Name + ">"
		}
		actual := "another token"
		if winner.Name != "" {
			actual = "<" + winner.Name + ">"
		}
		c.report(e.Pos, Warning, StringNeverMatched,
			"%q cannot be matched as %s, %s matches its input instead", lit, expected, actual)
	})
}

// unitLiteral returns the string a token unit stands for, following a
// reference to a named token.
func (c *checker) unitLiteral(e *grammar.Expansion) (string, bool) {
	x := c.g.Expr(e.Expr)
	if x.Form == grammar.FormReference {
		target, ok := c.g.LookupNamedExpr(x.Name)
		if !ok {
			return "", false
		}
		return c.g.SingleLiteral(target)
	}
	return c.g.SingleLiteral(x.ID)
}

// unusedPrivateRegexes reports private regular expressions that nothing
// refers to, and those only referred to by other unreachable ones.
func (c *checker) unusedPrivateRegexes() {
	referenced := make(map[grammar.ExprID]bool)
	for i := range c.g.NumRegexes() {
		r := c.g.Regex(grammar.RegexID(i))
		if r.Kind != grammar.RegexReference {
			continue
		}
		if target, ok := c.g.LookupNamedExpr(r.Name); ok {
			referenced[target] = true
		}
	}

	reachable := make(map[grammar.ExprID]bool)
	var work []grammar.ExprID
	for _, t := range c.lex.Tokens() {
		if !t.Private && !reachable[t.Expr] {
			reachable[t.Expr] = true
			work = append(work, t.Expr)
		}
	}
	for len(work) > 0 {
		x := work[len(work)-1]
		work = work[:len(work)-1]
		for _, name := range c.references(x) {
			target, ok := c.g.LookupNamedExpr(name)
			if ok && !reachable[target] {
				reachable[target] = true
				work = append(work, target)
			}
		}
	}

	for _, t := range c.lex.Tokens() {
		if !t.Explicit || !t.Private {
			continue
		}
		switch {
		case !referenced[t.Expr]:
			c.report(t.Pos, Warning, UnusedPrivateRegex, "Unused private regex %q", t.Name)
		case !reachable[t.Expr]:
			c.report(t.Pos, Warning, UnreachablePrivateRegex, "Unreachable private regex %q", t.Name)
		}
	}
}
