// Package lexical models the token manager of a grammar: its lexical states,
// the tokens active in each, and maximal munch matching.
package lexical

import (
	"github.com/dhamidi/jccflow/grammar"
)

// Grammar is the lexical view of a grammar. It is immutable once built and
// safe for concurrent use.
type Grammar struct {
	g           *grammar.Grammar
	states      []*State
	stateByName map[string]*State
	tokens      []*Token
	byName      map[string][]*Token
	byUnit      map[grammar.ExpansionID]*Token
	bySpec      map[grammar.SpecID]*Token
}

// New builds the lexical grammar. Every explicit token spec is added to the
// states named by its group, to DEFAULT if the group names none, or to every
// state for a <*> group. Then every regular expression written inside a BNF
// production is resolved to an explicit string token or synthesized into a
// new token of the default state.
func New(g *grammar.Grammar) *Grammar {
	lg := &Grammar{
		g:           g,
		stateByName: make(map[string]*State),
		byName:      make(map[string][]*Token),
		byUnit:      make(map[grammar.ExpansionID]*Token),
		bySpec:      make(map[grammar.SpecID]*Token),
	}
	for _, name := range g.StateNames() {
		s := &State{Name: name, lg: lg}
		lg.states = append(lg.states, s)
		lg.stateByName[name] = s
	}

	for _, rp := range g.RegexProductions() {
		targets := lg.targetStates(&rp)
		for _, sid := range rp.Specs {
			spec := g.Spec(sid)
			x := g.Expr(spec.Expr)
			if x.Form == grammar.FormReference || x.Form == grammar.FormEOF {
				// A bare <NAME> spec declares nothing.
				continue
			}
			t := lg.newToken(&Token{
				Explicit:   true,
				Spec:       sid,
				Unit:       grammar.NoExpansion,
				Expr:       spec.Expr,
				Name:       x.Name,
				Kind:       rp.Kind,
				Private:    x.Private,
				IgnoreCase: rp.IgnoreCase,
				States:     stateNames(&rp),
				Transition: spec.Transition,
				Pos:        x.Pos,
			})
			lg.bySpec[sid] = t
			for _, s := range targets {
				s.add(t)
			}
		}
	}

	lg.synthesize()
	return lg
}

func (lg *Grammar) targetStates(rp *grammar.RegexProduction) []*State {
	switch {
	case rp.AllStates:
		return lg.states
	case len(rp.States) == 0:
		return []*State{lg.DefaultState()}
	}
	out := make([]*State, 0, len(rp.States))
	for _, name := range rp.States {
		out = append(out, lg.stateByName[name])
	}
	return out
}

func stateNames(rp *grammar.RegexProduction) []string {
	switch {
	case rp.AllStates:
		return nil
	case len(rp.States) == 0:
		return []string{grammar.DefaultState}
	}
	return rp.States
}

func (lg *Grammar) newToken(t *Token) *Token {
	t.ID = TokenID(len(lg.tokens))
	t.g = lg.g
	lg.tokens = append(lg.tokens, t)
	if t.Name != "" {
		lg.byName[t.Name] = append(lg.byName[t.Name], t)
	}
	return t
}

func (lg *Grammar) synthesize() {
	def := lg.DefaultState()
	explicit := len(def.tokens)
	literals := make(map[string]*Token)

	for _, p := range lg.g.Productions() {
		if p.Kind != grammar.BNF {
			continue
		}
		for _, u := range grammar.TokenUnits(lg.g, p.ID) {
			unit := lg.g.Expansion(u)
			x := lg.g.Expr(unit.Expr)

			switch x.Form {
			case grammar.FormEOF, grammar.FormReference:
				continue
			case grammar.FormLiteral, grammar.FormInline:
				lit, ok := lg.g.SingleLiteral(x.ID)
				if !ok {
					break
				}
				if t := matchExplicit(def.tokens[:explicit], lit); t != nil {
					lg.byUnit[u] = t
					continue
				}
				if t, ok := literals[lit]; ok {
					lg.byUnit[u] = t
					continue
				}
				t := lg.synthetic(u, x)
				literals[lit] = t
				continue
			}
			lg.synthetic(u, x)
		}
	}
}

func matchExplicit(tokens []*Token, literal string) *Token {
	for _, t := range tokens {
		if t.Kind == grammar.KindToken && !t.Private && t.MatchesLiteral(literal) {
			return t
		}
	}
	return nil
}

func (lg *Grammar) synthetic(u grammar.ExpansionID, x *grammar.Expr) *Token {
	t := lg.newToken(&Token{
		Spec:   grammar.NoSpec,
		Unit:   u,
		Expr:   x.ID,
		Name:   x.Name,
		Kind:   grammar.KindToken,
		States: []string{grammar.DefaultState},
		Pos:    x.Pos,
	})
	lg.byUnit[u] = t
	lg.DefaultState().add(t)
	return t
}

// Source returns the grammar the lexical model was built from.
func (lg *Grammar) Source() *grammar.Grammar {
	return lg.g
}

func (lg *Grammar) States() []*State {
	return lg.states
}

func (lg *Grammar) State(name string) (*State, bool) {
	s, ok := lg.stateByName[name]
	return s, ok
}

// DefaultState returns the DEFAULT state, which always exists.
func (lg *Grammar) DefaultState() *State {
	return lg.stateByName[grammar.DefaultState]
}

// StatesOf returns the states in which t is active.
func (lg *Grammar) StatesOf(t *Token) []*State {
	if t.States == nil {
		return lg.states
	}
	out := make([]*State, 0, len(t.States))
	for _, name := range t.States {
		if s, ok := lg.stateByName[name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Tokens returns all tokens, explicit ones first, in declaration order.
func (lg *Grammar) Tokens() []*Token {
	return lg.tokens
}

func (lg *Grammar) Token(id TokenID) *Token {
	return lg.tokens[id]
}

// TokenByName returns the first token with the given name. Names are unique
// in well-formed grammars.
func (lg *Grammar) TokenByName(name string) (*Token, bool) {
	ts := lg.byName[name]
	if len(ts) == 0 {
		return nil, false
	}
	return ts[0], true
}

// TokensByName returns every token declared with the given name.
func (lg *Grammar) TokensByName(name string) []*Token {
	return lg.byName[name]
}

// TokenForSpec returns the token declared by an explicit spec.
func (lg *Grammar) TokenForSpec(spec grammar.SpecID) (*Token, bool) {
	t, ok := lg.bySpec[spec]
	return t, ok
}

// TokenForUnit returns the token matched by a BNF token unit. References
// resolve by name; <EOF> and unresolved references have no token.
func (lg *Grammar) TokenForUnit(unit grammar.ExpansionID) (*Token, bool) {
	e := lg.g.Expansion(unit)
	if e.Kind != grammar.ExpToken {
		return nil, false
	}
	if t, ok := lg.byUnit[unit]; ok {
		return t, true
	}
	x := lg.g.Expr(e.Expr)
	if x.Form == grammar.FormReference {
		return lg.TokenByName(x.Name)
	}
	return nil, false
}

// MatchLiteral matches text in the named state with maximal munch. It
// returns nil if the state does not exist or no token matches.
func (lg *Grammar) MatchLiteral(text, state string, kinds KindSet) (*Token, int) {
	s, ok := lg.State(state)
	if !ok {
		return nil, 0
	}
	return s.Match(text, kinds)
}
