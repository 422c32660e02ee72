package lexical

import "slices"

// State is a lexical state: an ordered list of the tokens active in it.
// The order is declaration order, with synthetic tokens after explicit ones.
type State struct {
	Name   string
	tokens []*Token
	lg     *Grammar
}

func (s *State) Tokens() []*Token {
	return s.tokens
}

// Contains reports whether t is active in this state.
func (s *State) Contains(t *Token) bool {
	return slices.Contains(s.tokens, t)
}

// Match returns the token that the token manager would match at the start
// of text in this state: the token with the longest non-empty match, or on
// equal lengths the one declared first. Private tokens are never matched.
// It returns nil and 0 if no token of the given kinds matches.
func (s *State) Match(text string, kinds KindSet) (*Token, int) {
	var best *Token
	bestLen := 0
	for _, t := range s.tokens {
		if t.Private || !kinds.Contains(t.Kind) {
			continue
		}
		n := t.MatchPrefix(text)
		if n > bestLen {
			best, bestLen = t, n
		}
	}
	return best, bestLen
}

// MatchExact returns the first string token of this state whose literal is
// literal, modulo its ignore-case flag.
func (s *State) MatchExact(literal string, kinds KindSet) *Token {
	for _, t := range s.tokens {
		if kinds.Contains(t.Kind) && t.MatchesLiteral(literal) {
			return t
		}
	}
	return nil
}

// Successors returns the states entered by the transitions of the tokens of
// this state, in order of first appearance.
func (s *State) Successors() []*State {
	var out []*State
	seen := make(map[*State]bool)
	for _, t := range s.tokens {
		if t.Transition == "" {
			continue
		}
		next, ok := s.lg.State(t.Transition)
		if !ok || seen[next] {
			continue
		}
		seen[next] = true
		out = append(out, next)
	}
	return out
}

// Predecessors returns the states with a transition into this one.
func (s *State) Predecessors() []*State {
	var out []*State
	for _, other := range s.lg.states {
		for _, next := range other.Successors() {
			if next == s {
				out = append(out, other)
				break
			}
		}
	}
	return out
}

func (s *State) add(t *Token) {
	s.tokens = append(s.tokens, t)
}
