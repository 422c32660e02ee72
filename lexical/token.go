package lexical

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/dhamidi/jccflow/grammar"
)

type TokenID int32

// KindSet is a set of token kinds considered by a match.
type KindSet uint8

const (
	// JustToken considers ordinary tokens only.
	JustToken KindSet = 1 << grammar.KindToken
	AllKinds  KindSet = 1<<grammar.KindToken | 1<<grammar.KindSpecialToken | 1<<grammar.KindSkip | 1<<grammar.KindMore
)

func KindsOf(kinds ...grammar.TokenKind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

// ParseKindSet reads a comma separated list of token kinds such as
// "TOKEN,SKIP". Kinds are case-insensitive.
func ParseKindSet(s string) (KindSet, error) {
	var set KindSet
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if part == "ALL" {
			set |= AllKinds
			continue
		}
		k, err := grammar.ParseTokenKind(part)
		if err != nil {
			return 0, err
		}
		set |= 1 << k
	}
	if set == 0 {
		return JustToken, nil
	}
	return set, nil
}

func (s KindSet) Contains(k grammar.TokenKind) bool {
	return s&(1<<k) != 0
}

// Token is a token definition of the lexical grammar. Explicit tokens come
// from a token spec; synthetic tokens stand for a regular expression written
// directly inside a BNF production.
type Token struct {
	ID       TokenID
	Explicit bool
	// Spec is the declaring spec of an explicit token, NoSpec otherwise.
	Spec grammar.SpecID
	// Unit is the BNF token unit that declares a synthetic token.
	Unit       grammar.ExpansionID
	Expr       grammar.ExprID
	Name       string
	Kind       grammar.TokenKind
	Private    bool
	IgnoreCase bool
	// States lists the states the token applies to, nil for all states.
	States     []string
	Transition string
	Pos        grammar.Pos

	g       *grammar.Grammar
	once       sync.Once
	pattern    *regexp.Regexp
	patternErr error
}

func (t *Token) String() string {
	if t.Name != "" {
		return "<" + t.Name + ">"
	}
	return t.g.ExprName(t.Expr)
}

// Literal returns the text of a string token.
func (t *Token) Literal() (string, bool) {
	return t.g.SingleLiteral(t.Expr)
}

// MatchesLiteral reports whether t is a string token for literal, modulo
// the ignore-case flag of t.
func (t *Token) MatchesLiteral(literal string) bool {
	lit, ok := t.Literal()
	if !ok {
		return false
	}
	if t.IgnoreCase {
		return strings.EqualFold(lit, literal)
	}
	return lit == literal
}

// Pattern returns the compiled prefix pattern of the token. It is nil when
// the regular expression refers to an undeclared token or to itself, or when
// it does not compile; PatternErr tells the last case apart.
func (t *Token) Pattern() *regexp.Regexp {
	t.compile()
	return t.pattern
}

// PatternErr returns the error of compiling the pattern of the token, for
// instance a repetition count above the limit of package regexp.
func (t *Token) PatternErr() error {
	t.compile()
	return t.patternErr
}

func (t *Token) compile() {
	t.once.Do(func() {
		src, ok := exprSource(t.g, t.Expr)
		if !ok {
			return
		}
		prefix := "^"
		if t.IgnoreCase {
			prefix = "(?i)^"
		}
		re, err := regexp.Compile(prefix + "(?:" + src + ")")
		if err != nil {
			t.patternErr = fmt.Errorf("compile %s: %w", t, err)
			return
		}
		re.Longest()
		t.pattern = re
	})
}

// MatchPrefix returns the length of the longest prefix of text matched by
// the token, or -1.
func (t *Token) MatchPrefix(text string) int {
	re := t.Pattern()
	if re == nil {
		return -1
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[1]
}

// Matches reports whether the token matches all of s.
func (t *Token) Matches(s string) bool {
	return t.MatchPrefix(s) == len(s)
}
