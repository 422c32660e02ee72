package lexical

import (
	"strings"
	"sync"
	"testing"

	"github.com/dhamidi/jccflow/grammar"
)

func explicitTokens(b *grammar.Builder, rp grammar.RegexProduction, exprs ...grammar.ExprID) grammar.RegexProductionID {
	group := b.Tokens(rp)
	for _, x := range exprs {
		b.Spec(group, x, "")
	}
	return group
}

func TestMaximalMunch(t *testing.T) {
	b := grammar.NewBuilder("munch")
	explicitTokens(b, grammar.RegexProduction{},
		b.NamedExpr("A", false, b.Literal("foo")),
		b.NamedExpr("B", false, b.Literal("foobar")),
	)
	lg := New(b.Build())

	tests := []struct {
		input   string
		want    string
		wantLen int
	}{
		{"foobar", "B", 6},
		{"foobarbaz", "B", 6},
		{"foo", "A", 3},
		{"foob", "A", 3},
		{"bar", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok, n := lg.MatchLiteral(tt.input, grammar.DefaultState, JustToken)
			name := ""
			if tok != nil {
				name = tok.Name
			}
			if name != tt.want || n != tt.wantLen {
				t.Errorf("MatchLiteral(%q) = %q, %d, want %q, %d", tt.input, name, n, tt.want, tt.wantLen)
			}
		})
	}
}

func TestTieBreakByDeclarationOrder(t *testing.T) {
	b := grammar.NewBuilder("ties")
	explicitTokens(b, grammar.RegexProduction{},
		b.NamedExpr("IF", false, b.Literal("if")),
		b.NamedExpr("ID", false, b.RegexGroup(b.CharClass(false, grammar.CharRange{Lo: 'a', Hi: 'z'}), grammar.OccursOneOrMore)),
		b.NamedExpr("LATE_IF", false, b.Literal("if")),
	)
	lg := New(b.Build())

	inputs := []string{"if", "ifx", "i", "if(", "zzz"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			state := lg.DefaultState()
			got, n := state.Match(in, JustToken)
			if got == nil {
				t.Fatalf("Match(%q) = nil", in)
			}
			for i, other := range state.Tokens() {
				m := other.MatchPrefix(in)
				if m > n {
					t.Errorf("%s matches %d > %d characters of %q", other, m, n, in)
				}
				if m == n && i < indexOf(state, got) {
					t.Errorf("%s ties with %s but is declared earlier", other, got)
				}
			}
		})
	}

	if got, _ := lg.MatchLiteral("if", grammar.DefaultState, JustToken); got.Name != "IF" {
		t.Errorf("MatchLiteral(if) = %s, want <IF>", got)
	}
}

func indexOf(s *State, t *Token) int {
	for i, other := range s.Tokens() {
		if other == t {
			return i
		}
	}
	return -1
}

func TestMatchKindsAndPrivate(t *testing.T) {
	b := grammar.NewBuilder("kinds")
	explicitTokens(b, grammar.RegexProduction{Kind: grammar.KindSkip}, b.LiteralExpr(" "))
	explicitTokens(b, grammar.RegexProduction{},
		b.NamedExpr("DIGIT", true, b.CharClass(false, grammar.CharRange{Lo: '0', Hi: '9'})),
		b.NamedExpr("NUM", false, b.RegexGroup(b.RegexRef("DIGIT"), grammar.OccursOneOrMore)),
	)
	lg := New(b.Build())

	if tok, _ := lg.MatchLiteral(" ", grammar.DefaultState, JustToken); tok != nil {
		t.Errorf("MatchLiteral(space, JustToken) = %s, want nil", tok)
	}
	if tok, n := lg.MatchLiteral(" ", grammar.DefaultState, AllKinds); tok == nil || tok.Kind != grammar.KindSkip || n != 1 {
		t.Errorf("MatchLiteral(space, AllKinds) = %v, %d, want the SKIP token", tok, n)
	}
	if tok, n := lg.MatchLiteral("7", grammar.DefaultState, JustToken); tok == nil || tok.Name != "NUM" || n != 1 {
		t.Errorf("MatchLiteral(7) = %v, %d, want <NUM>, 1", tok, n)
	}
	if _, n := lg.MatchLiteral("7", "NOWHERE", AllKinds); n != 0 {
		t.Errorf("MatchLiteral in an unknown state matched %d characters", n)
	}
}

func TestParseKindSet(t *testing.T) {
	tests := []struct {
		in   string
		want KindSet
	}{
		{"", JustToken},
		{"token", JustToken},
		{"TOKEN,SKIP", KindsOf(grammar.KindToken, grammar.KindSkip)},
		{"special_token, more", KindsOf(grammar.KindSpecialToken, grammar.KindMore)},
		{"all", AllKinds},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKindSet(tt.in)
			if err != nil {
				t.Fatalf("ParseKindSet(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseKindSet(%q) = %b, want %b", tt.in, got, tt.want)
			}
		})
	}
	if _, err := ParseKindSet("WORD"); err == nil {
		t.Errorf("ParseKindSet(WORD) succeeded")
	}
}

func TestStatePartitioning(t *testing.T) {
	b := grammar.NewBuilder("states")
	explicitTokens(b, grammar.RegexProduction{}, b.NamedExpr("D1", false, b.Literal("d1")))
	explicitTokens(b, grammar.RegexProduction{AllStates: true, Kind: grammar.KindSkip}, b.LiteralExpr(" "))
	explicitTokens(b, grammar.RegexProduction{States: []string{"S1", "S2"}}, b.NamedExpr("S", false, b.Literal("s")))
	explicitTokens(b, grammar.RegexProduction{States: []string{"S2"}}, b.NamedExpr("S2ONLY", false, b.Literal("t")))
	lg := New(b.Build())

	names := func(s *State) []string {
		var out []string
		for _, tok := range s.Tokens() {
			out = append(out, tok.String())
		}
		return out
	}

	tests := []struct {
		state string
		want  []string
	}{
		{grammar.DefaultState, []string{"<D1>", `" "`}},
		{"S1", []string{`" "`, "<S>"}},
		{"S2", []string{`" "`, "<S>", "<S2ONLY>"}},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			s, ok := lg.State(tt.state)
			if !ok {
				t.Fatalf("State(%s) missing", tt.state)
			}
			got := names(s)
			if len(got) != len(tt.want) {
				t.Fatalf("tokens = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("tokens = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}

	if len(lg.States()) != 3 {
		t.Errorf("len(States()) = %d, want 3", len(lg.States()))
	}
}

func TestDefaultStateAlwaysExists(t *testing.T) {
	lg := New(grammar.NewBuilder("empty").Build())
	if lg.DefaultState() == nil || lg.DefaultState().Name != grammar.DefaultState {
		t.Fatalf("DefaultState() = %v", lg.DefaultState())
	}
	if tok, n := lg.MatchLiteral("x", grammar.DefaultState, AllKinds); tok != nil || n != 0 {
		t.Errorf("MatchLiteral on an empty grammar = %v, %d", tok, n)
	}
}

func TestSyntheticTokens(t *testing.T) {
	b := grammar.NewBuilder("synthetic")
	explicitTokens(b, grammar.RegexProduction{}, b.NamedExpr("IF", false, b.Literal("if")))
	explicitTokens(b, grammar.RegexProduction{IgnoreCase: true}, b.NamedExpr("SELECT", false, b.Literal("SELECT")))
	explicitTokens(b, grammar.RegexProduction{Kind: grammar.KindSkip}, b.LiteralExpr("else"))

	ifUnit := b.Lit("if")
	selectUnit := b.Lit("select")
	elseUnit := b.Lit("else")
	elseAgain := b.Lit("else")
	inlineIf := b.Token(b.InlineExpr(b.Literal("if")))
	named := b.Token(b.NamedExpr("WORD", false, b.RegexGroup(b.CharClass(false, grammar.CharRange{Lo: 'a', Hi: 'z'}), grammar.OccursOneOrMore)))
	ref := b.Token(b.RefExpr("IF"))
	missing := b.Token(b.RefExpr("NOPE"))
	eof := b.Token(b.EOFExpr())
	b.BNF("Stmt", b.Seq(ifUnit, selectUnit, elseUnit, elseAgain, inlineIf, named, ref, missing, eof))
	lg := New(b.Build())

	ifTok, _ := lg.TokenByName("IF")
	selectTok, _ := lg.TokenByName("SELECT")

	tests := []struct {
		name     string
		unit     grammar.ExpansionID
		explicit bool
		same     *Token
		ok       bool
	}{
		{"literal matching explicit", ifUnit, true, ifTok, true},
		{"ignore case explicit", selectUnit, true, selectTok, true},
		{"literal matching only a skip", elseUnit, false, nil, true},
		{"inline literal", inlineIf, true, ifTok, true},
		{"named inline", named, false, nil, true},
		{"reference", ref, true, ifTok, true},
		{"unresolved reference", missing, false, nil, false},
		{"eof", eof, false, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, ok := lg.TokenForUnit(tt.unit)
			if ok != tt.ok {
				t.Fatalf("TokenForUnit ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if tok.Explicit != tt.explicit {
				t.Errorf("Explicit = %v, want %v", tok.Explicit, tt.explicit)
			}
			if tt.same != nil && tok != tt.same {
				t.Errorf("TokenForUnit = %s, want %s", tok, tt.same)
			}
		})
	}

	first, _ := lg.TokenForUnit(elseUnit)
	second, _ := lg.TokenForUnit(elseAgain)
	if first != second {
		t.Errorf("repeated literal synthesized twice: %s, %s", first, second)
	}
	if first.Unit != elseUnit {
		t.Errorf("synthetic token unit = %v, want the first occurrence %v", first.Unit, elseUnit)
	}

	def := lg.DefaultState().Tokens()
	if n := len(def); n != 5 {
		t.Fatalf("len(DEFAULT tokens) = %d, want 5", n)
	}
	for i, tok := range def {
		if wantExplicit := i < 3; tok.Explicit != wantExplicit {
			t.Errorf("token %d (%s) explicit = %v, want %v", i, tok, tok.Explicit, wantExplicit)
		}
	}

	if tok, ok := lg.TokenByName("WORD"); !ok || tok.Explicit {
		t.Errorf("TokenByName(WORD) = %v, %v, want the synthetic token", tok, ok)
	}
	if tok, _ := lg.MatchLiteral("else", grammar.DefaultState, JustToken); tok != first {
		t.Errorf("MatchLiteral(else) = %v, want the synthetic token %v", tok, first)
	}
}

func TestMatchExact(t *testing.T) {
	b := grammar.NewBuilder("exact")
	explicitTokens(b, grammar.RegexProduction{IgnoreCase: true}, b.NamedExpr("KW", false, b.Literal("Begin")))
	explicitTokens(b, grammar.RegexProduction{}, b.NamedExpr("ID", false, b.RegexGroup(b.CharClass(false, grammar.CharRange{Lo: 'a', Hi: 'z'}), grammar.OccursOneOrMore)))
	lg := New(b.Build())
	def := lg.DefaultState()

	if tok := def.MatchExact("BEGIN", JustToken); tok == nil || tok.Name != "KW" {
		t.Errorf("MatchExact(BEGIN) = %v, want <KW>", tok)
	}
	if tok := def.MatchExact("abc", JustToken); tok != nil {
		t.Errorf("MatchExact(abc) = %s, want nil", tok)
	}
}

func TestPatterns(t *testing.T) {
	b := grammar.NewBuilder("patterns")
	explicitTokens(b, grammar.RegexProduction{},
		b.NamedExpr("LOOP", false, b.RegexSeq(b.Literal("a"), b.RegexRef("LOOP"))),
		b.NamedExpr("DANGLING", false, b.RegexRef("NOWHERE")),
		b.NamedExpr("NEVER", false, b.CharClass(false)),
		b.NamedExpr("ANY", false, b.CharClass(true)),
		b.NamedExpr("NOT_AB", false, b.CharClass(true, grammar.CharRange{Lo: 'a', Hi: 'b'})),
		b.NamedExpr("HEX", false, b.RegexSeq(b.Literal("0x"), b.RegexGroup(b.CharClass(false, grammar.CharRange{Lo: '0', Hi: '9'}, grammar.CharRange{Lo: 'a', Hi: 'f'}), grammar.Repeat(1, 4)))),
		b.NamedExpr("DOTS", false, b.RegexAlt(b.Literal("."), b.Literal("..."))),
		b.NamedExpr("EMPTY", false, b.Literal("")),
	)
	lg := New(b.Build())

	tok := func(t *testing.T, name string) *Token {
		t.Helper()
		tk, ok := lg.TokenByName(name)
		if !ok {
			t.Fatalf("token %s missing", name)
		}
		return tk
	}

	if tok(t, "LOOP").Pattern() != nil {
		t.Errorf("self-referencing token compiled")
	}
	if tok(t, "DANGLING").Pattern() != nil {
		t.Errorf("token with an unresolved reference compiled")
	}

	tests := []struct {
		token string
		input string
		want  int
	}{
		{"NEVER", "x", -1},
		{"ANY", "\n", 1},
		{"NOT_AB", "c", 1},
		{"NOT_AB", "a", -1},
		{"HEX", "0xbeefcafe", 6},
		{"HEX", "0x", -1},
		{"DOTS", "....", 3},
		{"EMPTY", "abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.token+"/"+tt.input, func(t *testing.T) {
			if got := tok(t, tt.token).MatchPrefix(tt.input); got != tt.want {
				t.Errorf("MatchPrefix(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}

	if !tok(t, "HEX").Matches("0xff") || tok(t, "HEX").Matches("0xffg") {
		t.Errorf("Matches disagrees with the HEX pattern")
	}
	if got, _ := lg.MatchLiteral("abc", grammar.DefaultState, JustToken); got != nil && got.Name == "EMPTY" {
		t.Errorf("empty match won maximal munch")
	}
}

func TestPatternCompileError(t *testing.T) {
	b := grammar.NewBuilder("repeat")
	explicitTokens(b, grammar.RegexProduction{},
		b.NamedExpr("AS", false, b.RegexGroup(b.Literal("a"), grammar.Repeat(1, 2000))),
		b.NamedExpr("A", false, b.Literal("a")),
	)
	lg := New(b.Build())

	as, _ := lg.TokenByName("AS")
	if as.Pattern() != nil {
		t.Errorf("pattern with a repeat count of 2000 compiled")
	}
	if err := as.PatternErr(); err == nil || !strings.Contains(err.Error(), "invalid repeat count") {
		t.Errorf("PatternErr = %v, want an invalid repeat count", err)
	}
	a, _ := lg.TokenByName("A")
	if err := a.PatternErr(); err != nil {
		t.Errorf("PatternErr(A) = %v", err)
	}
	if tok, n := lg.MatchLiteral("aaaa", grammar.DefaultState, JustToken); tok != a || n != 1 {
		t.Errorf("MatchLiteral = %v, %d, want <A>, 1", tok, n)
	}
}

func TestConcurrentMatching(t *testing.T) {
	b := grammar.NewBuilder("concurrent")
	explicitTokens(b, grammar.RegexProduction{},
		b.NamedExpr("IF", false, b.Literal("if")),
		b.NamedExpr("ID", false, b.RegexGroup(b.CharClass(false, grammar.CharRange{Lo: 'a', Hi: 'z'}), grammar.OccursOneOrMore)),
		b.NamedExpr("NUM", false, b.RegexGroup(b.CharClass(false, grammar.CharRange{Lo: '0', Hi: '9'}), grammar.OccursOneOrMore)),
	)
	lg := New(b.Build())

	tests := []struct {
		input   string
		want    string
		wantLen int
	}{
		{"if", "IF", 2},
		{"iffy", "ID", 4},
		{"42x", "NUM", 2},
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, tt := range tests {
				tok, n := lg.MatchLiteral(tt.input, grammar.DefaultState, JustToken)
				if tok == nil || tok.Name != tt.want || n != tt.wantLen {
					t.Errorf("MatchLiteral(%q) = %v, %d, want %s, %d", tt.input, tok, n, tt.want, tt.wantLen)
				}
			}
		}()
	}
	wg.Wait()
}

func TestTransitions(t *testing.T) {
	b := grammar.NewBuilder("transitions")
	g0 := b.Tokens(grammar.RegexProduction{Kind: grammar.KindMore})
	b.Spec(g0, b.LiteralExpr("/*"), "IN_COMMENT")
	g1 := b.Tokens(grammar.RegexProduction{Kind: grammar.KindSkip, States: []string{"IN_COMMENT"}})
	b.Spec(g1, b.LiteralExpr("*/"), grammar.DefaultState)
	g2 := b.Tokens(grammar.RegexProduction{Kind: grammar.KindToken, States: []string{"ISLAND"}})
	b.Spec(g2, b.LiteralExpr("x"), "")
	lg := New(b.Build())

	def := lg.DefaultState()
	comment, _ := lg.State("IN_COMMENT")
	island, _ := lg.State("ISLAND")

	if succ := def.Successors(); len(succ) != 1 || succ[0] != comment {
		t.Errorf("DEFAULT successors = %v, want [IN_COMMENT]", succ)
	}
	if pred := def.Predecessors(); len(pred) != 1 || pred[0] != comment {
		t.Errorf("DEFAULT predecessors = %v, want [IN_COMMENT]", pred)
	}
	if len(island.Successors()) != 0 || len(island.Predecessors()) != 0 {
		t.Errorf("ISLAND has transitions")
	}
}
