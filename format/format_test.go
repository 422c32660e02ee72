package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dhamidi/jccflow/cfa"
	"github.com/dhamidi/jccflow/check"
	"github.com/dhamidi/jccflow/grammar"
)

func exprGrammar() *grammar.Grammar {
	b := grammar.NewBuilder("expr.jj")
	g0 := b.Tokens(grammar.RegexProduction{Kind: grammar.KindToken})
	b.Spec(g0, b.NamedExpr("NUM", false, b.RegexGroup(b.CharClass(false, grammar.CharRange{Lo: '0', Hi: '9'}), grammar.OccursOneOrMore)), "")
	b.At(grammar.Pos{Filename: "expr.jj", Line: 3, Column: 1})
	b.BNF("Expr", b.Seq(b.NonTerminal("Term"), b.Group(b.Seq(b.Lit("+"), b.NonTerminal("Term")), grammar.OccursZeroOrMore)))
	b.At(grammar.Pos{Filename: "expr.jj", Line: 7, Column: 1})
	b.BNF("Term", b.Alt(b.Token(b.RefExpr("NUM")), b.Seq(b.Lit("("), b.NonTerminal("Expr"), b.Lit(")"))))
	b.BNF("Opt", b.Optional(b.Lit("x")))
	return b.Build()
}

func TestNewReport(t *testing.T) {
	a := cfa.New(exprGrammar(), nil)
	r, err := NewReport(a, ReportOptions{Productions: []string{"Term", "Opt"}, Tokens: true})
	if err != nil {
		t.Fatal(err)
	}

	if len(r.Productions) != 2 {
		t.Fatalf("productions = %d, want 2", len(r.Productions))
	}
	term := r.Productions[0]
	if term.Name != "Term" || term.Nullability != cfa.NotNullable || term.Bounded {
		t.Errorf("Term report = %+v", term)
	}
	if got := strings.Join(term.StartSet, ", "); got != `<NUM>, "("` {
		t.Errorf("Term start set = %s", got)
	}
	opt := r.Productions[1]
	if opt.Nullability != cfa.Nullable || !opt.Bounded || opt.MaxTokens != 1 {
		t.Errorf("Opt report = %+v", opt)
	}

	var names []string
	for _, tok := range r.Tokens {
		names = append(names, tok.Name)
	}
	if got := strings.Join(names, " "); got != `<NUM> "+" "(" ")" "x"` {
		t.Errorf("tokens = %s", got)
	}
	if r.Tokens[0].Pattern == "" || !r.Tokens[0].Explicit {
		t.Errorf("NUM token = %+v", r.Tokens[0])
	}
}

func TestNewReportUnknownProduction(t *testing.T) {
	a := cfa.New(exprGrammar(), nil)
	if _, err := NewReport(a, ReportOptions{Productions: []string{"Nope"}}); err == nil {
		t.Fatal("NewReport succeeded for an unknown production")
	}
}

func TestLineEncoder(t *testing.T) {
	a := cfa.New(exprGrammar(), nil)
	r, err := NewReport(a, ReportOptions{})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := NewLineEncoder(&buf).Encode(r); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"production\tExpr\tnot-nullable\tunbounded\t<NUM>,\"(\"",
		"production\tTerm\tnot-nullable\tunbounded\t<NUM>,\"(\"",
		"production\tOpt\tnullable\t1\t\"x\"",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("line output:\n%s\nwant:\n%s", got, want)
	}
}

func TestLineEncoderCycles(t *testing.T) {
	b := grammar.NewBuilder("leftrec")
	b.BNF("A", b.Alt(b.Seq(b.NonTerminal("A"), b.Lit("x")), b.Lit("y")))
	b.BNF("E", b.Action("{}"))
	a := cfa.New(b.Build(), nil)
	r, err := NewReport(a, ReportOptions{})
	if err != nil {
		t.Fatal(err)
	}

	text, err := (&LineEncoder{report: r}).MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(text), "\n"), "\n")
	want := []string{
		"production\tA\tnot-nullable\tunbounded\t\"y\",A()",
		"production\tE\tnullable\t0\t-",
		"cycle\tA -> A",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestJSONEncoder(t *testing.T) {
	a := cfa.New(exprGrammar(), nil)
	r, err := NewReport(a, ReportOptions{Productions: []string{"Expr", "Opt"}})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := NewJSONEncoder(&buf).Encode(r); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Grammar     string `json:"grammar"`
		Productions []struct {
			Name        string   `json:"name"`
			Kind        string   `json:"kind"`
			Nullability string   `json:"nullability"`
			MaxTokens   *int     `json:"maxTokens"`
			StartSet    []string `json:"startSet"`
			Pos         struct {
				File string `json:"file"`
				Line int    `json:"line"`
			} `json:"pos"`
		} `json:"productions"`
		Tokens []json.RawMessage `json:"tokens"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if decoded.Grammar != "expr.jj" || len(decoded.Productions) != 2 {
		t.Fatalf("decoded = %+v", decoded)
	}
	expr := decoded.Productions[0]
	if expr.Kind != "bnf" || expr.Nullability != "not nullable" || expr.MaxTokens != nil {
		t.Errorf("Expr = %+v", expr)
	}
	if expr.Pos.File != "expr.jj" || expr.Pos.Line != 3 {
		t.Errorf("Expr position = %+v", expr.Pos)
	}
	opt := decoded.Productions[1]
	if opt.MaxTokens == nil || *opt.MaxTokens != 1 {
		t.Errorf("Opt max tokens = %v", opt.MaxTokens)
	}
	if decoded.Tokens != nil {
		t.Errorf("tokens present without being requested")
	}
}

func TestDiagnosticEncoders(t *testing.T) {
	diags := []check.Diagnostic{
		{
			Pos:      grammar.Pos{Filename: "g.jj", Line: 4, Column: 2},
			Severity: check.Error,
			Code:     check.LeftRecursion,
			Message:  "Left-recursion detected: A -> A",
		},
	}

	var text bytes.Buffer
	if err := NewTextEncoder(&text).Encode(diags); err != nil {
		t.Fatal(err)
	}
	if got, want := text.String(), "g.jj:4:2: error: Left-recursion detected: A -> A [left-recursion]\n"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}

	var js bytes.Buffer
	if err := NewDiagnosticJSONEncoder(&js).Encode(diags); err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 1 || decoded[0]["severity"] != "error" || decoded[0]["code"] != "left-recursion" {
		t.Errorf("json = %s", js.String())
	}

	js.Reset()
	if err := NewDiagnosticJSONEncoder(&js).Encode(nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(js.String()); got != "[]" {
		t.Errorf("json of no diagnostics = %s, want []", got)
	}
}
