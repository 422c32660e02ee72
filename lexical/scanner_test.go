package lexical

import (
	"io"
	"testing"

	"github.com/dhamidi/jccflow/grammar"
)

func commentGrammar() *Grammar {
	b := grammar.NewBuilder("scan")
	skip := b.Tokens(grammar.RegexProduction{Kind: grammar.KindSkip})
	b.Spec(skip, b.InlineExpr(b.CharClass(false, grammar.CharRange{Lo: ' ', Hi: ' '}, grammar.CharRange{Lo: '\n', Hi: '\n'})), "")
	more := b.Tokens(grammar.RegexProduction{Kind: grammar.KindMore})
	b.Spec(more, b.LiteralExpr("/*"), "IN_COMMENT")
	end := b.Tokens(grammar.RegexProduction{Kind: grammar.KindSkip, States: []string{"IN_COMMENT"}})
	b.Spec(end, b.LiteralExpr("*/"), grammar.DefaultState)
	body := b.Tokens(grammar.RegexProduction{Kind: grammar.KindMore, States: []string{"IN_COMMENT"}})
	b.Spec(body, b.InlineExpr(b.CharClass(true)), "")
	toks := b.Tokens(grammar.RegexProduction{})
	b.Spec(toks, b.NamedExpr("ID", false, b.RegexGroup(b.CharClass(false, grammar.CharRange{Lo: 'a', Hi: 'z'}), grammar.OccursOneOrMore)), "")
	b.Spec(toks, b.NamedExpr("PLUS", false, b.Literal("+")), "")
	return New(b.Build())
}

func TestScannerTokenize(t *testing.T) {
	lg := commentGrammar()
	s := NewScanner(lg, "a /* note */+\nbc", "input.txt")

	lexemes, err := s.Tokenize()
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	want := []struct {
		name string
		text string
		line int
		col  int
	}{
		{"<ID>", "a", 1, 1},
		{"<PLUS>", "+", 1, 13},
		{"<ID>", "bc", 2, 1},
	}
	if len(lexemes) != len(want) {
		t.Fatalf("got %d lexemes %v, want %d", len(lexemes), lexemes, len(want))
	}
	for i, w := range want {
		lx := lexemes[i]
		if lx.Token == nil || lx.Token.String() != w.name {
			t.Errorf("lexeme %d token = %v, want %s", i, lx.Token, w.name)
		}
		if lx.Text != w.text {
			t.Errorf("lexeme %d text = %q, want %q", i, lx.Text, w.text)
		}
		if lx.Pos.Line != w.line || lx.Pos.Column != w.col {
			t.Errorf("lexeme %d at %d:%d, want %d:%d", i, lx.Pos.Line, lx.Pos.Column, w.line, w.col)
		}
	}
}

func TestScannerErrors(t *testing.T) {
	lg := commentGrammar()

	s := NewScanner(lg, "a?", "input.txt")
	if _, err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	lx, err := s.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if lx.Token != nil || lx.Text != "?" {
		t.Errorf("unmatched character lexeme = %v, want an error lexeme for ?", lx)
	}
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("Next at end = %v, want io.EOF", err)
	}

	unterminated := NewScanner(lg, "/* open", "input.txt")
	if _, err := unterminated.Tokenize(); err == nil {
		t.Errorf("Tokenize of an unterminated comment succeeded")
	}

	if err := NewScanner(lg, "", "").SetState("NOWHERE"); err == nil {
		t.Errorf("SetState(NOWHERE) succeeded")
	}
}
