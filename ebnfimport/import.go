// Package ebnfimport reads grammars written in the EBNF dialect of
// golang.org/x/exp/ebnf into the grammar object model.
//
// Productions with a lower-case name are lexical: each becomes a named token
// of the DEFAULT state. A lexical production that no syntactic production
// refers to is a private helper, like <#NAME> in JavaCC. Productions with an
// upper-case name become BNF productions.
package ebnfimport

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"text/scanner"
	"unicode"
	"unicode/utf8"

	"github.com/dhamidi/jccflow/grammar"
	"golang.org/x/exp/ebnf"
)

// Options tune the import.
type Options struct {
	// Skip names lexical productions that are declared as SKIP instead of
	// TOKEN, such as white space and comments.
	Skip []string
	// IgnoreCase makes every token match case-insensitively.
	IgnoreCase bool
	// Start, when set, names the start production the source is verified
	// against with ebnf.Verify before it is imported.
	Start string
}

// LoadFile parses an EBNF file and imports it.
func LoadFile(filename string, opts Options) (*grammar.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	return Parse(filename, f, opts)
}

// Parse reads an EBNF grammar from r. A syntax error is returned as the error
// list produced by ebnf.Parse.
func Parse(filename string, r io.Reader, opts Options) (*grammar.Grammar, error) {
	g, err := ebnf.Parse(filename, r)
	if err != nil {
		return nil, err
	}
	return Import(filename, g, opts)
}

// IsLexical reports whether a production name denotes a lexical production.
func IsLexical(name string) bool {
	ch, _ := utf8.DecodeRuneInString(name)
	return !unicode.IsUpper(ch)
}

type importer struct {
	b *grammar.Builder
}

// Import converts a parsed EBNF grammar. Productions are declared in source
// order.
func Import(name string, src ebnf.Grammar, opts Options) (*grammar.Grammar, error) {
	if opts.Start != "" {
		if err := ebnf.Verify(src, opts.Start); err != nil {
			return nil, err
		}
	}

	prods := make([]*ebnf.Production, 0, len(src))
	for _, p := range src {
		prods = append(prods, p)
	}
	slices.SortFunc(prods, func(x, y *ebnf.Production) int {
		return cmp.Compare(x.Name.StringPos.Offset, y.Name.StringPos.Offset)
	})

	referenced := make(map[string]bool)
	for _, p := range prods {
		if !IsLexical(p.Name.String) {
			collectNames(p.Expr, referenced)
		}
	}

	im := &importer{b: grammar.NewBuilder(name)}

	tokens := grammar.NoRegexProduction
	skip := grammar.NoRegexProduction
	for _, p := range prods {
		im.b.At(position(p.Name.StringPos))
		if !IsLexical(p.Name.String) {
			body, err := im.expansion(p.Expr)
			if err != nil {
				return nil, fmt.Errorf("import %s: %w", p.Name.String, err)
			}
			im.b.At(position(p.Name.StringPos))
			im.b.BNF(p.Name.String, body)
			continue
		}

		group := &tokens
		kind := grammar.KindToken
		if slices.Contains(opts.Skip, p.Name.String) {
			group, kind = &skip, grammar.KindSkip
		}
		if *group == grammar.NoRegexProduction {
			*group = im.b.Tokens(grammar.RegexProduction{Kind: kind, IgnoreCase: opts.IgnoreCase})
		}
		root, err := im.regex(p.Expr)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", p.Name.String, err)
		}
		im.b.At(position(p.Name.StringPos))
		private := kind == grammar.KindToken && !referenced[p.Name.String]
		x := im.b.NamedExpr(p.Name.String, private, root)
		im.b.Spec(*group, x, "")
	}
	return im.b.Build(), nil
}

func position(p scanner.Position) grammar.Pos {
	return grammar.Pos{
		Filename: p.Filename,
		Offset:   p.Offset,
		Line:     p.Line,
		Column:   p.Column,
	}
}

func collectNames(expr ebnf.Expression, names map[string]bool) {
	switch e := expr.(type) {
	case *ebnf.Name:
		names[e.String] = true
	case ebnf.Sequence:
		for _, x := range e {
			collectNames(x, names)
		}
	case ebnf.Alternative:
		for _, x := range e {
			collectNames(x, names)
		}
	case *ebnf.Group:
		collectNames(e.Body, names)
	case *ebnf.Option:
		collectNames(e.Body, names)
	case *ebnf.Repetition:
		collectNames(e.Body, names)
	}
}

// expansion converts the right-hand side of a syntactic production.
func (im *importer) expansion(expr ebnf.Expression) (grammar.ExpansionID, error) {
	if expr == nil {
		return grammar.NoExpansion, nil
	}
	switch e := expr.(type) {
	case *ebnf.Token:
		im.b.At(position(e.StringPos))
		return im.b.Lit(e.String), nil

	case *ebnf.Range:
		root, err := im.charRange(e)
		if err != nil {
			return grammar.NoExpansion, err
		}
		im.b.At(position(e.Begin.StringPos))
		return im.b.Token(im.b.InlineExpr(root)), nil

	case *ebnf.Name:
		im.b.At(position(e.StringPos))
		if IsLexical(e.String) {
			return im.b.Token(im.b.RefExpr(e.String)), nil
		}
		return im.b.NonTerminal(e.String), nil

	case ebnf.Sequence:
		units, err := im.expansions(e)
		if err != nil {
			return grammar.NoExpansion, err
		}
		im.b.At(position(e.Pos()))
		return im.b.Seq(units...), nil

	case ebnf.Alternative:
		branches, err := im.expansions(e)
		if err != nil {
			return grammar.NoExpansion, err
		}
		im.b.At(position(e.Pos()))
		return im.b.Alt(branches...), nil

	case *ebnf.Group:
		body, err := im.expansion(e.Body)
		if err != nil {
			return grammar.NoExpansion, err
		}
		im.b.At(position(e.Lparen))
		return im.b.Group(body, grammar.OccursOnce), nil

	case *ebnf.Option:
		body, err := im.expansion(e.Body)
		if err != nil {
			return grammar.NoExpansion, err
		}
		im.b.At(position(e.Lbrack))
		return im.b.Optional(body), nil

	case *ebnf.Repetition:
		body, err := im.expansion(e.Body)
		if err != nil {
			return grammar.NoExpansion, err
		}
		im.b.At(position(e.Lbrace))
		return im.b.Group(body, grammar.OccursZeroOrMore), nil
	}
	return grammar.NoExpansion, fmt.Errorf("%s: unsupported expression %T", expr.Pos(), expr)
}

func (im *importer) expansions(exprs []ebnf.Expression) ([]grammar.ExpansionID, error) {
	out := make([]grammar.ExpansionID, 0, len(exprs))
	for _, x := range exprs {
		id, err := im.expansion(x)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// regex converts the right-hand side of a lexical production.
func (im *importer) regex(expr ebnf.Expression) (grammar.RegexID, error) {
	if expr == nil {
		return im.b.Literal(""), nil
	}
	switch e := expr.(type) {
	case *ebnf.Token:
		im.b.At(position(e.StringPos))
		return im.b.Literal(e.String), nil

	case *ebnf.Range:
		return im.charRange(e)

	case *ebnf.Name:
		if !IsLexical(e.String) {
			return grammar.NoRegex, fmt.Errorf("%s: reference to non-lexical production %s", e.StringPos, e.String)
		}
		im.b.At(position(e.StringPos))
		return im.b.RegexRef(e.String), nil

	case ebnf.Sequence:
		units, err := im.regexes(e)
		if err != nil {
			return grammar.NoRegex, err
		}
		im.b.At(position(e.Pos()))
		return im.b.RegexSeq(units...), nil

	case ebnf.Alternative:
		branches, err := im.regexes(e)
		if err != nil {
			return grammar.NoRegex, err
		}
		im.b.At(position(e.Pos()))
		return im.b.RegexAlt(branches...), nil

	case *ebnf.Group:
		body, err := im.regex(e.Body)
		if err != nil {
			return grammar.NoRegex, err
		}
		im.b.At(position(e.Lparen))
		return im.b.RegexGroup(body, grammar.OccursOnce), nil

	case *ebnf.Option:
		body, err := im.regex(e.Body)
		if err != nil {
			return grammar.NoRegex, err
		}
		im.b.At(position(e.Lbrack))
		return im.b.RegexGroup(body, grammar.OccursZeroOrOne), nil

	case *ebnf.Repetition:
		body, err := im.regex(e.Body)
		if err != nil {
			return grammar.NoRegex, err
		}
		im.b.At(position(e.Lbrace))
		return im.b.RegexGroup(body, grammar.OccursZeroOrMore), nil
	}
	return grammar.NoRegex, fmt.Errorf("%s: unsupported expression %T", expr.Pos(), expr)
}

func (im *importer) regexes(exprs []ebnf.Expression) ([]grammar.RegexID, error) {
	out := make([]grammar.RegexID, 0, len(exprs))
	for _, x := range exprs {
		id, err := im.regex(x)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// charRange converts "a" … "z" into a character class.
func (im *importer) charRange(r *ebnf.Range) (grammar.RegexID, error) {
	lo, err := singleRune(r.Begin)
	if err != nil {
		return grammar.NoRegex, err
	}
	hi, err := singleRune(r.End)
	if err != nil {
		return grammar.NoRegex, err
	}
	if lo > hi {
		return grammar.NoRegex, fmt.Errorf("%s: invalid range %q … %q", r.Begin.StringPos, r.Begin.String, r.End.String)
	}
	im.b.At(position(r.Begin.StringPos))
	return im.b.CharClass(false, grammar.CharRange{Lo: lo, Hi: hi}), nil
}

func singleRune(t *ebnf.Token) (rune, error) {
	ch, n := utf8.DecodeRuneInString(t.String)
	if ch == utf8.RuneError || n != len(t.String) {
		return 0, fmt.Errorf("%s: range bound %q is not a single character", t.StringPos, t.String)
	}
	return ch, nil
}
