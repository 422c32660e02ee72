package grammar

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// The JSON form of a grammar mirrors the object model one to one:
//
//	{"name": "calc", "declarations": [
//	  {"tokens": {"kind": "TOKEN", "specs": [{"regex": {"name": "NUM", "regex": {"group": {"class": [["0", "9"]]}, "occurs": "+"}}}]}},
//	  {"production": {"name": "Expr", "body": {"seq": [{"token": {"ref": "NUM"}}, {"optional": {"ref": "Tail"}}]}}}
//	]}
//
// Every node accepts optional "line" and "column" members.

type jsonPos struct {
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

type jsonGrammar struct {
	Name         string            `json:"name"`
	Declarations []jsonDeclaration `json:"declarations"`
}

type jsonDeclaration struct {
	Production *jsonProduction `json:"production,omitempty"`
	Tokens     *jsonTokens     `json:"tokens,omitempty"`
}

type jsonProduction struct {
	jsonPos
	Name     string         `json:"name"`
	Javacode bool           `json:"javacode,omitempty"`
	Body     *jsonExpansion `json:"body,omitempty"`
}

type jsonTokens struct {
	jsonPos
	Kind       string     `json:"kind,omitempty"`
	States     []string   `json:"states,omitempty"`
	AllStates  bool       `json:"allStates,omitempty"`
	IgnoreCase bool       `json:"ignoreCase,omitempty"`
	Specs      []jsonSpec `json:"specs"`
}

type jsonSpec struct {
	jsonPos
	Regex *jsonExpr `json:"regex"`
	Next  string    `json:"next,omitempty"`
}

type jsonExpansion struct {
	jsonPos
	Seq       []*jsonExpansion `json:"seq,omitempty"`
	Alt       []*jsonExpansion `json:"alt,omitempty"`
	Optional  *jsonExpansion   `json:"optional,omitempty"`
	Group     *jsonExpansion   `json:"group,omitempty"`
	Occurs    string           `json:"occurs,omitempty"`
	Ref       *string          `json:"ref,omitempty"`
	Token     *jsonExpr        `json:"token,omitempty"`
	Lookahead *string          `json:"lookahead,omitempty"`
	Action    *string          `json:"action,omitempty"`
	Try       *jsonExpansion   `json:"try,omitempty"`
	Scoped    *jsonExpansion   `json:"scoped,omitempty"`
	Node      string           `json:"node,omitempty"`
	Assign    *jsonExpansion   `json:"assign,omitempty"`
	To        string           `json:"to,omitempty"`
}

type jsonExpr struct {
	jsonPos
	Literal *string    `json:"literal,omitempty"`
	Ref     *string    `json:"ref,omitempty"`
	Name    string     `json:"name,omitempty"`
	Private bool       `json:"private,omitempty"`
	Regex   *jsonRegex `json:"regex,omitempty"`
	Inline  *jsonRegex `json:"inline,omitempty"`
	EOF     bool       `json:"eof,omitempty"`
}

type jsonRegex struct {
	jsonPos
	Literal *string      `json:"literal,omitempty"`
	Class   [][]string   `json:"class,omitempty"`
	Negated bool         `json:"negated,omitempty"`
	Seq     []*jsonRegex `json:"seq,omitempty"`
	Alt     []*jsonRegex `json:"alt,omitempty"`
	Group   *jsonRegex   `json:"group,omitempty"`
	Occurs  string       `json:"occurs,omitempty"`
	Ref     *string      `json:"ref,omitempty"`
}

// LoadFile reads a grammar in JSON form from a file.
func LoadFile(filename string) (*Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	return DecodeJSON(filename, f)
}

// DecodeJSON reads a grammar in JSON form. filename is used in positions.
func DecodeJSON(filename string, r io.Reader) (*Grammar, error) {
	var doc jsonGrammar
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode grammar: %w", err)
	}

	name := doc.Name
	if name == "" {
		name = filename
	}
	d := &jsonDecoder{b: NewBuilder(name), filename: filename}
	for i, decl := range doc.Declarations {
		if err := d.declaration(decl); err != nil {
			return nil, fmt.Errorf("decode grammar: declaration %d: %w", i, err)
		}
	}
	return d.b.Build(), nil
}

type jsonDecoder struct {
	b        *Builder
	filename string
}

func (d *jsonDecoder) at(p jsonPos) {
	d.b.At(Pos{Filename: d.filename, Line: p.Line, Column: p.Column})
}

func (d *jsonDecoder) declaration(decl jsonDeclaration) error {
	switch {
	case decl.Production != nil && decl.Tokens != nil:
		return fmt.Errorf("declaration is both a production and a token group")
	case decl.Production != nil:
		return d.production(decl.Production)
	case decl.Tokens != nil:
		return d.tokens(decl.Tokens)
	default:
		return fmt.Errorf("empty declaration")
	}
}

func (d *jsonDecoder) production(p *jsonProduction) error {
	if p.Name == "" {
		return fmt.Errorf("production without a name")
	}
	if p.Javacode {
		d.at(p.jsonPos)
		d.b.Opaque(p.Name)
		return nil
	}
	body := NoExpansion
	if p.Body != nil {
		var err error
		body, err = d.expansion(p.Body)
		if err != nil {
			return fmt.Errorf("production %s: %w", p.Name, err)
		}
	}
	d.at(p.jsonPos)
	d.b.BNF(p.Name, body)
	return nil
}

func (d *jsonDecoder) tokens(t *jsonTokens) error {
	kind, err := ParseTokenKind(t.Kind)
	if err != nil {
		return err
	}
	d.at(t.jsonPos)
	group := d.b.Tokens(RegexProduction{
		Kind:       kind,
		States:     t.States,
		AllStates:  t.AllStates,
		IgnoreCase: t.IgnoreCase,
	})
	for i, s := range t.Specs {
		if s.Regex == nil {
			return fmt.Errorf("spec %d: missing regex", i)
		}
		x, err := d.expr(s.Regex)
		if err != nil {
			return fmt.Errorf("spec %d: %w", i, err)
		}
		d.at(s.jsonPos)
		d.b.Spec(group, x, s.Next)
	}
	return nil
}

func (d *jsonDecoder) expansion(e *jsonExpansion) (ExpansionID, error) {
	n := 0
	for _, set := range []bool{
		e.Seq != nil, e.Alt != nil, e.Optional != nil, e.Group != nil,
		e.Ref != nil, e.Token != nil, e.Lookahead != nil, e.Action != nil,
		e.Try != nil, e.Scoped != nil, e.Assign != nil,
	} {
		if set {
			n++
		}
	}
	if n != 1 {
		return NoExpansion, fmt.Errorf("line %d: expansion must have exactly one kind, has %d", e.Line, n)
	}

	switch {
	case e.Seq != nil, e.Alt != nil:
		list := e.Seq
		if e.Alt != nil {
			list = e.Alt
		}
		ids := make([]ExpansionID, 0, len(list))
		for _, c := range list {
			id, err := d.expansion(c)
			if err != nil {
				return NoExpansion, err
			}
			ids = append(ids, id)
		}
		d.at(e.jsonPos)
		if e.Alt != nil {
			return d.b.Alt(ids...), nil
		}
		return d.b.Seq(ids...), nil

	case e.Ref != nil:
		d.at(e.jsonPos)
		return d.b.NonTerminal(*e.Ref), nil

	case e.Token != nil:
		x, err := d.expr(e.Token)
		if err != nil {
			return NoExpansion, err
		}
		d.at(e.jsonPos)
		return d.b.Token(x), nil

	case e.Lookahead != nil:
		d.at(e.jsonPos)
		return d.b.Lookahead(*e.Lookahead), nil

	case e.Action != nil:
		d.at(e.jsonPos)
		return d.b.Action(*e.Action), nil
	}

	var inner *jsonExpansion
	switch {
	case e.Optional != nil:
		inner = e.Optional
	case e.Group != nil:
		inner = e.Group
	case e.Try != nil:
		inner = e.Try
	case e.Scoped != nil:
		inner = e.Scoped
	default:
		inner = e.Assign
	}
	body, err := d.expansion(inner)
	if err != nil {
		return NoExpansion, err
	}
	d.at(e.jsonPos)
	switch {
	case e.Optional != nil:
		return d.b.Optional(body), nil
	case e.Group != nil:
		occ, err := ParseOccurrence(e.Occurs)
		if err != nil {
			return NoExpansion, fmt.Errorf("line %d: %w", e.Line, err)
		}
		return d.b.Group(body, occ), nil
	case e.Try != nil:
		return d.b.TryCatch(body), nil
	case e.Scoped != nil:
		return d.b.Scoped(body, e.Node), nil
	default:
		return d.b.Assign(body, e.To), nil
	}
}

func (d *jsonDecoder) expr(x *jsonExpr) (ExprID, error) {
	switch {
	case x.Literal != nil:
		d.at(x.jsonPos)
		return d.b.LiteralExpr(*x.Literal), nil
	case x.Ref != nil:
		d.at(x.jsonPos)
		return d.b.RefExpr(*x.Ref), nil
	case x.EOF:
		d.at(x.jsonPos)
		return d.b.EOFExpr(), nil
	case x.Name != "":
		if x.Regex == nil {
			return NoExpr, fmt.Errorf("line %d: token %s has no regex", x.Line, x.Name)
		}
		root, err := d.regex(x.Regex)
		if err != nil {
			return NoExpr, err
		}
		d.at(x.jsonPos)
		return d.b.NamedExpr(x.Name, x.Private, root), nil
	case x.Inline != nil:
		root, err := d.regex(x.Inline)
		if err != nil {
			return NoExpr, err
		}
		d.at(x.jsonPos)
		return d.b.InlineExpr(root), nil
	default:
		return NoExpr, fmt.Errorf("line %d: empty regular expression", x.Line)
	}
}

func (d *jsonDecoder) regex(r *jsonRegex) (RegexID, error) {
	switch {
	case r.Literal != nil:
		d.at(r.jsonPos)
		return d.b.Literal(*r.Literal), nil
	case r.Class != nil:
		ranges := make([]CharRange, 0, len(r.Class))
		for _, desc := range r.Class {
			cr, err := parseCharRange(desc)
			if err != nil {
				return NoRegex, fmt.Errorf("line %d: %w", r.Line, err)
			}
			ranges = append(ranges, cr)
		}
		d.at(r.jsonPos)
		return d.b.CharClass(r.Negated, ranges...), nil
	case r.Seq != nil, r.Alt != nil:
		list := r.Seq
		if r.Alt != nil {
			list = r.Alt
		}
		ids := make([]RegexID, 0, len(list))
		for _, c := range list {
			id, err := d.regex(c)
			if err != nil {
				return NoRegex, err
			}
			ids = append(ids, id)
		}
		d.at(r.jsonPos)
		if r.Alt != nil {
			return d.b.RegexAlt(ids...), nil
		}
		return d.b.RegexSeq(ids...), nil
	case r.Group != nil:
		body, err := d.regex(r.Group)
		if err != nil {
			return NoRegex, err
		}
		occ, err := ParseOccurrence(r.Occurs)
		if err != nil {
			return NoRegex, fmt.Errorf("line %d: %w", r.Line, err)
		}
		d.at(r.jsonPos)
		return d.b.RegexGroup(body, occ), nil
	case r.Ref != nil:
		d.at(r.jsonPos)
		return d.b.RegexRef(*r.Ref), nil
	default:
		return NoRegex, fmt.Errorf("line %d: empty regex", r.Line)
	}
}

func parseCharRange(desc []string) (CharRange, error) {
	if len(desc) == 0 || len(desc) > 2 {
		return CharRange{}, fmt.Errorf("character descriptor needs one or two characters, got %d", len(desc))
	}
	lo, err := singleRune(desc[0])
	if err != nil {
		return CharRange{}, err
	}
	hi := lo
	if len(desc) == 2 {
		if hi, err = singleRune(desc[1]); err != nil {
			return CharRange{}, err
		}
	}
	if hi < lo {
		return CharRange{}, fmt.Errorf("invalid character range %q-%q", lo, hi)
	}
	return CharRange{Lo: lo, Hi: hi}, nil
}

func singleRune(s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("character descriptor %q is not a single character", s)
	}
	return r, nil
}

// ParseOccurrence reads an occurrence indicator: "", "?", "*", "+", "{n}",
// "{n,}" or "{n,m}".
func ParseOccurrence(s string) (Occurrence, error) {
	switch s {
	case "":
		return OccursOnce, nil
	case "?":
		return OccursZeroOrOne, nil
	case "*":
		return OccursZeroOrMore, nil
	case "+":
		return OccursOneOrMore, nil
	}
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return Occurrence{}, fmt.Errorf("invalid occurrence indicator %q", s)
	}
	body := s[1 : len(s)-1]
	loText, hiText, isRange := strings.Cut(body, ",")
	lo, err := strconv.Atoi(strings.TrimSpace(loText))
	if err != nil || lo < 0 {
		return Occurrence{}, fmt.Errorf("invalid occurrence indicator %q", s)
	}
	if !isRange {
		return Repeat(lo, lo), nil
	}
	hiText = strings.TrimSpace(hiText)
	if hiText == "" {
		return Repeat(lo, -1), nil
	}
	hi, err := strconv.Atoi(hiText)
	if err != nil || hi < lo {
		return Occurrence{}, fmt.Errorf("invalid occurrence indicator %q", s)
	}
	return Repeat(lo, hi), nil
}
