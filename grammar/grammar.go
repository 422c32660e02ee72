// Package grammar is the object model of a JavaCC/JJTree grammar: productions,
// expansion trees, regular expressions and token groups.
//
// Every node lives in an arena owned by a Grammar and is identified by a small
// integer. Identities are stable for the lifetime of the Grammar, which is
// immutable once built, so analyses can key their caches on them.
package grammar

import "fmt"

// Pos is a location in the grammar source.
type Pos struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Pos) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position carries a line number.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

type (
	ProductionID      int32
	ExpansionID       int32
	ExprID            int32
	RegexID           int32
	SpecID            int32
	RegexProductionID int32
)

const (
	NoExpansion       ExpansionID       = -1
	NoRegex           RegexID           = -1
	NoExpr            ExprID            = -1
	NoSpec            SpecID            = -1
	NoRegexProduction RegexProductionID = -1
)

// DefaultState is the name of the initial lexical state.
const DefaultState = "DEFAULT"

type ProductionKind uint8

const (
	// BNF productions have an expansion body.
	BNF ProductionKind = iota
	// Opaque productions (JAVACODE) have a body of foreign code.
	Opaque
)

func (k ProductionKind) String() string {
	switch k {
	case BNF:
		return "bnf"
	case Opaque:
		return "javacode"
	default:
		return fmt.Sprintf("ProductionKind(%d)", k)
	}
}

type Production struct {
	ID   ProductionID
	Name string
	Kind ProductionKind
	Body ExpansionID
	Pos  Pos
}

type ExpansionKind uint8

const (
	ExpSequence ExpansionKind = iota
	ExpAlternative
	ExpOptional
	ExpParenthesized
	ExpNonTerminal
	ExpToken
	ExpLookahead
	ExpAction
	ExpTryCatch
	ExpScoped
	ExpAssigned
)

var expansionKindNames = [...]string{
	ExpSequence:      "sequence",
	ExpAlternative:   "alternative",
	ExpOptional:      "optional",
	ExpParenthesized: "group",
	ExpNonTerminal:   "nonterminal",
	ExpToken:         "token",
	ExpLookahead:     "lookahead",
	ExpAction:        "action",
	ExpTryCatch:      "try",
	ExpScoped:        "scoped",
	ExpAssigned:      "assign",
}

func (k ExpansionKind) String() string {
	if int(k) < len(expansionKindNames) {
		return expansionKindNames[k]
	}
	return fmt.Sprintf("ExpansionKind(%d)", k)
}

type OccurrenceKind uint8

const (
	Once OccurrenceKind = iota
	ZeroOrOne
	ZeroOrMore
	OneOrMore
	Range
)

// Occurrence is the repetition indicator of a parenthesized unit.
// Max is negative for an open range such as {2,}.
type Occurrence struct {
	Kind OccurrenceKind
	Min  int
	Max  int
}

// AllowsZero reports whether the unit may be repeated zero times.
func (o Occurrence) AllowsZero() bool {
	switch o.Kind {
	case ZeroOrOne, ZeroOrMore:
		return true
	case Range:
		return o.Min == 0
	default:
		return false
	}
}

// Unbounded reports whether the unit may be repeated without limit.
func (o Occurrence) Unbounded() bool {
	switch o.Kind {
	case ZeroOrMore, OneOrMore:
		return true
	case Range:
		return o.Max < 0
	default:
		return false
	}
}

func (o Occurrence) String() string {
	switch o.Kind {
	case ZeroOrOne:
		return "?"
	case ZeroOrMore:
		return "*"
	case OneOrMore:
		return "+"
	case Range:
		if o.Max < 0 {
			return fmt.Sprintf("{%d,}", o.Min)
		}
		if o.Min == o.Max {
			return fmt.Sprintf("{%d}", o.Min)
		}
		return fmt.Sprintf("{%d,%d}", o.Min, o.Max)
	default:
		return ""
	}
}

// Expansion is a node of a BNF production body.
//
// Sequences and alternatives use Children. Wrappers (optional, group,
// try/catch, scoped, assigned) have exactly one child. A non-terminal names
// its target in Name; a token unit points to its regular expression in Expr.
// Scoped units carry the node name in Name, assignments the left-hand side.
type Expansion struct {
	ID         ExpansionID
	Kind       ExpansionKind
	Children   []ExpansionID
	Occurrence Occurrence
	Name       string
	Expr       ExprID
	Text       string
	Pos        Pos
}

// Child returns the wrapped expansion of a wrapper node.
func (e *Expansion) Child() ExpansionID {
	if len(e.Children) == 0 {
		return NoExpansion
	}
	return e.Children[0]
}

type ExprForm uint8

const (
	// FormLiteral is a bare string literal: "abc".
	FormLiteral ExprForm = iota
	// FormReference names another token: <NAME>.
	FormReference
	// FormNamed declares a token: <NAME: ...> or <#NAME: ...>.
	FormNamed
	// FormInline is an anonymous regular expression: < ... >.
	FormInline
	// FormEOF is <EOF>.
	FormEOF
)

func (f ExprForm) String() string {
	switch f {
	case FormLiteral:
		return "literal"
	case FormReference:
		return "reference"
	case FormNamed:
		return "named"
	case FormInline:
		return "inline"
	case FormEOF:
		return "eof"
	default:
		return fmt.Sprintf("ExprForm(%d)", f)
	}
}

// Expr is a regular expression as written in a token spec or in a BNF
// token unit. Root is NoRegex for references and EOF.
type Expr struct {
	ID      ExprID
	Form    ExprForm
	Name    string
	Private bool
	Root    RegexID
	Pos     Pos
}

type RegexNodeKind uint8

const (
	RegexLiteral RegexNodeKind = iota
	RegexCharClass
	RegexSequence
	RegexAlternative
	RegexParenthesized
	RegexReference
)

func (k RegexNodeKind) String() string {
	switch k {
	case RegexLiteral:
		return "literal"
	case RegexCharClass:
		return "class"
	case RegexSequence:
		return "sequence"
	case RegexAlternative:
		return "alternative"
	case RegexParenthesized:
		return "group"
	case RegexReference:
		return "reference"
	default:
		return fmt.Sprintf("RegexNodeKind(%d)", k)
	}
}

// CharRange is an inclusive range of characters. A single character has
// Lo == Hi.
type CharRange struct {
	Lo, Hi rune
}

// Regex is a node of a regular expression tree.
type Regex struct {
	ID         RegexID
	Kind       RegexNodeKind
	Value      string
	Negated    bool
	Ranges     []CharRange
	Children   []RegexID
	Occurrence Occurrence
	Name       string
	Pos        Pos
}

// Child returns the body of a parenthesized unit.
func (r *Regex) Child() RegexID {
	if len(r.Children) == 0 {
		return NoRegex
	}
	return r.Children[0]
}

// IsEmptyClass reports whether r is the degenerate class [] which matches
// nothing.
func (r *Regex) IsEmptyClass() bool {
	return r.Kind == RegexCharClass && !r.Negated && len(r.Ranges) == 0
}

// IsAnyChar reports whether r is ~[], which matches any character.
func (r *Regex) IsAnyChar() bool {
	return r.Kind == RegexCharClass && r.Negated && len(r.Ranges) == 0
}

type TokenKind uint8

const (
	KindToken TokenKind = iota
	KindSpecialToken
	KindSkip
	KindMore
)

func (k TokenKind) String() string {
	switch k {
	case KindToken:
		return "TOKEN"
	case KindSpecialToken:
		return "SPECIAL_TOKEN"
	case KindSkip:
		return "SKIP"
	case KindMore:
		return "MORE"
	default:
		return fmt.Sprintf("TokenKind(%d)", k)
	}
}

// ParseTokenKind converts the JavaCC spelling of a token kind.
func ParseTokenKind(s string) (TokenKind, error) {
	switch s {
	case "TOKEN", "":
		return KindToken, nil
	case "SPECIAL_TOKEN":
		return KindSpecialToken, nil
	case "SKIP":
		return KindSkip, nil
	case "MORE":
		return KindMore, nil
	default:
		return KindToken, fmt.Errorf("unknown token kind %q", s)
	}
}

// RegexProduction is a token group such as
//
//	<IN_COMMENT> SKIP [IGNORE_CASE] : { ... }
//
// AllStates marks the <*> form. Without states and without AllStates the
// group applies to the default state.
type RegexProduction struct {
	ID         RegexProductionID
	Kind       TokenKind
	States     []string
	AllStates  bool
	IgnoreCase bool
	Specs      []SpecID
	Pos        Pos
}

// Spec is an explicit token declaration inside a token group.
type Spec struct {
	ID         SpecID
	Group      RegexProductionID
	Expr       ExprID
	Transition string
	Pos        Pos
}

type declKind uint8

const (
	declProduction declKind = iota
	declRegexProduction
)

type decl struct {
	kind declKind
	id   int32
}

// Grammar is an immutable, fully built grammar.
type Grammar struct {
	name string

	productions      []Production
	expansions       []Expansion
	exprs            []Expr
	regexes          []Regex
	specs            []Spec
	regexProductions []RegexProduction
	decls            []decl

	owners     []ProductionID
	prodByName map[string]ProductionID
	namedExprs map[string][]ExprID
	exprOwners map[ExprID]ExpansionID
	exprSpecs  map[ExprID]SpecID
	stateNames []string
}

func (g *Grammar) Name() string {
	return g.name
}

func (g *Grammar) Productions() []Production {
	return g.productions
}

func (g *Grammar) Production(id ProductionID) *Production {
	return &g.productions[id]
}

func (g *Grammar) Expansion(id ExpansionID) *Expansion {
	return &g.expansions[id]
}

func (g *Grammar) Expr(id ExprID) *Expr {
	return &g.exprs[id]
}

func (g *Grammar) Regex(id RegexID) *Regex {
	return &g.regexes[id]
}

func (g *Grammar) Spec(id SpecID) *Spec {
	return &g.specs[id]
}

func (g *Grammar) Specs() []Spec {
	return g.specs
}

func (g *Grammar) RegexProduction(id RegexProductionID) *RegexProduction {
	return &g.regexProductions[id]
}

func (g *Grammar) RegexProductions() []RegexProduction {
	return g.regexProductions
}

func (g *Grammar) NumExpansions() int { return len(g.expansions) }
func (g *Grammar) NumExprs() int      { return len(g.exprs) }
func (g *Grammar) NumRegexes() int    { return len(g.regexes) }

// StateNames returns the lexical states named by token groups, in order of
// first appearance, with DefaultState first.
func (g *Grammar) StateNames() []string {
	return g.stateNames
}

// LookupProduction returns the first production with the given name.
func (g *Grammar) LookupProduction(name string) (ProductionID, bool) {
	id, ok := g.prodByName[name]
	return id, ok
}

// ResolveProduction resolves the target of a non-terminal expansion.
func (g *Grammar) ResolveProduction(unit ExpansionID) (ProductionID, bool) {
	e := g.Expansion(unit)
	if e.Kind != ExpNonTerminal {
		return 0, false
	}
	return g.LookupProduction(e.Name)
}

// LookupNamedExpr returns the first named regular expression declaring name.
// Explicit token specs take precedence over named regexes written inline in a
// BNF production.
func (g *Grammar) LookupNamedExpr(name string) (ExprID, bool) {
	ids := g.namedExprs[name]
	if len(ids) == 0 {
		return NoExpr, false
	}
	return ids[0], true
}

// NamedExprs returns all regular expressions declaring name. Well-formed
// grammars have at most one.
func (g *Grammar) NamedExprs(name string) []ExprID {
	return g.namedExprs[name]
}

// Owner returns the production whose body contains the expansion.
func (g *Grammar) Owner(e ExpansionID) (ProductionID, bool) {
	p := g.owners[e]
	return p, p >= 0
}

// ExprUnit returns the BNF token unit that contains the regular expression,
// if it was written inside a production.
func (g *Grammar) ExprUnit(x ExprID) (ExpansionID, bool) {
	u, ok := g.exprOwners[x]
	return u, ok
}

// ExprSpec returns the explicit token spec that declares the regular
// expression, if any.
func (g *Grammar) ExprSpec(x ExprID) (SpecID, bool) {
	s, ok := g.exprSpecs[x]
	return s, ok
}

// Declarations calls fn for every production and token group in document
// order. Exactly one of the two pointers is non-nil.
func (g *Grammar) Declarations(fn func(p *Production, rp *RegexProduction)) {
	for _, d := range g.decls {
		switch d.kind {
		case declProduction:
			fn(&g.productions[d.id], nil)
		case declRegexProduction:
			fn(nil, &g.regexProductions[d.id])
		}
	}
}

// SingleLiteral returns the literal a regular expression reduces to, without
// following references. It reports false for anything but a single literal.
func (g *Grammar) SingleLiteral(x ExprID) (string, bool) {
	e := g.Expr(x)
	if e.Root == NoRegex {
		return "", false
	}
	r := g.Regex(e.Root)
	if r.Kind != RegexLiteral {
		return "", false
	}
	return r.Value, true
}

// ExprName returns a printable name for a regular expression: its declared
// name, the quoted literal, or a placeholder.
func (g *Grammar) ExprName(x ExprID) string {
	e := g.Expr(x)
	switch e.Form {
	case FormNamed, FormReference:
		return "<" + e.Name + ">"
	case FormEOF:
		return "<EOF>"
	}
	if lit, ok := g.SingleLiteral(x); ok {
		return fmt.Sprintf("%q", lit)
	}
	return "<...>"
}
