package grammar

var (
	OccursOnce       = Occurrence{Kind: Once, Min: 1, Max: 1}
	OccursZeroOrOne  = Occurrence{Kind: ZeroOrOne, Min: 0, Max: 1}
	OccursZeroOrMore = Occurrence{Kind: ZeroOrMore, Min: 0, Max: -1}
	OccursOneOrMore  = Occurrence{Kind: OneOrMore, Min: 1, Max: -1}
)

// Repeat returns a bounded repetition {lo,hi}. A negative hi leaves the
// range open.
func Repeat(lo, hi int) Occurrence {
	return Occurrence{Kind: Range, Min: lo, Max: hi}
}

// Builder constructs a Grammar. Nodes must be created in document order:
// the arena index of a node is its declaration order. A Builder must not be
// used after Build.
type Builder struct {
	g   *Grammar
	pos Pos
}

func NewBuilder(name string) *Builder {
	return &Builder{
		g: &Grammar{
			name:       name,
			prodByName: make(map[string]ProductionID),
			namedExprs: make(map[string][]ExprID),
			exprOwners: make(map[ExprID]ExpansionID),
			exprSpecs:  make(map[ExprID]SpecID),
		},
		pos: Pos{Filename: name},
	}
}

// At sets the source position given to the nodes created next.
func (b *Builder) At(pos Pos) *Builder {
	b.pos = pos
	return b
}

func (b *Builder) addRegex(r Regex) RegexID {
	r.ID = RegexID(len(b.g.regexes))
	r.Pos = b.pos
	b.g.regexes = append(b.g.regexes, r)
	return r.ID
}

func (b *Builder) Literal(value string) RegexID {
	return b.addRegex(Regex{Kind: RegexLiteral, Value: value})
}

func (b *Builder) CharClass(negated bool, ranges ...CharRange) RegexID {
	return b.addRegex(Regex{Kind: RegexCharClass, Negated: negated, Ranges: ranges})
}

func (b *Builder) RegexSeq(units ...RegexID) RegexID {
	return b.addRegex(Regex{Kind: RegexSequence, Children: units})
}

func (b *Builder) RegexAlt(branches ...RegexID) RegexID {
	return b.addRegex(Regex{Kind: RegexAlternative, Children: branches})
}

func (b *Builder) RegexGroup(body RegexID, occ Occurrence) RegexID {
	return b.addRegex(Regex{Kind: RegexParenthesized, Children: []RegexID{body}, Occurrence: occ})
}

func (b *Builder) RegexRef(name string) RegexID {
	return b.addRegex(Regex{Kind: RegexReference, Name: name})
}

func (b *Builder) addExpr(x Expr) ExprID {
	x.ID = ExprID(len(b.g.exprs))
	x.Pos = b.pos
	b.g.exprs = append(b.g.exprs, x)
	return x.ID
}

// LiteralExpr is a bare string literal such as "abc".
func (b *Builder) LiteralExpr(value string) ExprID {
	root := b.Literal(value)
	return b.addExpr(Expr{Form: FormLiteral, Root: root})
}

// RefExpr is a reference to a named token such as <IDENT>.
func (b *Builder) RefExpr(name string) ExprID {
	return b.addExpr(Expr{Form: FormReference, Name: name, Root: NoRegex})
}

// NamedExpr declares a token: <NAME: root>, or <#NAME: root> if private.
func (b *Builder) NamedExpr(name string, private bool, root RegexID) ExprID {
	return b.addExpr(Expr{Form: FormNamed, Name: name, Private: private, Root: root})
}

// InlineExpr is an anonymous regular expression: < root >.
func (b *Builder) InlineExpr(root RegexID) ExprID {
	return b.addExpr(Expr{Form: FormInline, Root: root})
}

func (b *Builder) EOFExpr() ExprID {
	return b.addExpr(Expr{Form: FormEOF, Root: NoRegex})
}

func (b *Builder) addExpansion(e Expansion) ExpansionID {
	e.ID = ExpansionID(len(b.g.expansions))
	e.Pos = b.pos
	if e.Kind != ExpToken {
		e.Expr = NoExpr
	}
	b.g.expansions = append(b.g.expansions, e)
	return e.ID
}

func (b *Builder) Seq(units ...ExpansionID) ExpansionID {
	return b.addExpansion(Expansion{Kind: ExpSequence, Children: units})
}

func (b *Builder) Alt(branches ...ExpansionID) ExpansionID {
	return b.addExpansion(Expansion{Kind: ExpAlternative, Children: branches})
}

// Optional is the bracketed form [ body ].
func (b *Builder) Optional(body ExpansionID) ExpansionID {
	return b.addExpansion(Expansion{Kind: ExpOptional, Children: []ExpansionID{body}})
}

// Group is a parenthesized expansion ( body ) with an occurrence indicator.
func (b *Builder) Group(body ExpansionID, occ Occurrence) ExpansionID {
	return b.addExpansion(Expansion{Kind: ExpParenthesized, Children: []ExpansionID{body}, Occurrence: occ})
}

func (b *Builder) NonTerminal(name string) ExpansionID {
	return b.addExpansion(Expansion{Kind: ExpNonTerminal, Name: name})
}

func (b *Builder) Token(expr ExprID) ExpansionID {
	return b.addExpansion(Expansion{Kind: ExpToken, Expr: expr})
}

// Lit is shorthand for a token unit holding a string literal.
func (b *Builder) Lit(value string) ExpansionID {
	return b.Token(b.LiteralExpr(value))
}

func (b *Builder) Lookahead(text string) ExpansionID {
	return b.addExpansion(Expansion{Kind: ExpLookahead, Text: text})
}

func (b *Builder) Action(code string) ExpansionID {
	return b.addExpansion(Expansion{Kind: ExpAction, Text: code})
}

func (b *Builder) TryCatch(body ExpansionID) ExpansionID {
	return b.addExpansion(Expansion{Kind: ExpTryCatch, Children: []ExpansionID{body}})
}

// Scoped marks body as building the JJTree node named node.
func (b *Builder) Scoped(body ExpansionID, node string) ExpansionID {
	return b.addExpansion(Expansion{Kind: ExpScoped, Children: []ExpansionID{body}, Name: node})
}

// Assign is an assignment unit lhs = body.
func (b *Builder) Assign(body ExpansionID, lhs string) ExpansionID {
	return b.addExpansion(Expansion{Kind: ExpAssigned, Children: []ExpansionID{body}, Name: lhs})
}

func (b *Builder) addProduction(p Production) ProductionID {
	p.ID = ProductionID(len(b.g.productions))
	p.Pos = b.pos
	b.g.productions = append(b.g.productions, p)
	b.g.decls = append(b.g.decls, decl{kind: declProduction, id: int32(p.ID)})
	if _, dup := b.g.prodByName[p.Name]; !dup {
		b.g.prodByName[p.Name] = p.ID
	}
	return p.ID
}

// BNF adds a production with an analyzable body. body may be NoExpansion.
func (b *Builder) BNF(name string, body ExpansionID) ProductionID {
	return b.addProduction(Production{Name: name, Kind: BNF, Body: body})
}

// Opaque adds a JAVACODE production.
func (b *Builder) Opaque(name string) ProductionID {
	return b.addProduction(Production{Name: name, Kind: Opaque, Body: NoExpansion})
}

// Tokens opens a token group. Only Kind, States, AllStates and IgnoreCase
// of rp are used.
func (b *Builder) Tokens(rp RegexProduction) RegexProductionID {
	rp.ID = RegexProductionID(len(b.g.regexProductions))
	rp.Pos = b.pos
	rp.Specs = nil
	b.g.regexProductions = append(b.g.regexProductions, rp)
	b.g.decls = append(b.g.decls, decl{kind: declRegexProduction, id: int32(rp.ID)})
	return rp.ID
}

// Spec adds a token declaration to a group. transition names the lexical
// state entered after the token matches, or is empty.
func (b *Builder) Spec(group RegexProductionID, expr ExprID, transition string) SpecID {
	s := Spec{
		ID:         SpecID(len(b.g.specs)),
		Group:      group,
		Expr:       expr,
		Transition: transition,
		Pos:        b.pos,
	}
	b.g.specs = append(b.g.specs, s)
	rp := &b.g.regexProductions[group]
	rp.Specs = append(rp.Specs, s.ID)
	return s.ID
}

// Build indexes the grammar and returns it.
func (b *Builder) Build() *Grammar {
	g := b.g

	for _, s := range g.specs {
		g.exprSpecs[s.Expr] = s.ID
		if x := g.Expr(s.Expr); x.Form == FormNamed {
			g.namedExprs[x.Name] = append(g.namedExprs[x.Name], x.ID)
		}
	}

	g.owners = make([]ProductionID, len(g.expansions))
	for i := range g.owners {
		g.owners[i] = -1
	}
	for _, p := range g.productions {
		if p.Body == NoExpansion {
			continue
		}
		WalkExpansion(g, p.Body, func(e *Expansion) bool {
			g.owners[e.ID] = p.ID
			if e.Kind == ExpToken && e.Expr != NoExpr {
				g.exprOwners[e.Expr] = e.ID
				if x := g.Expr(e.Expr); x.Form == FormNamed {
					g.namedExprs[x.Name] = append(g.namedExprs[x.Name], x.ID)
				}
			}
			return true
		})
	}

	seen := map[string]bool{DefaultState: true}
	g.stateNames = []string{DefaultState}
	for _, rp := range g.regexProductions {
		for _, s := range rp.States {
			if !seen[s] {
				seen[s] = true
				g.stateNames = append(g.stateNames, s)
			}
		}
	}

	return g
}
