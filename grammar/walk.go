package grammar

// WalkExpansion visits the expansion tree rooted at root in pre-order. If fn
// returns false the children of that node are skipped.
func WalkExpansion(g *Grammar, root ExpansionID, fn func(e *Expansion) bool) {
	if root == NoExpansion {
		return
	}
	e := g.Expansion(root)
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		WalkExpansion(g, c, fn)
	}
}

// WalkRegex visits the regex tree rooted at root in pre-order. If fn returns
// false the children of that node are skipped.
func WalkRegex(g *Grammar, root RegexID, fn func(r *Regex) bool) {
	if root == NoRegex {
		return
	}
	r := g.Regex(root)
	if !fn(r) {
		return
	}
	for _, c := range r.Children {
		WalkRegex(g, c, fn)
	}
}

// TokenUnits returns the token units of a production body in document order.
func TokenUnits(g *Grammar, p ProductionID) []ExpansionID {
	var units []ExpansionID
	WalkExpansion(g, g.Production(p).Body, func(e *Expansion) bool {
		if e.Kind == ExpToken {
			units = append(units, e.ID)
		}
		return true
	})
	return units
}

// NonTerminals returns the non-terminal references of a production body in
// document order.
func NonTerminals(g *Grammar, p ProductionID) []ExpansionID {
	var units []ExpansionID
	WalkExpansion(g, g.Production(p).Body, func(e *Expansion) bool {
		if e.Kind == ExpNonTerminal {
			units = append(units, e.ID)
		}
		return true
	})
	return units
}
