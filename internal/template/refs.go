package template

import "github.com/aretw0/brief/pkg/domain"

// ReferenceKind classifies what a Reference names.
type ReferenceKind string

const (
	RefProperty  ReferenceKind = "property"
	RefPartial   ReferenceKind = "partial"
	RefPredicate ReferenceKind = "predicate"
	// RefComparison is a property compared against a string literal by a predicate,
	// such as error_id in (eq error_id "guided"). Value holds the literal.
	RefComparison ReferenceKind = "comparison"
)

// Reference is a name used by a template, in source order.
type Reference struct {
	Kind  ReferenceKind
	Name  string
	Value string
	Pos   domain.Position
}

// References lists the properties, partials and predicates the template names.
// Partial bodies are not followed.
func (t *Template) References() []Reference {
	var refs []Reference
	collectNodes(t.root, &refs)
	return refs
}

func collectNodes(nodes []node, refs *[]Reference) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *valueNode:
			collectExpr(n.expr, refs)
		case *blockNode:
			collectExpr(n.cond, refs)
			collectNodes(n.then, refs)
			collectNodes(n.els, refs)
		case *partialNode:
			*refs = append(*refs, Reference{Kind: RefPartial, Name: n.name, Pos: n.pos})
		}
	}
}

func collectExpr(e expr, refs *[]Reference) {
	switch e := e.(type) {
	case *pathExpr:
		*refs = append(*refs, Reference{Kind: RefProperty, Name: e.parts[0], Pos: e.pos})
	case *callExpr:
		*refs = append(*refs, Reference{Kind: RefPredicate, Name: e.name, Pos: e.pos})
		var paths []*pathExpr
		var literals []string
		for _, arg := range e.args {
			collectExpr(arg, refs)
			switch a := arg.(type) {
			case *pathExpr:
				paths = append(paths, a)
			case *literalExpr:
				if s, ok := a.value.(string); ok {
					literals = append(literals, s)
				}
			}
		}
		for _, p := range paths {
			for _, lit := range literals {
				*refs = append(*refs, Reference{Kind: RefComparison, Name: p.parts[0], Value: lit, Pos: p.pos})
			}
		}
	}
}
