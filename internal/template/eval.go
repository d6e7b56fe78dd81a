package template

import (
	"fmt"
	"html"

	"github.com/aretw0/brief/pkg/domain"
)

func (s *evalState) walk(nodes []node) error {
	for _, n := range nodes {
		if err := s.exec(n); err != nil {
			return err
		}
	}
	return nil
}

func (s *evalState) exec(n node) error {
	switch n := n.(type) {
	case *textNode:
		s.out.WriteString(n.text)

	case *valueNode:
		v, err := s.eval(n.expr)
		if err != nil {
			return err
		}
		text := domain.Stringify(v)
		if !n.raw {
			text = html.EscapeString(text)
		}
		s.out.WriteString(text)

	case *blockNode:
		v, err := s.eval(n.cond)
		if err != nil {
			return err
		}
		if domain.Truthy(v) != n.negate {
			return s.walk(n.then)
		}
		return s.walk(n.els)

	case *partialNode:
		tmpl, ok := s.engine.registry.Partial(n.name)
		if !ok {
			return &domain.RenderError{
				Kind:    domain.RenderUnknownPartial,
				Name:    n.name,
				Pos:     n.pos,
				Message: "partial is not registered",
			}
		}
		if s.depth >= maxPartialDepth {
			return &domain.RenderError{
				Kind:    domain.RenderRecursion,
				Name:    n.name,
				Pos:     n.pos,
				Message: fmt.Sprintf("partials nested deeper than %d", maxPartialDepth),
			}
		}
		s.depth++
		defer func() { s.depth-- }()
		return s.walk(tmpl.root)

	default:
		return fmt.Errorf("unknown template node %T", n)
	}
	return nil
}

func (s *evalState) eval(e expr) (any, error) {
	switch e := e.(type) {
	case *literalExpr:
		return e.value, nil
	case *pathExpr:
		return s.lookup(e)
	case *callExpr:
		return s.call(e)
	}
	return nil, fmt.Errorf("unknown expression %T", e)
}

func (s *evalState) lookup(e *pathExpr) (any, error) {
	var cur any = map[string]any(s.ctx)
	for _, part := range e.parts {
		var (
			v  any
			ok bool
		)
		switch m := cur.(type) {
		case map[string]any:
			v, ok = m[part]
		case domain.Context:
			v, ok = m[part]
		}
		if !ok {
			if s.engine.strict {
				return nil, &domain.RenderError{
					Kind:    domain.RenderUnknownProperty,
					Name:    e.name,
					Pos:     e.pos,
					Message: "property is not defined in the context",
				}
			}
			return nil, nil
		}
		cur = v
	}
	return cur, nil
}

func (s *evalState) call(e *callExpr) (any, error) {
	p, ok := s.engine.registry.Predicate(e.name)
	if !ok {
		return nil, &domain.RenderError{
			Kind:    domain.RenderUnknownPredicate,
			Name:    e.name,
			Pos:     e.pos,
			Message: "predicate is not registered",
		}
	}
	if !p.accepts(len(e.args)) {
		return nil, &domain.RenderError{
			Kind:    domain.RenderArity,
			Name:    e.name,
			Pos:     e.pos,
			Message: fmt.Sprintf("expects %s arguments, got %d", p.arity(), len(e.args)),
		}
	}

	args := make([]any, len(e.args))
	for i, a := range e.args {
		v, err := s.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	v, err := p.Fn(args)
	if err != nil {
		return nil, &domain.RenderError{
			Kind:    domain.RenderPredicate,
			Name:    e.name,
			Pos:     e.pos,
			Message: err.Error(),
			Err:     err,
		}
	}
	return v, nil
}
