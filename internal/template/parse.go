package template

import (
	"fmt"
	"strings"

	"github.com/aretw0/brief/pkg/domain"
)

// node is an element of a compiled template.
type node interface{}

type textNode struct {
	text string
}

// valueNode interpolates an expression; raw output skips HTML escaping.
type valueNode struct {
	expr expr
	raw  bool
	pos  domain.Position
}

// blockNode is an if/unless conditional. Its branches are evaluated lazily.
type blockNode struct {
	name   string
	negate bool
	cond   expr
	then   []node
	els    []node
	pos    domain.Position
}

type partialNode struct {
	name string
	pos  domain.Position
}

type parser struct {
	items []item
	i     int
}

func parse(src string) ([]node, error) {
	items, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{items: items}
	nodes, term, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if term != nil {
		return nil, strayTerminator(term)
	}
	return nodes, nil
}

// parseList consumes items until an else/close tag (returned) or the end of input (nil).
func (p *parser) parseList() ([]node, *item, error) {
	var nodes []node
	for p.i < len(p.items) {
		it := p.items[p.i]
		p.i++

		switch it.kind {
		case itemText:
			nodes = append(nodes, &textNode{text: it.text})
		case itemComment:
		case itemValue, itemRaw:
			n, err := parseValue(it)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, n)
		case itemPartial:
			fields := strings.Fields(it.text)
			if len(fields) != 1 {
				return nil, nil, &domain.CompileError{
					Construct: "{{> " + it.text + "}}",
					Pos:       it.pos,
					Message:   "partial takes exactly one name and no arguments",
				}
			}
			nodes = append(nodes, &partialNode{name: fields[0], pos: it.pos})
		case itemOpen:
			name, rest := splitHead(it.text)
			blk, closing, err := p.parseBlock(name, rest, it.pos)
			if err != nil {
				return nil, nil, err
			}
			expected := name
			if name == "^" {
				expected = rest
			}
			closeName := strings.TrimSpace(closing.text)
			if closeName != expected {
				return nil, nil, &domain.CompileError{
					Construct: "{{/" + closeName + "}}",
					Pos:       closing.pos,
					Message:   fmt.Sprintf("mismatched closing tag, expected {{/%s}} for the block opened at %s", expected, it.pos),
				}
			}
			nodes = append(nodes, blk)
		case itemElse, itemClose:
			return nodes, &it, nil
		}
	}
	return nodes, nil, nil
}

// parseBlock parses a conditional body, its else branch and any else-if chain.
// It returns the closing tag so the caller can match it against the opening name.
func (p *parser) parseBlock(name, rest string, pos domain.Position) (*blockNode, *item, error) {
	construct, closer := "{{#"+name+"}}", name
	if name == "^" {
		construct, closer = "{{^"+rest+"}}", rest
	}
	blk := &blockNode{name: name, pos: pos}
	switch name {
	case "if":
	case "unless", "^":
		blk.negate = true
	default:
		return nil, nil, &domain.CompileError{
			Construct: construct,
			Pos:       pos,
			Message:   fmt.Sprintf("unsupported block helper '%s' (only if and unless)", name),
		}
	}

	cond, err := parseCondition(construct, rest, pos)
	if err != nil {
		return nil, nil, err
	}
	blk.cond = cond

	then, term, err := p.parseList()
	if err != nil {
		return nil, nil, err
	}
	if term == nil {
		return nil, nil, unterminated(construct, closer, pos)
	}
	blk.then = then

	if term.kind == itemElse {
		if term.text == "" {
			els, next, err := p.parseList()
			if err != nil {
				return nil, nil, err
			}
			if next == nil {
				return nil, nil, unterminated(construct, closer, pos)
			}
			if next.kind == itemElse {
				return nil, nil, &domain.CompileError{
					Construct: "{{else}}",
					Pos:       next.pos,
					Message:   fmt.Sprintf("duplicate {{else}} in the block opened at %s", pos),
				}
			}
			blk.els = els
			term = next
		} else {
			chainName, chainRest := splitHead(term.text)
			chained, next, err := p.parseBlock(chainName, chainRest, term.pos)
			if err != nil {
				return nil, nil, err
			}
			blk.els = []node{chained}
			term = next
		}
	}
	return blk, term, nil
}

func parseCondition(construct, rest string, pos domain.Position) (expr, error) {
	params, err := parseParams(rest, pos)
	if err != nil {
		return nil, &domain.CompileError{Construct: construct, Pos: pos, Message: err.Error()}
	}
	if len(params) != 1 {
		return nil, &domain.CompileError{
			Construct: construct,
			Pos:       pos,
			Message:   fmt.Sprintf("expects exactly one condition, got %d (wrap predicate calls in parentheses)", len(params)),
		}
	}
	return params[0], nil
}

func parseValue(it item) (node, error) {
	construct := "{{" + it.text + "}}"
	params, err := parseParams(it.text, it.pos)
	if err != nil {
		return nil, &domain.CompileError{Construct: construct, Pos: it.pos, Message: err.Error()}
	}
	if len(params) == 0 {
		return nil, &domain.CompileError{Construct: construct, Pos: it.pos, Message: "empty expression"}
	}

	e := params[0]
	if len(params) > 1 {
		head, ok := e.(*pathExpr)
		if !ok {
			return nil, &domain.CompileError{Construct: construct, Pos: it.pos, Message: "expected a predicate name before arguments"}
		}
		e = &callExpr{name: head.name, args: params[1:], pos: it.pos}
	}
	return &valueNode{expr: e, raw: it.kind == itemRaw, pos: it.pos}, nil
}

func splitHead(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}

func unterminated(construct, name string, pos domain.Position) error {
	return &domain.CompileError{
		Construct: construct,
		Pos:       pos,
		Message:   fmt.Sprintf("unterminated block, missing {{/%s}}", name),
	}
}

func strayTerminator(it *item) error {
	if it.kind == itemElse {
		return &domain.CompileError{Construct: "{{else}}", Pos: it.pos, Message: "{{else}} outside of a block"}
	}
	return &domain.CompileError{
		Construct: "{{/" + it.text + "}}",
		Pos:       it.pos,
		Message:   "closing tag without a matching opening block",
	}
}
