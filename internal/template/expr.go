package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/brief/pkg/domain"
)

// expr is an expression inside a tag: a property path, a literal or a predicate call.
type expr interface {
	String() string
}

type pathExpr struct {
	name  string
	parts []string
	pos   domain.Position
}

func (e *pathExpr) String() string { return e.name }

type literalExpr struct {
	raw   string
	value any
}

func (e *literalExpr) String() string { return e.raw }

type callExpr struct {
	name string
	args []expr
	pos  domain.Position
}

func (e *callExpr) String() string {
	parts := make([]string, 0, len(e.args)+1)
	parts = append(parts, e.name)
	for _, a := range e.args {
		parts = append(parts, a.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(input[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string literal")
			}
			tokens = append(tokens, token{kind: tokenString, raw: input[i+1 : i+1+end]})
			i += end + 2
		case c == '-' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < len(input) && (input[j] == '.' || (input[j] >= '0' && input[j] <= '9')) {
				j++
			}
			if c == '-' && j == i+1 {
				return nil, fmt.Errorf("unexpected character '-'")
			}
			tokens = append(tokens, token{kind: tokenNumber, raw: input[i:j]})
			i = j
		case isIdentChar(c):
			j := i + 1
			for j < len(input) && isIdentChar(input[j]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenIdentifier, raw: input[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character '%c'", c)
		}
	}
	return tokens, nil
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '.' || c == '@' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

type tokenStream struct {
	tokens []token
	pos    int
	at     domain.Position
}

func (s *tokenStream) peek() (token, bool) {
	if s.pos >= len(s.tokens) {
		return token{}, false
	}
	return s.tokens[s.pos], true
}

func (s *tokenStream) next() (token, bool) {
	t, ok := s.peek()
	if ok {
		s.pos++
	}
	return t, ok
}

// parseParams parses the whitespace-separated parameters of a tag body.
func parseParams(body string, at domain.Position) ([]expr, error) {
	tokens, err := tokenize(body)
	if err != nil {
		return nil, err
	}
	stream := &tokenStream{tokens: tokens, at: at}

	var params []expr
	for {
		if _, ok := stream.peek(); !ok {
			return params, nil
		}
		e, err := parseOperand(stream)
		if err != nil {
			return nil, err
		}
		params = append(params, e)
	}
}

func parseOperand(stream *tokenStream) (expr, error) {
	t, ok := stream.next()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	switch t.kind {
	case tokenLParen:
		return parseCall(stream)
	case tokenRParen:
		return nil, fmt.Errorf("unexpected ')'")
	case tokenString:
		return &literalExpr{raw: strconv.Quote(t.raw), value: t.raw}, nil
	case tokenNumber:
		v, err := strconv.ParseFloat(t.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t.raw)
		}
		return &literalExpr{raw: t.raw, value: v}, nil
	}

	switch t.raw {
	case "true":
		return &literalExpr{raw: t.raw, value: true}, nil
	case "false":
		return &literalExpr{raw: t.raw, value: false}, nil
	case "null", "undefined":
		return &literalExpr{raw: t.raw, value: nil}, nil
	}
	return newPath(t.raw, stream.at), nil
}

// parseCall parses a sub-expression after its opening parenthesis.
func parseCall(stream *tokenStream) (expr, error) {
	head, ok := stream.next()
	if !ok {
		return nil, fmt.Errorf("unterminated sub-expression")
	}
	if head.kind != tokenIdentifier {
		return nil, fmt.Errorf("sub-expression must start with a predicate name, got %q", head.raw)
	}
	call := &callExpr{name: head.raw, pos: stream.at}
	for {
		t, ok := stream.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated sub-expression (%s", head.raw)
		}
		if t.kind == tokenRParen {
			stream.pos++
			return call, nil
		}
		arg, err := parseOperand(stream)
		if err != nil {
			return nil, err
		}
		call.args = append(call.args, arg)
	}
}

func newPath(name string, at domain.Position) *pathExpr {
	return &pathExpr{name: name, parts: strings.Split(name, "."), pos: at}
}
