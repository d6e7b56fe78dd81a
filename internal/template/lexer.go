package template

import (
	"strings"

	"github.com/aretw0/brief/pkg/domain"
)

type itemKind int

const (
	itemText    itemKind = iota
	itemOpen             // {{#if x}}, {{#unless x}}, {{^x}} (inverse section, closed by {{/x}})
	itemElse             // {{else}}, {{else if x}}, {{^}}
	itemClose            // {{/if}}
	itemPartial          // {{> name}}
	itemValue            // {{x}}
	itemRaw              // {{{x}}}
	itemComment          // {{! x}}, {{!-- x --}}
)

// item is a lexed piece of template source. For tags, text holds the body without sigil.
type item struct {
	kind itemKind
	text string
	pos  domain.Position
}

// lexer splits template source into text and tag items.
// Block, else, close, partial and comment tags standing alone on their line are
// removed together with the line's surrounding whitespace and line break.
type lexer struct {
	src   string
	items []item

	// incremental position tracking
	posOff  int
	posLine int
	posCol  int
}

func lex(src string) ([]item, error) {
	l := &lexer{src: src, posLine: 1, posCol: 1}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.items, nil
}

func (l *lexer) run() error {
	src := l.src
	cursor := 0 // start of pending text
	i := 0
	trimNext := false

	for {
		idx := strings.Index(src[i:], "{{")
		if idx < 0 {
			l.emitText(src[cursor:], trimNext)
			return nil
		}
		start := i + idx

		// \{{ escapes a tag: the braces are literal text.
		if start > 0 && src[start-1] == '\\' {
			l.emitText(src[cursor:start-1], trimNext)
			trimNext = false
			cursor = start
			closing := strings.Index(src[start:], "}}")
			if closing < 0 {
				i = len(src)
			} else {
				i = start + closing + 2
			}
			continue
		}

		kind, body, end, err := l.scanTag(start)
		if err != nil {
			return err
		}

		trimLeft, trimRight := false, false
		if kind != itemComment && kind != itemRaw {
			if strings.HasPrefix(body, "~") {
				trimLeft = true
				body = body[1:]
			}
			if strings.HasSuffix(body, "~") {
				trimRight = true
				body = body[:len(body)-1]
			}
			kind, body = classify(body)
		}

		pending := src[cursor:start]
		next := end
		if lineStart, lineEnd, ok := l.standalone(kind, start, end); ok {
			if lineStart > cursor {
				pending = src[cursor:lineStart]
			} else {
				pending = ""
			}
			next = lineEnd
		}
		if trimLeft {
			pending = strings.TrimRight(pending, " \t\r\n")
		}
		l.emitText(pending, trimNext)

		l.items = append(l.items, item{kind: kind, text: body, pos: l.position(start)})

		cursor = next
		i = next
		trimNext = trimRight
	}
}

// scanTag finds the end of the tag starting at start.
func (l *lexer) scanTag(start int) (itemKind, string, int, error) {
	src := l.src
	switch {
	case strings.HasPrefix(src[start:], "{{!--"):
		closing := strings.Index(src[start+5:], "--}}")
		if closing < 0 {
			return 0, "", 0, l.unclosed(start, "{{!--", "--}}")
		}
		return itemComment, src[start+5 : start+5+closing], start + 5 + closing + 4, nil
	case strings.HasPrefix(src[start:], "{{{"):
		closing := strings.Index(src[start+3:], "}}}")
		if closing < 0 {
			return 0, "", 0, l.unclosed(start, "{{{", "}}}")
		}
		return itemRaw, strings.TrimSpace(src[start+3 : start+3+closing]), start + 3 + closing + 3, nil
	default:
		closing := strings.Index(src[start+2:], "}}")
		if closing < 0 {
			return 0, "", 0, l.unclosed(start, "{{", "}}")
		}
		return itemValue, src[start+2 : start+2+closing], start + 2 + closing + 2, nil
	}
}

func (l *lexer) unclosed(start int, open, want string) error {
	return &domain.CompileError{
		Construct: open,
		Pos:       l.position(start),
		Message:   "unclosed tag, missing " + want,
	}
}

// classify maps a mustache body to its item kind and strips the sigil.
func classify(body string) (itemKind, string) {
	trimmed := strings.TrimSpace(body)
	switch {
	case strings.HasPrefix(trimmed, "!"):
		return itemComment, trimmed[1:]
	case strings.HasPrefix(trimmed, "#"):
		return itemOpen, strings.TrimSpace(trimmed[1:])
	case trimmed == "^":
		return itemElse, ""
	case strings.HasPrefix(trimmed, "^"):
		return itemOpen, "^ " + strings.TrimSpace(trimmed[1:])
	case strings.HasPrefix(trimmed, "/"):
		return itemClose, strings.TrimSpace(trimmed[1:])
	case strings.HasPrefix(trimmed, ">"):
		return itemPartial, strings.TrimSpace(trimmed[1:])
	case trimmed == "else":
		return itemElse, ""
	case strings.HasPrefix(trimmed, "else ") || strings.HasPrefix(trimmed, "else\t"):
		return itemElse, strings.TrimSpace(trimmed[4:])
	}
	return itemValue, trimmed
}

// standalone reports whether the tag at [start, end) is alone on its line,
// returning the bounds of that line (lineEnd includes the line break).
func (l *lexer) standalone(kind itemKind, start, end int) (int, int, bool) {
	switch kind {
	case itemOpen, itemElse, itemClose, itemPartial, itemComment:
	default:
		return 0, 0, false
	}

	lineStart := strings.LastIndexByte(l.src[:start], '\n') + 1
	if !isBlank(l.src[lineStart:start]) {
		return 0, 0, false
	}

	lineEnd := len(l.src)
	if nl := strings.IndexByte(l.src[end:], '\n'); nl >= 0 {
		lineEnd = end + nl + 1
	}
	if !isBlank(l.src[end:lineEnd]) {
		return 0, 0, false
	}
	return lineStart, lineEnd, true
}

func (l *lexer) emitText(text string, trimLeading bool) {
	if trimLeading {
		text = strings.TrimLeft(text, " \t\r\n")
	}
	if text == "" {
		return
	}
	l.items = append(l.items, item{kind: itemText, text: text})
}

// position converts a byte offset to a line and rune column. Offsets must not decrease between calls.
func (l *lexer) position(off int) domain.Position {
	for ; l.posOff < off; l.posOff++ {
		if l.src[l.posOff] == '\n' {
			l.posLine++
			l.posCol = 1
		} else if l.src[l.posOff]&0xC0 != 0x80 {
			l.posCol++
		}
	}
	return domain.Position{Line: l.posLine, Column: l.posCol}
}

func isBlank(s string) bool {
	return strings.Trim(s, " \t\r\n") == ""
}
