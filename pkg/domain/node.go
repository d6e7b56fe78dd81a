package domain

import (
	"sort"
	"strings"
)

// NodeKind tags a markup tree node.
type NodeKind string

const (
	// Block kinds
	NodeDocument      NodeKind = "document"
	NodeHeading       NodeKind = "heading"
	NodeParagraph     NodeKind = "paragraph"
	NodeList          NodeKind = "list"
	NodeListItem      NodeKind = "list_item"
	NodeBlockquote    NodeKind = "blockquote"
	NodeCodeBlock     NodeKind = "code_block"
	NodeThematicBreak NodeKind = "thematic_break"
	NodeHTMLBlock     NodeKind = "html_block"
	NodeTable         NodeKind = "table"
	NodeTableRow      NodeKind = "table_row"
	NodeTableCell     NodeKind = "table_cell"

	// Inline kinds
	NodeText          NodeKind = "text"
	NodeEmphasis      NodeKind = "emphasis"
	NodeStrong        NodeKind = "strong"
	NodeCodeSpan      NodeKind = "code_span"
	NodeLink          NodeKind = "link"
	NodeImage         NodeKind = "image"
	NodeRawHTML       NodeKind = "raw_html"
	NodeStrikethrough NodeKind = "strikethrough"
	NodeLineBreak     NodeKind = "line_break"
	NodeCheckbox      NodeKind = "checkbox"
)

var inlineKinds = map[NodeKind]bool{
	NodeText:          true,
	NodeEmphasis:      true,
	NodeStrong:        true,
	NodeCodeSpan:      true,
	NodeLink:          true,
	NodeImage:         true,
	NodeRawHTML:       true,
	NodeStrikethrough: true,
	NodeLineBreak:     true,
	NodeCheckbox:      true,
}

// Node is an element of the rendered markup tree.
// A tree handed to the diff engine must not be mutated afterwards.
type Node struct {
	Kind NodeKind `json:"kind"`
	// Tag is the HTML element equivalent ("h3", "p", "li", "code", "#text", ...).
	Tag string `json:"tag"`
	// Class carries the role of the element, e.g. the language of a code block.
	Class string `json:"class,omitempty"`
	// Level is the heading level or emphasis strength.
	Level int `json:"level,omitempty"`
	// Role is the tag and class of the element enclosing a text run, so the
	// same words under a heading and in a paragraph stay distinct.
	Role string `json:"role,omitempty"`
	// Text is the literal content of leaves (text runs, code).
	Text     string            `json:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// IsInline reports whether the node is an inline element.
func (n *Node) IsInline() bool {
	return inlineKinds[n.Kind]
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Append adds children and returns the node for chaining.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Walk visits the node and its descendants in document order.
// Returning false from fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// PlainText concatenates the literal content of the subtree.
func (n *Node) PlainText() string {
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		b.WriteString(c.Text)
		return true
	})
	return b.String()
}

// Content returns the rendered content of the node used for identity:
// the literal text followed by its attributes in key order.
func (n *Node) Content() string {
	if len(n.Attrs) == 0 {
		return n.Text
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(n.Text)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(n.Attrs[k])
	}
	return b.String()
}
