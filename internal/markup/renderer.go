// Package markup turns rendered markdown into the node tree the highlighter diffs.
package markup

import (
	"strconv"
	"strings"

	"github.com/aretw0/brief/pkg/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Renderer parses markdown with goldmark and converts the AST into a domain.Node tree.
// Parsing is deterministic: the same source always yields an equal tree.
type Renderer struct {
	extensions []goldmark.Extender
	md         goldmark.Markdown
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithExtensions replaces the default goldmark extensions (GitHub Flavored Markdown).
func WithExtensions(exts ...goldmark.Extender) Option {
	return func(r *Renderer) {
		r.extensions = exts
	}
}

// NewRenderer creates a markdown renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		extensions: []goldmark.Extender{extension.GFM},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.md = goldmark.New(goldmark.WithExtensions(r.extensions...))
	return r
}

// Format parses source and returns its markup tree rooted at a document node.
func (r *Renderer) Format(source string) (*domain.Node, error) {
	src := []byte(source)
	doc := r.md.Parser().Parse(text.NewReader(src))

	b := &builder{source: src}
	root := &domain.Node{Kind: domain.NodeDocument, Tag: "#document"}
	b.children(doc, root)
	return root, nil
}

type builder struct {
	source []byte
}

// children converts the children of parent into into.
// Adjacent text runs are merged so a paragraph split by soft breaks stays one leaf.
func (b *builder) children(parent ast.Node, into *domain.Node) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.TextBlock:
			// tight list items carry their text without a paragraph
			b.children(c, into)
		case *ast.Text:
			b.text(into, unescape(c.Segment.Value(b.source)))
			if c.HardLineBreak() {
				into.Append(&domain.Node{Kind: domain.NodeLineBreak, Tag: "br"})
			} else if c.SoftLineBreak() {
				b.text(into, "\n")
			}
		case *ast.String:
			b.text(into, string(c.Value))
		default:
			into.Append(b.convert(c))
		}
	}
}

func (b *builder) text(into *domain.Node, s string) {
	if s == "" {
		return
	}
	role := roleOf(into)
	if n := len(into.Children); n > 0 {
		if last := into.Children[n-1]; last.Kind == domain.NodeText && last.Role == role {
			last.Text += s
			return
		}
	}
	into.Append(&domain.Node{Kind: domain.NodeText, Tag: "#text", Role: role, Text: s})
}

func roleOf(n *domain.Node) string {
	if n.Class == "" {
		return n.Tag
	}
	return n.Tag + "." + n.Class
}

// unescape resolves backslash escapes and character references in a raw text segment.
func unescape(raw []byte) string {
	v := util.UnescapePunctuations(raw)
	v = util.ResolveNumericReferences(v)
	v = util.ResolveEntityNames(v)
	return string(v)
}

func (b *builder) convert(n ast.Node) *domain.Node {
	var out *domain.Node
	switch n := n.(type) {
	case *ast.Heading:
		out = &domain.Node{Kind: domain.NodeHeading, Tag: "h" + strconv.Itoa(n.Level), Level: n.Level}
	case *ast.Paragraph:
		out = &domain.Node{Kind: domain.NodeParagraph, Tag: "p"}
	case *ast.List:
		out = &domain.Node{Kind: domain.NodeList, Tag: "ul"}
		if n.IsOrdered() {
			out.Tag = "ol"
			out.Attrs = map[string]string{"start": strconv.Itoa(n.Start)}
		}
	case *ast.ListItem:
		out = &domain.Node{Kind: domain.NodeListItem, Tag: "li"}
	case *ast.Blockquote:
		out = &domain.Node{Kind: domain.NodeBlockquote, Tag: "blockquote"}
	case *ast.FencedCodeBlock:
		return &domain.Node{
			Kind:  domain.NodeCodeBlock,
			Tag:   "pre",
			Class: string(n.Language(b.source)),
			Text:  b.lines(n.Lines()),
		}
	case *ast.CodeBlock:
		return &domain.Node{Kind: domain.NodeCodeBlock, Tag: "pre", Text: b.lines(n.Lines())}
	case *ast.ThematicBreak:
		return &domain.Node{Kind: domain.NodeThematicBreak, Tag: "hr"}
	case *ast.HTMLBlock:
		raw := b.lines(n.Lines())
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(b.source))
		}
		return &domain.Node{Kind: domain.NodeHTMLBlock, Tag: "#html", Text: raw}
	case *ast.Emphasis:
		out = &domain.Node{Kind: domain.NodeEmphasis, Tag: "em", Level: n.Level}
		if n.Level >= 2 {
			out.Kind, out.Tag = domain.NodeStrong, "strong"
		}
	case *ast.CodeSpan:
		var sb strings.Builder
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				sb.WriteString(strings.ReplaceAll(string(t.Segment.Value(b.source)), "\n", " "))
			case *ast.String:
				sb.Write(t.Value)
			}
		}
		return &domain.Node{Kind: domain.NodeCodeSpan, Tag: "code", Text: sb.String()}
	case *ast.Link:
		out = &domain.Node{Kind: domain.NodeLink, Tag: "a", Attrs: linkAttrs("href", n.Destination, n.Title)}
	case *ast.AutoLink:
		return &domain.Node{
			Kind: domain.NodeLink,
			Tag:  "a",
			Attrs: map[string]string{
				"href": string(n.URL(b.source)),
			},
			Children: []*domain.Node{{Kind: domain.NodeText, Tag: "#text", Role: "a", Text: string(n.Label(b.source))}},
		}
	case *ast.Image:
		alt := &domain.Node{}
		b.children(n, alt)
		return &domain.Node{Kind: domain.NodeImage, Tag: "img", Text: alt.PlainText(), Attrs: linkAttrs("src", n.Destination, n.Title)}
	case *ast.RawHTML:
		var sb strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			sb.Write(seg.Value(b.source))
		}
		return &domain.Node{Kind: domain.NodeRawHTML, Tag: "#html", Text: sb.String()}
	case *east.Strikethrough:
		out = &domain.Node{Kind: domain.NodeStrikethrough, Tag: "del"}
	case *east.TaskCheckBox:
		return &domain.Node{
			Kind:  domain.NodeCheckbox,
			Tag:   "input",
			Attrs: map[string]string{"type": "checkbox", "checked": strconv.FormatBool(n.IsChecked)},
		}
	case *east.Table:
		out = &domain.Node{Kind: domain.NodeTable, Tag: "table"}
	case *east.TableHeader:
		out = &domain.Node{Kind: domain.NodeTableRow, Tag: "tr", Class: "header"}
	case *east.TableRow:
		out = &domain.Node{Kind: domain.NodeTableRow, Tag: "tr"}
	case *east.TableCell:
		out = &domain.Node{Kind: domain.NodeTableCell, Tag: "td"}
		if _, header := n.Parent().(*east.TableHeader); header {
			out.Tag = "th"
		}
		if n.Alignment != east.AlignNone {
			out.Attrs = map[string]string{"align": n.Alignment.String()}
		}
	default:
		// Nodes from extensions we do not know keep their structure.
		out = &domain.Node{Kind: domain.NodeKind(strings.ToLower(n.Kind().String())), Tag: "div"}
		if n.Type() == ast.TypeInline {
			out.Tag = "span"
		}
	}
	b.children(n, out)
	return out
}

func (b *builder) lines(lines *text.Segments) string {
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(b.source))
	}
	return sb.String()
}

func linkAttrs(key string, dest, title []byte) map[string]string {
	attrs := map[string]string{key: unescape(dest)}
	if len(title) > 0 {
		attrs["title"] = unescape(title)
	}
	return attrs
}
