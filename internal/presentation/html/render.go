// Package html renders markup trees as sanitised HTML fragments.
package html

import (
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/brief/internal/highlight"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/microcosm-cc/bluemonday"
)

// FlashClass is set on leaves that are currently highlighted.
const FlashClass = "flash"

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		policy.AllowAttrs("align").OnElements("td", "th")
		policy.AllowAttrs("type", "checked", "disabled").OnElements("input")
		policy.AllowAttrs("start").OnElements("ol")
	})
	return policy
}

// Render writes tree as HTML. Leaves whose fingerprint is in marked carry the flash class.
// Raw HTML from the template passes through the same sanitiser as everything else.
func Render(tree *domain.Node, marked domain.FingerprintSet) string {
	var b strings.Builder
	w := &writer{b: &b, marked: marked}
	w.node(tree)
	return sanitizer().Sanitize(b.String())
}

type writer struct {
	b      *strings.Builder
	marked domain.FingerprintSet
}

func (w *writer) isMarked(n *domain.Node) bool {
	return n.IsLeaf() && w.marked.Has(highlight.Fingerprint(n))
}

func (w *writer) node(n *domain.Node) {
	if n == nil {
		return
	}
	flash := w.isMarked(n)

	switch n.Tag {
	case "#document":
		w.children(n)
	case "#text":
		if flash {
			w.b.WriteString(`<span class="flash">`)
		}
		w.b.WriteString(html.EscapeString(n.Text))
		if flash {
			w.b.WriteString(`</span>`)
		}
	case "#html":
		if flash {
			w.b.WriteString(`<span class="flash">` + n.Text + `</span>`)
			return
		}
		w.b.WriteString(n.Text)
	case "pre":
		w.open("pre", classes(flash), nil)
		var lang []string
		if n.Class != "" {
			lang = []string{"language-" + n.Class}
		}
		w.open("code", lang, nil)
		w.b.WriteString(html.EscapeString(n.Text))
		w.b.WriteString("</code></pre>\n")
	case "code":
		w.open("code", classes(flash), nil)
		w.b.WriteString(html.EscapeString(n.Text))
		w.b.WriteString("</code>")
	case "img":
		attrs := copyAttrs(n.Attrs)
		attrs["alt"] = n.Text
		w.open("img", classes(flash), attrs)
	case "input":
		attrs := map[string]string{"type": "checkbox", "disabled": ""}
		if n.Attrs["checked"] == "true" {
			attrs["checked"] = ""
		}
		w.open("input", classes(flash), attrs)
	case "br", "hr":
		w.open(n.Tag, classes(flash), nil)
		w.b.WriteByte('\n')
	default:
		tag := n.Tag
		if tag == "" {
			tag = "div"
		}
		var cls []string
		if n.Class != "" && n.Tag != "tr" {
			cls = append(cls, n.Class)
		}
		if flash {
			cls = append(cls, FlashClass)
		}
		w.open(tag, cls, n.Attrs)
		w.children(n)
		w.b.WriteString("</" + tag + ">")
		if !n.IsInline() {
			w.b.WriteByte('\n')
		}
	}
}

func (w *writer) children(n *domain.Node) {
	for _, c := range n.Children {
		w.node(c)
	}
}

func (w *writer) open(tag string, cls []string, attrs map[string]string) {
	w.b.WriteByte('<')
	w.b.WriteString(tag)
	if len(cls) > 0 {
		w.b.WriteString(` class="` + html.EscapeString(strings.Join(cls, " ")) + `"`)
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := attrs[k]
		if v == "" && (k == "checked" || k == "disabled") {
			w.b.WriteString(" " + k)
			continue
		}
		w.b.WriteString(" " + k + `="` + html.EscapeString(v) + `"`)
	}
	w.b.WriteByte('>')
}

func classes(flash bool) []string {
	if flash {
		return []string{FlashClass}
	}
	return nil
}

func copyAttrs(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
