package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/brief"
	"github.com/aretw0/brief/internal/highlight"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/muesli/termenv"
)

const flashColor = "#facc15"

// Surface implements ports.Surface for a terminal.
// Marked leaves are announced on the writer as they appear; Unmark only updates the marked set.
type Surface struct {
	mu     sync.Mutex
	out    *termenv.Output
	w      io.Writer
	marked map[domain.Fingerprint]*domain.Node
}

// NewSurface creates a terminal surface writing to w.
func NewSurface(w io.Writer, opts ...termenv.OutputOption) *Surface {
	return &Surface{
		out:    termenv.NewOutput(w, opts...),
		w:      w,
		marked: make(map[domain.Fingerprint]*domain.Node),
	}
}

func (s *Surface) Mark(leaf *domain.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked[highlight.Fingerprint(leaf)] = leaf
	fmt.Fprintln(s.w, s.out.String("+ "+leafLabel(leaf)).Foreground(s.out.Color(flashColor)).Bold())
}

func (s *Surface) Unmark(leaf *domain.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.marked, highlight.Fingerprint(leaf))
}

// Marked returns the number of leaves currently highlighted.
func (s *Surface) Marked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.marked)
}

// Printer writes render results to a terminal.
type Printer struct {
	w      io.Writer
	out    *termenv.Output
	render func(string) (string, error)
}

// NewPrinter creates a Printer rendering markdown for w.
func NewPrinter(w io.Writer, opts ...termenv.OutputOption) *Printer {
	return &Printer{
		w:      w,
		out:    termenv.NewOutput(w, opts...),
		render: NewRenderer(w),
	}
}

// Print writes the rendered markdown of res, or its error text, followed by the
// list of leaves that appeared since the previous render.
func (p *Printer) Print(res *brief.Result) error {
	if err := p.Body(res); err != nil || res.Err != nil {
		return err
	}
	if len(res.Appeared) == 0 {
		return nil
	}
	fmt.Fprintln(p.w, p.out.String(fmt.Sprintf("-- %d new --", len(res.Appeared))).Faint())
	for _, leaf := range res.Appeared {
		fmt.Fprintln(p.w, p.out.String("+ "+leafLabel(leaf)).Foreground(p.out.Color(flashColor)))
	}
	return nil
}

// Body writes the rendered markdown of res, or its error text.
func (p *Printer) Body(res *brief.Result) error {
	if res.Err != nil {
		_, err := fmt.Fprintln(p.w, p.out.String(res.ErrorText).Foreground(p.out.Color("#f87171")))
		return err
	}

	body, err := p.render(res.Markup)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	if _, err := fmt.Fprint(p.w, body); err != nil {
		return err
	}
	if !strings.HasSuffix(body, "\n") {
		fmt.Fprintln(p.w)
	}
	return nil
}

func leafLabel(n *domain.Node) string {
	text := strings.TrimSpace(n.PlainText())
	if text == "" {
		text = "<" + n.Tag + ">"
	}
	return strings.ReplaceAll(text, "\n", " ")
}
