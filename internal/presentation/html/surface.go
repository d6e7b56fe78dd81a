package html

import (
	"sync"

	"github.com/aretw0/brief/internal/highlight"
	"github.com/aretw0/brief/pkg/domain"
)

// Surface implements ports.Surface by tracking the highlighted fingerprints,
// so the next page render can apply the flash class.
type Surface struct {
	mu     sync.RWMutex
	marked domain.FingerprintSet
}

// NewSurface creates an empty surface.
func NewSurface() *Surface {
	return &Surface{marked: domain.NewFingerprintSet()}
}

func (s *Surface) Mark(leaf *domain.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked.Add(highlight.Fingerprint(leaf))
}

func (s *Surface) Unmark(leaf *domain.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.marked, highlight.Fingerprint(leaf))
}

// Marked returns a copy of the highlighted set.
func (s *Surface) Marked() domain.FingerprintSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marked.Clone()
}

// Render renders tree with the currently highlighted leaves flashed.
func (s *Surface) Render(tree *domain.Node) string {
	return Render(tree, s.Marked())
}
