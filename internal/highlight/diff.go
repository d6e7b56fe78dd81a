// Package highlight decides which leaves of a freshly rendered tree are new
// and flashes them on a display surface.
package highlight

import (
	"github.com/aretw0/brief/pkg/domain"
	"github.com/cespare/xxhash/v2"
)

// CollectLeaves returns the nodes without children in document order.
func CollectLeaves(tree *domain.Node) []*domain.Node {
	var leaves []*domain.Node
	tree.Walk(func(n *domain.Node) bool {
		if n.IsLeaf() {
			leaves = append(leaves, n)
		}
		return true
	})
	return leaves
}

// Fingerprint hashes the tag, class, enclosing role and rendered content of a leaf.
func Fingerprint(leaf *domain.Node) domain.Fingerprint {
	d := xxhash.New()
	_, _ = d.WriteString(leaf.Tag)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(leaf.Class)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(leaf.Role)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(leaf.Content())
	return domain.Fingerprint(d.Sum64())
}

// Fingerprints collapses the leaves into a set; repeated identical leaves count once.
func Fingerprints(leaves []*domain.Node) domain.FingerprintSet {
	set := make(domain.FingerprintSet, len(leaves))
	for _, l := range leaves {
		set.Add(Fingerprint(l))
	}
	return set
}

// Reconciler remembers the fingerprints of the last successful render.
// It is not safe for concurrent use.
type Reconciler struct {
	previous domain.FingerprintSet
}

// NewReconciler creates a reconciler with an empty history, so every leaf of the first tree is new.
func NewReconciler() *Reconciler {
	return &Reconciler{previous: domain.NewFingerprintSet()}
}

// Reconcile returns the tree to display and the leaves whose fingerprint was absent
// from the previous render. The remembered set is replaced wholesale by the new one.
func (r *Reconciler) Reconcile(tree *domain.Node) (*domain.Node, []*domain.Node) {
	leaves := CollectLeaves(tree)
	next := Fingerprints(leaves)

	var appeared []*domain.Node
	for _, l := range leaves {
		if !r.previous.Has(Fingerprint(l)) {
			appeared = append(appeared, l)
		}
	}
	r.previous = next
	return tree, appeared
}

// Previous returns a copy of the remembered fingerprint set.
func (r *Reconciler) Previous() domain.FingerprintSet {
	return r.previous.Clone()
}

// Reset forgets the history.
func (r *Reconciler) Reset() {
	r.previous = domain.NewFingerprintSet()
}
