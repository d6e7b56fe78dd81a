package ports

import "github.com/aretw0/brief/pkg/domain"

// Formatter converts the template engine's output into a markup tree.
// Identical input must yield structurally identical trees.
type Formatter interface {
	Format(source string) (*domain.Node, error)
}

// Surface is the display the highlight is applied to.
// Mark and Unmark may be called from timer goroutines.
type Surface interface {
	Mark(leaf *domain.Node)
	Unmark(leaf *domain.Node)
}
