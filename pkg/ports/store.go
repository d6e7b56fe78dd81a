package ports

import "context"

// TemplateStore persists the template source, the only state that outlives a session.
// Implementations key it by domain.TemplateKey.
type TemplateStore interface {
	// Load retrieves the stored source.
	// Returns domain.ErrTemplateNotFound if nothing was saved yet.
	Load(ctx context.Context) (string, error)

	// Save replaces the stored source.
	Save(ctx context.Context, source string) error
}
