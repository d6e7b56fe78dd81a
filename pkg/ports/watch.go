package ports

import "context"

// Watchable defines an interface for backends that can notify about changes.
// This is typically used for hot-reload of the template workspace.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying files change.
	// It abstracts away the specific event details, signaling only that a re-render is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
