package memory

import (
	"context"
	"sync"

	"github.com/aretw0/brief/pkg/domain"
)

// Store implements ports.TemplateStore and ports.Watchable in memory.
// Safe for concurrent use.
type Store struct {
	source   string
	saved    bool
	watchers []chan struct{}
	mu       sync.RWMutex
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// NewStoreWith creates a store already holding source.
func NewStoreWith(source string) *Store {
	return &Store{source: source, saved: true}
}

// Save replaces the source and signals watchers.
func (s *Store) Save(ctx context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = source
	s.saved = true

	for _, ch := range s.watchers {
		// a pending signal already covers this save
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Load returns the source.
func (s *Store) Load(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return "", domain.ErrTemplateNotFound
	}
	return s.source, nil
}

// Watch signals after every Save until ctx is canceled.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}
