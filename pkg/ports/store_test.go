package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/ports"
)

// mockStore is a minimal TemplateStore used to exercise the contract suite itself.
type mockStore struct {
	mu     sync.Mutex
	source *string
}

func (m *mockStore) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.source == nil {
		return "", domain.ErrTemplateNotFound
	}
	return *m.source, nil
}

func (m *mockStore) Save(ctx context.Context, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = &source
	return nil
}

func TestTemplateStore_Contract(t *testing.T) {
	ports.RunTemplateStoreContract(t, &mockStore{})
}
