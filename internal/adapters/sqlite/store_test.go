package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/brief/internal/adapters/sqlite"
	"github.com/aretw0/brief/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, opts ...sqlite.Option) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "brief.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunTemplateStoreContract(t, open(t))
}

func TestSQLiteStore_Keys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")

	a, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Save(ctx, "first"))

	b, err := sqlite.Open(ctx, path, sqlite.WithKey("loops"))
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.Save(ctx, "second"))

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"template", "loops"}, keys)

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", got, "keys are isolated")
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "{{#if showDetails}}x{{/if}}"))
	require.NoError(t, s.Close())

	s, err = sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "{{#if showDetails}}x{{/if}}", got)
}
