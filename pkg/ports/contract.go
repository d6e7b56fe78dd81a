package ports

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/brief/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTemplateStoreContract runs a suite of tests to verify that a TemplateStore implementation
// adheres to the defined interface contract. The store must start empty.
// Sources used here carry no leading or trailing whitespace, which file-backed stores may normalize.
func RunTemplateStoreContract(t *testing.T, store TemplateStore) {
	ctx := context.Background()

	t.Run("Load Empty", func(t *testing.T) {
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	})

	t.Run("Save and Load", func(t *testing.T) {
		source := "{{#if structured}}### The Problem{{/if}}\nRight now, {{> thecodeis}} failing 🚀"
		require.NoError(t, store.Save(ctx, source), "Save should not return error")

		loaded, err := store.Load(ctx)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, source, loaded, "source must round-trip byte for byte")
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "first"))
		require.NoError(t, store.Save(ctx, "second"))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded)
	})

	t.Run("Empty Source", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, ""))

		loaded, err := store.Load(ctx)
		require.NoError(t, err, "an empty template is still a saved template")
		assert.Empty(t, loaded)
	})

	t.Run("Large Source", func(t *testing.T) {
		source := strings.Repeat("{{#if a}}x{{/if}}\n", 4096) + "end"
		require.NoError(t, store.Save(ctx, source))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, source, loaded)
	})
}
