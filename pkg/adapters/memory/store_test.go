package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/brief/pkg/adapters/memory"
	"github.com/aretw0/brief/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunTemplateStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Preloaded(t *testing.T) {
	s := memory.NewStoreWith("{{#if a}}x{{/if}}")
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "{{#if a}}x{{/if}}", got)
}

func TestMemoryStore_Watch(t *testing.T) {
	s := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := s.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "a"))
	require.NoError(t, s.Save(ctx, "b"))

	_, ok := <-ch
	assert.True(t, ok, "saves are signaled")

	cancel()
	for range ch {
	}
	_, ok = <-ch
	assert.False(t, ok, "channel closes with the context")
}
