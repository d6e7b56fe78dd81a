package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/brief/internal/adapters/redis"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunTemplateStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_Keys(t *testing.T) {
	mr, client := setup(t)
	ctx := context.Background()

	a := redis.NewFromClient(client)
	b := redis.NewFromClient(client, redis.WithKey("loops"))
	require.NoError(t, a.Save(ctx, "a"))
	require.NoError(t, b.Save(ctx, "b"))

	assert.True(t, mr.Exists("brief:template"))
	assert.True(t, mr.Exists("brief:loops"))

	keys, err := a.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.TemplateKey, "loops"}, keys)

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestRedisStore_TTL(t *testing.T) {
	mr, client := setup(t)
	ctx := context.Background()

	s := redis.NewFromClient(client, redis.WithPrefix("test:"), redis.WithTTL(time.Minute))
	require.NoError(t, s.Save(ctx, "short lived"))
	assert.Equal(t, time.Minute, mr.TTL("test:template"))

	mr.FastForward(2 * time.Minute)
	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestRedisStore_NewFromURL(t *testing.T) {
	mr, _ := setup(t)

	store, err := redis.NewFromURL("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer store.Close()
	ports.RunTemplateStoreContract(t, store)

	_, err = redis.NewFromURL("http://nope")
	assert.Error(t, err)
}
