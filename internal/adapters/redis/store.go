package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/brief/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.TemplateStore using Redis.
// Saved keys are tracked in a sorted set scored by save time, so several
// templates can share one Redis database.
type Store struct {
	client *backend.Client
	prefix string
	name   string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration of the stored source.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithKey stores the source under a name other than domain.TemplateKey.
func WithKey(name string) Option {
	return func(s *Store) {
		s.name = name
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromURL creates a store from a redis:// connection URL.
func NewFromURL(url string, opts ...Option) (*Store, error) {
	options, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(options), opts...), nil
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "brief:",
		name:   domain.TemplateKey,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key() string {
	return s.prefix + s.name
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the source and records it in the index.
func (s *Store) Save(ctx context.Context, source string) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(), source, s.ttl)

	// Score = expiry. Without TTL the entry never expires.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: s.name})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the source.
func (s *Store) Load(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.key()).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", domain.ErrTemplateNotFound
		}
		return "", fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// Keys lists the template names saved under the prefix, pruning expired ones.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired templates: %w", err)
	}

	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return keys, nil
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
