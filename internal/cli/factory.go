package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/brief"
	"github.com/aretw0/brief/internal/adapters/file"
	"github.com/aretw0/brief/internal/adapters/redis"
	"github.com/aretw0/brief/internal/adapters/sqlite"
	"github.com/aretw0/brief/internal/config"
	"github.com/aretw0/brief/internal/template"
	loamAdapter "github.com/aretw0/brief/pkg/adapters/loam"
	"github.com/aretw0/brief/pkg/adapters/memory"
	"github.com/aretw0/brief/pkg/persistence/middleware"
	"github.com/aretw0/brief/pkg/ports"
	"github.com/aretw0/brief/pkg/properties"
	"github.com/aretw0/brief/pkg/sample"
)

// Closer releases resources held by a store.
type Closer func() error

func nopCloser() error { return nil }

// OpenStore returns the template store selected by cfg, encrypted when a key is configured.
func OpenStore(ctx context.Context, cfg *config.Config) (ports.TemplateStore, Closer, error) {
	backend, closeStore, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := encryptStore(cfg, backend)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return store, closeStore, nil
}

func encryptStore(cfg *config.Config, store ports.TemplateStore) (ports.TemplateStore, error) {
	if cfg.Store.EncryptionKey == "" {
		return store, nil
	}
	var (
		ec  middleware.EncryptionConfig
		err error
	)
	if ec.ActiveKey, err = middleware.ParseKey(cfg.Store.EncryptionKey); err != nil {
		return nil, err
	}
	for _, k := range cfg.Store.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, err
		}
		ec.FallbackKeys = append(ec.FallbackKeys, key)
	}
	encrypt, err := middleware.NewEncryptionMiddleware(ec)
	if err != nil {
		return nil, err
	}
	return encrypt(store), nil
}

func openBackend(ctx context.Context, cfg *config.Config) (ports.TemplateStore, Closer, error) {
	key := cfg.Store.Key
	switch cfg.Store.Kind {
	case config.StoreWorkspace:
		dir, err := filepath.Abs(cfg.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid path: %w", err)
		}
		ws, err := loamAdapter.Open(dir)
		if err != nil {
			return nil, nil, err
		}
		return ws, nopCloser, nil

	case config.StoreFile:
		base := cfg.Store.Path
		if base == "" {
			base = filepath.Join(cfg.Dir, ".brief")
		}
		var opts []file.Option
		if key != "" {
			opts = append(opts, file.WithKey(key))
		}
		return file.New(base, opts...), nopCloser, nil

	case config.StoreMemory:
		return memory.NewStore(), nopCloser, nil

	case config.StoreRedis:
		var opts []redis.Option
		if key != "" {
			opts = append(opts, redis.WithKey(key))
		}
		if cfg.Store.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Store.TTL))
		}
		store, err := redis.NewFromURL(cfg.Store.URL, opts...)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.StoreSQLite:
		path := cfg.Store.Path
		if path == "" {
			path = filepath.Join(cfg.Dir, "brief.db")
		}
		var opts []sqlite.Option
		if key != "" {
			opts = append(opts, sqlite.WithKey(key))
		}
		store, err := sqlite.Open(ctx, path, opts...)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
}

// Pipeline holds what every Previewer built from one configuration shares.
type Pipeline struct {
	Config   *config.Config
	Store    ports.TemplateStore
	Model    *properties.Model
	Registry *template.Registry
	// Locker serializes sessions across replicas; set for the redis store only.
	Locker ports.DistributedLocker
	Close  Closer
	Name   string
}

// OpenPipeline resolves the store, property schema and partials for cfg.
// A workspace store also supplies the schema and partials; other stores use the
// configured schema file (or the bundled one) and the bundled partials.
func OpenPipeline(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	backend, closeStore, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := encryptStore(cfg, backend)
	if err != nil {
		closeStore()
		return nil, err
	}
	pl := &Pipeline{Config: cfg, Store: store, Close: closeStore}
	if rs, ok := backend.(*redis.Store); ok {
		pl.Locker = redis.NewLocker(rs.Client(), "brief:lock:")
	}

	if ws, ok := backend.(*loamAdapter.Workspace); ok {
		if pl.Model, err = ws.Properties(ctx); err != nil {
			closeStore()
			return nil, err
		}
		partials, err := ws.Partials(ctx)
		if err != nil {
			closeStore()
			return nil, err
		}
		if pl.Registry, err = template.NewRegistry(template.WithPartials(partials)); err != nil {
			closeStore()
			return nil, err
		}
		pl.Name = filepath.Base(ws.Dir())
		return pl, nil
	}

	pl.Model = properties.Default()
	if cfg.Properties != "" {
		if pl.Model, err = properties.LoadFile(cfg.Properties); err != nil {
			closeStore()
			return nil, err
		}
	}
	if pl.Registry, err = template.NewRegistry(template.WithPartials(sample.Partials())); err != nil {
		closeStore()
		return nil, err
	}
	return pl, nil
}

// Previewer builds a new pipeline instance with its own render memory.
func (pl *Pipeline) Previewer(logger *slog.Logger, extra ...brief.Option) (*brief.Previewer, error) {
	if pl.Name != "" {
		logger = logger.With("workspace", pl.Name)
	}
	opts := []brief.Option{
		brief.WithLogger(logger),
		brief.WithStrict(pl.Config.Strict),
		brief.WithHighlightDelay(pl.Config.Highlight.Delay),
		brief.WithStore(pl.Store),
		brief.WithProperties(pl.Model),
		brief.WithRegistry(pl.Registry),
	}
	return brief.New(append(opts, extra...)...)
}
