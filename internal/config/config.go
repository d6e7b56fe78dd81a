// Package config loads the optional brief.yaml configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/brief/internal/logging"
	"github.com/aretw0/brief/pkg/persistence/middleware"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the workspace directory.
const FileName = "brief.yaml"

// Store kinds.
const (
	StoreWorkspace = "workspace"
	StoreFile      = "file"
	StoreMemory    = "memory"
	StoreRedis     = "redis"
	StoreSQLite    = "sqlite"
)

// Config is the CLI configuration. Command-line flags override file values.
type Config struct {
	Dir        string          `yaml:"dir"`
	Properties string          `yaml:"properties,omitempty"`
	Strict     bool            `yaml:"strict,omitempty"`
	Store      StoreConfig     `yaml:"store"`
	Log        LogConfig       `yaml:"log"`
	Server     ServerConfig    `yaml:"server"`
	Highlight  HighlightConfig `yaml:"highlight"`
}

// StoreConfig selects where the template source is persisted.
type StoreConfig struct {
	Kind string `yaml:"kind"`
	// Path is the base directory of the file store or the database of the sqlite store.
	Path string `yaml:"path,omitempty"`
	// URL is the redis connection URL.
	URL string        `yaml:"url,omitempty"`
	Key string        `yaml:"key,omitempty"`
	TTL time.Duration `yaml:"ttl,omitempty"`
	// EncryptionKey is a base64 AES-256 key. When set the source is stored encrypted.
	EncryptionKey string `yaml:"encryption_key,omitempty"`
	// FallbackKeys are earlier keys still accepted for decryption.
	FallbackKeys []string `yaml:"fallback_keys,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	SessionIdle time.Duration `yaml:"session_idle,omitempty"`
}

type HighlightConfig struct {
	Delay time.Duration `yaml:"delay,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Dir:   ".",
		Store: StoreConfig{Kind: StoreWorkspace},
		Log:   LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Addr:        ":8080",
			SessionIdle: 30 * time.Minute,
		},
		Highlight: HighlightConfig{Delay: 500 * time.Millisecond},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate rejects unknown store kinds, log settings and incomplete store settings.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreWorkspace, StoreFile, StoreMemory, StoreSQLite:
	case StoreRedis:
		if c.Store.URL == "" {
			return errors.New("store.url is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if c.Store.EncryptionKey != "" {
		for _, k := range append([]string{c.Store.EncryptionKey}, c.Store.FallbackKeys...) {
			if _, err := middleware.ParseKey(k); err != nil {
				return err
			}
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Highlight.Delay < 0 {
		return errors.New("highlight.delay must not be negative")
	}
	return nil
}
