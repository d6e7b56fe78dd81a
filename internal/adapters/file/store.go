package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aretw0/brief/pkg/domain"
	"github.com/natefinch/atomic"
)

// Store implements ports.TemplateStore using the local filesystem.
// The source is kept verbatim in <BasePath>/<key>.md.
type Store struct {
	BasePath string
	key      string
}

// Option configures a Store.
type Option func(*Store)

// WithKey stores the source under a name other than domain.TemplateKey.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".brief".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = ".brief"
	}
	s := &Store{BasePath: basePath, key: domain.TemplateKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file the source is stored in.
func (s *Store) Path() string {
	return filepath.Join(s.BasePath, s.key+".md")
}

// Save writes the source atomically: readers see either the old or the new file, never a partial one.
func (s *Store) Save(ctx context.Context, source string) error {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure template directory: %w", err)
	}
	if err := atomic.WriteFile(s.Path(), bytes.NewReader([]byte(source))); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}

// Load reads the source.
func (s *Store) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.ErrTemplateNotFound
		}
		return "", fmt.Errorf("failed to read template file: %w", err)
	}
	return string(data), nil
}
