// Package loam exposes a feedback workspace directory through the Loam document library.
//
// Layout:
//
//	feedback.md          template source; frontmatter may declare the property schema
//	partials/<name>.md   partials, registered under <name>
package loam

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/properties"
	"github.com/aretw0/loam"
)

const (
	// TemplateID is the document holding the template source.
	TemplateID = "feedback"
	// PartialsDir holds one document per partial.
	PartialsDir = "partials"

	watchPattern = "**/*.{md,yaml,yml}"
)

// Workspace adapts a Loam repository to ports.TemplateStore and ports.Watchable,
// and loads the property schema and partials that live next to the template.
type Workspace struct {
	Repo *loam.TypedRepository[FeedbackMetadata]
	dir  string
}

// New wraps an initialized repository rooted at dir.
func New(repo *loam.TypedRepository[FeedbackMetadata], dir string) *Workspace {
	return &Workspace{Repo: repo, dir: dir}
}

// Open initializes Loam at dir without versioning.
// Strict mode keeps frontmatter numbers as json.Number instead of float64.
func Open(dir string, opts ...loam.Option) (*Workspace, error) {
	base := []loam.Option{loam.WithStrict(true), loam.WithVersioning(false)}
	repo, err := loam.Init(dir, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[FeedbackMetadata](repo), dir), nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string {
	return w.dir
}

func (w *Workspace) exists() (bool, error) {
	_, err := os.Stat(filepath.Join(w.dir, TemplateID+".md"))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// document reads the template frontmatter and body.
func (w *Workspace) document(ctx context.Context) (FeedbackMetadata, string, error) {
	ok, err := w.exists()
	if err != nil {
		return FeedbackMetadata{}, "", err
	}
	if !ok {
		return FeedbackMetadata{}, "", domain.ErrTemplateNotFound
	}
	doc, err := w.Repo.Get(ctx, TemplateID)
	if err != nil {
		return FeedbackMetadata{}, "", fmt.Errorf("loam get failed for %s: %w", TemplateID, err)
	}
	return doc.Data, doc.Content, nil
}

// Load implements ports.TemplateStore.
func (w *Workspace) Load(ctx context.Context) (string, error) {
	_, content, err := w.document(ctx)
	return content, err
}

// Save implements ports.TemplateStore. The frontmatter of an existing template is kept.
func (w *Workspace) Save(ctx context.Context, source string) error {
	meta, _, err := w.document(ctx)
	if err != nil && !errors.Is(err, domain.ErrTemplateNotFound) {
		return err
	}

	return w.Repo.Save(ctx, &loam.DocumentModel[FeedbackMetadata]{
		ID:      TemplateID,
		Content: source,
		Data:    meta,
	})
}

// Properties builds the property model declared in the template frontmatter.
// Workspaces without a declared schema use the bundled one.
func (w *Workspace) Properties(ctx context.Context) (*properties.Model, error) {
	meta, _, err := w.document(ctx)
	if errors.Is(err, domain.ErrTemplateNotFound) {
		return properties.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if len(meta.Properties) == 0 {
		return properties.Default(), nil
	}

	defs, err := properties.Decode(meta.Properties)
	if err != nil {
		return nil, fmt.Errorf("invalid properties in %s: %w", TemplateID, err)
	}
	return properties.New(defs...)
}

// Partials returns the partial sources keyed by name.
func (w *Workspace) Partials(ctx context.Context) (map[string]string, error) {
	docs, err := w.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace: %w", err)
	}

	partials := make(map[string]string)
	seen := make(map[string]string)
	for _, doc := range docs {
		id := filepath.ToSlash(doc.ID)
		rest, ok := strings.CutPrefix(id, PartialsDir+"/")
		if !ok {
			continue
		}
		name := trimExtension(rest)
		if existing, dup := seen[name]; dup {
			return nil, fmt.Errorf("collision detected: partial '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
		}
		seen[name] = doc.ID
		partials[name] = doc.Content
	}
	return partials, nil
}

// PartialNames returns the sorted partial names.
func (w *Workspace) PartialNames(ctx context.Context) ([]string, error) {
	partials, err := w.Partials(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(partials))
	for name := range partials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Seed writes a template, its property schema and partials into the workspace.
func (w *Workspace) Seed(ctx context.Context, source string, defs []domain.PropertyDefinition, partials map[string]string) error {
	err := w.Repo.Save(ctx, &loam.DocumentModel[FeedbackMetadata]{
		ID:      TemplateID,
		Content: source,
		Data:    FeedbackMetadata{Properties: properties.Encode(defs)},
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", TemplateID, err)
	}

	for name, body := range partials {
		err := w.Repo.Save(ctx, &loam.DocumentModel[FeedbackMetadata]{
			ID:      PartialsDir + "/" + name,
			Content: body,
		})
		if err != nil {
			return fmt.Errorf("failed to save partial %s: %w", name, err)
		}
	}
	return nil
}

// Watch implements ports.Watchable.
func (w *Workspace) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := w.Repo.Watch(ctx, watchPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				// Loam debounces bursts itself; forward one signal per event.
				select {
				case ch <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
