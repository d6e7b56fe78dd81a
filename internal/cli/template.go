package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/brief/internal/config"
	"github.com/aretw0/brief/internal/template"
	"github.com/aretw0/brief/internal/validator"
	"github.com/aretw0/brief/pkg/domain"
)

// RunTemplateGet writes the stored template source to out.
func RunTemplateGet(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	src, err := store.Load(ctx)
	if errors.Is(err, domain.ErrTemplateNotFound) {
		return fmt.Errorf("no template stored yet: %w", err)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, src)
	return err
}

// RunTemplateSet stores the source read from path, or from in when path is "-".
func RunTemplateSet(ctx context.Context, cfg *config.Config, path string, in io.Reader) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	return store.Save(ctx, string(data))
}

// RunValidate checks the stored template, or the file at path when set, against
// the property schema and the registered partials and predicates.
func RunValidate(ctx context.Context, cfg *config.Config, path string, out io.Writer) error {
	pl, err := OpenPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer pl.Close()

	var src string
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template: %w", err)
		}
		src = string(data)
	} else if src, err = pl.Store.Load(ctx); err != nil {
		return err
	}

	engine := template.NewEngine(pl.Registry, template.WithStrict(cfg.Strict))
	if err := validator.ValidateTemplate(engine, pl.Model, src); err != nil {
		return err
	}
	printSystemMessage(out, "template is valid")
	return nil
}
