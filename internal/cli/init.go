package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	loamAdapter "github.com/aretw0/brief/pkg/adapters/loam"
	"github.com/aretw0/brief/pkg/properties"
	"github.com/aretw0/brief/pkg/sample"
)

// RunInit creates a workspace in dir holding the reference template, its property
// schema and partials. It refuses to overwrite an existing template.
func RunInit(ctx context.Context, dir string, out io.Writer) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(filepath.Join(abs, loamAdapter.TemplateID+".md")); err == nil {
		return fmt.Errorf("%s already holds a %s.md", abs, loamAdapter.TemplateID)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return err
	}

	ws, err := loamAdapter.Open(abs)
	if err != nil {
		return err
	}
	if err := ws.Seed(ctx, sample.Template(), properties.Default().List(), sample.Partials()); err != nil {
		return err
	}
	printSystemMessage(out, "Workspace created in %s", abs)
	return nil
}
