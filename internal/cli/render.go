package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/brief"
	"github.com/aretw0/brief/internal/config"
	"github.com/aretw0/brief/internal/presentation/html"
	"github.com/aretw0/brief/internal/presentation/tui"
	"github.com/aretw0/brief/pkg/domain"
)

// Output formats of the render command.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

// RenderOptions configures a one-shot render.
type RenderOptions struct {
	Config *config.Config
	Debug  bool
	Values map[string]any
	// TemplatePath renders this file instead of the stored template.
	TemplatePath string
	Format       string
	Out          io.Writer
}

type renderJSON struct {
	Markdown string         `json:"markdown,omitempty"`
	Context  domain.Context `json:"context,omitempty"`
	Appeared []string       `json:"appeared,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// RunRender renders the template once and writes it in the requested format.
// A template error is printed and also returned.
func RunRender(ctx context.Context, opts RenderOptions) error {
	logger := createLogger(opts.Config, opts.Debug)
	pl, err := OpenPipeline(ctx, opts.Config)
	if err != nil {
		return err
	}
	defer pl.Close()

	p, err := pl.Previewer(logger)
	if err != nil {
		return err
	}

	var res *brief.Result
	if opts.TemplatePath != "" {
		src, err := os.ReadFile(opts.TemplatePath)
		if err != nil {
			return fmt.Errorf("failed to read template: %w", err)
		}
		res = p.Render(ctx, string(src), opts.Values)
	} else {
		if res, err = p.RenderStored(ctx, opts.Values); err != nil {
			return err
		}
	}

	if err := writeResult(opts.Out, opts.Format, res); err != nil {
		return err
	}
	return res.Err
}

func writeResult(w io.Writer, format string, res *brief.Result) error {
	switch format {
	case FormatHTML:
		if res.Err != nil {
			_, err := fmt.Fprintln(w, res.ErrorText)
			return err
		}
		_, err := fmt.Fprint(w, html.Render(res.Tree, domain.NewFingerprintSet(res.AppearedFingerprints()...)))
		return err

	case FormatJSON:
		out := renderJSON{Error: res.ErrorText}
		if res.Err == nil {
			out.Markdown = res.Markup
			out.Context = res.Context
			for _, leaf := range res.Appeared {
				out.Appeared = append(out.Appeared, leaf.PlainText())
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)

	case FormatMarkdown, "":
		return tui.NewPrinter(w).Body(res)
	}
	return fmt.Errorf("unknown format %q", format)
}
