package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/brief/internal/config"
	"github.com/aretw0/brief/internal/presentation/graph"
	"github.com/aretw0/brief/internal/presentation/tui"
	"github.com/aretw0/brief/pkg/domain"
)

// EditOptions configures an interactive editing session.
type EditOptions struct {
	Config *config.Config
	Debug  bool
	Values map[string]any
	Out    io.Writer
	// Driver answers the prompts. Defaults to survey on the terminal.
	Driver tui.PromptDriver
	Quiet  bool
}

// RunEdit renders the stored template, then lets the user flip properties one at a
// time, re-rendering after each change and flashing what appeared.
// The final values are printed as JSON so they can be passed back with --values.
func RunEdit(ctx context.Context, opts EditOptions) error {
	logger := createLogger(opts.Config, opts.Debug)
	if opts.Driver == nil {
		opts.Driver = tui.NewSurveyDriver()
	}
	if !opts.Quiet {
		tui.PrintBanner(opts.Out)
	}

	pl, err := OpenPipeline(ctx, opts.Config)
	if err != nil {
		return err
	}
	defer pl.Close()

	p, err := pl.Previewer(logger)
	if err != nil {
		return err
	}
	printer := tui.NewPrinter(opts.Out)

	values, err := p.Properties().Apply(opts.Values)
	if err != nil {
		return err
	}

	show := func(ctx context.Context, values domain.Context) error {
		res, err := p.RenderStored(ctx, values)
		if err != nil {
			return err
		}
		return printer.Print(res)
	}
	if err := show(ctx, values); err != nil {
		return err
	}

	editor := &tui.Editor{
		Driver:   opts.Driver,
		Model:    p.Properties(),
		OnChange: show,
	}
	final, err := editor.Run(ctx, values)
	if err := handleExecutionError(err); err != nil {
		return err
	}

	data, err := json.Marshal(final)
	if err != nil {
		return err
	}
	printSystemMessage(opts.Out, "values: %s", data)
	return nil
}

// RunProperties lists the declared properties with their defaults and dependencies.
func RunProperties(ctx context.Context, cfg *config.Config, out io.Writer, asJSON bool) error {
	pl, err := OpenPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer pl.Close()

	defs := pl.Model.List()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(defs)
	}
	for _, def := range defs {
		line := fmt.Sprintf("%-16s %-36s default=%v", def.ID, def.DisplayName, def.Default())
		if def.IsEnumeration() {
			line += fmt.Sprintf(" values=%v", def.Values)
		}
		if len(def.Dependencies) > 0 {
			line += fmt.Sprintf(" requires=%v", def.Dependencies)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

// RunGraph writes the property dependency graph as a Mermaid flowchart, styled
// with the state of values applied over the defaults.
func RunGraph(ctx context.Context, cfg *config.Config, out io.Writer, values map[string]any) error {
	pl, err := OpenPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer pl.Close()

	current, err := pl.Model.Apply(values)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, graph.GenerateMermaid(pl.Model.List(), graph.NewOverlay(pl.Model, current)))
	return err
}
