package cli

import (
	"context"
	"io"

	"github.com/aretw0/brief"
	"github.com/aretw0/brief/internal/config"
	"github.com/aretw0/brief/internal/presentation/tui"
)

// WatchOptions configures hot-reload mode.
type WatchOptions struct {
	Config *config.Config
	Debug  bool
	Values map[string]any
	Out    io.Writer
	Quiet  bool
}

// RunWatch re-renders the stored template every time the store reports a change,
// announcing the content that appeared on the terminal surface.
// It returns when ctx is done.
func RunWatch(ctx context.Context, opts WatchOptions) error {
	logger := createLogger(opts.Config, opts.Debug)
	if !opts.Quiet {
		tui.PrintBanner(opts.Out)
	}

	pl, err := OpenPipeline(ctx, opts.Config)
	if err != nil {
		return err
	}
	defer pl.Close()

	p, err := pl.Previewer(logger, brief.WithSurface(tui.NewSurface(opts.Out)))
	if err != nil {
		return err
	}
	printer := tui.NewPrinter(opts.Out)

	changes, err := p.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("Starting Watcher", "dir", opts.Config.Dir, "store", opts.Config.Store.Kind)

	render := func() error {
		res, err := p.RenderStored(ctx, opts.Values)
		if err != nil {
			return err
		}
		if res.Err != nil {
			logger.Debug("render failed, keeping previous display", "err", res.Err)
		}
		return printer.Body(res)
	}

	if err := render(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return handleExecutionError(ctx.Err())
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Info("Change detected, re-rendering")
			if !opts.Quiet {
				printSystemMessage(opts.Out, "template changed")
			}
			if err := render(); err != nil {
				return err
			}
		}
	}
}
