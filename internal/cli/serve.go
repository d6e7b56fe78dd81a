package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/brief"
	httpAdapter "github.com/aretw0/brief/internal/adapters/http"
	"github.com/aretw0/brief/internal/config"
	"github.com/aretw0/brief/pkg/adapters/mcp"
	"github.com/aretw0/brief/pkg/observability"
	"github.com/aretw0/brief/pkg/session"
)

// ServeOptions configures the HTTP server.
type ServeOptions struct {
	Config *config.Config
	Debug  bool
	Out    io.Writer
}

func newSessions(pl *Pipeline, opts ServeOptions, metrics *observability.Metrics) *session.Manager {
	logger := createLogger(opts.Config, opts.Debug)
	var hooks []brief.Option
	if metrics != nil {
		hooks = append(hooks, brief.WithLifecycleHooks(metrics.Hooks(logger)))
	}
	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.WithIdleTTL(opts.Config.Server.SessionIdle),
	}
	if pl.Locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(pl.Locker))
	}
	return session.NewManager(
		func() (*brief.Previewer, error) { return pl.Previewer(logger, hooks...) },
		sessionOpts...,
	)
}

// RunServe serves the HTTP API until ctx is done, then shuts down gracefully.
func RunServe(ctx context.Context, opts ServeOptions) error {
	logger := createLogger(opts.Config, opts.Debug)
	pl, err := OpenPipeline(ctx, opts.Config)
	if err != nil {
		return err
	}
	defer pl.Close()

	metrics := observability.NewMetrics()
	sessions := newSessions(pl, opts, metrics)

	handler, err := httpAdapter.NewHandler(&httpAdapter.Server{
		Sessions: sessions,
		Model:    pl.Model,
		Store:    pl.Store,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    opts.Config.Server.Addr,
		Handler: handler,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(opts.Out, "Starting brief server on %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	prune := time.NewTicker(time.Minute)
	defer prune.Stop()

	for {
		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-prune.C:
			sessions.Prune(ctx)

		case <-ctx.Done():
			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			printSystemMessage(opts.Out, "brief server stopped gracefully")
			return nil
		}
	}
}

func newMCPServer(ctx context.Context, opts ServeOptions) (*mcp.Server, Closer, error) {
	pl, err := OpenPipeline(ctx, opts.Config)
	if err != nil {
		return nil, nil, err
	}
	srv := mcp.NewServer(newSessions(pl, opts, nil),
		mcp.WithStore(pl.Store),
		mcp.WithProperties(pl.Model),
		mcp.WithLogger(createLogger(opts.Config, opts.Debug)),
	)
	return srv, pl.Close, nil
}

// RunMCP serves the MCP protocol on stdin/stdout. Logs go to stderr.
func RunMCP(ctx context.Context, opts ServeOptions) error {
	srv, closePipeline, err := newMCPServer(ctx, opts)
	if err != nil {
		return err
	}
	defer closePipeline()

	createLogger(opts.Config, opts.Debug).Info("Starting brief MCP Server (Stdio)")
	return srv.ServeStdio()
}

// RunMCPSSE serves the MCP protocol over Server-Sent Events on the configured address.
func RunMCPSSE(ctx context.Context, opts ServeOptions) error {
	srv, closePipeline, err := newMCPServer(ctx, opts)
	if err != nil {
		return err
	}
	defer closePipeline()

	err = srv.ServeSSE(ctx, opts.Config.Server.Addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
