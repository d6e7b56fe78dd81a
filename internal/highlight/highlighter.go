package highlight

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/brief/internal/logging"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/ports"
)

// Scheduler runs fn once after d has elapsed.
type Scheduler func(d time.Duration, fn func())

// AfterFunc schedules on the runtime timer.
func AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// Highlighter marks appeared leaves on a surface and clears each mark after a fixed delay.
// Clears are fire-and-forget: a later Flash never cancels or merges earlier ones,
// so a leaf flashed twice within the delay is cleared by the first timer.
type Highlighter struct {
	surface  ports.Surface
	delay    time.Duration
	schedule Scheduler
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option configures a Highlighter.
type Option func(*Highlighter)

func WithDelay(d time.Duration) Option {
	return func(h *Highlighter) {
		h.delay = d
	}
}

// WithScheduler replaces time.AfterFunc, mostly for tests.
func WithScheduler(s Scheduler) Option {
	return func(h *Highlighter) {
		h.schedule = s
	}
}

func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(h *Highlighter) {
		h.hooks = hooks
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Highlighter) {
		h.logger = logger
	}
}

// NewHighlighter creates a highlighter for surface using domain.HighlightDelay.
func NewHighlighter(surface ports.Surface, opts ...Option) *Highlighter {
	h := &Highlighter{
		surface:  surface,
		delay:    domain.HighlightDelay,
		schedule: AfterFunc,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Flash marks every leaf immediately and schedules its un-mark.
func (h *Highlighter) Flash(ctx context.Context, appeared []*domain.Node) {
	if len(appeared) == 0 {
		return
	}
	// timers outlive the request that triggered them
	detached := context.WithoutCancel(ctx)

	for _, leaf := range appeared {
		h.surface.Mark(leaf)
		h.emit(detached, domain.EventMark, leaf)

		h.schedule(h.delay, func() {
			h.surface.Unmark(leaf)
			h.emit(detached, domain.EventUnmark, leaf)
		})
	}
	h.logger.Debug("flashed leaves", "count", len(appeared), "delay", h.delay)
}

func (h *Highlighter) emit(ctx context.Context, typ domain.EventType, leaf *domain.Node) {
	if h.hooks.OnHighlight == nil {
		return
	}
	h.hooks.OnHighlight(ctx, &domain.HighlightEvent{
		EventBase:   domain.EventBase{Timestamp: time.Now(), Type: typ},
		Fingerprint: Fingerprint(leaf),
		Tag:         leaf.Tag,
	})
}
