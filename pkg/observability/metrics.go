package observability

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aretw0/brief/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors fed by the lifecycle hooks, on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	Renders        *prometheus.CounterVec
	RenderDuration prometheus.Histogram
	Appeared       prometheus.Counter
	Highlights     *prometheus.CounterVec
	Changed        *prometheus.CounterVec
	Requests       *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brief_renders_total",
				Help: "Total number of render passes by outcome",
			},
			[]string{"outcome"},
		),
		RenderDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "brief_render_duration_seconds",
				Help:    "Duration of render passes",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		Appeared: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "brief_appeared_leaves_total",
				Help: "Total number of leaves flagged as new content",
			},
		),
		Highlights: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brief_highlight_events_total",
				Help: "Total number of leaves marked and unmarked on display surfaces",
			},
			[]string{"type"},
		),
		Changed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brief_property_changes_total",
				Help: "Total number of property value changes between renders",
			},
			[]string{"property"},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brief_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
	m.Registry.MustRegister(m.Renders, m.RenderDuration, m.Appeared, m.Highlights, m.Changed, m.Requests)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
// Events are also logged at debug level when logger is not nil.
func (m *Metrics) Hooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			m.Renders.WithLabelValues("ok").Inc()
			m.RenderDuration.Observe(e.Duration.Seconds())
			m.Appeared.Add(float64(e.Appeared))
			for _, id := range e.Changed {
				m.Changed.WithLabelValues(id).Inc()
			}
			if logger != nil {
				logger.DebugContext(ctx, "render",
					"leaves", e.Leaves,
					"appeared", e.Appeared,
					"changed", e.Changed,
					"duration", e.Duration,
				)
			}
		},
		OnRenderError: func(ctx context.Context, e *domain.RenderEvent) {
			m.Renders.WithLabelValues("error").Inc()
			m.RenderDuration.Observe(e.Duration.Seconds())
			if logger != nil {
				logger.DebugContext(ctx, "render_error", "err", e.Err)
			}
		},
		OnHighlight: func(ctx context.Context, e *domain.HighlightEvent) {
			m.Highlights.WithLabelValues(string(e.Type)).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Chain returns hooks that invoke each of the given hooks in order.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			for _, h := range hooks {
				if h.OnRender != nil {
					h.OnRender(ctx, e)
				}
			}
		},
		OnRenderError: func(ctx context.Context, e *domain.RenderEvent) {
			for _, h := range hooks {
				if h.OnRenderError != nil {
					h.OnRenderError(ctx, e)
				}
			}
		},
		OnHighlight: func(ctx context.Context, e *domain.HighlightEvent) {
			for _, h := range hooks {
				if h.OnHighlight != nil {
					h.OnHighlight(ctx, e)
				}
			}
		},
	}
}
