package brief

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/brief/internal/highlight"
	"github.com/aretw0/brief/internal/logging"
	"github.com/aretw0/brief/internal/markup"
	"github.com/aretw0/brief/internal/template"
	loamAdapter "github.com/aretw0/brief/pkg/adapters/loam"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/ports"
	"github.com/aretw0/brief/pkg/properties"
)

// Previewer is the high-level entry point of the library.
// It runs the render pipeline (compile, evaluate, format, reconcile) and remembers
// what the previous successful render displayed so new content can be flashed.
type Previewer struct {
	model       *properties.Model
	registry    *template.Registry
	engine      *template.Engine
	formatter   ports.Formatter
	reconciler  *highlight.Reconciler
	highlighter *highlight.Highlighter
	store       ports.TemplateStore

	surface   ports.Surface
	scheduler highlight.Scheduler
	delay     time.Duration
	strict    bool
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	Name      string

	mu       sync.Mutex
	compiled *template.Template
	last     domain.Context
}

// Option defines a functional option for configuring the Previewer.
type Option func(*Previewer)

// WithProperties sets the property model. Defaults to the bundled feedback schema.
func WithProperties(model *properties.Model) Option {
	return func(p *Previewer) {
		p.model = model
	}
}

// WithRegistry sets the predicates and partials available to templates.
func WithRegistry(reg *template.Registry) Option {
	return func(p *Previewer) {
		p.registry = reg
	}
}

// WithFormatter replaces the goldmark markdown formatter.
func WithFormatter(f ports.Formatter) Option {
	return func(p *Previewer) {
		p.formatter = f
	}
}

// WithSurface enables highlighting: appeared leaves are marked on the surface and cleared after domain.HighlightDelay.
func WithSurface(s ports.Surface) Option {
	return func(p *Previewer) {
		p.surface = s
	}
}

// WithScheduler replaces the timer used to clear highlights.
func WithScheduler(s highlight.Scheduler) Option {
	return func(p *Previewer) {
		p.scheduler = s
	}
}

// WithHighlightDelay changes how long appeared leaves stay marked.
func WithHighlightDelay(d time.Duration) Option {
	return func(p *Previewer) {
		p.delay = d
	}
}

// WithStore attaches the store RenderStored reads the template source from.
func WithStore(store ports.TemplateStore) Option {
	return func(p *Previewer) {
		p.store = store
	}
}

// WithStrict turns lookups of properties missing from the context into render errors.
func WithStrict(strict bool) Option {
	return func(p *Previewer) {
		p.strict = strict
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Previewer) {
		p.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Previewer) {
		p.logger = logger
	}
}

// New initializes a Previewer. Without options it renders against the bundled
// property schema with the built-in predicates and no partials.
func New(opts ...Option) (*Previewer, error) {
	p := &Previewer{}
	for _, opt := range opts {
		opt(p)
	}

	if p.model == nil {
		p.model = properties.Default()
	}
	if p.registry == nil {
		reg, err := template.NewRegistry()
		if err != nil {
			return nil, err
		}
		p.registry = reg
	}
	if p.formatter == nil {
		p.formatter = markup.NewRenderer()
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if p.Name != "" {
		p.logger = p.logger.With("workspace", p.Name)
	}

	p.engine = template.NewEngine(p.registry,
		template.WithStrict(p.strict),
		template.WithLogger(p.logger),
	)
	p.reconciler = highlight.NewReconciler()

	if p.surface != nil {
		hlOpts := []highlight.Option{
			highlight.WithHooks(p.hooks),
			highlight.WithLogger(p.logger),
		}
		if p.scheduler != nil {
			hlOpts = append(hlOpts, highlight.WithScheduler(p.scheduler))
		}
		if p.delay > 0 {
			hlOpts = append(hlOpts, highlight.WithDelay(p.delay))
		}
		p.highlighter = highlight.NewHighlighter(p.surface, hlOpts...)
	}

	return p, nil
}

// Open initializes a Previewer over a workspace directory: feedback.md holds the
// template (with the property schema in its frontmatter) and partials/*.md the partials.
// The workspace also becomes the template store.
func Open(dir string, opts ...Option) (*Previewer, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	ws, err := loamAdapter.Open(absPath)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	model, err := ws.Properties(ctx)
	if err != nil {
		return nil, err
	}
	partials, err := ws.Partials(ctx)
	if err != nil {
		return nil, err
	}
	reg, err := template.NewRegistry(template.WithPartials(partials))
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithProperties(model),
		WithRegistry(reg),
		WithStore(ws),
		func(p *Previewer) { p.Name = filepath.Base(absPath) },
	}
	return New(append(base, opts...)...)
}

// Result is the outcome of one render pass.
// Exactly one of Tree and Err is set.
type Result struct {
	// Context is the property snapshot the template was evaluated against.
	Context domain.Context
	// Markup is the template output before formatting.
	Markup string
	// Tree is the formatted tree to display in full.
	Tree *domain.Node
	// Appeared lists, in document order, the leaves absent from the previous successful render.
	Appeared []*domain.Node
	Err      error
	// ErrorText is what to display in place of the tree when Err is set.
	ErrorText string
}

// AppearedFingerprints returns the distinct fingerprints of the appeared leaves in document order.
func (r *Result) AppearedFingerprints() []domain.Fingerprint {
	seen := domain.NewFingerprintSet()
	var out []domain.Fingerprint
	for _, l := range r.Appeared {
		fp := highlight.Fingerprint(l)
		if seen.Has(fp) {
			continue
		}
		seen.Add(fp)
		out = append(out, fp)
	}
	return out
}

// Render runs one full pass of the pipeline for source and the given property values.
// Values overlay the property defaults; dependencies never mask them.
// Failures are reported in the result and leave the remembered render untouched.
func (p *Previewer) Render(ctx context.Context, source string, values map[string]any) *Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	res := &Result{}

	snapshot, err := p.model.Apply(values)
	if err != nil {
		return p.fail(ctx, res, start, err)
	}
	res.Context = snapshot

	tmpl, err := p.compile(source)
	if err != nil {
		return p.fail(ctx, res, start, err)
	}

	out, err := p.engine.Render(tmpl, snapshot)
	if err != nil {
		return p.fail(ctx, res, start, err)
	}
	res.Markup = out

	tree, err := p.formatter.Format(out)
	if err != nil {
		return p.fail(ctx, res, start, &domain.RenderError{Kind: domain.RenderFormat, Name: "markdown", Message: err.Error(), Err: err})
	}

	res.Tree, res.Appeared = p.reconciler.Reconcile(tree)
	if p.highlighter != nil {
		p.highlighter.Flash(ctx, res.Appeared)
	}

	changed := domain.ChangedKeys(p.last, snapshot)
	p.last = snapshot

	p.logger.Debug("rendered", "appeared", len(res.Appeared), "changed", changed)
	if p.hooks.OnRender != nil {
		p.hooks.OnRender(ctx, &domain.RenderEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRender},
			Duration:  time.Since(start),
			Changed:   changed,
			Leaves:    len(highlight.CollectLeaves(res.Tree)),
			Appeared:  len(res.Appeared),
		})
	}
	return res
}

// RenderStored renders the template held by the attached store.
// A store without a saved template renders as an empty document.
func (p *Previewer) RenderStored(ctx context.Context, values map[string]any) (*Result, error) {
	if p.store == nil {
		return nil, fmt.Errorf("no template store configured")
	}
	source, err := p.store.Load(ctx)
	if err != nil && !errors.Is(err, domain.ErrTemplateNotFound) {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return p.Render(ctx, source, values), nil
}

func (p *Previewer) compile(source string) (*template.Template, error) {
	if p.compiled != nil && p.compiled.Source() == source {
		return p.compiled, nil
	}
	tmpl, err := p.engine.Compile(source)
	if err != nil {
		return nil, err
	}
	p.compiled = tmpl
	return tmpl, nil
}

func (p *Previewer) fail(ctx context.Context, res *Result, start time.Time, err error) *Result {
	res.Err = err
	res.ErrorText = domain.ErrorPrefix + err.Error()

	p.logger.Debug("render failed", "err", err)
	if p.hooks.OnRenderError != nil {
		p.hooks.OnRenderError(ctx, &domain.RenderEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRenderError},
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	return res
}

// Properties returns the property model values are checked against.
func (p *Previewer) Properties() *properties.Model {
	return p.model
}

// Registry returns the predicates and partials templates can use.
func (p *Previewer) Registry() *template.Registry {
	return p.registry
}

// Store returns the attached template store, or nil.
func (p *Previewer) Store() ports.TemplateStore {
	return p.store
}

// Previous returns the fingerprints of the last successful render.
func (p *Previewer) Previous() domain.FingerprintSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reconciler.Previous()
}

// Reset forgets the previous render, so the next one flags every leaf.
func (p *Previewer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reconciler.Reset()
	p.last = nil
}

// Watch returns a channel that signals when the workspace behind the store changes.
// Returns error if the store does not support watching.
func (p *Previewer) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := p.store.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current store does not support watching")
}
