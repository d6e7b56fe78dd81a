// Package template implements the conditional template dialect feedback text is written in.
//
// The dialect is a small Handlebars subset: {{#if}} and {{#unless}} blocks with {{else}}
// and {{else if}} branches, the eq and or predicates, partials ({{> name}}), value
// interpolation and comments. Everything outside tags, including markdown syntax, passes
// through untouched. Branches that are not taken are never evaluated, so a template may
// reference properties missing from the context as long as the reference is gated.
package template

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/aretw0/brief/internal/logging"
	"github.com/aretw0/brief/pkg/domain"
)

// ErrNilTemplate is returned when Render is given no compiled template.
var ErrNilTemplate = errors.New("template: nil template")

// maxPartialDepth bounds partial nesting so self-including partials fail instead of looping.
const maxPartialDepth = 32

// Template is a compiled template. It is immutable and safe to render concurrently.
type Template struct {
	source string
	root   []node
}

// Source returns the source string the template was compiled from.
func (t *Template) Source() string {
	return t.source
}

func compile(source string) (*Template, error) {
	root, err := parse(source)
	if err != nil {
		return nil, err
	}
	return &Template{source: source, root: root}, nil
}

// Engine compiles and renders templates against a fixed registry.
type Engine struct {
	registry *Registry
	strict   bool
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrict makes lookups of properties missing from the context a RenderError.
// Lookups inside branches that are not taken are never performed.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine. A nil registry means the built-in predicates only.
func NewEngine(registry *Registry, opts ...Option) *Engine {
	if registry == nil {
		registry, _ = NewRegistry()
	}
	e := &Engine{
		registry: registry,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine was built with.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Compile parses source into a reusable template.
// Malformed block structure yields a *domain.CompileError and no template.
func (e *Engine) Compile(source string) (*Template, error) {
	tmpl, err := compile(source)
	if err != nil {
		e.logger.Debug("template compilation failed", "err", err)
		return nil, err
	}
	return tmpl, nil
}

// Render evaluates a compiled template against a context snapshot.
// Unknown predicates or partials and wrong predicate arity yield a *domain.RenderError.
func (e *Engine) Render(tmpl *Template, ctx domain.Context) (string, error) {
	if tmpl == nil {
		return "", ErrNilTemplate
	}
	st := &evalState{
		engine: e,
		ctx:    ctx,
	}
	if err := st.walk(tmpl.root); err != nil {
		return "", err
	}
	return st.out.String(), nil
}

// Execute compiles and renders in one step.
func (e *Engine) Execute(source string, ctx domain.Context) (string, error) {
	tmpl, err := e.Compile(source)
	if err != nil {
		return "", err
	}
	return e.Render(tmpl, ctx)
}

type evalState struct {
	engine *Engine
	ctx    domain.Context
	depth  int
	out    strings.Builder
}
