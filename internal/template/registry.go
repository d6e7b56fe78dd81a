package template

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/aretw0/brief/pkg/domain"
)

// Variadic marks a predicate without an upper bound on its arguments.
const Variadic = -1

// Predicate is a function usable inside conditional expressions.
type Predicate struct {
	Name    string
	MinArgs int
	MaxArgs int
	Fn      func(args []any) (any, error)
}

func (p Predicate) accepts(n int) bool {
	return n >= p.MinArgs && (p.MaxArgs == Variadic || n <= p.MaxArgs)
}

func (p Predicate) arity() string {
	switch {
	case p.MaxArgs == Variadic:
		return fmt.Sprintf("at least %d", p.MinArgs)
	case p.MinArgs == p.MaxArgs:
		return fmt.Sprintf("exactly %d", p.MinArgs)
	default:
		return fmt.Sprintf("%d to %d", p.MinArgs, p.MaxArgs)
	}
}

// Registry is an immutable set of predicates and partials supplied to an Engine.
// Several engines with different registries can coexist; nothing is registered globally.
type Registry struct {
	predicates map[string]Predicate
	partials   map[string]*Template
}

type registryConfig struct {
	predicates []Predicate
	partials   map[string]string
}

// RegistryOption configures a Registry under construction.
type RegistryOption func(*registryConfig)

// WithPredicate adds or overrides a predicate.
func WithPredicate(p Predicate) RegistryOption {
	return func(c *registryConfig) {
		c.predicates = append(c.predicates, p)
	}
}

// WithPartial registers a named sub-template.
func WithPartial(name, source string) RegistryOption {
	return func(c *registryConfig) {
		c.partials[name] = source
	}
}

// WithPartials registers several named sub-templates.
func WithPartials(partials map[string]string) RegistryOption {
	return func(c *registryConfig) {
		for name, source := range partials {
			c.partials[name] = source
		}
	}
}

// NewRegistry builds a registry holding the built-in predicates eq and or plus the given options.
// Partials are compiled here; a malformed partial fails construction.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	cfg := &registryConfig{partials: make(map[string]string)}
	for _, opt := range opts {
		opt(cfg)
	}

	r := &Registry{
		predicates: make(map[string]Predicate),
		partials:   make(map[string]*Template, len(cfg.partials)),
	}
	for _, p := range Builtins() {
		r.predicates[p.Name] = p
	}
	for _, p := range cfg.predicates {
		if p.Name == "" || p.Fn == nil {
			return nil, fmt.Errorf("predicate requires a name and a function")
		}
		r.predicates[p.Name] = p
	}
	for name, source := range cfg.partials {
		tmpl, err := compile(source)
		if err != nil {
			return nil, fmt.Errorf("partial '%s': %w", name, err)
		}
		r.partials[name] = tmpl
	}
	return r, nil
}

// Predicate looks up a predicate by name.
func (r *Registry) Predicate(name string) (Predicate, bool) {
	p, ok := r.predicates[name]
	return p, ok
}

// Partial looks up a compiled partial by name.
func (r *Registry) Partial(name string) (*Template, bool) {
	t, ok := r.partials[name]
	return t, ok
}

// Predicates returns the sorted predicate names.
func (r *Registry) Predicates() []string {
	return sortedKeys(r.predicates)
}

// Partials returns the sorted partial names.
func (r *Registry) Partials() []string {
	return sortedKeys(r.partials)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Builtins returns the predicates every registry starts with.
func Builtins() []Predicate {
	return []Predicate{
		{
			Name:    "eq",
			MinArgs: 2,
			MaxArgs: 2,
			Fn: func(args []any) (any, error) {
				return Equal(args[0], args[1]), nil
			},
		},
		{
			Name:    "or",
			MinArgs: 2,
			MaxArgs: Variadic,
			Fn: func(args []any) (any, error) {
				for _, a := range args {
					if domain.Truthy(a) {
						return true, nil
					}
				}
				return false, nil
			},
		},
	}
}

// Equal is strict structural equality: no coercion between strings, booleans and numbers,
// but numbers compare by value regardless of their Go type.
func Equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
