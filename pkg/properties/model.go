// Package properties declares the switches and choices that feedback wording branches on.
//
// A Model is built once from an ordered schema and never changes afterwards; reloading a
// schema means constructing a new Model. Dependencies between properties only decide
// whether a property may be edited. They never reset or mask a stored value, so a
// property keeps influencing rendered output while its control is disabled.
package properties

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/brief/pkg/domain"
)

// Model is an immutable, ordered set of property definitions.
type Model struct {
	defs  []domain.PropertyDefinition
	index map[string]int
}

// New validates the definitions and builds a Model preserving their order.
func New(defs ...domain.PropertyDefinition) (*Model, error) {
	m := &Model{
		defs:  make([]domain.PropertyDefinition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}

	for _, def := range defs {
		def, err := normalize(def)
		if err != nil {
			return nil, err
		}
		if _, dup := m.index[def.ID]; dup {
			return nil, &domain.ValidationError{PropertyID: def.ID, Reason: "duplicate id"}
		}
		m.index[def.ID] = len(m.defs)
		m.defs = append(m.defs, def)
	}

	for _, def := range m.defs {
		for _, dep := range def.Dependencies {
			if _, ok := m.index[dep]; !ok {
				return nil, &domain.ValidationError{
					PropertyID: def.ID,
					Reason:     fmt.Sprintf("dependency '%s' is not declared", dep),
					Err:        domain.ErrUnknownProperty,
				}
			}
		}
	}

	if err := m.checkCycles(); err != nil {
		return nil, err
	}
	return m, nil
}

func normalize(def domain.PropertyDefinition) (domain.PropertyDefinition, error) {
	def.ID = strings.TrimSpace(def.ID)
	if def.ID == "" {
		return def, &domain.ValidationError{Reason: "property id cannot be empty"}
	}
	if def.DisplayName == "" {
		def.DisplayName = Prettify(def.ID)
	}

	switch def.Kind {
	case "":
		if len(def.Values) > 0 {
			def.Kind = domain.KindEnumeration
		} else {
			def.Kind = domain.KindBoolean
		}
	case domain.KindBoolean:
		if len(def.Values) > 0 {
			return def, &domain.ValidationError{PropertyID: def.ID, Reason: "boolean property cannot declare values"}
		}
	case domain.KindEnumeration:
		if len(def.Values) == 0 {
			return def, &domain.ValidationError{PropertyID: def.ID, Reason: "enumeration requires at least one value"}
		}
	default:
		return def, &domain.ValidationError{PropertyID: def.ID, Reason: fmt.Sprintf("unknown kind '%s'", def.Kind)}
	}

	def.Values = slices.Clone(def.Values)
	def.Dependencies = slices.Clone(def.Dependencies)
	return def, nil
}

// checkCycles walks the dependency graph depth-first.
func (m *Model) checkCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(m.defs))

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch state[id] {
		case visiting:
			return &domain.ValidationError{
				PropertyID: id,
				Reason:     "dependency cycle: " + strings.Join(slices.Concat(path, []string{id}), " -> "),
				Err:        domain.ErrDependencyCycle,
			}
		case done:
			return nil
		}
		state[id] = visiting
		for _, dep := range m.defs[m.index[id]].Dependencies {
			if err := visit(dep, slices.Concat(path, []string{id})); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for _, def := range m.defs {
		if err := visit(def.ID, nil); err != nil {
			return err
		}
	}
	return nil
}

// List returns the definitions in display order.
func (m *Model) List() []domain.PropertyDefinition {
	out := make([]domain.PropertyDefinition, len(m.defs))
	copy(out, m.defs)
	return out
}

// Get returns the definition of a property.
func (m *Model) Get(id string) (domain.PropertyDefinition, bool) {
	i, ok := m.index[id]
	if !ok {
		return domain.PropertyDefinition{}, false
	}
	return m.defs[i], true
}

// DefaultContext assigns true to every boolean and the first declared value to every enumeration.
func (m *Model) DefaultContext() domain.Context {
	ctx := make(domain.Context, len(m.defs))
	for _, def := range m.defs {
		ctx[def.ID] = def.Default()
	}
	return ctx
}

// IsEnabled reports whether the property may be edited: false iff any dependency is falsy in ctx.
// Unknown ids are never enabled.
func (m *Model) IsEnabled(ctx domain.Context, id string) bool {
	def, ok := m.Get(id)
	if !ok {
		return false
	}
	for _, dep := range def.Dependencies {
		v, _ := ctx.Lookup(dep)
		if !domain.Truthy(v) {
			return false
		}
	}
	return true
}

// Set returns a copy of ctx with the property set to value.
// It rejects values of the wrong kind and edits of disabled properties.
func (m *Model) Set(ctx domain.Context, id string, value any) (domain.Context, error) {
	def, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProperty, id)
	}
	if !m.IsEnabled(ctx, id) {
		return nil, fmt.Errorf("%w: %s depends on %s", domain.ErrPropertyDisabled, id, strings.Join(def.Dependencies, ", "))
	}
	if err := checkValue(def, value); err != nil {
		return nil, err
	}
	next := ctx.Clone()
	next[id] = value
	return next, nil
}

// Toggle flips a boolean property.
func (m *Model) Toggle(ctx domain.Context, id string) (domain.Context, error) {
	def, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProperty, id)
	}
	if def.IsEnumeration() {
		return nil, fmt.Errorf("cannot toggle enumeration property '%s'", id)
	}
	current, _ := ctx.Lookup(id)
	return m.Set(ctx, id, !domain.Truthy(current))
}

// Apply overlays stored values onto the default context.
// Values are checked against their definitions but never gated by dependencies;
// unknown keys are kept so templates may reference ad-hoc properties.
func (m *Model) Apply(overrides map[string]any) (domain.Context, error) {
	ctx := m.DefaultContext()
	for id, value := range overrides {
		if def, ok := m.Get(id); ok {
			if err := checkValue(def, value); err != nil {
				return nil, err
			}
		}
		ctx[id] = value
	}
	return ctx, nil
}

func checkValue(def domain.PropertyDefinition, value any) error {
	if def.IsEnumeration() {
		s, ok := value.(string)
		if !ok || !slices.Contains(def.Values, s) {
			return &domain.ValidationError{
				PropertyID: def.ID,
				Reason:     fmt.Sprintf("value %v is not one of %v", value, def.Values),
			}
		}
		return nil
	}
	if _, ok := value.(bool); !ok {
		return &domain.ValidationError{
			PropertyID: def.ID,
			Reason:     fmt.Sprintf("expected a boolean, got %T", value),
		}
	}
	return nil
}

// Prettify derives a display name from an id: the first letter upper-cased, underscores as spaces.
func Prettify(id string) string {
	if id == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(id)
	return string(unicode.ToUpper(r)) + strings.ReplaceAll(id[size:], "_", " ")
}
