package domain

import (
	"fmt"
	"reflect"
)

// Kind distinguishes boolean switches from enumerated choices.
type Kind string

const (
	KindBoolean     Kind = "boolean"
	KindEnumeration Kind = "enumeration"
)

// PropertyDefinition declares a property that template wording may branch on.
type PropertyDefinition struct {
	ID          string `json:"id" yaml:"id" mapstructure:"id"`
	DisplayName string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Kind        Kind   `json:"kind" yaml:"kind,omitempty" mapstructure:"kind"`
	// Values lists the allowed choices of an enumeration, in display order.
	// The first value is the default.
	Values []string `json:"values,omitempty" yaml:"values,omitempty" mapstructure:"values"`
	// Dependencies gate whether the property may be edited.
	// They never mask the stored value.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty" mapstructure:"dependencies"`
}

// IsEnumeration reports whether the property holds one of a fixed set of values.
func (p PropertyDefinition) IsEnumeration() bool {
	return p.Kind == KindEnumeration
}

// Default returns the value a fresh context assigns to the property.
func (p PropertyDefinition) Default() any {
	if p.IsEnumeration() && len(p.Values) > 0 {
		return p.Values[0]
	}
	return true
}

// Context maps property ids to their current values.
// The template engine treats it as a read-only snapshot per render.
type Context map[string]any

// Clone returns a shallow copy of the context.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Lookup resolves a property id, reporting whether it is present.
func (c Context) Lookup(id string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c[id]
	return v, ok
}

// Truthy reports whether a value selects the positive branch of a conditional.
// false, nil, "", numeric zero and empty collections are falsy; everything else is truthy.
func Truthy(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case float32:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// Stringify renders a context value as template output.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}
