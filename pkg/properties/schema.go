package properties

import (
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/sample"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Default returns the model of the reference feedback schema.
func Default() *Model {
	m, err := Parse(sample.PropertiesYAML())
	if err != nil {
		panic(fmt.Sprintf("embedded property schema is invalid: %v", err))
	}
	return m
}

// LoadFile reads a YAML property schema from disk.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read property schema: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a YAML sequence of property records.
func Parse(data []byte) (*Model, error) {
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	defs, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return New(defs...)
}

// Decode converts loosely-typed records (YAML documents, frontmatter) into definitions.
// A single dependency may be given as a plain string; scalar enumeration values are stringified.
func Decode(raw []map[string]any) ([]domain.PropertyDefinition, error) {
	defs := make([]domain.PropertyDefinition, 0, len(raw))
	for i, rec := range raw {
		var def domain.PropertyDefinition
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				scalarToString,
				mapstructure.StringToSliceHookFunc(","),
			),
			ErrorUnused: true,
			Result:      &def,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(rec); err != nil {
			return nil, &domain.ValidationError{
				Reason: fmt.Sprintf("record %d: %v", i, err),
				Err:    err,
			}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// scalarToString keeps `values: [identified, false]` from decoding false as "0".
func scalarToString(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch v := data.(type) {
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	return data, nil
}

// Encode is the inverse of Decode: it produces records suitable for YAML frontmatter.
// Booleans omit their kind since it is inferred from the absence of values.
func Encode(defs []domain.PropertyDefinition) []map[string]any {
	raw := make([]map[string]any, 0, len(defs))
	for _, def := range defs {
		rec := map[string]any{"id": def.ID}
		if def.DisplayName != "" && def.DisplayName != Prettify(def.ID) {
			rec["name"] = def.DisplayName
		}
		if len(def.Values) > 0 {
			rec["values"] = append([]string(nil), def.Values...)
		}
		if len(def.Dependencies) > 0 {
			rec["dependencies"] = append([]string(nil), def.Dependencies...)
		}
		raw = append(raw, rec)
	}
	return raw
}
