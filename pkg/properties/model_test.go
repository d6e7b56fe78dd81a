package properties_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/properties"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Schema(t *testing.T) {
	m := properties.Default()
	defs := m.List()

	require.Len(t, defs, 16)
	assert.Equal(t, "error_id", defs[0].ID)
	assert.Equal(t, domain.KindEnumeration, defs[0].Kind)
	assert.Equal(t, []string{"identified", "guided", "false"}, defs[0].Values)
	assert.Equal(t, "Error identification", defs[0].DisplayName)

	granular, ok := m.Get("granular")
	require.True(t, ok)
	assert.Equal(t, domain.KindBoolean, granular.Kind)
	assert.Equal(t, "Granular", granular.DisplayName)
	assert.Equal(t, []string{"actionable"}, granular.Dependencies)

	taskFocused, _ := m.Get("task_focused")
	assert.Equal(t, "Task focused", taskFocused.DisplayName)
}

func TestDefaultContext(t *testing.T) {
	ctx := properties.Default().DefaultContext()

	assert.Equal(t, "identified", ctx["error_id"])
	for _, id := range []string{"actionable", "granular", "concise", "moderated", "concept_link"} {
		assert.Equal(t, true, ctx[id], id)
	}
}

func TestIsEnabled(t *testing.T) {
	m := properties.Default()
	ctx := m.DefaultContext()

	assert.True(t, m.IsEnabled(ctx, "granular"))
	assert.True(t, m.IsEnabled(ctx, "actionable"), "no dependencies")

	ctx["actionable"] = false
	assert.False(t, m.IsEnabled(ctx, "granular"))
	assert.Equal(t, true, ctx["granular"], "disabling must not reset the stored value")

	// Enumeration dependency sources are truthy whenever non-empty, including the "false" choice.
	ctx["error_id"] = "false"
	assert.True(t, m.IsEnabled(ctx, "supportive"))
	ctx["error_id"] = ""
	assert.False(t, m.IsEnabled(ctx, "supportive"))

	assert.False(t, m.IsEnabled(ctx, "does_not_exist"))
}

func TestSetAndToggle(t *testing.T) {
	m := properties.Default()
	ctx := m.DefaultContext()

	t.Run("Toggle returns a copy", func(t *testing.T) {
		next, err := m.Toggle(ctx, "concise")
		require.NoError(t, err)
		assert.Equal(t, false, next["concise"])
		assert.Equal(t, true, ctx["concise"])
	})

	t.Run("Enumeration value must be declared", func(t *testing.T) {
		next, err := m.Set(ctx, "error_id", "guided")
		require.NoError(t, err)
		assert.Equal(t, "guided", next["error_id"])

		_, err = m.Set(ctx, "error_id", "bogus")
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("Boolean requires bool", func(t *testing.T) {
		_, err := m.Set(ctx, "concise", "yes")
		assert.Error(t, err)
	})

	t.Run("Disabled property cannot be edited", func(t *testing.T) {
		off, err := m.Toggle(ctx, "actionable")
		require.NoError(t, err)
		_, err = m.Toggle(off, "granular")
		assert.ErrorIs(t, err, domain.ErrPropertyDisabled)
	})

	t.Run("Unknown property", func(t *testing.T) {
		_, err := m.Set(ctx, "nope", true)
		assert.ErrorIs(t, err, domain.ErrUnknownProperty)
	})

	t.Run("Enumeration cannot be toggled", func(t *testing.T) {
		_, err := m.Toggle(ctx, "error_id")
		assert.Error(t, err)
	})
}

func TestApply(t *testing.T) {
	m := properties.Default()

	ctx, err := m.Apply(map[string]any{"actionable": false, "granular": true, "extra": 1})
	require.NoError(t, err)
	assert.Equal(t, false, ctx["actionable"])
	assert.Equal(t, true, ctx["granular"], "stored values of disabled properties are kept")
	assert.Equal(t, 1, ctx["extra"])
	assert.Equal(t, "identified", ctx["error_id"])

	_, err = m.Apply(map[string]any{"error_id": "nope"})
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		defs    []domain.PropertyDefinition
		wantErr error
	}{
		{
			name:    "Unknown dependency",
			defs:    []domain.PropertyDefinition{{ID: "a", Dependencies: []string{"b"}}},
			wantErr: domain.ErrUnknownProperty,
		},
		{
			name: "Cycle",
			defs: []domain.PropertyDefinition{
				{ID: "a", Dependencies: []string{"b"}},
				{ID: "b", Dependencies: []string{"c"}},
				{ID: "c", Dependencies: []string{"a"}},
			},
			wantErr: domain.ErrDependencyCycle,
		},
		{
			name:    "Self dependency",
			defs:    []domain.PropertyDefinition{{ID: "a", Dependencies: []string{"a"}}},
			wantErr: domain.ErrDependencyCycle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := properties.New(tt.defs...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := properties.New(domain.PropertyDefinition{ID: "a"}, domain.PropertyDefinition{ID: "a"})
	assert.ErrorContains(t, err, "duplicate")

	_, err = properties.New(domain.PropertyDefinition{ID: "a", Kind: domain.KindEnumeration})
	assert.ErrorContains(t, err, "at least one value")

	_, err = properties.New(domain.PropertyDefinition{ID: " "})
	assert.Error(t, err)
}

func TestNew_CyclePath(t *testing.T) {
	_, err := properties.New(
		domain.PropertyDefinition{ID: "a", Dependencies: []string{"b"}},
		domain.PropertyDefinition{ID: "b", Dependencies: []string{"c"}},
		domain.PropertyDefinition{ID: "c", Dependencies: []string{"d", "e"}},
		domain.PropertyDefinition{ID: "d", Dependencies: []string{"f"}},
		domain.PropertyDefinition{ID: "e", Dependencies: []string{"a"}},
		domain.PropertyDefinition{ID: "f"},
	)
	require.ErrorIs(t, err, domain.ErrDependencyCycle)
	assert.ErrorContains(t, err, "a -> b -> c -> e -> a")
}

func TestPrettify(t *testing.T) {
	assert.Equal(t, "Not revealing", properties.Prettify("not_revealing"))
	assert.Equal(t, "Identified", properties.Prettify("identified"))
	assert.Equal(t, "", properties.Prettify(""))
}

func TestDecode(t *testing.T) {
	defs, err := properties.Decode([]map[string]any{
		{"id": "error_id", "values": []any{"identified", false}},
		{"id": "granular", "dependencies": "actionable"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"identified", "false"}, defs[0].Values)
	assert.Equal(t, []string{"actionable"}, defs[1].Dependencies)

	_, err = properties.Decode([]map[string]any{{"id": "x", "colour": "red"}})
	assert.Error(t, err, "unknown keys are rejected")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "properties.yaml")
	content := `
- id: actionable
- id: granular
  dependencies: [actionable]
- id: tone
  values: [warm, neutral]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	m, err := properties.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, domain.Context{"actionable": true, "granular": true, "tone": "warm"}, m.DefaultContext())

	_, err = properties.LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestEncode_RoundTrip(t *testing.T) {
	original := properties.Default().List()

	defs, err := properties.Decode(properties.Encode(original))
	require.NoError(t, err)

	m, err := properties.New(defs...)
	require.NoError(t, err)
	assert.Equal(t, original, m.List())
}
