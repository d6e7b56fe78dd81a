package template_test

import (
	"testing"

	"github.com/aretw0/brief/internal/template"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/properties"
	"github.com/aretw0/brief/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEngine(t *testing.T) (*template.Engine, *template.Template) {
	t.Helper()
	reg, err := template.NewRegistry(template.WithPartials(sample.Partials()))
	require.NoError(t, err)
	e := template.NewEngine(reg)
	tmpl, err := e.Compile(sample.Template())
	require.NoError(t, err)
	return e, tmpl
}

func TestSample_Defaults(t *testing.T) {
	e, tmpl := sampleEngine(t)
	ctx := properties.Default().DefaultContext()

	out, err := e.Render(tmpl, ctx)
	require.NoError(t, err)

	assert.NotContains(t, out, "really amazing start", "moderated defaults to true")
	assert.Contains(t, out, "Hmm, your code is\n still not passing")
	assert.Contains(t, out, "### The Problem\n")
	assert.Contains(t, out, "Right now, your code is\n not asking the user")
	assert.NotContains(t, out, "How can you get input from the user?")
	assert.Contains(t, out, "Try the following steps:")
	assert.NotContains(t, out, "The documentation for the", "concise defaults to true")
	assert.Contains(t, out, "### Key take-away")
	assert.NotContains(t, out, "{{", "no tag survives rendering")
}

func TestSample_Overrides(t *testing.T) {
	e, tmpl := sampleEngine(t)
	model := properties.Default()

	tests := []struct {
		name      string
		overrides map[string]any
		contains  []string
		omits     []string
	}{
		{
			name:      "Moderated rationale off",
			overrides: map[string]any{"moderated": true, "rationale": false, "structured": true, "concise": true},
			contains:  []string{"### The Problem"},
			omits:     []string{"really amazing start", "Let's dig into one possible reason why", "The documentation for the"},
		},
		{
			name:      "Encouraging and verbose",
			overrides: map[string]any{"moderated": false, "concise": false},
			contains:  []string{"really amazing start", "The documentation for the `input()` function reads:"},
		},
		{
			name:      "Guided without support",
			overrides: map[string]any{"error_id": "guided", "supportive": false},
			contains:  []string{"You are currently failing to follow the instructions."},
			omits:     []string{"Right now,"},
		},
		{
			name:      "No error identification",
			overrides: map[string]any{"error_id": "false", "structured": true},
			contains:  []string{"### The Problem"},
			omits:     []string{"Right now,", "Remember, the instructions"},
		},
		{
			name:      "Unstructured",
			overrides: map[string]any{"structured": false},
			omits:     []string{"###"},
		},
		{
			name:      "Granular is gated by its enclosing actionable block",
			overrides: map[string]any{"actionable": false, "granular": true},
			omits:     []string{"Try the following steps:", "Try using the `input()` function"},
		},
		{
			name:      "Partial follows task focus",
			overrides: map[string]any{"task_focused": false},
			contains:  []string{"Hmm, you are\n still not passing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := model.Apply(tt.overrides)
			require.NoError(t, err)

			out, err := e.Render(tmpl, ctx)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.omits {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestSample_Deterministic(t *testing.T) {
	e, tmpl := sampleEngine(t)
	ctx := domain.Context(properties.Default().DefaultContext())

	first, err := e.Render(tmpl, ctx)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Render(tmpl, ctx.Clone())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
