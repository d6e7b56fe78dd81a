package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/brief/internal/presentation/graph"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/properties"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		defs     []domain.PropertyDefinition
		contains []string
		excludes []string
	}{
		{
			name: "Boolean Shape",
			defs: []domain.PropertyDefinition{
				{ID: "concise", DisplayName: "Concise", Kind: domain.KindBoolean},
			},
			contains: []string{`concise["Concise"]`},
		},
		{
			name: "Enumeration Shape",
			defs: []domain.PropertyDefinition{
				{ID: "error_id", DisplayName: "Error", Kind: domain.KindEnumeration, Values: []string{"identified", "guided"}},
			},
			contains: []string{`error_id[/"Error <br/> identified | guided"/]`},
		},
		{
			name: "Dependency Edges",
			defs: []domain.PropertyDefinition{
				{ID: "error_id", Kind: domain.KindEnumeration, Values: []string{"a"}},
				{ID: "actionable", Kind: domain.KindBoolean},
				{ID: "granular", Kind: domain.KindBoolean, Dependencies: []string{"actionable"}},
				{ID: "supportive", Kind: domain.KindBoolean, Dependencies: []string{"error_id"}},
			},
			contains: []string{
				"actionable --> granular",
				"error_id -.-> supportive",
			},
		},
		{
			name: "Sanitized IDs",
			defs: []domain.PropertyDefinition{
				{ID: "tone.warm-ish", DisplayName: `Say "hi"`, Kind: domain.KindBoolean},
			},
			contains: []string{`tone_warm_ish["Say 'hi'"]`},
		},
		{
			name: "No Overlay",
			defs: []domain.PropertyDefinition{
				{ID: "concise", Kind: domain.KindBoolean},
			},
			excludes: []string{"classDef"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.defs, nil)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	model := properties.Default()
	ctx, err := model.Apply(map[string]any{"actionable": false})
	require.NoError(t, err)

	got := graph.GenerateMermaid(model.List(), graph.NewOverlay(model, ctx))

	assert.Contains(t, got, "classDef on")
	assert.Contains(t, got, "class concise on;")
	assert.NotContains(t, got, "class actionable on;")
	assert.Contains(t, got, "class granular disabled;")
	assert.NotContains(t, got, "class concise disabled;")
}
