package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferences(t *testing.T) {
	e := NewEngine(nil)
	tmpl, err := e.Compile(`{{#if (eq error_id "guided")}}{{name}}{{else}}{{> hint}}{{/if}}`)
	require.NoError(t, err)

	var got []string
	for _, ref := range tmpl.References() {
		got = append(got, string(ref.Kind)+":"+ref.Name+":"+ref.Value)
	}
	assert.Equal(t, []string{
		"predicate:eq:",
		"property:error_id:",
		"comparison:error_id:guided",
		"property:name:",
		"partial:hint:",
	}, got)
}
