package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	cases := []struct {
		value any
		want  bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{"", false},
		{"false", true},
		{0, false},
		{1, true},
		{0.0, false},
		{int64(3), true},
		{[]any{}, false},
		{[]string{"a"}, true},
		{map[string]any{}, false},
		{struct{}{}, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Truthy(c.value), "Truthy(%#v)", c.value)
	}
}

func TestPropertyDefinition_Default(t *testing.T) {
	assert.Equal(t, true, PropertyDefinition{ID: "concise", Kind: KindBoolean}.Default())
	assert.Equal(t, "identified", PropertyDefinition{
		ID:     "error_id",
		Kind:   KindEnumeration,
		Values: []string{"identified", "guided", "false"},
	}.Default())
}

func TestContext_Clone(t *testing.T) {
	orig := Context{"concise": true}
	clone := orig.Clone()
	clone["concise"] = false

	assert.Equal(t, true, orig["concise"], "clone must not alias the original")
}

func TestNode_WalkAndContent(t *testing.T) {
	tree := (&Node{Kind: NodeDocument}).Append(
		(&Node{Kind: NodeParagraph, Tag: "p"}).Append(
			&Node{Kind: NodeText, Tag: "#text", Text: "Use "},
			&Node{Kind: NodeCodeSpan, Tag: "code", Text: "input()"},
		),
		&Node{Kind: NodeImage, Tag: "img", Attrs: map[string]string{"src": "a.png", "alt": "A"}},
	)

	var kinds []NodeKind
	tree.Walk(func(n *Node) bool {
		kinds = append(kinds, n.Kind)
		return true
	})
	assert.Equal(t, []NodeKind{NodeDocument, NodeParagraph, NodeText, NodeCodeSpan, NodeImage}, kinds)
	assert.Equal(t, "Use input()", tree.PlainText())
	assert.Equal(t, " alt=A src=a.png", tree.Children[1].Content())
	assert.True(t, tree.Children[0].Children[1].IsInline())
	assert.False(t, tree.Children[0].IsInline())
}

func TestFingerprintSet(t *testing.T) {
	s := NewFingerprintSet(3, 1, 3, 2)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has(1))
	assert.False(t, s.Has(4))
	assert.Equal(t, []Fingerprint{1, 2, 3}, s.Sorted())

	clone := s.Clone()
	clone.Add(4)
	assert.False(t, s.Has(4))

	fp, err := ParseFingerprint(Fingerprint(0xbeef).String())
	assert.NoError(t, err)
	assert.Equal(t, Fingerprint(0xbeef), fp)
}
