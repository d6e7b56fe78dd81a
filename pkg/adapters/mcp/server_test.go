package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/brief"
	"github.com/aretw0/brief/pkg/adapters/mcp"
	"github.com/aretw0/brief/pkg/adapters/memory"
	"github.com/aretw0/brief/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, s *mcp.Server, id int, method string, params any) json.RawMessage {
	t.Helper()
	p, err := json.Marshal(params)
	require.NoError(t, err)
	msg := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":%q,"params":%s}`, id, method, p)

	out := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(msg))
	raw, err := json.Marshal(out)
	require.NoError(t, err)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Nil(t, resp.Error, string(raw))
	return resp.Result
}

func newServer(t *testing.T, store *memory.Store) *mcp.Server {
	t.Helper()
	sessions := session.NewManager(func() (*brief.Previewer, error) { return brief.New() })
	s := mcp.NewServer(sessions, mcp.WithStore(store))
	call(t, s, 0, "initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"clientInfo":      map[string]any{"name": "test", "version": "0"},
		"capabilities":    map[string]any{},
	})
	return s
}

type toolResult struct {
	IsError           bool               `json:"isError"`
	StructuredContent mcp.RenderResponse `json:"structuredContent"`
	Content           []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func render(t *testing.T, s *mcp.Server, args map[string]any) toolResult {
	t.Helper()
	raw := call(t, s, 1, "tools/call", map[string]any{"name": "render_feedback", "arguments": args})
	var res toolResult
	require.NoError(t, json.Unmarshal(raw, &res))
	return res
}

func TestRenderFeedback(t *testing.T) {
	s := newServer(t, memory.NewStore())
	source := "{{#if actionable}}Do this.{{/if}}\n\n{{#if concise}}Short.{{/if}}"

	first := render(t, s, map[string]any{"session_id": "s", "source": source})
	require.False(t, first.IsError)
	assert.Equal(t, "s", first.StructuredContent.SessionID)
	assert.Equal(t, []string{"Do this.", "Short."}, first.StructuredContent.Appeared)

	second := render(t, s, map[string]any{"session_id": "s", "source": source, "values": `{"actionable": false}`})
	assert.Empty(t, second.StructuredContent.Appeared)
	assert.Equal(t, "\n\nShort.", second.StructuredContent.Markdown)
}

func TestRenderFeedback_StoredTemplateAndErrors(t *testing.T) {
	s := newServer(t, memory.NewStoreWith("{{#if}}"))

	res := render(t, s, map[string]any{})
	assert.NotEmpty(t, res.StructuredContent.SessionID)
	assert.True(t, strings.HasPrefix(res.StructuredContent.Error, "Error rendering template:"))

	res = render(t, s, map[string]any{"values": "not json"})
	assert.True(t, res.IsError)
}

func TestSaveTemplate(t *testing.T) {
	store := memory.NewStore()
	s := newServer(t, store)

	call(t, s, 2, "tools/call", map[string]any{"name": "save_template", "arguments": map[string]any{"source": "### Saved"}})

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "### Saved", got)

	raw := call(t, s, 3, "resources/read", map[string]any{"uri": "brief://template"})
	assert.Contains(t, string(raw), "### Saved")
}

func TestPropertiesResource(t *testing.T) {
	s := newServer(t, memory.NewStore())
	raw := call(t, s, 4, "resources/read", map[string]any{"uri": "brief://properties"})

	var res struct {
		Contents []struct {
			URI  string `json:"uri"`
			Text string `json:"text"`
		} `json:"contents"`
	}
	require.NoError(t, json.Unmarshal(raw, &res))
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "brief://properties", res.Contents[0].URI)
	assert.Contains(t, res.Contents[0].Text, `"id":"error_id"`)
}
