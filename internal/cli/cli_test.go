package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/brief/internal/config"
	"github.com/aretw0/brief/internal/presentation/tui"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValues(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{name: "Empty", want: map[string]any{}},
		{name: "JSON", json: `{"actionable":true,"error_id":"guided"}`, want: map[string]any{"actionable": true, "error_id": "guided"}},
		{name: "Pairs", pairs: []string{"actionable=true", "error_id=guided", "concise=false"}, want: map[string]any{"actionable": true, "error_id": "guided", "concise": false}},
		{name: "Pairs Win", json: `{"actionable":true}`, pairs: []string{"actionable=false"}, want: map[string]any{"actionable": false}},
		{name: "Bad JSON", json: `{`, wantErr: true},
		{name: "Bad Pair", pairs: []string{"actionable"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValues(tt.json, tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func testConfig(t *testing.T, kind string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	cfg.Store.Kind = kind
	cfg.Log.Level = "error"
	cfg.Highlight.Delay = 0
	return cfg
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []string{config.StoreWorkspace, config.StoreFile, config.StoreMemory, config.StoreSQLite} {
		t.Run(kind, func(t *testing.T) {
			store, closeStore, err := OpenStore(ctx, testConfig(t, kind))
			require.NoError(t, err)
			defer closeStore()

			_, err = store.Load(ctx)
			assert.ErrorIs(t, err, domain.ErrTemplateNotFound)

			require.NoError(t, store.Save(ctx, "hello"))
			src, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "hello", strings.TrimSpace(src))
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, _, err := OpenStore(ctx, testConfig(t, "tape"))
		assert.Error(t, err)
	})
}

func TestRunRender_TemplateFile(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	path := filepath.Join(cfg.Dir, "t.md")
	require.NoError(t, os.WriteFile(path, []byte("{{#if actionable}}Do this.{{/if}}"), 0644))

	var out bytes.Buffer
	err := RunRender(context.Background(), RenderOptions{
		Config:       cfg,
		Values:       map[string]any{"actionable": true},
		TemplatePath: path,
		Format:       FormatJSON,
		Out:          &out,
	})
	require.NoError(t, err)

	var got renderJSON
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Contains(t, got.Markdown, "Do this.")
	assert.Equal(t, true, got.Context["actionable"])
	assert.Empty(t, got.Error)
}

func TestRunRender_TemplateError(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	path := filepath.Join(cfg.Dir, "t.md")
	require.NoError(t, os.WriteFile(path, []byte("{{#if actionable}}never closed"), 0644))

	var out bytes.Buffer
	err := RunRender(context.Background(), RenderOptions{
		Config:       cfg,
		TemplatePath: path,
		Format:       FormatMarkdown,
		Out:          &out,
	})
	assert.Error(t, err)
	assert.NotEmpty(t, out.String())
}

func TestRunRender_UnknownFormat(t *testing.T) {
	cfg := testConfig(t, config.StoreFile)
	require.NoError(t, RunTemplateSet(context.Background(), cfg, "-", strings.NewReader("x")))

	err := RunRender(context.Background(), RenderOptions{Config: cfg, Format: "pdf", Out: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestInitAndRender(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.StoreWorkspace)

	var out bytes.Buffer
	require.NoError(t, RunInit(ctx, cfg.Dir, &out))
	assert.Contains(t, out.String(), "Workspace created")
	assert.Error(t, RunInit(ctx, cfg.Dir, &out), "init must not overwrite a template")

	out.Reset()
	err := RunRender(ctx, RenderOptions{
		Config: cfg,
		Values: map[string]any{"actionable": true, "granular": true},
		Format: FormatHTML,
		Out:    &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "input()")

	out.Reset()
	require.NoError(t, RunProperties(ctx, cfg, &out, false))
	assert.Contains(t, out.String(), "error_id")
}

func TestTemplateGetSet(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.StoreFile)

	var out bytes.Buffer
	assert.ErrorIs(t, RunTemplateGet(ctx, cfg, &out), domain.ErrTemplateNotFound)

	path := filepath.Join(cfg.Dir, "feedback.md")
	require.NoError(t, os.WriteFile(path, []byte("{{#if concise}}Short.{{/if}}"), 0644))
	require.NoError(t, RunTemplateSet(ctx, cfg, path, nil))

	require.NoError(t, RunTemplateGet(ctx, cfg, &out))
	assert.Equal(t, "{{#if concise}}Short.{{/if}}", out.String())
}

func TestRunProperties_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunProperties(context.Background(), testConfig(t, config.StoreMemory), &out, true))

	var defs []domain.PropertyDefinition
	require.NoError(t, json.Unmarshal(out.Bytes(), &defs))
	assert.NotEmpty(t, defs)
}

type scriptedDriver struct {
	answers []int
}

func (d *scriptedDriver) Select(ctx context.Context, cfg tui.SelectConfig) (int, error) {
	if len(d.answers) == 0 {
		return len(cfg.Options) - 1, nil
	}
	next := d.answers[0]
	d.answers = d.answers[1:]
	return next, nil
}

func TestRunEdit(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.StoreFile)
	require.NoError(t, RunTemplateSet(ctx, cfg, "-", strings.NewReader("{{#if actionable}}Do this.{{/if}}")))

	var out bytes.Buffer
	err := RunEdit(ctx, EditOptions{
		Config: cfg,
		Out:    &out,
		Driver: &scriptedDriver{},
		Quiet:  true,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `values: {`)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.NoError(t, handleExecutionError(tui.ErrAborted))
	assert.Error(t, handleExecutionError(assert.AnError))
}

func TestRunValidate(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.StoreFile)
	path := filepath.Join(cfg.Dir, "t.md")

	require.NoError(t, os.WriteFile(path, []byte("{{#if actionable}}ok{{/if}}"), 0644))
	var out bytes.Buffer
	require.NoError(t, RunValidate(ctx, cfg, path, &out))
	assert.Contains(t, out.String(), "template is valid")

	require.NoError(t, os.WriteFile(path, []byte("{{#if actionabel}}ok{{/if}}"), 0644))
	err := RunValidate(ctx, cfg, path, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actionabel")
}

func TestRunGraph(t *testing.T) {
	var out bytes.Buffer
	cfg := testConfig(t, config.StoreMemory)
	require.NoError(t, RunGraph(context.Background(), cfg, &out, map[string]any{"actionable": false}))
	assert.Contains(t, out.String(), "actionable --> granular")
	assert.Contains(t, out.String(), "class granular disabled;")
}

func TestOpenStore_Encrypted(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.StoreFile)
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

	require.NoError(t, RunTemplateSet(ctx, cfg, "-", strings.NewReader("{{#if concise}}secret{{/if}}")))

	var out bytes.Buffer
	require.NoError(t, RunTemplateGet(ctx, cfg, &out))
	assert.Equal(t, "{{#if concise}}secret{{/if}}", out.String())

	plain := *cfg
	plain.Store.EncryptionKey = ""
	raw, closeStore, err := OpenStore(ctx, &plain)
	require.NoError(t, err)
	defer closeStore()
	stored, err := raw.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, stored, "secret")
}
