package loam_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/brief/internal/testutils"
	loamAdapter "github.com/aretw0/brief/pkg/adapters/loam"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/ports"
	"github.com/aretw0/brief/pkg/properties"
	"github.com/aretw0/brief/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace_Contract(t *testing.T) {
	dir := testutils.SetupWorkspace(t, nil)
	ws, err := loamAdapter.Open(dir)
	require.NoError(t, err)

	ports.RunTemplateStoreContract(t, ws)
}

func TestWorkspace_SampleLayout(t *testing.T) {
	dir := testutils.SetupWorkspace(t, testutils.SampleWorkspace())
	ws, err := loamAdapter.Open(dir)
	require.NoError(t, err)
	ctx := context.Background()

	source, err := ws.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(sample.Template()), strings.TrimSpace(source))

	partials, err := ws.Partials(ctx)
	require.NoError(t, err)
	require.Contains(t, partials, "thecodeis")
	assert.Equal(t, strings.TrimSpace(sample.Partials()["thecodeis"]), strings.TrimSpace(partials["thecodeis"]))

	model, err := ws.Properties(ctx)
	require.NoError(t, err)
	assert.Equal(t, properties.Default().List(), model.List(), "no frontmatter schema falls back to the bundled one")
}

func TestWorkspace_FrontmatterProperties(t *testing.T) {
	dir := testutils.SetupWorkspace(t, map[string]string{
		"feedback.md": `---
title: Loops
properties:
  - id: tone
    values: [warm, neutral]
  - id: hints
  - id: detailed
    dependencies: [hints]
---
{{#if hints}}Try a loop.{{/if}}`,
	})
	ws, err := loamAdapter.Open(dir)
	require.NoError(t, err)

	model, err := ws.Properties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Context{"tone": "warm", "hints": true, "detailed": true}, model.DefaultContext())
	assert.False(t, model.IsEnabled(domain.Context{"hints": false}, "detailed"))
}

func TestWorkspace_SaveKeepsFrontmatter(t *testing.T) {
	dir := testutils.SetupWorkspace(t, map[string]string{
		"feedback.md": "---\nproperties:\n  - id: hints\n---\nold",
	})
	ws, err := loamAdapter.Open(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ws.Save(ctx, "new body"))

	source, err := ws.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new body", strings.TrimSpace(source))

	model, err := ws.Properties(ctx)
	require.NoError(t, err)
	assert.Len(t, model.List(), 1)
}

func TestWorkspace_Seed(t *testing.T) {
	dir := testutils.SetupWorkspace(t, nil)
	ws, err := loamAdapter.Open(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ws.Seed(ctx, sample.Template(), properties.Default().List(), sample.Partials()))

	model, err := ws.Properties(ctx)
	require.NoError(t, err)
	assert.Equal(t, properties.Default().List(), model.List())

	names, err := ws.PartialNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"thecodeis"}, names)
}

func TestWorkspace_Watch(t *testing.T) {
	if testing.Short() {
		t.Skip("filesystem watcher test")
	}
	dir := testutils.SetupWorkspace(t, testutils.SampleWorkspace())
	ws, err := loamAdapter.Open(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := ws.Watch(ctx)
	require.NoError(t, err)

	// give the watcher time to register before touching the disk
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "partials", "thecodeis.md"), []byte("changed"), 0644))

	select {
	case _, ok := <-ch:
		assert.True(t, ok)
	case <-ctx.Done():
		t.Fatal("expected a change signal")
	}
}
