package brief_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/brief"
	"github.com/aretw0/brief/internal/template"
	"github.com/aretw0/brief/internal/testutils"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePreviewer(t *testing.T, opts ...brief.Option) *brief.Previewer {
	t.Helper()
	reg, err := template.NewRegistry(template.WithPartials(sample.Partials()))
	require.NoError(t, err)

	p, err := brief.New(append([]brief.Option{brief.WithRegistry(reg)}, opts...)...)
	require.NoError(t, err)
	return p
}

func TestRender_Determinism(t *testing.T) {
	p := samplePreviewer(t)
	ctx := context.Background()

	first := p.Render(ctx, sample.Template(), nil)
	require.NoError(t, first.Err)
	assert.NotEmpty(t, first.Appeared, "first render flags everything")

	second := p.Render(ctx, sample.Template(), nil)
	require.NoError(t, second.Err)
	assert.Empty(t, second.Appeared)
	assert.Equal(t, first.Markup, second.Markup)
}

func TestRender_ErrorIsolation(t *testing.T) {
	p := samplePreviewer(t)
	ctx := context.Background()

	ok := p.Render(ctx, "# Title\n\nbody", nil)
	require.NoError(t, ok.Err)
	before := p.Previous()

	bad := p.Render(ctx, "{{#if structured}}\nunterminated", nil)
	var cErr *domain.CompileError
	require.ErrorAs(t, bad.Err, &cErr)
	assert.Nil(t, bad.Tree)
	assert.True(t, strings.HasPrefix(bad.ErrorText, "Error rendering template:\n"))
	assert.Contains(t, bad.ErrorText, "unterminated")
	assert.Equal(t, before, p.Previous(), "a failed render leaves the remembered set untouched")

	again := p.Render(ctx, "# Title\n\nbody", nil)
	require.NoError(t, again.Err)
	assert.Empty(t, again.Appeared, "diffed against the last successful render")
}

func TestRender_RenderErrorIsolation(t *testing.T) {
	p := samplePreviewer(t)
	ctx := context.Background()

	p.Render(ctx, "stable", nil)
	res := p.Render(ctx, "{{#if (xor a b)}}x{{/if}}", nil)

	var rErr *domain.RenderError
	require.ErrorAs(t, res.Err, &rErr)
	assert.Equal(t, domain.RenderUnknownPredicate, rErr.Kind)
	assert.Len(t, p.Previous(), 1)
}

type failingFormatter struct{ err error }

func (f failingFormatter) Format(string) (*domain.Node, error) {
	return nil, f.err
}

func TestRender_FormatError(t *testing.T) {
	cause := errors.New("unbalanced markup")
	p := samplePreviewer(t, brief.WithFormatter(failingFormatter{err: cause}))

	res := p.Render(context.Background(), "# Title", nil)

	var rErr *domain.RenderError
	require.ErrorAs(t, res.Err, &rErr)
	assert.Equal(t, domain.RenderFormat, rErr.Kind)
	assert.ErrorIs(t, res.Err, cause)
	assert.Equal(t, "# Title", res.Markup)
	assert.Nil(t, res.Tree)
	assert.Empty(t, p.Previous())
}

func TestRender_InterpolatedValueIsPlainInTree(t *testing.T) {
	p := samplePreviewer(t)

	res := p.Render(context.Background(), "Hint: {{hint}}", map[string]any{"hint": "it's <b> & more"})
	require.NoError(t, res.Err)
	assert.Equal(t, "Hint: it's <b> & more", res.Tree.PlainText())
}

func TestRender_DependencyIndependence(t *testing.T) {
	p := samplePreviewer(t)
	values := map[string]any{"actionable": false, "granular": true}

	res := p.Render(context.Background(), "{{#if granular}}Try the following steps:{{/if}}", values)
	require.NoError(t, res.Err)
	assert.Equal(t, "Try the following steps:", res.Markup, "a disabled property still applies its stored value")
	assert.False(t, p.Properties().IsEnabled(res.Context, "granular"))
}

func TestRender_EndToEnd(t *testing.T) {
	p := samplePreviewer(t)
	values := map[string]any{"moderated": true, "rationale": false, "structured": true, "concise": true}

	for _, errorID := range []string{"identified", "guided"} {
		t.Run(errorID, func(t *testing.T) {
			values["error_id"] = errorID
			res := p.Render(context.Background(), sample.Template(), values)
			require.NoError(t, res.Err)

			assert.NotContains(t, res.Markup, "really amazing start")
			assert.NotContains(t, res.Markup, "Let's dig into one possible reason why")
			assert.NotContains(t, res.Markup, "The documentation for the")
			assert.Contains(t, res.Markup, "### The Problem")
			assert.Equal(t, domain.NodeHeading, res.Tree.Children[0].Kind)
		})
	}
}

func TestRender_DiffAcrossPropertyChanges(t *testing.T) {
	p := samplePreviewer(t)
	ctx := context.Background()

	p.Render(ctx, sample.Template(), map[string]any{"concise": true})
	res := p.Render(ctx, sample.Template(), map[string]any{"concise": false})
	require.NoError(t, res.Err)

	var appeared []string
	for _, l := range res.Appeared {
		appeared = append(appeared, l.PlainText())
	}
	assert.Contains(t, appeared, "The documentation for the ")
	for _, text := range appeared {
		assert.NotContains(t, text, "Try the following steps", "unchanged content is not flagged")
	}
	assert.NotEmpty(t, res.AppearedFingerprints())
}

func TestRender_InvalidValue(t *testing.T) {
	p := samplePreviewer(t)
	res := p.Render(context.Background(), "x", map[string]any{"error_id": "bogus"})

	var vErr *domain.ValidationError
	require.ErrorAs(t, res.Err, &vErr)
	assert.Equal(t, "error_id", vErr.PropertyID)
}

type surface struct {
	mu     sync.Mutex
	marked map[*domain.Node]int
}

func (s *surface) Mark(n *domain.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked[n]++
}

func (s *surface) Unmark(n *domain.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked[n]--
}

func TestRender_Highlight(t *testing.T) {
	s := &surface{marked: make(map[*domain.Node]int)}
	var pending []func()
	var delays []time.Duration

	p := samplePreviewer(t,
		brief.WithSurface(s),
		brief.WithScheduler(func(d time.Duration, fn func()) {
			delays = append(delays, d)
			pending = append(pending, fn)
		}),
	)

	res := p.Render(context.Background(), "* one\n* two", nil)
	require.NoError(t, res.Err)
	require.Len(t, res.Appeared, 2)
	for _, l := range res.Appeared {
		assert.Equal(t, 1, s.marked[l])
	}
	assert.Equal(t, []time.Duration{domain.HighlightDelay, domain.HighlightDelay}, delays)

	for _, fn := range pending {
		fn()
	}
	for _, l := range res.Appeared {
		assert.Equal(t, 0, s.marked[l])
	}
}

func TestRender_Hooks(t *testing.T) {
	var events []*domain.RenderEvent
	record := func(_ context.Context, e *domain.RenderEvent) { events = append(events, e) }

	p := samplePreviewer(t, brief.WithLifecycleHooks(domain.LifecycleHooks{
		OnRender:      record,
		OnRenderError: record,
	}))
	ctx := context.Background()

	p.Render(ctx, "a\n\nb", nil)
	p.Render(ctx, "a\n\nb", map[string]any{"concise": false})
	p.Render(ctx, "{{/if}}", nil)

	require.Len(t, events, 3)
	assert.Equal(t, domain.EventRender, events[0].Type)
	assert.Equal(t, 2, events[0].Leaves)
	assert.Equal(t, 2, events[0].Appeared)
	assert.Equal(t, []string{"concise"}, events[1].Changed)
	assert.Equal(t, 0, events[1].Appeared)
	assert.Equal(t, domain.EventRenderError, events[2].Type)
	assert.Error(t, events[2].Err)
}

func TestRender_Strict(t *testing.T) {
	p := samplePreviewer(t, brief.WithStrict(true))
	res := p.Render(context.Background(), "{{#if undeclared}}x{{/if}}", nil)

	var rErr *domain.RenderError
	require.ErrorAs(t, res.Err, &rErr)
	assert.Equal(t, domain.RenderUnknownProperty, rErr.Kind)
}

func TestReset(t *testing.T) {
	p := samplePreviewer(t)
	ctx := context.Background()

	p.Render(ctx, "x", nil)
	p.Reset()
	res := p.Render(ctx, "x", nil)
	assert.Len(t, res.Appeared, 1)
}

func TestOpen_Workspace(t *testing.T) {
	dir := testutils.SetupWorkspace(t, testutils.SampleWorkspace())

	p, err := brief.Open(dir)
	require.NoError(t, err)
	require.NotNil(t, p.Store())
	assert.Equal(t, []string{"thecodeis"}, p.Registry().Partials())

	res, err := p.RenderStored(context.Background(), map[string]any{"task_focused": false})
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Contains(t, res.Markup, "Hmm, you are")
}

func TestWatch_NotSupported(t *testing.T) {
	p, err := brief.New()
	require.NoError(t, err)

	_, err = p.Watch(context.Background())
	assert.Error(t, err)

	_, err = p.RenderStored(context.Background(), nil)
	assert.Error(t, err)
}
