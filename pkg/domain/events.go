package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRender      EventType = "render"
	EventRenderError EventType = "render_error"
	EventMark        EventType = "mark"
	EventUnmark      EventType = "unmark"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// RenderEvent describes one pass of the render pipeline.
type RenderEvent struct {
	EventBase
	Duration time.Duration `json:"duration"`
	// Changed lists the property ids whose values differ from the previous pass.
	Changed  []string `json:"changed,omitempty"`
	Leaves   int      `json:"leaves"`
	Appeared int      `json:"appeared"`
	Err      error    `json:"-"`
}

// HighlightEvent reports a leaf being marked on, or cleared from, the display surface.
type HighlightEvent struct {
	EventBase
	Fingerprint Fingerprint `json:"fingerprint"`
	Tag         string      `json:"tag"`
}

// LifecycleHooks defines callbacks for pipeline observability.
// OnHighlight may be invoked from a timer goroutine.
type LifecycleHooks struct {
	OnRender      func(context.Context, *RenderEvent)
	OnRenderError func(context.Context, *RenderEvent)
	OnHighlight   func(context.Context, *HighlightEvent)
}
