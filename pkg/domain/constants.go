package domain

import "time"

const (
	// TemplateKey is the fixed identifier under which the template source is persisted.
	TemplateKey = "template"

	// HighlightDelay is how long a newly appeared leaf stays marked.
	HighlightDelay = 500 * time.Millisecond

	// ErrorPrefix precedes the error text displayed in place of a failed render.
	ErrorPrefix = "Error rendering template:\n"
)
