package domain

import (
	"errors"
	"fmt"
)

// ErrTemplateNotFound is returned when no template source has been persisted yet.
var ErrTemplateNotFound = errors.New("template not found")

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownProperty is returned when an operation names a property that is not declared.
var ErrUnknownProperty = errors.New("unknown property")

// ErrPropertyDisabled is returned when editing a property whose dependencies are not satisfied.
var ErrPropertyDisabled = errors.New("property disabled")

// ErrDependencyCycle is returned when property dependencies form a cycle.
var ErrDependencyCycle = errors.New("dependency cycle")

// Position locates a construct in template source. Line and Column are 1-based.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// CompileError reports malformed template structure.
type CompileError struct {
	// Construct names the offending tag, e.g. "{{#if}}" or "{{else}}".
	Construct string
	Pos       Position
	Message   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %s: %s: %s", e.Pos, e.Construct, e.Message)
}

// RenderErrorKind classifies failures raised while evaluating a compiled template.
type RenderErrorKind string

const (
	RenderUnknownPredicate RenderErrorKind = "unknown_predicate"
	RenderUnknownPartial   RenderErrorKind = "unknown_partial"
	RenderArity            RenderErrorKind = "arity"
	RenderUnknownProperty  RenderErrorKind = "unknown_property"
	RenderRecursion        RenderErrorKind = "recursion"
	RenderPredicate        RenderErrorKind = "predicate"
	RenderFormat           RenderErrorKind = "format"
)

// RenderError reports a failure while evaluating a compiled template against a context.
type RenderError struct {
	Kind    RenderErrorKind
	Name    string
	Pos     Position
	Message string
	Err     error
}

func (e *RenderError) Error() string {
	if e.Pos.Line == 0 {
		return fmt.Sprintf("render error: %s %q: %s", e.Kind, e.Name, e.Message)
	}
	return fmt.Sprintf("render error at %s: %s %q: %s", e.Pos, e.Kind, e.Name, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ValidationError reports an invalid property schema.
type ValidationError struct {
	PropertyID string
	Reason     string
	Err        error
}

func (e *ValidationError) Error() string {
	if e.PropertyID == "" {
		return fmt.Sprintf("invalid property schema: %s", e.Reason)
	}
	return fmt.Sprintf("invalid property '%s': %s", e.PropertyID, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
