// Package middleware decorates template stores with cross-cutting behavior.
package middleware

import "github.com/aretw0/brief/pkg/ports"

// Middleware allows wrapping a TemplateStore to add behavior.
type Middleware func(ports.TemplateStore) ports.TemplateStore
