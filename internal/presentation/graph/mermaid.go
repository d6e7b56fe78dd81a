package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/properties"
)

// Overlay carries the state of one property context to visualize on the graph.
type Overlay struct {
	// On lists properties whose value is truthy.
	On []string
	// Disabled lists properties that cannot be edited because a dependency is falsy.
	Disabled []string
}

// NewOverlay evaluates ctx against the model.
func NewOverlay(model *properties.Model, ctx domain.Context) *Overlay {
	o := &Overlay{}
	for _, def := range model.List() {
		if v, _ := ctx.Lookup(def.ID); domain.Truthy(v) {
			o.On = append(o.On, def.ID)
		}
		if !model.IsEnabled(ctx, def.ID) {
			o.Disabled = append(o.Disabled, def.ID)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the property dependency graph.
// An edge runs from a dependency to the property it gates.
// Shapes:
// - Enumeration: [/Parallelogram/]
// - Boolean: [Rectangle]
// Edges leaving an enumeration are dotted, since any non-empty choice enables the target.
func GenerateMermaid(defs []domain.PropertyDefinition, overlay *Overlay) string {
	kinds := make(map[string]domain.Kind, len(defs))
	for _, def := range defs {
		kinds[def.ID] = def.Kind
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, def := range defs {
		safeID := sanitizeMermaidID(def.ID)

		opener, closer := "[", "]"
		if def.IsEnumeration() {
			opener, closer = "[/", "/]"
		}

		label := strings.ReplaceAll(def.DisplayName, "\"", "'")
		if label == "" {
			label = def.ID
		}
		if def.IsEnumeration() && len(def.Values) > 0 {
			label = fmt.Sprintf("%s <br/> %s", label, strings.Join(def.Values, " | "))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)
	}

	for _, def := range defs {
		for _, dep := range def.Dependencies {
			arrow := "-->"
			if kinds[dep] == domain.KindEnumeration {
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(dep), arrow, sanitizeMermaidID(def.ID))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef on fill:#fef9c3,stroke:#facc15,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef disabled fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4 2,color:#757575;\n")
		writeClass(&sb, "on", overlay.On)
		writeClass(&sb, "disabled", overlay.Disabled)
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, class string, ids []string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		safeID := sanitizeMermaidID(id)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		fmt.Fprintf(sb, "    class %s %s;\n", safeID, class)
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
