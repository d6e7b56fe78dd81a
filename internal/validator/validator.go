// Package validator checks a template against the property schema and the registry
// before anyone renders it.
package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/brief/internal/template"
	"github.com/aretw0/brief/pkg/properties"
)

// Issue is a problem found at a position of a template.
type Issue struct {
	Template string
	Ref      template.Reference
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s:%s: %s", i.Template, i.Ref.Pos, i.Message)
}

// ValidateTemplate compiles source and checks every reference it makes, following
// partials. Names undeclared in model, unregistered partials and predicates, and
// comparisons against values an enumeration does not allow are reported together.
func ValidateTemplate(engine *template.Engine, model *properties.Model, source string) error {
	tmpl, err := engine.Compile(source)
	if err != nil {
		return err
	}

	v := &walker{registry: engine.Registry(), model: model, visited: make(map[string]bool)}
	v.check("template", tmpl)

	if len(v.issues) == 0 {
		return nil
	}
	lines := make([]string, len(v.issues))
	for i, issue := range v.issues {
		lines[i] = issue.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(v.issues), strings.Join(lines, "\n- "))
}

type walker struct {
	registry *template.Registry
	model    *properties.Model
	visited  map[string]bool
	issues   []Issue
}

func (v *walker) report(name string, ref template.Reference, format string, args ...any) {
	v.issues = append(v.issues, Issue{Template: name, Ref: ref, Message: fmt.Sprintf(format, args...)})
}

func (v *walker) check(name string, tmpl *template.Template) {
	for _, ref := range tmpl.References() {
		switch ref.Kind {
		case template.RefProperty:
			if _, ok := v.model.Get(ref.Name); !ok {
				v.report(name, ref, "unknown property %q", ref.Name)
			}
		case template.RefPredicate:
			if _, ok := v.registry.Predicate(ref.Name); !ok {
				v.report(name, ref, "unknown predicate %q", ref.Name)
			}
		case template.RefComparison:
			def, ok := v.model.Get(ref.Name)
			if ok && def.IsEnumeration() && !slices.Contains(def.Values, ref.Value) {
				v.report(name, ref, "%q is not a value of %s %v", ref.Value, ref.Name, def.Values)
			}
		case template.RefPartial:
			partial, ok := v.registry.Partial(ref.Name)
			if !ok {
				v.report(name, ref, "unknown partial %q", ref.Name)
				continue
			}
			if !v.visited[ref.Name] {
				v.visited[ref.Name] = true
				v.check("partials/"+ref.Name, partial)
			}
		}
	}
}
