package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/properties"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("prompt aborted")

// SelectConfig configures a single-choice prompt.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Help         string
}

// PromptDriver abstracts the terminal so property editing can be tested without one.
type PromptDriver interface {
	Select(ctx context.Context, cfg SelectConfig) (int, error)
}

// NewSurveyDriver returns a PromptDriver backed by survey.
func NewSurveyDriver() PromptDriver {
	return surveyDriver{}
}

type surveyDriver struct{}

func (surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var out string
	prompt := &survey.Select{
		Message: cfg.Message,
		Options: cfg.Options,
		Help:    cfg.Help,
	}
	if cfg.DefaultIndex >= 0 && cfg.DefaultIndex < len(cfg.Options) {
		prompt.Default = cfg.Options[cfg.DefaultIndex]
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return 0, ErrAborted
		}
		return 0, err
	}
	for i, option := range cfg.Options {
		if option == out {
			return i, nil
		}
	}
	return -1, nil
}

const doneOption = "Done"

// Editor walks the user through property changes, one edit per prompt.
type Editor struct {
	Driver PromptDriver
	Model  *properties.Model
	// OnChange is called with the new values after every accepted edit.
	OnChange func(ctx context.Context, values domain.Context) error
}

// Run prompts until the user picks Done and returns the final values.
// Properties whose dependencies are unsatisfied are listed but cannot be changed.
func (e *Editor) Run(ctx context.Context, values domain.Context) (domain.Context, error) {
	defs := e.Model.List()
	for {
		options := make([]string, 0, len(defs)+1)
		for _, def := range defs {
			options = append(options, e.label(values, def))
		}
		options = append(options, doneOption)

		idx, err := e.Driver.Select(ctx, SelectConfig{
			Message:      "Property to change",
			Options:      options,
			DefaultIndex: len(options) - 1,
		})
		if err != nil {
			return values, err
		}
		if idx < 0 || idx >= len(defs) {
			return values, nil
		}

		def := defs[idx]
		if !e.Model.IsEnabled(values, def.ID) {
			continue
		}

		next, err := e.edit(ctx, values, def)
		if err != nil {
			return values, err
		}
		values = next
		if e.OnChange != nil {
			if err := e.OnChange(ctx, values); err != nil {
				return values, err
			}
		}
	}
}

func (e *Editor) edit(ctx context.Context, values domain.Context, def domain.PropertyDefinition) (domain.Context, error) {
	if !def.IsEnumeration() {
		return e.Model.Toggle(values, def.ID)
	}

	current := domain.Stringify(values[def.ID])
	defaultIdx := 0
	for i, v := range def.Values {
		if v == current {
			defaultIdx = i
		}
	}
	idx, err := e.Driver.Select(ctx, SelectConfig{
		Message:      def.DisplayName,
		Options:      def.Values,
		DefaultIndex: defaultIdx,
	})
	if err != nil {
		return values, err
	}
	if idx < 0 || idx >= len(def.Values) {
		return values, nil
	}
	return e.Model.Set(values, def.ID, def.Values[idx])
}

func (e *Editor) label(values domain.Context, def domain.PropertyDefinition) string {
	var state string
	if def.IsEnumeration() {
		state = domain.Stringify(values[def.ID])
	} else if domain.Truthy(values[def.ID]) {
		state = "on"
	} else {
		state = "off"
	}
	label := fmt.Sprintf("%s [%s]", def.DisplayName, state)
	if !e.Model.IsEnabled(values, def.ID) {
		label += " (disabled)"
	}
	return label
}
