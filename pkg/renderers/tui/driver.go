package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// InputConfig describes a single-line question.
type InputConfig struct {
	Message     string
	Default     string
	Help        string
	Placeholder string
	Validator   func(string) error
}

// ConfirmConfig describes a yes/no question for checkbox fields.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig describes a pick-one question. DefaultIndex below zero means
// no preselected option.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Help         string
	PageSize     int
}

// TextAreaConfig describes a multi-line question.
type TextAreaConfig struct {
	Message string
	Default string
	Help    string
}

// PromptDriver asks the questions a form walk needs. Tests script answers
// through their own implementation.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Password(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	TextArea(ctx context.Context, cfg TextAreaConfig) (string, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver prompts on the process terminal and prints info lines to
// out, or stdout when out is nil.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	return ask[string](ctx, &survey.Input{
		Message: cfg.Message,
		Help:    helpText(cfg.Help, cfg.Placeholder),
		Default: cfg.Default,
	}, validateWith(cfg.Validator)...)
}

func (d *surveyDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	// survey never echoes a password default, so it is not offered.
	return ask[string](ctx, &survey.Password{
		Message: cfg.Message,
		Help:    cfg.Help,
	}, validateWith(cfg.Validator)...)
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	return ask[bool](ctx, &survey.Confirm{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	})
}

// Select answers with the chosen index. survey writes OptionAnswer.Index
// straight into an int destination.
func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	prompt := &survey.Select{
		Message:  cfg.Message,
		Options:  cfg.Options,
		Help:     cfg.Help,
		PageSize: cfg.PageSize,
	}
	if cfg.DefaultIndex >= 0 && cfg.DefaultIndex < len(cfg.Options) {
		prompt.Default = cfg.DefaultIndex
	}
	idx, err := ask[int](ctx, prompt)
	if err != nil {
		return -1, err
	}
	return idx, nil
}

func (d *surveyDriver) TextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	return ask[string](ctx, &survey.Multiline{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	})
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// ask runs one survey prompt. Ctrl+C surfaces as ErrAborted.
func ask[T any](ctx context.Context, prompt survey.Prompt, opts ...survey.AskOpt) (T, error) {
	var answer T
	if err := ctx.Err(); err != nil {
		return answer, err
	}
	err := survey.AskOne(prompt, &answer, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return answer, ErrAborted
	}
	return answer, err
}

// validateWith adapts a string check to survey's untyped validator.
func validateWith(check func(string) error) []survey.AskOpt {
	if check == nil {
		return nil
	}
	return []survey.AskOpt{survey.WithValidator(func(ans any) error {
		text, _ := ans.(string)
		return check(text)
	})}
}

// helpText folds the placeholder into the help line; survey inputs have no
// placeholder of their own.
func helpText(help, placeholder string) string {
	switch {
	case placeholder == "":
		return help
	case help == "":
		return "e.g. " + placeholder
	default:
		return help + " (e.g. " + placeholder + ")"
	}
}
