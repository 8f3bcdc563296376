package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-journey360/pkg/bundle"
	"github.com/goliatone/go-journey360/pkg/input"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/renderers/tui"
)

type generateOptions struct {
	file        string
	mode        string
	preset      string
	project     string
	interactive bool
	asJSON      bool
	outDir      string
	formats     []string
}

func newGenerateCmd(a *app) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate [requirements...]",
		Short: "Generate a form schema, test cases and mock API from requirements",
		Long: `Generate parses requirements into a form schema and derives its test cases
and mock API endpoints. Requirements come from the arguments, --file, an
interactive prompt (-i) or stdin, in that order.

Passing --project regenerates an existing project, replacing its schema,
tests and endpoints together.`,
		Example: `  journey360 generate "Create a contact form with name, email and message"
  journey360 generate --file story.md --out ./dist --format json,yaml
  journey360 generate --project 6f1c... --preset presets/contact.json -i`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), a, opts, args)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "read requirements from a text, markdown or document file")
	flags.StringVar(&opts.mode, "mode", "", "capture mode recorded with the project: text, upload or speech")
	flags.StringVar(&opts.preset, "preset", "", "JSON preset applied to the generated schema")
	flags.StringVarP(&opts.project, "project", "p", "", "regenerate an existing project")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "prompt for requirements")
	flags.BoolVar(&opts.asJSON, "json", false, "print the full result as JSON")
	flags.StringVarP(&opts.outDir, "out", "o", "", "write a deployment bundle into this directory")
	flags.StringSliceVar(&opts.formats, "format", []string{"json"}, "bundle formats written with --out: json, yaml")
	return cmd
}

func runGenerate(ctx context.Context, a *app, opts *generateOptions, args []string) error {
	req, err := readRequirements(ctx, a, opts, args)
	if err != nil {
		return err
	}

	var extra []orchestrator.Option
	if opts.preset != "" {
		preset, err := orchestrator.NewJSONPresetTransformerFromFS(os.DirFS(filepath.Dir(opts.preset)), filepath.Base(opts.preset))
		if err != nil {
			return err
		}
		extra = append(extra, orchestrator.WithSchemaTransformer(preset))
	}
	orch, err := a.orchestrator(ctx, false, extra...)
	if err != nil {
		return err
	}

	result, err := orch.Generate(ctx, orchestrator.Request{
		Requirements: req.Text,
		Mode:         req.Mode,
		ProjectID:    opts.project,
	})
	if err != nil {
		return err
	}

	if opts.outDir != "" {
		if err := writeBundles(ctx, a, result, opts.outDir, opts.formats); err != nil {
			return err
		}
	}
	if opts.asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printSummary(a.out, result)
	return nil
}

func readRequirements(ctx context.Context, a *app, opts *generateOptions, args []string) (input.Requirement, error) {
	mode, err := input.ParseMode(opts.mode)
	if err != nil {
		return input.Requirement{}, err
	}

	var req input.Requirement
	switch {
	case len(args) > 0:
		req, err = fromText(strings.Join(args, " "), mode)
	case opts.file != "":
		req, err = input.FromFile(opts.file)
	case opts.interactive:
		var text string
		text, err = a.prompter().TextArea(ctx, tui.TextAreaConfig{
			Message: "Describe the form you need",
			Help:    "A user story works well: who fills it in, what they provide, and what happens next.",
		})
		if err == nil {
			req, err = fromText(text, mode)
		}
	default:
		var data []byte
		data, err = io.ReadAll(io.LimitReader(a.in, input.MaxUploadBytes+1))
		if err == nil {
			if len(data) > input.MaxUploadBytes {
				return input.Requirement{}, input.ErrTooLarge
			}
			req, err = fromText(string(data), mode)
		}
	}
	if err != nil {
		if errors.Is(err, input.ErrBlank) {
			return input.Requirement{}, fmt.Errorf("%w: pass requirements as arguments, --file, -i or stdin", err)
		}
		return input.Requirement{}, err
	}
	if opts.mode != "" {
		req.Mode = mode
	}
	return req, nil
}

func fromText(text string, mode input.Mode) (input.Requirement, error) {
	if mode == input.ModeSpeech {
		return input.FromTranscript(text)
	}
	return input.FromText(text)
}

func writeBundles(ctx context.Context, a *app, result orchestrator.Result, dir string, rawFormats []string) error {
	formats := make([]bundle.Format, 0, len(rawFormats))
	for _, raw := range rawFormats {
		format, err := bundle.ParseFormat(raw)
		if err != nil {
			return err
		}
		formats = append(formats, format)
	}
	b, err := bundle.New(result, nil)
	if err != nil {
		return err
	}
	paths, err := bundle.WriteFiles(ctx, dir, b, formats...)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Fprintln(a.errOut, styles.Muted.Render("wrote "+path))
	}
	return nil
}
