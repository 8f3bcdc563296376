package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-journey360/pkg/bundle"
	"github.com/goliatone/go-journey360/pkg/jsonschema"
	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/render"
	"github.com/goliatone/go-journey360/pkg/testgen"
)

type exporter func(ctx context.Context, orch *orchestrator.Orchestrator, result orchestrator.Result) ([]byte, error)

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a project as OpenAPI, JSON Schema, Go tests, docs or a bundle",
	}
	cmd.PersistentFlags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")

	add := func(use, short string, fn exporter) *cobra.Command {
		sub := &cobra.Command{
			Use:   use + " <project-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				orch, err := a.orchestrator(ctx, false)
				if err != nil {
					return err
				}
				result, err := orch.Project(ctx, args[0])
				if err != nil {
					return err
				}
				data, err := fn(ctx, orch, result)
				if err != nil {
					return err
				}
				return writeOutput(a, out, data)
			},
		}
		cmd.AddCommand(sub)
		return sub
	}

	add("openapi", "OpenAPI 3 document for the mock API", func(ctx context.Context, _ *orchestrator.Orchestrator, result orchestrator.Result) ([]byte, error) {
		return mockapi.OpenAPIJSON(ctx, result.Schema, result.Endpoints)
	})

	add("jsonschema", "JSON Schema describing a valid submission", func(_ context.Context, _ *orchestrator.Orchestrator, result orchestrator.Result) ([]byte, error) {
		return json.MarshalIndent(jsonschema.FromForm(result.Schema), "", "  ")
	})

	var pkgName, previewPath string
	gotest := add("gotest", "Go test file exercising the mock API", func(_ context.Context, _ *orchestrator.Orchestrator, result orchestrator.Result) ([]byte, error) {
		var options []testgen.SourceOption
		if previewPath != "" {
			options = append(options, testgen.WithPreviewPath(previewPath))
		}
		return testgen.GoSource(pkgName, result.Schema, result.Tests, options...)
	})
	gotest.Flags().StringVar(&pkgName, "package", "formtest", "package clause of the generated file")
	gotest.Flags().StringVar(&previewPath, "preview-path", "", "path of the rendered form, enabling render checks")

	var baseURL string
	curl := add("curl", "cURL commands for every mock endpoint", func(_ context.Context, _ *orchestrator.Orchestrator, result orchestrator.Result) ([]byte, error) {
		examples := mockapi.CurlExamples(baseURL, result.Endpoints, testgen.ValidPayload(result.Schema))
		return []byte(strings.Join(examples, "\n\n") + "\n"), nil
	})
	curl.Flags().StringVar(&baseURL, "base-url", mockapi.DefaultBaseURL, "host prefixed to every path")

	var raw bool
	var width int
	docs := add("docs", "Markdown documentation of the mock API", func(_ context.Context, _ *orchestrator.Orchestrator, result orchestrator.Result) ([]byte, error) {
		markdown := mockapi.Docs(result.Endpoints)
		if raw || out != "" {
			return []byte(markdown), nil
		}
		return []byte(renderMarkdown(markdown, width)), nil
	})
	docs.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal styling")
	docs.Flags().IntVar(&width, "width", 100, "wrap width for terminal output")

	var formats []string
	var environment, deployURL, dir string
	bundleCmd := add("bundle", "Deployment bundle with schema, tests and mock API", func(ctx context.Context, _ *orchestrator.Orchestrator, result orchestrator.Result) ([]byte, error) {
		b, err := bundle.New(result, nil,
			bundle.WithEnvironment(environment),
			bundle.WithDeploymentURL(deployURL),
		)
		if err != nil {
			return nil, err
		}
		if dir != "" {
			parsed := make([]bundle.Format, 0, len(formats))
			for _, name := range formats {
				format, err := bundle.ParseFormat(name)
				if err != nil {
					return nil, err
				}
				parsed = append(parsed, format)
			}
			paths, err := bundle.WriteFiles(ctx, dir, b, parsed...)
			if err != nil {
				return nil, err
			}
			return []byte(strings.Join(paths, "\n") + "\n"), nil
		}
		format := bundle.FormatJSON
		if len(formats) > 0 {
			if format, err = bundle.ParseFormat(formats[0]); err != nil {
				return nil, err
			}
		}
		var buf strings.Builder
		if err := bundle.Encode(&buf, b, format); err != nil {
			return nil, err
		}
		return []byte(buf.String()), nil
	})
	bundleCmd.Flags().StringSliceVar(&formats, "format", []string{"json"}, "bundle formats: json, yaml")
	bundleCmd.Flags().StringVar(&environment, "environment", "", "deployment environment: development, staging or production")
	bundleCmd.Flags().StringVar(&deployURL, "url", "", "URL the mock API is deployed at; marks the bundle deployed")
	bundleCmd.Flags().StringVar(&dir, "dir", "", "write one file per format into this directory")

	var step int
	html := add("html", "Standalone HTML page of the form", func(ctx context.Context, orch *orchestrator.Orchestrator, result orchestrator.Result) ([]byte, error) {
		page, _, err := orch.Render(ctx, "", result.Schema, render.RenderOptions{Step: step})
		return page, err
	})
	html.Flags().IntVar(&step, "step", 0, "active wizard step")

	return cmd
}

func writeOutput(a *app, path string, data []byte) error {
	if path == "" {
		_, err := a.out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintln(a.errOut, styles.Muted.Render("wrote "+path))
	return nil
}
